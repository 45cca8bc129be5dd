package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mathly/internal/app"
	"mathly/internal/config"
	"mathly/internal/logging"
)

var (
	configPath string
	dbPath     string
	jsonOutput bool
)

// newRootCmd builds the command tree. Flags are bound to package variables,
// so only one tree should run at a time.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mathly",
		Short: "Solve equations and word problems step by step",
		Long: `Mathly solves algebraic equations and word problems with a language model
and keeps a history of every solution, BMI record, calorie estimate and graph.

Secrets are read from the environment: LLM_API_KEY, GEMINI_API_KEY.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("MATHLY_CONFIG"), "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Override the database path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newSolveCmd(),
		newWordCmd(),
		newScanCmd(),
		newURLCmd(),
		newHistoryCmd(),
		newBMICmd(),
		newCaloriesCmd(),
		newGraphCmd(),
		newMigrateCmd(),
		newMetricsCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	return cfg, nil
}

// withApp wires the application for the duration of one command.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	components, err := app.Wire(cmd.Context(), cfg, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn("failed to release resources", zap.Error(err))
		}
	}()

	return fn(components.App)
}

// printResult writes v as indented JSON with --json, and text otherwise.
func printResult(cmd *cobra.Command, v interface{}, text func() string) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, text())
	return err
}
