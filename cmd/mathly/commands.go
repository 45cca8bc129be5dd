package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mathly/internal/app"
	"mathly/internal/config"
	"mathly/internal/database"
	"mathly/internal/graph"
	"mathly/internal/health"
	"mathly/internal/metrics"
	"mathly/internal/nutrition"
	"mathly/internal/solution"
)

const timeLayout = "2006-01-02 15:04"

func newSolveCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "solve <equation>",
		Short: "Solve an equation step by step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				sol, err := a.SolveEquation(cmd.Context(), strings.Join(args, " "), solution.Source(source))
				if err != nil {
					return err
				}
				return printResult(cmd, sol, func() string { return formatSolution(sol) })
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", string(solution.SourceManual), "How the equation was entered (MANUAL or SCANNED)")
	return cmd
}

func newWordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "word <problem>",
		Short: "Extract an equation from a word problem and solve it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				wp, err := a.SolveWordProblem(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printResult(cmd, wp, func() string { return formatWordProblem(wp) })
			})
		},
	}
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image-file>",
		Short: "Recognize an equation in a picture and solve it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			return withApp(cmd, func(a *app.App) error {
				sol, err := a.SolveImage(cmd.Context(), image, http.DetectContentType(image))
				if err != nil {
					return err
				}
				return printResult(cmd, sol, func() string { return formatSolution(sol) })
			})
		},
	}
}

func newURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <address>",
		Short: "Solve the word problem found on a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				wp, err := a.SolveURL(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, wp, func() string { return formatWordProblem(wp) })
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the newest solutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				sols, err := a.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printResult(cmd, sols, func() string { return formatHistory(sols) })
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of solutions to show")
	return cmd
}

func newBMICmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "bmi [height-cm weight-kg]",
		Short: "Record a BMI measurement, or list past ones with --list",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				if list {
					records, err := a.BMIHistory(cmd.Context(), 20)
					if err != nil {
						return err
					}
					return printResult(cmd, records, func() string { return formatBMIHistory(records) })
				}

				height, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("invalid height %q", args[0])
				}
				weight, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("invalid weight %q", args[1])
				}
				rec, err := a.RecordBMI(cmd.Context(), health.Measurement{HeightCm: height, WeightKg: weight})
				if err != nil {
					return err
				}
				return printResult(cmd, rec, func() string { return formatBMI(rec) })
			})
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List recorded measurements")
	return cmd
}

func newCaloriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calories <food description>",
		Short: "Estimate the calories of a meal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				analysis, err := a.AnalyzeCalories(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printResult(cmd, analysis, func() string { return formatCalories(analysis) })
			})
		},
	}
}

func newGraphCmd() *cobra.Command {
	var xMin, xMax float64
	var points int
	cmd := &cobra.Command{
		Use:   "graph <expression>",
		Short: "Store a function of x and print sampled points",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				g, err := a.CreateGraph(cmd.Context(), strings.Join(args, " "), xMin, xMax)
				if err != nil {
					return err
				}
				_, sampled, err := a.GraphPoints(cmd.Context(), g.ID, points)
				if err != nil {
					return err
				}
				result := struct {
					Graph  graph.Graph   `json:"graph"`
					Points []graph.Point `json:"points"`
				}{g, sampled}
				return printResult(cmd, result, func() string { return formatGraph(g, sampled) })
			})
		},
	}
	cmd.Flags().Float64Var(&xMin, "min", -10, "Lower bound of x")
	cmd.Flags().Float64Var(&xMax, "max", 10, "Upper bound of x")
	cmd.Flags().IntVar(&points, "points", 11, "Number of points to print")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var version uint
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Migrates the database to the latest schema, or to --version when given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := maintenanceDBPath()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(path, version, zap.NewNop()); err != nil {
				return err
			}
			current, err := database.SchemaVersion(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s is at schema version %d.\n", path, current)
			return nil
		},
	}
	cmd.Flags().UintVar(&version, "version", 0, "Target schema version (0 means latest)")
	return cmd
}

func newMetricsCmd() *cobra.Command {
	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Inspect and prune model usage records",
	}

	var days int
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Show token usage per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMetricsStore(func(store *metrics.Store) error {
				usage, err := store.DailyUsage(cmd.Context(), days)
				if err != nil {
					return err
				}
				return printResult(cmd, usage, func() string { return formatUsage(usage) })
			})
		},
	}
	usageCmd.Flags().IntVar(&days, "days", 7, "Number of days to show")

	var keep int
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old metric records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMetricsStore(func(store *metrics.Store) error {
				affected, err := store.Cleanup(cmd.Context(), keep)
				if err != nil {
					return fmt.Errorf("cleanup failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
				return nil
			})
		},
	}
	cleanupCmd.Flags().IntVar(&keep, "days", 30, "Keep records for the last N days")

	metricsCmd.AddCommand(usageCmd, cleanupCmd)
	return metricsCmd
}

func maintenanceDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	return config.LoadDatabasePath(configPath)
}

func withMetricsStore(fn func(store *metrics.Store) error) error {
	path, err := maintenanceDBPath()
	if err != nil {
		return err
	}
	db, err := database.NewDB(path, zap.NewNop())
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(metrics.NewStore(db.SQL))
}

func formatSolution(sol solution.Solution) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Problem: %s\n", sol.OriginalProblem)
	for _, s := range sol.Steps {
		fmt.Fprintf(&sb, "  %d. %s\n", s.Index, s.Description)
		if s.Calculation != "" {
			fmt.Fprintf(&sb, "     %s => %s\n", s.Calculation, s.Result)
		}
	}
	fmt.Fprintf(&sb, "Answer: %s", sol.FinalAnswer)
	return sb.String()
}

func formatWordProblem(wp solution.WordProblem) string {
	if wp.Solution == nil {
		if wp.ExtractedEquation != "" {
			return fmt.Sprintf("Could not solve the problem. Equation found: %s", wp.ExtractedEquation)
		}
		return "Could not solve the problem."
	}
	return fmt.Sprintf("Equation: %s\n%s", wp.ExtractedEquation, formatSolution(*wp.Solution))
}

func formatHistory(sols []solution.Solution) string {
	if len(sols) == 0 {
		return "No solutions yet."
	}
	var sb strings.Builder
	for _, s := range sols {
		fmt.Fprintf(&sb, "%s  %-30s  %s\n", s.CreatedAt.Format(timeLayout), s.OriginalProblem, s.FinalAnswer)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatBMI(rec health.BMIRecord) string {
	return fmt.Sprintf("BMI %.1f (%s)", rec.BMI, rec.Category)
}

func formatBMIHistory(records []health.BMIRecord) string {
	if len(records) == 0 {
		return "No BMI records yet."
	}
	var sb strings.Builder
	for _, r := range records {
		fmt.Fprintf(&sb, "%s  %.0f cm  %.1f kg  BMI %.1f (%s)\n",
			r.CreatedAt.Format(timeLayout), r.HeightCm, r.WeightKg, r.BMI, r.Category)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCalories(a nutrition.CaloriesAnalysis) string {
	var sb strings.Builder
	for _, f := range a.Breakdown {
		fmt.Fprintf(&sb, "  %s (%s): %.0f kcal\n", f.Name, f.Serving, f.Calories)
	}
	fmt.Fprintf(&sb, "Total: %.0f kcal", a.TotalCalories)
	for i, e := range a.Exercises {
		if i == 0 {
			sb.WriteString("\nTo burn it off:")
		}
		fmt.Fprintf(&sb, "\n  %s, %s: %.0f kcal", e.Name, e.Duration, e.CaloriesBurned)
	}
	return sb.String()
}

func formatGraph(g graph.Graph, points []graph.Point) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "y = %s on [%g, %g] (id %s)\n", g.Expression, g.XMin, g.XMax, g.ID)
	for _, p := range points {
		fmt.Fprintf(&sb, "  %10.4g  %10.4g\n", p.X, p.Y)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatUsage(usage []metrics.DailyUsage) string {
	if len(usage) == 0 {
		return "No usage recorded."
	}
	var sb strings.Builder
	for _, d := range usage {
		fmt.Fprintf(&sb, "%s  %d tokens (%d prompt, %d completion)  %d executions\n",
			d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
	}
	return strings.TrimRight(sb.String(), "\n")
}
