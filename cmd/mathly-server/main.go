package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mathly/internal/app"
	"mathly/internal/config"
	"mathly/internal/httpapi"
	"mathly/internal/logging"
	"mathly/internal/metrics"
	"mathly/internal/profile"
	"mathly/internal/telegram"
)

const (
	shutdownTimeout      = 10 * time.Second
	maintenanceEvery     = time.Hour
	metricsRetentionDays = 30
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("server exiting")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// 2. Initialize the application and its storage
	collector := metrics.NewCollector("mathly")
	components, err := app.Wire(ctx, cfg, collector, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn("failed to release resources", zap.Error(err))
		}
	}()

	opts := httpapi.Options{
		Service:     components.App,
		Collector:   collector,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	}

	// 3. Optional profiles backed by Supabase
	if cfg.Supabase.Enabled() {
		backend, err := profile.NewSupabaseBackend(cfg.Supabase)
		if err != nil {
			return err
		}
		opts.Profiles = profile.NewService(backend, cfg.Supabase.JWTSecret, logger)
	} else {
		logger.Info("profiles disabled: SUPABASE_URL or SUPABASE_KEY not set")
	}

	// 4. Optional Telegram bot
	var bot *telegram.Bot
	sessions := telegram.NewSessionRepository(components.DB.SQL)
	if cfg.Telegram.Enabled() {
		api, err := telegram.NewBotAPI(cfg.Telegram, logger)
		if err != nil {
			return err
		}
		bot = telegram.New(api, components.App, sessions, cfg.Telegram, logger)
		if cfg.Telegram.WebhookURL != "" {
			opts.Webhook = bot.WebhookHandler()
		} else {
			go func() {
				if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("telegram polling stopped", zap.Error(err))
				}
			}()
		}
	} else {
		logger.Info("telegram bot disabled: TELEGRAM_BOT_TOKEN not set")
	}

	go maintain(ctx, components.App, sessions, logger)

	// 5. Start Server with Graceful Shutdown
	restAPI := httpapi.NewServer(opts)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           restAPI.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(restAPI.CloseStreams)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	if bot != nil {
		bot.SendAdminAlert("🚀 Mathly is up.")
	}

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(ctxShutdown)
	if bot != nil {
		bot.Wait()
	}
	return err
}

// maintain prunes expired chat sessions and old metric records until ctx
// is cancelled.
func maintain(ctx context.Context, a *app.App, sessions *telegram.SessionRepository, logger *zap.Logger) {
	ticker := time.NewTicker(maintenanceEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n, err := sessions.CleanupExpired(ctx); err != nil {
			logger.Warn("failed to clean up chat sessions", zap.Error(err))
		} else if n > 0 {
			logger.Debug("removed expired chat sessions", zap.Int64("count", n))
		}
		if n, err := a.CleanupMetrics(ctx, metricsRetentionDays); err != nil {
			logger.Warn("failed to clean up metrics", zap.Error(err))
		} else if n > 0 {
			logger.Info("removed old metric records", zap.Int64("count", n))
		}
	}
}
