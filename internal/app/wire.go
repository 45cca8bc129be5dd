package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mathly/internal/clipper"
	"mathly/internal/config"
	"mathly/internal/database"
	"mathly/internal/llm"
	"mathly/internal/metrics"
	"mathly/internal/nutrition"
	"mathly/internal/solver"
	"mathly/internal/storage"
)

// Components is a wired App together with the resources it owns.
type Components struct {
	App     *App
	DB      *database.DB
	closers []func() error
}

// Close releases the resources in reverse order of acquisition.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// Wire opens the database and builds every collaborator of the App.
// collector may be nil. Image recognition is enabled only when a Gemini key
// is configured.
func Wire(ctx context.Context, cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (*Components, error) {
	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c := &Components{DB: db, closers: []func() error{db.Close}}

	store := storage.NewStore(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)
	recorder := metrics.NewRecorder(collector, metricsStore, logger)

	textGen := llm.NewChatClient(cfg)
	gateway := solver.NewGateway(textGen, logger, recorder)

	var recognizer llm.Recognizer
	if cfg.Gemini.Enabled() {
		gemini, err := llm.NewGeminiRecognizer(ctx, cfg)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.closers = append(c.closers, gemini.Close)
		recognizer = gemini
	} else {
		logger.Info("image recognition disabled: GEMINI_API_KEY not set")
	}

	c.App = NewApp(Deps{
		Repository: NewSolutionRepository(gateway, store, logger),
		Store:      store,
		Recognizer: recognizer,
		Estimator:  nutrition.NewEstimator(textGen),
		Clipper:    clipper.NewClipper(nil),
		Recorder:   recorder,
		Metrics:    metricsStore,
		DataPath:   cfg.DatabasePath,
		Logger:     logger,
	})
	return c, nil
}
