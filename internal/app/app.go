package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mathly/internal/clipper"
	"mathly/internal/graph"
	"mathly/internal/health"
	"mathly/internal/llm"
	"mathly/internal/metrics"
	"mathly/internal/nutrition"
	"mathly/internal/solution"
	"mathly/internal/solver"
	"mathly/internal/storage"
)

// ErrRecognizerUnavailable is returned by SolveImage when no image
// recognizer is configured.
var ErrRecognizerUnavailable = errors.New("image recognition is not configured")

// DefaultGraphSamples is the number of points GraphPoints returns when the
// caller does not ask for a specific count.
const DefaultGraphSamples = 200

// Deps are the collaborators of an App. Recognizer, Clipper, Recorder and
// Metrics may be nil.
type Deps struct {
	Repository Repository
	Store      *storage.Store
	Recognizer llm.Recognizer
	Estimator  *nutrition.Estimator
	Clipper    *clipper.Clipper
	Recorder   *metrics.Recorder
	Metrics    *metrics.Store
	DataPath   string
	Logger     *zap.Logger
}

// App holds the application's dependencies.
type App struct {
	repo       Repository
	store      *storage.Store
	recognizer llm.Recognizer
	estimator  *nutrition.Estimator
	clipper    *clipper.Clipper
	recorder   *metrics.Recorder
	metrics    *metrics.Store
	dataPath   string
	logger     *zap.Logger
}

// NewApp creates and initializes a new App instance.
func NewApp(d Deps) *App {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		repo:       d.Repository,
		store:      d.Store,
		recognizer: d.Recognizer,
		estimator:  d.Estimator,
		clipper:    d.Clipper,
		recorder:   d.Recorder,
		metrics:    d.Metrics,
		dataPath:   d.DataPath,
		logger:     logger,
	}
}

// Repository exposes the solution repository.
func (a *App) Repository() Repository {
	return a.repo
}

func invalid(op string, err error) error {
	return &solver.Error{Kind: solver.KindValidation, Op: op, Err: err}
}

// SolveEquation records the equation, solves it and saves the solution.
// A fallback solution is saved like any other.
func (a *App) SolveEquation(ctx context.Context, expression string, source solution.Source) (solution.Solution, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return solution.Solution{}, invalid("solve equation", errors.New("equation is empty"))
	}

	eq, err := a.repo.SaveEquation(ctx, solution.NewEquation(expression, source))
	if err != nil {
		return solution.Solution{}, err
	}

	sol, err := a.repo.SolveEquation(ctx, eq)
	if err != nil {
		return solution.Solution{}, err
	}

	saved, err := a.repo.SaveSolution(ctx, sol)
	if err != nil {
		return solution.Solution{}, err
	}

	a.logger.Info("equation solved",
		zap.String("equation_id", eq.ID),
		zap.String("solution_id", saved.ID),
		zap.Int("steps", len(saved.Steps)),
	)
	return saved, nil
}

// SolveWordProblem solves problem and saves the embedded solution when the
// model produced one. The returned WordProblem is always populated; the error
// only reports input or persistence failures.
func (a *App) SolveWordProblem(ctx context.Context, problem string) (solution.WordProblem, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return solution.WordProblem{}, invalid("solve word problem", errors.New("problem is empty"))
	}

	wp := a.repo.SolveWordProblem(ctx, solution.WordProblem{Problem: problem})
	if wp.Solution == nil {
		return wp, nil
	}

	saved, err := a.repo.SaveSolution(ctx, *wp.Solution)
	if err != nil {
		return wp, err
	}
	wp.Solution = &saved
	return wp, nil
}

// SolveImage recognizes the equation in image and solves it as a scanned
// equation. Recognizer errors are returned unchanged.
func (a *App) SolveImage(ctx context.Context, image []byte, mimeType string) (solution.Solution, error) {
	if a.recognizer == nil {
		return solution.Solution{}, ErrRecognizerUnavailable
	}
	if len(image) == 0 {
		return solution.Solution{}, invalid("solve image", errors.New("image is empty"))
	}

	text, err := a.recognizer.RecognizeText(ctx, image, mimeType)
	if err != nil {
		return solution.Solution{}, err
	}
	if strings.TrimSpace(text) == "" {
		return solution.Solution{}, invalid("solve image", errors.New("no equation recognized in image"))
	}

	return a.SolveEquation(ctx, text, solution.SourceScanned)
}

// SolveURL clips the page at url and solves its text as a word problem.
func (a *App) SolveURL(ctx context.Context, url string) (solution.WordProblem, error) {
	if a.clipper == nil {
		return solution.WordProblem{}, errors.New("clipper is not configured")
	}
	text, err := a.clipper.Extract(ctx, url)
	if err != nil {
		if errors.Is(err, clipper.ErrNoText) {
			return solution.WordProblem{}, invalid("clip url", err)
		}
		return solution.WordProblem{}, &solver.Error{Kind: solver.KindTransport, Op: "clip url", Err: err}
	}
	return a.SolveWordProblem(ctx, text)
}

// History returns the newest solutions.
func (a *App) History(ctx context.Context, limit int) ([]solution.Solution, error) {
	return a.repo.ListSolutions(ctx, limit)
}

// Solution returns one stored solution.
func (a *App) Solution(ctx context.Context, id string) (solution.Solution, error) {
	return a.repo.Solution(ctx, id)
}

// DeleteSolution removes one stored solution.
func (a *App) DeleteSolution(ctx context.Context, id string) error {
	return a.repo.DeleteSolution(ctx, id)
}

// SolutionStream emits the newest solutions now and after every change until
// ctx is done.
func (a *App) SolutionStream(ctx context.Context, limit int) <-chan SolutionsSnapshot {
	return a.repo.RecentSolutions(ctx, limit)
}

// AnalyzeCalories estimates calories for description and stores the result.
func (a *App) AnalyzeCalories(ctx context.Context, description string) (nutrition.CaloriesAnalysis, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nutrition.CaloriesAnalysis{}, invalid("analyze calories", errors.New("food description is empty"))
	}

	res, err := a.estimator.Analyze(ctx, description)
	if err != nil {
		var pe *nutrition.ParseError
		if errors.As(err, &pe) {
			a.observe(ctx, "CALORIES", solver.OutcomeFallback, res)
			return nutrition.CaloriesAnalysis{}, &solver.Error{Kind: solver.KindParse, Op: "analyze calories", Err: err}
		}
		a.observe(ctx, "CALORIES", solver.OutcomeFailure, res)
		return nutrition.CaloriesAnalysis{}, &solver.Error{Kind: solver.KindTransport, Op: "analyze calories", Err: err}
	}
	a.observe(ctx, "CALORIES", solver.OutcomeSuccess, res)

	if err := a.store.SaveCaloriesAnalysis(ctx, res.Analysis); err != nil {
		return nutrition.CaloriesAnalysis{}, err
	}
	return res.Analysis, nil
}

func (a *App) observe(ctx context.Context, kind string, outcome solver.Outcome, res nutrition.Result) {
	if a.recorder != nil {
		a.recorder.Observe(ctx, kind, string(outcome), res.Meta)
	}
}

// CaloriesHistory returns the newest analyses.
func (a *App) CaloriesHistory(ctx context.Context, limit int) ([]nutrition.CaloriesAnalysis, error) {
	return a.store.RecentCaloriesAnalyses(ctx, limit)
}

// RecordBMI validates m, computes the BMI and stores the record.
func (a *App) RecordBMI(ctx context.Context, m health.Measurement) (health.BMIRecord, error) {
	rec, err := health.NewRecord(m)
	if err != nil {
		return health.BMIRecord{}, invalid("record bmi", err)
	}
	if err := a.store.SaveBMIRecord(ctx, rec); err != nil {
		return health.BMIRecord{}, err
	}
	return rec, nil
}

// BMIHistory returns the newest BMI records.
func (a *App) BMIHistory(ctx context.Context, limit int) ([]health.BMIRecord, error) {
	return a.store.RecentBMIRecords(ctx, limit)
}

// CreateGraph validates and stores a function to plot.
func (a *App) CreateGraph(ctx context.Context, expression string, xMin, xMax float64) (graph.Graph, error) {
	g, err := graph.New(expression, xMin, xMax)
	if err != nil {
		return graph.Graph{}, invalid("create graph", err)
	}
	if err := a.store.SaveGraph(ctx, g); err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

// GraphPoints samples a stored graph. n <= 0 uses DefaultGraphSamples.
func (a *App) GraphPoints(ctx context.Context, id string, n int) (graph.Graph, []graph.Point, error) {
	g, err := a.store.Graph(ctx, id)
	if err != nil {
		return graph.Graph{}, nil, err
	}
	if n <= 0 {
		n = DefaultGraphSamples
	}
	points, err := graph.Sample(g, n)
	if err != nil {
		return g, nil, fmt.Errorf("failed to sample graph %s: %w", id, err)
	}
	return g, points, nil
}

// Graphs returns the newest graphs.
func (a *App) Graphs(ctx context.Context, limit int) ([]graph.Graph, error) {
	return a.store.RecentGraphs(ctx, limit)
}

// Usage returns token usage per day for the last days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	if a.metrics == nil {
		return nil, nil
	}
	return a.metrics.DailyUsage(ctx, days)
}

// CleanupMetrics deletes execution metrics older than olderThanDays.
func (a *App) CleanupMetrics(ctx context.Context, olderThanDays int) (int64, error) {
	if a.metrics == nil {
		return 0, nil
	}
	n, err := a.metrics.Cleanup(ctx, olderThanDays)
	if err != nil {
		return 0, err
	}
	a.logger.Info("execution metrics cleaned up", zap.Int64("removed", n), zap.Int("older_than_days", olderThanDays))
	return n, nil
}

// SysHealth reports process and data directory statistics.
func (a *App) SysHealth() metrics.SysHealth {
	dir := a.dataPath
	if dir != "" {
		dir = filepath.Dir(dir)
	}
	return metrics.GetSysHealth(dir)
}
