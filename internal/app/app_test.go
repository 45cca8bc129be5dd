package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mathly/internal/clipper"
	"mathly/internal/database"
	"mathly/internal/health"
	"mathly/internal/llm"
	"mathly/internal/metrics"
	"mathly/internal/nutrition"
	"mathly/internal/shared"
	"mathly/internal/solution"
	"mathly/internal/solver"
	"mathly/internal/storage"
)

// MockTextGenerator answers every prompt through Respond.
type MockTextGenerator struct {
	mu      sync.Mutex
	Respond func(prompt string) (string, error)
	Prompts []string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	content, err := m.Respond(prompt)
	if err != nil {
		return llm.ContentResponse{}, err
	}
	return llm.ContentResponse{
		Content: content,
		Usage:   shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, Model: "mock"},
	}, nil
}

type MockRecognizer struct {
	Text string
	Err  error
}

func (m *MockRecognizer) RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error) {
	return m.Text, m.Err
}

const linearResponse = `Here you go:
{
  "equationId": "2x+3=7",
  "steps": [
    {"stepNumber": 1, "description": "Subtract 3 from both sides", "calculation": "2x + 3 - 3 = 7 - 3", "result": "2x = 4"},
    {"stepNumber": 2, "description": "Divide both sides by 2", "calculation": "2x / 2 = 4 / 2", "result": "x = 2"}
  ],
  "finalAnswer": "x=2"
}`

const wordResponse = `{
  "extractedEquation": "2w + 2(w+2) = 16",
  "solution": {
    "equationId": "2w + 2(w+2) = 16",
    "steps": [{"stepNumber": 1, "description": "Combine like terms", "calculation": "4w + 4 = 16", "result": "w = 3"}],
    "finalAnswer": "width 3 m, length 5 m"
  }
}`

const caloriesResponse = `{"foodItems": [{"name": "Egg", "calories": 78, "serving": "1 large"}, {"name": "", "calories": 5}], "totalCalories": 0,
 "exercises": [{"name": "Walking", "duration": "20 min", "caloriesBurned": 80, "intensity": "low"}]}`

type fixture struct {
	app      *App
	store    *storage.Store
	gen      *MockTextGenerator
	recorder *metrics.Recorder
	metrics  *metrics.Store
}

func newFixture(t *testing.T, respond func(prompt string) (string, error), recognizer llm.Recognizer) fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mathly.db")
	db, err := database.NewDB(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewStore(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)
	recorder := metrics.NewRecorder(metrics.NewCollector("mathly_test"), metricsStore, zap.NewNop())
	gen := &MockTextGenerator{Respond: respond}
	gateway := solver.NewGateway(gen, zap.NewNop(), recorder)

	a := NewApp(Deps{
		Repository: NewSolutionRepository(gateway, store, zap.NewNop()),
		Store:      store,
		Recognizer: recognizer,
		Estimator:  nutrition.NewEstimator(gen),
		Clipper:    clipper.NewClipper(nil),
		Recorder:   recorder,
		Metrics:    metricsStore,
		DataPath:   path,
		Logger:     zap.NewNop(),
	})
	return fixture{app: a, store: store, gen: gen, recorder: recorder, metrics: metricsStore}
}

func reply(content string) func(string) (string, error) {
	return func(string) (string, error) { return content, nil }
}

func TestAppSolveEquation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reply(linearResponse), nil)

	sol, err := f.app.SolveEquation(ctx, " 2x+3=7 ", solution.SourceManual)
	require.NoError(t, err)
	assert.NotEmpty(t, sol.ID)
	assert.Equal(t, "x=2", sol.FinalAnswer)
	require.Len(t, sol.Steps, 2)
	assert.Contains(t, strings.ToLower(sol.Steps[0].Description), "subtract")
	assert.Contains(t, f.gen.Prompts[0], "2x+3=7")

	history, err := f.app.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sol, history[0])

	equations, err := f.app.Repository().Equations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, equations, 1)
	assert.Equal(t, "2x+3=7", equations[0].Expression)
	assert.Equal(t, solution.SourceManual, equations[0].Source)

	byEquation, err := f.app.Repository().SolutionsForEquation(ctx, "2x+3=7")
	require.NoError(t, err)
	assert.Len(t, byEquation, 1)

	usage, err := f.app.Usage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].TotalExecution)
}

func TestAppSolveEquationFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		f := newFixture(t, reply(linearResponse), nil)
		_, err := f.app.SolveEquation(ctx, "   ", solution.SourceManual)
		assert.Equal(t, solver.KindValidation, solver.KindOf(err))
		assert.Empty(t, f.gen.Prompts)
	})

	t.Run("Transport", func(t *testing.T) {
		timeout := context.DeadlineExceeded
		f := newFixture(t, func(string) (string, error) { return "", timeout }, nil)

		_, err := f.app.SolveEquation(ctx, "2x+3=7", solution.SourceManual)
		require.Error(t, err)
		assert.ErrorIs(t, err, timeout)
		assert.Equal(t, solver.KindTransport, solver.KindOf(err))

		history, err := f.app.History(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, history, "nothing is saved when the call fails")
	})

	t.Run("FallbackIsSaved", func(t *testing.T) {
		f := newFixture(t, reply("x is two"), nil)

		sol, err := f.app.SolveEquation(ctx, "2x+3=7", solution.SourceManual)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sol.FinalAnswer, solver.ParseFailurePrefix))

		got, err := f.app.Repository().Solution(ctx, sol.ID)
		require.NoError(t, err)
		assert.Equal(t, sol.FinalAnswer, got.FinalAnswer)
	})
}

func TestAppSolveWordProblem(t *testing.T) {
	ctx := context.Background()

	t.Run("SavesEmbeddedSolution", func(t *testing.T) {
		f := newFixture(t, reply(wordResponse), nil)
		problem := "A rectangle is 2 m longer than wide with perimeter 16 m."

		wp, err := f.app.SolveWordProblem(ctx, problem)
		require.NoError(t, err)
		assert.Equal(t, "2w + 2(w+2) = 16", wp.ExtractedEquation)
		require.NotNil(t, wp.Solution)
		assert.Equal(t, solution.TypeWordProblem, wp.Solution.Type)
		assert.Equal(t, problem, wp.Solution.OriginalProblem)

		stored, err := f.app.Repository().Solution(ctx, wp.Solution.ID)
		require.NoError(t, err)
		assert.Equal(t, *wp.Solution, stored)
	})

	t.Run("DegradedIsNotSaved", func(t *testing.T) {
		f := newFixture(t, func(string) (string, error) { return "", errors.New("connection refused") }, nil)

		wp, err := f.app.SolveWordProblem(ctx, "Some problem")
		require.NoError(t, err)
		assert.Nil(t, wp.Solution)
		assert.Contains(t, wp.ExtractedEquation, "connection refused")

		history, err := f.app.History(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestAppSolveImage(t *testing.T) {
	ctx := context.Background()

	t.Run("Scanned", func(t *testing.T) {
		f := newFixture(t, reply(linearResponse), &MockRecognizer{Text: "2x+3=7\n"})

		sol, err := f.app.SolveImage(ctx, []byte{0x89, 'P', 'N', 'G'}, "image/png")
		require.NoError(t, err)
		assert.Equal(t, "x=2", sol.FinalAnswer)

		equations, err := f.app.Repository().Equations(ctx, 1)
		require.NoError(t, err)
		require.Len(t, equations, 1)
		assert.Equal(t, solution.SourceScanned, equations[0].Source)
		assert.Equal(t, "2x+3=7", equations[0].Expression)
	})

	t.Run("RecognizerError", func(t *testing.T) {
		boom := errors.New("vision unavailable")
		f := newFixture(t, reply(linearResponse), &MockRecognizer{Err: boom})

		_, err := f.app.SolveImage(ctx, []byte{1}, "image/png")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("NoRecognizer", func(t *testing.T) {
		f := newFixture(t, reply(linearResponse), nil)

		_, err := f.app.SolveImage(ctx, []byte{1}, "image/png")
		assert.ErrorIs(t, err, ErrRecognizerUnavailable)
	})

	t.Run("NothingRecognized", func(t *testing.T) {
		f := newFixture(t, reply(linearResponse), &MockRecognizer{Text: "  "})

		_, err := f.app.SolveImage(ctx, []byte{1}, "image/png")
		assert.Equal(t, solver.KindValidation, solver.KindOf(err))
	})
}

func TestAppSolveURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><article>A rectangle is 2 m longer than wide with perimeter 16 m.</article></body></html>"))
	}))
	defer ts.Close()

	f := newFixture(t, reply(wordResponse), nil)
	wp, err := f.app.SolveURL(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "A rectangle is 2 m longer than wide with perimeter 16 m.", wp.Problem)
	assert.NotNil(t, wp.Solution)
}

func TestAppCalories(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t, reply(caloriesResponse), nil)

		a, err := f.app.AnalyzeCalories(ctx, "one egg")
		require.NoError(t, err)
		assert.Len(t, a.Breakdown, 1)
		assert.Equal(t, 78.0, a.TotalCalories)

		history, err := f.app.CaloriesHistory(ctx, 5)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, a.ID, history[0].ID)
	})

	t.Run("ParseFailure", func(t *testing.T) {
		f := newFixture(t, reply("about 80 calories"), nil)

		_, err := f.app.AnalyzeCalories(ctx, "one egg")
		assert.Equal(t, solver.KindParse, solver.KindOf(err))
	})

	t.Run("Transport", func(t *testing.T) {
		f := newFixture(t, func(string) (string, error) { return "", &llm.StatusError{StatusCode: 503} }, nil)

		_, err := f.app.AnalyzeCalories(ctx, "one egg")
		assert.Equal(t, solver.KindTransport, solver.KindOf(err))
	})
}

func TestAppBMI(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reply(""), nil)

	_, err := f.app.RecordBMI(ctx, health.Measurement{HeightCm: 0, WeightKg: 70})
	assert.Equal(t, solver.KindValidation, solver.KindOf(err))

	rec, err := f.app.RecordBMI(ctx, health.Measurement{HeightCm: 180, WeightKg: 81})
	require.NoError(t, err)
	assert.Equal(t, 25.0, rec.BMI)
	assert.Equal(t, health.CategoryOverweight, rec.Category)

	history, err := f.app.BMIHistory(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []health.BMIRecord{rec}, history)
}

func TestAppGraphs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reply(""), nil)

	_, err := f.app.CreateGraph(ctx, "x^2", 2, 1)
	assert.Equal(t, solver.KindValidation, solver.KindOf(err))

	g, err := f.app.CreateGraph(ctx, "x^2", -1, 1)
	require.NoError(t, err)

	got, points, err := f.app.GraphPoints(ctx, g.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, g, got)
	require.Len(t, points, 3)
	assert.InDelta(t, 1.0, points[0].Y, 1e-9)
	assert.InDelta(t, 0.0, points[1].Y, 1e-9)

	_, points, err = f.app.GraphPoints(ctx, g.ID, 0)
	require.NoError(t, err)
	assert.Len(t, points, DefaultGraphSamples)

	_, _, err = f.app.GraphPoints(ctx, "missing", 3)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	graphs, err := f.app.Graphs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, graphs, 1)
}

func TestAppMetricsMaintenance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reply(linearResponse), nil)

	_, err := f.app.SolveEquation(ctx, "2x+3=7", solution.SourceManual)
	require.NoError(t, err)

	removed, err := f.app.CleanupMetrics(ctx, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)

	h := f.app.SysHealth()
	assert.Positive(t, h.Goroutines)
	assert.NotEqual(t, "0 B", h.DataDiskSize)
}
