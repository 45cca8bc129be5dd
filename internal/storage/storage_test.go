package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mathly/internal/database"
	"mathly/internal/graph"
	"mathly/internal/health"
	"mathly/internal/nutrition"
	"mathly/internal/solution"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, _ := newTestStoreDB(t)
	return store
}

func newTestStoreDB(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "mathly.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL), db.SQL
}

func testSolution(id string, at time.Time) solution.Solution {
	return solution.Solution{
		ID:              id,
		EquationID:      "2x+3=7",
		OriginalProblem: "2x+3=7",
		Type:            solution.TypeEquation,
		Steps: []solution.Step{
			{Index: 1, Description: "Subtract 3 from both sides", Calculation: "2x = 7 - 3", Result: "2x = 4"},
			{Index: 2, Description: "Divide by 2", Calculation: "x = 4 / 2", Result: "x = 2"},
		},
		FinalAnswer: "x=2",
		CreatedAt:   at,
	}
}

func TestStoreSolutions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := testSolution("s-1", base)
	newer := testSolution("s-2", base.Add(time.Second))
	newer.EquationID = "x^2=4"

	require.NoError(t, store.SaveSolution(ctx, older))
	require.NoError(t, store.SaveSolution(ctx, newer))

	t.Run("Get", func(t *testing.T) {
		got, err := store.Solution(ctx, "s-1")
		require.NoError(t, err)
		assert.Equal(t, older, got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Solution(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("RecentNewestFirst", func(t *testing.T) {
		got, err := store.RecentSolutions(ctx, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "s-2", got[0].ID)
		assert.Equal(t, "s-1", got[1].ID)

		limited, err := store.RecentSolutions(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("ForEquation", func(t *testing.T) {
		got, err := store.SolutionsForEquation(ctx, "2x+3=7")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "s-1", got[0].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.DeleteSolution(ctx, "s-1"))
		assert.ErrorIs(t, store.DeleteSolution(ctx, "s-1"), ErrNotFound)
	})
}

func TestStoreReadsLegacyAndCorruptRows(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStoreDB(t)

	_, err := db.Exec(`INSERT INTO solutions (id, equation_id, steps, final_answer, created_at)
		VALUES ('legacy', '2x=4', '1:Divide by 2:2x/2=4/2:x=2', 'x=2', 1000)`)
	require.NoError(t, err)

	got, err := store.Solution(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, solution.TypeEquation, got.Type)
	assert.Equal(t, "", got.OriginalProblem)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "x=2", got.Steps[0].Result)

	_, err = db.Exec(`INSERT INTO solutions (id, equation_id, steps, final_answer, created_at)
		VALUES ('broken', '2x=4', '1:Divide by 2', 'x=2', 2000)`)
	require.NoError(t, err)

	_, err = store.Solution(ctx, "broken")
	require.Error(t, err)
	var corrupt *CorruptRecordError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, "solutions", corrupt.Table)
	assert.Equal(t, "broken", corrupt.ID)
	assert.ErrorIs(t, err, ErrCorruptSteps)

	_, err = store.RecentSolutions(ctx, 10)
	assert.ErrorIs(t, err, ErrCorruptSteps)
}

func TestStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ch, unsubscribe := store.Subscribe()
	defer unsubscribe()

	require.NoError(t, store.SaveSolution(ctx, testSolution("a", time.Now().UTC())))
	require.NoError(t, store.SaveSolution(ctx, testSolution("b", time.Now().UTC())))

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending notification")
	}

	// Two writes coalesce into one signal.
	select {
	case <-ch:
		t.Fatal("expected notifications to coalesce")
	default:
	}

	unsubscribe()
	require.NoError(t, store.DeleteSolution(ctx, "a"))
	select {
	case <-ch:
		t.Fatal("unsubscribed channel must not be signalled")
	default:
	}
}

func TestStoreEquations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	eq := solution.Equation{ID: "e-1", Expression: "2x+3=7", Source: solution.SourceScanned, CreatedAt: time.UnixMilli(5000).UTC()}
	sol := testSolution("s-1", time.UnixMilli(6000).UTC())
	sol.EquationID = eq.ID
	require.NoError(t, store.SaveEquation(ctx, eq))
	require.NoError(t, store.SaveSolution(ctx, sol))
	require.NoError(t, store.SaveEquation(ctx, solution.Equation{ID: "e-2", Expression: "x=1", Source: solution.SourceManual, CreatedAt: time.UnixMilli(7000).UTC()}))

	got, err := store.RecentEquations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e-2", got[0].ID)
	assert.Equal(t, eq, got[1])

	sols, err := store.SolutionsForEquation(ctx, "e-1")
	require.NoError(t, err)
	require.Len(t, sols, 1)
	assert.Equal(t, "s-1", sols[0].ID)

	assert.Error(t, store.SaveEquation(ctx, eq), "duplicate id")
}

func TestStoreRecords(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStoreDB(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("BMI", func(t *testing.T) {
		rec := health.BMIRecord{ID: "b-1", HeightCm: 180, WeightKg: 75, BMI: 23.1, Category: health.CategoryNormal, CreatedAt: at}
		require.NoError(t, store.SaveBMIRecord(ctx, rec))

		got, err := store.RecentBMIRecords(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, []health.BMIRecord{rec}, got)
	})

	t.Run("Graph", func(t *testing.T) {
		g := graph.Graph{ID: "g-1", Expression: "x^2", XMin: -2, XMax: 2, CreatedAt: at}
		require.NoError(t, store.SaveGraph(ctx, g))

		got, err := store.Graph(ctx, "g-1")
		require.NoError(t, err)
		assert.Equal(t, g, got)

		_, err = store.Graph(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		list, err := store.RecentGraphs(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("Calories", func(t *testing.T) {
		a := nutrition.CaloriesAnalysis{
			ID:              "c-1",
			FoodDescription: "two eggs and toast",
			Breakdown: []nutrition.FoodItem{
				{Name: "Egg", Calories: 156, Serving: "2 large"},
				{Name: "Toast", Calories: 80, Serving: "1 slice"},
			},
			TotalCalories: 236,
			Exercises:     []nutrition.Exercise{{Name: "Walking", Duration: "45 min", CaloriesBurned: 200, Intensity: "moderate"}},
			CreatedAt:     at,
		}
		require.NoError(t, store.SaveCaloriesAnalysis(ctx, a))

		got, err := store.RecentCaloriesAnalyses(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []nutrition.CaloriesAnalysis{a}, got)
	})

	t.Run("CorruptCalories", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO calories_analyses (id, food_description, breakdown, total_calories, exercises, created_at)
			VALUES ('c-bad', 'x', 'not json', 0, '[]', 999999999999)`)
		require.NoError(t, err)

		_, err = store.RecentCaloriesAnalyses(ctx, 1)
		var corrupt *CorruptRecordError
		assert.True(t, errors.As(err, &corrupt))
	})
}
