package nutrition

import (
	"context"
	"errors"
	"testing"

	"mathly/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTextGenerator struct {
	Response string
	Err      error
	Prompt   string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompt = prompt
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{Content: m.Response}, nil
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gen := &MockTextGenerator{Response: `Sure: {
			"foodItems": [
				{"name": "Banana", "calories": 105, "serving": "1 medium"},
				{"name": "Peanut butter", "calories": 190, "serving": "2 tbsp"}
			],
			"totalCalories": 295,
			"exercises": [{"name": "Running", "duration": "25 minutes", "caloriesBurned": 295, "intensity": "high"}]
		}`}
		res, err := NewEstimator(gen).Analyze(ctx, "a banana with peanut butter")
		require.NoError(t, err)

		assert.Contains(t, gen.Prompt, "a banana with peanut butter")
		a := res.Analysis
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, "a banana with peanut butter", a.FoodDescription)
		require.Len(t, a.Breakdown, 2)
		assert.Equal(t, "Banana", a.Breakdown[0].Name)
		assert.Equal(t, "Peanut butter", a.Breakdown[1].Name)
		assert.InDelta(t, 295, a.TotalCalories, 1e-9)
		require.Len(t, a.Exercises, 1)
		assert.Equal(t, "high", a.Exercises[0].Intensity)
		assert.Equal(t, "CaloriesEstimator", res.Meta.AgentName)
	})

	t.Run("ModelError", func(t *testing.T) {
		gen := &MockTextGenerator{Err: errors.New("boom")}
		_, err := NewEstimator(gen).Analyze(ctx, "toast")
		require.Error(t, err)
	})

	t.Run("Unparseable", func(t *testing.T) {
		gen := &MockTextGenerator{Response: "about 300 calories"}
		_, err := NewEstimator(gen).Analyze(ctx, "toast")
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "about 300 calories", perr.Content)
	})
}

func TestParseAnalysisRecomputesTotal(t *testing.T) {
	a, err := ParseAnalysis(`{"foodItems": [{"name": "Egg", "calories": 78}, {"name": "", "calories": 500}, {"name": "Toast", "calories": 80.5}]}`, "breakfast")
	require.NoError(t, err)
	assert.Len(t, a.Breakdown, 2)
	assert.InDelta(t, 158.5, a.TotalCalories, 1e-9)
	assert.Empty(t, a.Exercises)
}
