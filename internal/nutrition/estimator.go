package nutrition

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"mathly/internal/llm"
	"mathly/internal/shared"

	"github.com/google/uuid"
)

//go:embed estimator_prompt.md
var estimatorPrompt string

var estimatorTmpl = template.Must(template.New("estimator").Parse(estimatorPrompt))

// ParseError reports a model answer that could not be decoded.
type ParseError struct {
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse calories response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result carries the analysis and the metadata of the model call.
type Result struct {
	Analysis CaloriesAnalysis
	Meta     shared.AgentMeta
}

// Estimator produces CaloriesAnalysis values.
type Estimator struct {
	textGen llm.TextGenerator
}

// NewEstimator creates a new Estimator.
func NewEstimator(textGen llm.TextGenerator) *Estimator {
	return &Estimator{textGen: textGen}
}

// Analyze asks the model for a calorie breakdown of description.
func (e *Estimator) Analyze(ctx context.Context, description string) (Result, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := estimatorTmpl.Execute(&buf, struct{ Description string }{description}); err != nil {
		return Result{}, fmt.Errorf("failed to build calories prompt: %w", err)
	}

	resp, err := e.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return Result{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: "CaloriesEstimator",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}

	analysis, err := ParseAnalysis(resp.Content, description)
	if err != nil {
		return Result{Meta: meta}, err
	}
	return Result{Analysis: analysis, Meta: meta}, nil
}

type rawAnalysis struct {
	FoodItems     []FoodItem `json:"foodItems"`
	TotalCalories float64    `json:"totalCalories"`
	Exercises     []Exercise `json:"exercises"`
}

// ParseAnalysis decodes the JSON object embedded in text. Food items and
// exercises without a name are dropped; a missing total is recomputed from
// the breakdown.
func ParseAnalysis(text, description string) (CaloriesAnalysis, error) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(text)), &raw); err != nil {
		return CaloriesAnalysis{}, &ParseError{Content: text, Err: err}
	}

	analysis := CaloriesAnalysis{
		ID:              uuid.NewString(),
		FoodDescription: description,
		Breakdown:       make([]FoodItem, 0, len(raw.FoodItems)),
		Exercises:       make([]Exercise, 0, len(raw.Exercises)),
		TotalCalories:   raw.TotalCalories,
		CreatedAt:       time.Now().UTC(),
	}

	var sum float64
	for _, item := range raw.FoodItems {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		sum += item.Calories
		analysis.Breakdown = append(analysis.Breakdown, item)
	}
	for _, ex := range raw.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			continue
		}
		analysis.Exercises = append(analysis.Exercises, ex)
	}

	if analysis.TotalCalories <= 0 {
		analysis.TotalCalories = math.Round(sum*10) / 10
	}
	return analysis, nil
}
