package solver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mathly/internal/llm"
	"mathly/internal/solution"

	"github.com/google/uuid"
)

// ParseFailurePrefix starts the final answer of every fallback Solution.
const ParseFailurePrefix = "Unable to parse response:"

const fallbackStepDescription = "The solution could not be read from the model response"

// stepIndex accepts both 3 and "3" since models are inconsistent about it.
type stepIndex int

func (s *stepIndex) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid stepNumber %s: %w", data, err)
	}
	*s = stepIndex(n)
	return nil
}

type rawStep struct {
	StepNumber  stepIndex `json:"stepNumber"`
	Description string    `json:"description"`
	Calculation string    `json:"calculation"`
	Result      string    `json:"result"`
}

type rawSolution struct {
	EquationID  string    `json:"equationId"`
	Steps       []rawStep `json:"steps"`
	FinalAnswer string    `json:"finalAnswer"`
}

type rawWordProblem struct {
	ExtractedEquation string       `json:"extractedEquation"`
	Solution          *rawSolution `json:"solution"`
}

// ParseSolution turns raw model text into a Solution for input. It never
// returns an empty value: when the payload does not decode, a fallback
// Solution is returned together with a KindParse *Error.
func ParseSolution(text, input string, typ solution.ProblemType) (solution.Solution, error) {
	var raw rawSolution
	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(text)), &raw); err != nil {
		return Fallback(input, typ, err), &Error{Kind: KindParse, Op: "parse solution", Err: err}
	}
	return raw.toSolution(input, input, typ), nil
}

// ParseWordProblem turns raw model text into a WordProblem for problem. On
// decode failure the returned WordProblem explains the failure in
// ExtractedEquation and carries no Solution.
func ParseWordProblem(text, problem string) (solution.WordProblem, error) {
	var raw rawWordProblem
	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(text)), &raw); err != nil {
		return solution.WordProblem{
			Problem:           problem,
			ExtractedEquation: fmt.Sprintf("%s %v", ParseFailurePrefix, err),
		}, &Error{Kind: KindParse, Op: "parse word problem", Err: err}
	}

	wp := solution.WordProblem{Problem: problem}
	if strings.TrimSpace(raw.ExtractedEquation) != "" {
		wp.ExtractedEquation = raw.ExtractedEquation
	}

	if raw.Solution != nil {
		defaultID := wp.ExtractedEquation
		if defaultID == "" {
			defaultID = problem
		}
		sol := raw.Solution.toSolution(defaultID, problem, solution.TypeWordProblem)
		if retain(*raw.Solution, sol) {
			wp.Solution = &sol
		}
	}
	return wp, nil
}

// Fallback synthesizes a displayable Solution for a response that could not
// be parsed.
func Fallback(input string, typ solution.ProblemType, cause error) solution.Solution {
	return solution.Solution{
		ID:              uuid.NewString(),
		EquationID:      input,
		OriginalProblem: input,
		Type:            typ,
		Steps: []solution.Step{{
			Index:       1,
			Description: fallbackStepDescription,
			Calculation: input,
		}},
		FinalAnswer: fmt.Sprintf("%s %v", ParseFailurePrefix, cause),
		CreatedAt:   time.Now().UTC(),
	}
}

func (r rawSolution) toSolution(defaultID, problem string, typ solution.ProblemType) solution.Solution {
	equationID := r.EquationID
	if strings.TrimSpace(equationID) == "" {
		equationID = defaultID
	}

	steps := make([]solution.Step, 0, len(r.Steps))
	for _, rs := range r.Steps {
		step := solution.Step{
			Index:       int(rs.StepNumber),
			Description: rs.Description,
			Calculation: rs.Calculation,
			Result:      rs.Result,
		}
		if step.IsBlank() {
			continue
		}
		if step.Index <= 0 {
			step.Index = len(steps) + 1
		}
		steps = append(steps, step)
	}

	return solution.Solution{
		ID:              uuid.NewString(),
		EquationID:      equationID,
		OriginalProblem: problem,
		Type:            typ,
		Steps:           steps,
		FinalAnswer:     r.FinalAnswer,
		CreatedAt:       time.Now().UTC(),
	}
}

// retain applies the retention rule for embedded word-problem solutions: the
// model's own equationId, the non-blank steps or the final answer must carry
// something. The defaulted equationId does not count.
func retain(raw rawSolution, parsed solution.Solution) bool {
	return strings.TrimSpace(raw.EquationID) != "" ||
		len(parsed.Steps) > 0 ||
		strings.TrimSpace(parsed.FinalAnswer) != ""
}
