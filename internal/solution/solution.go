// Package solution holds the domain values produced and consumed by the solver:
// equations, word problems and their step-by-step solutions.
package solution

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source tells how an equation entered the system.
type Source string

const (
	SourceScanned Source = "SCANNED"
	SourceManual  Source = "MANUAL"
)

// ProblemType tags what kind of input a Solution answers.
type ProblemType string

const (
	TypeEquation    ProblemType = "EQUATION"
	TypeWordProblem ProblemType = "WORD_PROBLEM"
)

// Equation is a user-submitted algebraic expression.
type Equation struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	CreatedAt  time.Time `json:"created_at"`
	Source     Source    `json:"source"`
}

// NewEquation creates an Equation with a fresh identifier.
func NewEquation(expression string, source Source) Equation {
	if source == "" {
		source = SourceManual
	}
	return Equation{
		ID:         uuid.NewString(),
		Expression: expression,
		CreatedAt:  time.Now().UTC(),
		Source:     source,
	}
}

// Step is one stage of a worked solution. Index is 1-based.
type Step struct {
	Index       int    `json:"stepNumber"`
	Description string `json:"description"`
	Calculation string `json:"calculation"`
	Result      string `json:"result"`
}

// IsBlank reports whether description, calculation and result are all blank.
func (s Step) IsBlank() bool {
	return strings.TrimSpace(s.Description) == "" &&
		strings.TrimSpace(s.Calculation) == "" &&
		strings.TrimSpace(s.Result) == ""
}

// Solution is a step-by-step answer. A re-solve produces a new Solution.
type Solution struct {
	ID              string      `json:"id"`
	EquationID      string      `json:"equationId"`
	OriginalProblem string      `json:"originalProblem"`
	Type            ProblemType `json:"type"`
	Steps           []Step      `json:"steps"`
	FinalAnswer     string      `json:"finalAnswer"`
	CreatedAt       time.Time   `json:"timestamp"`
}

// WordProblem is natural-language text that needs an equation extracted
// before it can be solved.
type WordProblem struct {
	Problem           string    `json:"problem"`
	ExtractedEquation string    `json:"extractedEquation,omitempty"`
	Solution          *Solution `json:"solution,omitempty"`
}
