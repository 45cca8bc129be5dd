// Package graph stores plotted functions and samples them for a chart.
package graph

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
)

// MaxSamples bounds the number of points Sample produces.
const MaxSamples = 2000

// ErrInvalidRange is returned when XMin is not below XMax.
var ErrInvalidRange = errors.New("xMin must be less than xMax")

// Graph is a function of x plotted over [XMin, XMax].
type Graph struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	XMin       float64   `json:"xMin"`
	XMax       float64   `json:"xMax"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Point is one sampled coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// numberLiteral matches a whole literal, exponent included, so 1e3 stays a
// number while 2x and 3(x+1) gain an implicit multiplication.
var numberLiteral = regexp.MustCompile(`(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

func env(x float64) map[string]any {
	return map[string]any{
		"x":    x,
		"pi":   math.Pi,
		"e":    math.E,
		"sin":  math.Sin,
		"cos":  math.Cos,
		"tan":  math.Tan,
		"asin": math.Asin,
		"acos": math.Acos,
		"atan": math.Atan,
		"sqrt": math.Sqrt,
		"exp":  math.Exp,
		"ln":   math.Log,
		"log":  math.Log10,
	}
}

// New validates the expression and range and returns a Graph.
func New(expression string, xMin, xMax float64) (Graph, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return Graph{}, errors.New("expression is required")
	}
	if !(xMin < xMax) {
		return Graph{}, ErrInvalidRange
	}
	if _, err := compile(expression); err != nil {
		return Graph{}, err
	}
	return Graph{
		ID:         uuid.NewString(),
		Expression: expression,
		XMin:       xMin,
		XMax:       xMax,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Sample evaluates g at n evenly spaced x values including both ends.
// Points where the function is undefined or not finite are skipped.
func Sample(g Graph, n int) ([]Point, error) {
	if n < 2 {
		n = 2
	}
	if n > MaxSamples {
		n = MaxSamples
	}
	if !(g.XMin < g.XMax) {
		return nil, ErrInvalidRange
	}

	program, err := compile(g.Expression)
	if err != nil {
		return nil, err
	}

	step := (g.XMax - g.XMin) / float64(n-1)
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		x := g.XMin + float64(i)*step
		if i == n-1 {
			x = g.XMax
		}
		out, err := expr.Run(program, env(x))
		if err != nil {
			continue
		}
		y, ok := toFloat(out)
		if !ok || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points, nil
}

func compile(expression string) (*vm.Program, error) {
	normalized := insertImplicitMul(expression)
	program, err := expr.Compile(normalized, expr.Env(env(0)))
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expression, err)
	}
	return program, nil
}

func insertImplicitMul(expression string) string {
	var sb strings.Builder
	last := 0
	for _, loc := range numberLiteral.FindAllStringIndex(expression, -1) {
		start, end := loc[0], loc[1]
		sb.WriteString(expression[last:end])
		last = end
		// digits inside a name such as x2 are not literals
		if start > 0 && isNameChar(expression[start-1]) {
			continue
		}
		if end < len(expression) && (expression[end] == '(' || isLetter(expression[end])) {
			sb.WriteByte('*')
		}
	}
	sb.WriteString(expression[last:])
	return sb.String()
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isLetter(c) || c == '_'
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
