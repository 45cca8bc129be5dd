package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mathly/internal/llm"
	"mathly/internal/shared"
	"mathly/internal/solution"

	"go.uber.org/zap"
)

// Outcome describes how a solve call ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailure  Outcome = "failure"
)

// Observer receives one notification per solve call.
type Observer interface {
	ObserveSolve(ctx context.Context, typ solution.ProblemType, outcome Outcome, meta shared.AgentMeta)
}

// Gateway sends built prompts to the completion endpoint and parses the
// answers into solutions.
type Gateway struct {
	textGen  llm.TextGenerator
	logger   *zap.Logger
	observer Observer
}

// NewGateway creates a Gateway. observer may be nil.
func NewGateway(textGen llm.TextGenerator, logger *zap.Logger, observer Observer) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{textGen: textGen, logger: logger, observer: observer}
}

// SolveEquation returns a Solution or a *Error. Transport failures are
// returned as KindTransport errors. A response that cannot be parsed yields a
// fallback Solution and a nil error.
func (g *Gateway) SolveEquation(ctx context.Context, eq solution.Equation) (solution.Solution, error) {
	prompt, err := BuildEquationPrompt(eq.Expression)
	if err != nil {
		return solution.Solution{}, &Error{Kind: KindValidation, Op: "build equation prompt", Err: err}
	}

	content, meta, err := g.generate(ctx, "EquationSolver", prompt)
	if err != nil {
		g.logger.Error("equation solve failed",
			zap.String("equation_id", eq.ID),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
		g.observe(ctx, solution.TypeEquation, OutcomeFailure, meta)
		return solution.Solution{}, err
	}

	sol, perr := ParseSolution(content, eq.Expression, solution.TypeEquation)
	if perr != nil {
		g.logger.Warn("equation response not parseable, using fallback",
			zap.String("equation_id", eq.ID),
			zap.String("kind", string(KindOf(perr))),
			zap.Error(perr),
		)
		g.observe(ctx, solution.TypeEquation, OutcomeFallback, meta)
		return sol, nil
	}

	g.observe(ctx, solution.TypeEquation, OutcomeSuccess, meta)
	return sol, nil
}

// SolveWordProblem always returns a populated WordProblem. Failures are
// described in ExtractedEquation and the Solution is left nil.
func (g *Gateway) SolveWordProblem(ctx context.Context, wp solution.WordProblem) solution.WordProblem {
	prompt, err := BuildWordProblemPrompt(wp.Problem)
	if err != nil {
		return degraded(wp.Problem, err)
	}

	content, meta, err := g.generate(ctx, "WordProblemSolver", prompt)
	if err != nil {
		g.logger.Error("word problem solve failed",
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
		g.observe(ctx, solution.TypeWordProblem, OutcomeFailure, meta)
		return degraded(wp.Problem, err)
	}

	solved, perr := ParseWordProblem(content, wp.Problem)
	if perr != nil {
		g.logger.Warn("word problem response not parseable",
			zap.String("kind", string(KindOf(perr))),
			zap.Error(perr),
		)
		g.observe(ctx, solution.TypeWordProblem, OutcomeFallback, meta)
		return solved
	}

	g.observe(ctx, solution.TypeWordProblem, OutcomeSuccess, meta)
	return solved
}

// generate calls the model. An empty model answer is handed to the parser
// as empty text so it takes the fallback path.
func (g *Gateway) generate(ctx context.Context, agent, prompt string) (string, shared.AgentMeta, error) {
	start := time.Now()
	resp, err := g.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{
		AgentName: agent,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if errors.Is(err, llm.ErrEmptyResponse) {
		return "", meta, nil
	}
	if err != nil {
		return "", meta, &Error{Kind: KindTransport, Op: "generate " + agent, Err: err}
	}
	return resp.Content, meta, nil
}

func (g *Gateway) observe(ctx context.Context, typ solution.ProblemType, outcome Outcome, meta shared.AgentMeta) {
	if g.observer != nil {
		g.observer.ObserveSolve(ctx, typ, outcome, meta)
	}
}

func degraded(problem string, err error) solution.WordProblem {
	return solution.WordProblem{
		Problem:           problem,
		ExtractedEquation: fmt.Sprintf("Error: %v", err),
	}
}
