// Package app wires the solver, persistence and auxiliary services into the
// operations the front-ends call.
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mathly/internal/solution"
)

// Solver produces solutions from the model.
type Solver interface {
	SolveEquation(ctx context.Context, eq solution.Equation) (solution.Solution, error)
	SolveWordProblem(ctx context.Context, wp solution.WordProblem) solution.WordProblem
}

// SolutionStore is the persistence the repository writes through.
type SolutionStore interface {
	SaveSolution(ctx context.Context, sol solution.Solution) error
	Solution(ctx context.Context, id string) (solution.Solution, error)
	RecentSolutions(ctx context.Context, limit int) ([]solution.Solution, error)
	SolutionsForEquation(ctx context.Context, equationID string) ([]solution.Solution, error)
	DeleteSolution(ctx context.Context, id string) error
	SaveEquation(ctx context.Context, eq solution.Equation) error
	RecentEquations(ctx context.Context, limit int) ([]solution.Equation, error)
	Subscribe() (<-chan struct{}, func())
}

// SolutionsSnapshot is one emission of the live solution history.
type SolutionsSnapshot struct {
	Solutions []solution.Solution
	Err       error
}

// Repository is the contract the presentation layer consumes.
type Repository interface {
	SolveEquation(ctx context.Context, eq solution.Equation) (solution.Solution, error)
	SolveWordProblem(ctx context.Context, wp solution.WordProblem) solution.WordProblem
	SaveSolution(ctx context.Context, sol solution.Solution) (solution.Solution, error)
	RecentSolutions(ctx context.Context, limit int) <-chan SolutionsSnapshot
	ListSolutions(ctx context.Context, limit int) ([]solution.Solution, error)
	Solution(ctx context.Context, id string) (solution.Solution, error)
	SolutionsForEquation(ctx context.Context, equationID string) ([]solution.Solution, error)
	DeleteSolution(ctx context.Context, id string) error
	SaveEquation(ctx context.Context, eq solution.Equation) (solution.Equation, error)
	Equations(ctx context.Context, limit int) ([]solution.Equation, error)
}

// SolutionRepository implements Repository on a Solver and a SolutionStore.
type SolutionRepository struct {
	solver Solver
	store  SolutionStore
	clock  *stampClock
	logger *zap.Logger
}

var _ Repository = (*SolutionRepository)(nil)

// NewSolutionRepository creates a SolutionRepository.
func NewSolutionRepository(solver Solver, store SolutionStore, logger *zap.Logger) *SolutionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SolutionRepository{
		solver: solver,
		store:  store,
		clock:  newStampClock(nil),
		logger: logger,
	}
}

// SolveEquation asks the model for a step-by-step solution. Nothing is saved.
func (r *SolutionRepository) SolveEquation(ctx context.Context, eq solution.Equation) (solution.Solution, error) {
	return r.solver.SolveEquation(ctx, eq)
}

// SolveWordProblem never fails; see solver.Gateway.SolveWordProblem.
func (r *SolutionRepository) SolveWordProblem(ctx context.Context, wp solution.WordProblem) solution.WordProblem {
	return r.solver.SolveWordProblem(ctx, wp)
}

// SaveSolution assigns an identifier when sol has none, stamps it with the
// save time and writes it. The stored value is returned.
func (r *SolutionRepository) SaveSolution(ctx context.Context, sol solution.Solution) (solution.Solution, error) {
	if sol.ID == "" {
		sol.ID = uuid.NewString()
	}
	if sol.Type == "" {
		sol.Type = solution.TypeEquation
	}
	sol.CreatedAt = r.clock.Stamp()

	if err := r.store.SaveSolution(ctx, sol); err != nil {
		return solution.Solution{}, fmt.Errorf("failed to save solution: %w", err)
	}
	return sol, nil
}

// RecentSolutions streams the newest-first solution history. The current
// list is sent immediately and again after every change to the store. The
// channel is closed once ctx is done.
func (r *SolutionRepository) RecentSolutions(ctx context.Context, limit int) <-chan SolutionsSnapshot {
	out := make(chan SolutionsSnapshot)
	// Subscribe before the first read so no change between the two is lost.
	changes, unsubscribe := r.store.Subscribe()

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			sols, err := r.store.RecentSolutions(ctx, limit)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				r.logger.Warn("failed to read solution history", zap.Error(err))
			}

			select {
			case out <- SolutionsSnapshot{Solutions: sols, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// ListSolutions returns one snapshot of the newest-first history.
func (r *SolutionRepository) ListSolutions(ctx context.Context, limit int) ([]solution.Solution, error) {
	return r.store.RecentSolutions(ctx, limit)
}

func (r *SolutionRepository) Solution(ctx context.Context, id string) (solution.Solution, error) {
	return r.store.Solution(ctx, id)
}

func (r *SolutionRepository) SolutionsForEquation(ctx context.Context, equationID string) ([]solution.Solution, error) {
	return r.store.SolutionsForEquation(ctx, equationID)
}

func (r *SolutionRepository) DeleteSolution(ctx context.Context, id string) error {
	return r.store.DeleteSolution(ctx, id)
}

// SaveEquation stores a submitted equation, filling in a missing identifier,
// creation time and source.
func (r *SolutionRepository) SaveEquation(ctx context.Context, eq solution.Equation) (solution.Equation, error) {
	if eq.ID == "" {
		eq.ID = uuid.NewString()
	}
	if eq.CreatedAt.IsZero() {
		eq.CreatedAt = r.clock.Stamp()
	}
	if eq.Source == "" {
		eq.Source = solution.SourceManual
	}

	if err := r.store.SaveEquation(ctx, eq); err != nil {
		return solution.Equation{}, fmt.Errorf("failed to save equation: %w", err)
	}
	return eq, nil
}

func (r *SolutionRepository) Equations(ctx context.Context, limit int) ([]solution.Equation, error) {
	return r.store.RecentEquations(ctx, limit)
}
