package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mathly/internal/solution"
	"mathly/internal/storage/storagedb"
)

const solutionsTable = "solutions"

// SaveSolution writes sol as-is. Identifier and timestamp are the caller's
// responsibility.
func (s *Store) SaveSolution(ctx context.Context, sol solution.Solution) error {
	params, err := solutionParams(sol)
	if err != nil {
		return err
	}
	if err := s.queries.InsertSolution(ctx, params); err != nil {
		return fmt.Errorf("failed to insert solution %s: %w", sol.ID, err)
	}
	s.notify()
	return nil
}

// Solution returns the solution with the given id.
func (s *Store) Solution(ctx context.Context, id string) (solution.Solution, error) {
	row, err := s.queries.GetSolution(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return solution.Solution{}, fmt.Errorf("solution %s: %w", id, ErrNotFound)
		}
		return solution.Solution{}, fmt.Errorf("failed to get solution %s: %w", id, err)
	}
	return solutionFromRow(row)
}

// RecentSolutions lists solutions newest first. A non-positive limit returns all.
func (s *Store) RecentSolutions(ctx context.Context, limit int) ([]solution.Solution, error) {
	rows, err := s.queries.ListRecentSolutions(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	return solutionsFromRows(rows)
}

// SolutionsForEquation lists every solution recorded for equationID, newest first.
func (s *Store) SolutionsForEquation(ctx context.Context, equationID string) ([]solution.Solution, error) {
	rows, err := s.queries.ListSolutionsByEquation(ctx, equationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions for equation %q: %w", equationID, err)
	}
	return solutionsFromRows(rows)
}

// DeleteSolution removes a solution. Deleting an unknown id returns ErrNotFound.
func (s *Store) DeleteSolution(ctx context.Context, id string) error {
	n, err := s.queries.DeleteSolution(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete solution %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("solution %s: %w", id, ErrNotFound)
	}
	s.notify()
	return nil
}

// SaveEquation records a submitted equation.
func (s *Store) SaveEquation(ctx context.Context, eq solution.Equation) error {
	if err := s.queries.InsertEquation(ctx, equationParams(eq)); err != nil {
		return fmt.Errorf("failed to insert equation %s: %w", eq.ID, err)
	}
	return nil
}

// RecentEquations lists submitted equations newest first.
func (s *Store) RecentEquations(ctx context.Context, limit int) ([]solution.Equation, error) {
	rows, err := s.queries.ListRecentEquations(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list equations: %w", err)
	}

	equations := make([]solution.Equation, 0, len(rows))
	for _, row := range rows {
		equations = append(equations, solution.Equation{
			ID:         row.ID,
			Expression: row.Expression,
			Source:     solution.Source(row.Source),
			CreatedAt:  fromMillis(row.CreatedAt),
		})
	}
	return equations, nil
}

func equationParams(eq solution.Equation) storagedb.InsertEquationParams {
	return storagedb.InsertEquationParams{
		ID:         eq.ID,
		Expression: eq.Expression,
		Source:     string(eq.Source),
		CreatedAt:  toMillis(eq.CreatedAt),
	}
}

func solutionParams(sol solution.Solution) (storagedb.InsertSolutionParams, error) {
	steps, err := EncodeSteps(sol.Steps)
	if err != nil {
		return storagedb.InsertSolutionParams{}, err
	}

	typ := sol.Type
	if typ == "" {
		typ = solution.TypeEquation
	}

	return storagedb.InsertSolutionParams{
		ID:              sol.ID,
		EquationID:      sol.EquationID,
		OriginalProblem: sol.OriginalProblem,
		Type:            string(typ),
		Steps:           steps,
		FinalAnswer:     sol.FinalAnswer,
		CreatedAt:       toMillis(sol.CreatedAt),
	}, nil
}

func solutionFromRow(row storagedb.Solution) (solution.Solution, error) {
	steps, err := DecodeSteps(row.Steps)
	if err != nil {
		return solution.Solution{}, &CorruptRecordError{Table: solutionsTable, ID: row.ID, Err: err}
	}

	return solution.Solution{
		ID:              row.ID,
		EquationID:      row.EquationID,
		OriginalProblem: row.OriginalProblem,
		Type:            solution.ProblemType(row.Type),
		Steps:           steps,
		FinalAnswer:     row.FinalAnswer,
		CreatedAt:       fromMillis(row.CreatedAt),
	}, nil
}

func solutionsFromRows(rows []storagedb.Solution) ([]solution.Solution, error) {
	solutions := make([]solution.Solution, 0, len(rows))
	for _, row := range rows {
		sol, err := solutionFromRow(row)
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, sol)
	}
	return solutions, nil
}
