package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mathly/internal/solution"
	"mathly/internal/storage"
)

// fakeStore is an in-memory SolutionStore.
type fakeStore struct {
	mu        sync.Mutex
	solutions []solution.Solution
	equations []solution.Equation
	subs      map[chan struct{}]struct{}
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(map[chan struct{}]struct{})}
}

func (f *fakeStore) SaveSolution(ctx context.Context, sol solution.Solution) error {
	f.mu.Lock()
	f.solutions = append(f.solutions, sol)
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *fakeStore) Solution(ctx context.Context, id string) (solution.Solution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.solutions {
		if s.ID == id {
			return s, nil
		}
	}
	return solution.Solution{}, storage.ErrNotFound
}

func (f *fakeStore) RecentSolutions(ctx context.Context, limit int) ([]solution.Solution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]solution.Solution(nil), f.solutions...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) SolutionsForEquation(ctx context.Context, equationID string) ([]solution.Solution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []solution.Solution
	for _, s := range f.solutions {
		if s.EquationID == equationID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteSolution(ctx context.Context, id string) error {
	f.mu.Lock()
	for i, s := range f.solutions {
		if s.ID == id {
			f.solutions = append(f.solutions[:i], f.solutions[i+1:]...)
			f.mu.Unlock()
			f.notify()
			return nil
		}
	}
	f.mu.Unlock()
	return storage.ErrNotFound
}

func (f *fakeStore) SaveEquation(ctx context.Context, eq solution.Equation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.equations = append(f.equations, eq)
	return nil
}

func (f *fakeStore) RecentEquations(ctx context.Context, limit int) ([]solution.Equation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]solution.Equation(nil), f.equations...), nil
}

func (f *fakeStore) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}

func (f *fakeStore) notify() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *fakeStore) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type stubSolver struct {
	sol solution.Solution
	err error
	wp  solution.WordProblem
}

func (s *stubSolver) SolveEquation(ctx context.Context, eq solution.Equation) (solution.Solution, error) {
	return s.sol, s.err
}

func (s *stubSolver) SolveWordProblem(ctx context.Context, wp solution.WordProblem) solution.WordProblem {
	return s.wp
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func receive(t *testing.T, ch <-chan SolutionsSnapshot) SolutionsSnapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return SolutionsSnapshot{}
	}
}

func TestSaveSolutionAssignsIDAndSaveTime(t *testing.T) {
	store := newFakeStore()
	repo := NewSolutionRepository(&stubSolver{}, store, nil)
	now := time.Date(2026, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	repo.clock = newStampClock(fixedNow(now))

	saved, err := repo.SaveSolution(context.Background(), solution.Solution{
		EquationID:  "2x+3=7",
		FinalAnswer: "x=2",
		CreatedAt:   time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, now, saved.CreatedAt)
	assert.Equal(t, solution.TypeEquation, saved.Type)

	stored, err := store.Solution(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, stored)
}

func TestSaveSolutionKeepsExistingID(t *testing.T) {
	repo := NewSolutionRepository(&stubSolver{}, newFakeStore(), nil)

	saved, err := repo.SaveSolution(context.Background(), solution.Solution{ID: "keep-me"})
	require.NoError(t, err)
	assert.Equal(t, "keep-me", saved.ID)
}

func TestStampClockIsStrictlyIncreasing(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newStampClock(fixedNow(now))

	first := c.Stamp()
	second := c.Stamp()
	third := c.Stamp()

	assert.Equal(t, now, first)
	assert.Equal(t, now.Add(time.Millisecond), second)
	assert.Equal(t, now.Add(2*time.Millisecond), third)
}

func TestSolveEquationDelegates(t *testing.T) {
	boom := errors.New("boom")
	repo := NewSolutionRepository(&stubSolver{err: boom}, newFakeStore(), nil)

	_, err := repo.SolveEquation(context.Background(), solution.NewEquation("x=1", ""))
	assert.ErrorIs(t, err, boom)
}

func TestSaveEquationFillsDefaults(t *testing.T) {
	store := newFakeStore()
	repo := NewSolutionRepository(&stubSolver{}, store, nil)

	eq, err := repo.SaveEquation(context.Background(), solution.Equation{Expression: "x+1=2"})
	require.NoError(t, err)
	assert.NotEmpty(t, eq.ID)
	assert.False(t, eq.CreatedAt.IsZero())
	assert.Equal(t, solution.SourceManual, eq.Source)

	list, err := repo.Equations(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []solution.Equation{eq}, list)
}

func TestRecentSolutionsStream(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := newFakeStore()
	repo := NewSolutionRepository(&stubSolver{}, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stream := repo.RecentSolutions(ctx, 10)

	initial := receive(t, stream)
	require.NoError(t, initial.Err)
	assert.Empty(t, initial.Solutions)

	first, err := repo.SaveSolution(ctx, solution.Solution{FinalAnswer: "x=1"})
	require.NoError(t, err)
	snap := receive(t, stream)
	require.Len(t, snap.Solutions, 1)
	assert.Equal(t, first.ID, snap.Solutions[0].ID)

	second, err := repo.SaveSolution(ctx, solution.Solution{FinalAnswer: "x=2"})
	require.NoError(t, err)
	snap = receive(t, stream)
	require.Len(t, snap.Solutions, 2)
	assert.Equal(t, second.ID, snap.Solutions[0].ID, "newest first")
	assert.Equal(t, first.ID, snap.Solutions[1].ID)

	require.NoError(t, repo.DeleteSolution(ctx, first.ID))
	snap = receive(t, stream)
	require.Len(t, snap.Solutions, 1)

	cancel()
	for range stream {
	}
	assert.Equal(t, 0, store.subscribers())
}

func TestRecentSolutionsStreamReportsErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := newFakeStore()
	store.listErr = &storage.CorruptRecordError{Table: "solutions", ID: "bad", Err: storage.ErrCorruptSteps}
	repo := NewSolutionRepository(&stubSolver{}, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := repo.RecentSolutions(ctx, 0)

	snap := receive(t, stream)
	assert.ErrorIs(t, snap.Err, storage.ErrCorruptSteps)

	cancel()
	for range stream {
	}
}
