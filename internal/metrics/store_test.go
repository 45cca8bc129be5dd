package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mathly/internal/database"
	"mathly/internal/shared"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewStore(db.SQL)
	s.now = func() time.Time { return now }
	return s
}

func TestStoreDailyUsageAndCleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "EquationSolver", PromptTokens: 100, CompletionTokens: 50, Timestamp: now}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "EquationSolver", PromptTokens: 10, CompletionTokens: 5, Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "WordProblemSolver", PromptTokens: 7, CompletionTokens: 3, Timestamp: now.AddDate(0, 0, -1)}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "EquationSolver", PromptTokens: 1, CompletionTokens: 1, Timestamp: now.AddDate(0, 0, -40)}))

	usage, err := s.DailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, DailyUsage{Date: "2026-05-10", TotalPrompt: 110, TotalCompletion: 55, TotalExecution: 2}, usage[0])
	assert.Equal(t, "2026-05-09", usage[1].Date)

	removed, err := s.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = s.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)
}

func TestStoreRecordMeta(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	meta := shared.AgentMeta{
		AgentName: "EquationSolver",
		Usage:     shared.TokenUsage{PromptTokens: 12, CompletionTokens: 8, Model: "llama"},
		Latency:   1500 * time.Millisecond,
	}
	require.NoError(t, s.RecordMeta(ctx, meta, "success"))

	usage, err := s.DailyUsage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 12, usage[0].TotalPrompt)
	assert.Equal(t, 8, usage[0].TotalCompletion)
}

func TestMapUsage(t *testing.T) {
	m := MapUsage("Agent", shared.TokenUsage{PromptTokens: 3, CompletionTokens: 4, Model: "m"}, 250*time.Millisecond)
	assert.Equal(t, "Agent", m.AgentName)
	assert.Equal(t, "m", m.Model)
	assert.EqualValues(t, 250, m.LatencyMS)
	assert.False(t, m.Timestamp.IsZero())
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2*1024*1024))
}

func TestGetSysHealth(t *testing.T) {
	h := GetSysHealth(t.TempDir())
	assert.Positive(t, h.Goroutines)
	assert.Equal(t, "0 B", h.DataDiskSize)
}
