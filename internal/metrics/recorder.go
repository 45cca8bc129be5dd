package metrics

import (
	"context"

	"go.uber.org/zap"

	"mathly/internal/shared"
	"mathly/internal/solution"
	"mathly/internal/solver"
)

// Recorder feeds solve outcomes to Prometheus and the sqlite store.
// Either sink may be nil.
type Recorder struct {
	collector *Collector
	store     *Store
	logger    *zap.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(collector *Collector, store *Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{collector: collector, store: store, logger: logger}
}

var _ solver.Observer = (*Recorder)(nil)

// ObserveSolve implements solver.Observer. Persistence errors are logged
// and never reach the solve path.
func (r *Recorder) ObserveSolve(ctx context.Context, typ solution.ProblemType, outcome solver.Outcome, meta shared.AgentMeta) {
	r.Observe(ctx, string(typ), string(outcome), meta)
}

// Observe records one model call under an arbitrary kind label.
func (r *Recorder) Observe(ctx context.Context, kind, outcome string, meta shared.AgentMeta) {
	if r.collector != nil {
		r.collector.Solves.WithLabelValues(kind, outcome).Inc()
		r.collector.LLMDuration.WithLabelValues(meta.AgentName).Observe(meta.Latency.Seconds())
		r.collector.LLMTokens.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
		r.collector.LLMTokens.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
	}

	if r.store != nil {
		if err := r.store.RecordMeta(context.WithoutCancel(ctx), meta, outcome); err != nil {
			r.logger.Warn("failed to record execution metric",
				zap.String("agent", meta.AgentName),
				zap.Error(err),
			)
		}
	}
}
