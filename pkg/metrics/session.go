package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Transition results recorded by SessionMetrics.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// SessionMetrics records manufacturing table session activity.
type SessionMetrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	pending     prometheus.Histogram
	splits      prometheus.Counter
	commits     prometheus.Counter
}

// NewSessionMetrics registers the session metrics on the provided registerer.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	if reg == nil {
		return &SessionMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "table_session_transitions_total",
		Help: "Manufacturing table transitions applied, by operation and result.",
	}, []string{"op", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "table_session_transition_seconds",
		Help:    "Time spent loading, applying and storing a table transition.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	pending := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "table_session_pending_changes",
		Help:    "Pending row moves at the moment an order is committed.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})
	splits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "table_session_splits_total",
		Help: "Rows split into two batches.",
	})
	commits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "table_session_commits_total",
		Help: "Row orders committed.",
	})
	reg.MustRegister(transitions, duration, pending, splits, commits)
	return &SessionMetrics{
		transitions: transitions,
		duration:    duration,
		pending:     pending,
		splits:      splits,
		commits:     commits,
	}
}

// ObserveTransition records the outcome and duration of one transition.
func (m *SessionMetrics) ObserveTransition(op, result string, took time.Duration) {
	if m == nil || m.transitions == nil {
		return
	}
	op = normalizeLabel(op)
	m.transitions.WithLabelValues(op, normalizeLabel(result)).Inc()
	m.duration.WithLabelValues(op).Observe(took.Seconds())
}

// IncSplit counts a completed split.
func (m *SessionMetrics) IncSplit() {
	if m == nil || m.splits == nil {
		return
	}
	m.splits.Inc()
}

// ObserveCommit counts a committed order and the number of rows it moved.
func (m *SessionMetrics) ObserveCommit(pending int) {
	if m == nil || m.commits == nil {
		return
	}
	m.commits.Inc()
	m.pending.Observe(float64(pending))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
