package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records counters for the match/chat/document pipeline.
type EngineMetrics struct {
	matchTransitions *prometheus.CounterVec
	messagesPosted   prometheus.Counter
	documentOps      *prometheus.CounterVec
	uploadRetries    prometheus.Counter
	feedResets       prometheus.Counter
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	matchTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "match_transitions_total",
		Help: "Match ledger transitions by action.",
	}, []string{"action"})
	messagesPosted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_posted_total",
		Help: "Chat messages appended across all channels.",
	})
	documentOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_operations_total",
		Help: "Document workflow operations by kind.",
	}, []string{"op"})
	uploadRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "artifact_upload_retries_total",
		Help: "Retried artifact uploads against the object store.",
	})
	feedResets := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rejection_feed_resets_total",
		Help: "Rejection sets cleared after exhausting the discovery feed.",
	})
	reg.MustRegister(matchTransitions, messagesPosted, documentOps, uploadRetries, feedResets)
	return &EngineMetrics{
		matchTransitions: matchTransitions,
		messagesPosted:   messagesPosted,
		documentOps:      documentOps,
		uploadRetries:    uploadRetries,
		feedResets:       feedResets,
	}
}

// IncMatchTransition counts a ledger transition (like/accept/reject).
func (m *EngineMetrics) IncMatchTransition(action string) {
	if m == nil || m.matchTransitions == nil {
		return
	}
	m.matchTransitions.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncMessagePosted counts one appended chat message.
func (m *EngineMetrics) IncMessagePosted() {
	if m == nil || m.messagesPosted == nil {
		return
	}
	m.messagesPosted.Inc()
}

// IncDocumentOp counts a document workflow operation (generate/update/sign).
func (m *EngineMetrics) IncDocumentOp(op string) {
	if m == nil || m.documentOps == nil {
		return
	}
	m.documentOps.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncUploadRetry counts one retried object-store upload.
func (m *EngineMetrics) IncUploadRetry() {
	if m == nil || m.uploadRetries == nil {
		return
	}
	m.uploadRetries.Inc()
}

// IncFeedReset counts one rejection-cache cycle reset.
func (m *EngineMetrics) IncFeedReset() {
	if m == nil || m.feedResets == nil {
		return
	}
	m.feedResets.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
