package runtime

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "gazet"
	metricsSubsystem = "dispatch"

	resultOK    = "ok"
	resultError = "error"
)

// TopicDispatchStats is a point-in-time view of dispatch activity for one
// topic.
type TopicDispatchStats struct {
	Topic            string
	BatchesHandled   uint64
	BatchesFailed    uint64
	MessagesHandled  uint64
	LastBatchAt      time.Time
	LastBatchSize    int
	LastBatchElapsed time.Duration
}

// DispatchMetrics records batch dispatch outcomes to Prometheus and keeps an
// in-process per-topic snapshot for introspection.
type DispatchMetrics struct {
	registerer prometheus.Registerer

	batchesTotal  *prometheus.CounterVec
	messagesTotal *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	batchSize     *prometheus.HistogramVec

	mu         sync.RWMutex
	registered bool
	topics     map[string]*TopicDispatchStats
}

// NewDispatchMetrics creates dispatch metrics registered against the given
// registerer. A nil registerer uses the Prometheus default.
func NewDispatchMetrics(registerer prometheus.Registerer) *DispatchMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &DispatchMetrics{
		registerer:    registerer,
		batchesTotal:  newDispatchCounterVec("batches_total", "Total batches dispatched, labelled by outcome.", "topic", "result"),
		messagesTotal: newDispatchCounterVec("messages_total", "Total messages contained in dispatched batches.", "topic"),
		batchDuration: newDispatchHistogramVec("batch_duration_seconds", "Batch dispatch duration in seconds.", []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}, "topic"),
		batchSize:     newDispatchHistogramVec("batch_size", "Number of messages per dispatched batch.", []float64{1, 5, 10, 20, 50, 100, 200, 500}, "topic"),
		topics:        map[string]*TopicDispatchStats{},
	}
}

func newDispatchCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func newDispatchHistogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

// Register registers the collectors. Registering twice, or alongside an
// existing registration of the same collectors, is not an error.
func (m *DispatchMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.batchesTotal,
		m.messagesTotal,
		m.batchDuration,
		m.batchSize,
	}
	for _, collector := range collectors {
		if err := m.registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	m.registered = true
	return nil
}

// RecordBatch records one dispatched batch.
func (m *DispatchMetrics) RecordBatch(topic string, size int, elapsed time.Duration, dispatchErr error) {
	result := resultOK
	if dispatchErr != nil {
		result = resultError
	}
	m.batchesTotal.WithLabelValues(topic, result).Inc()
	m.batchDuration.WithLabelValues(topic).Observe(elapsed.Seconds())
	m.batchSize.WithLabelValues(topic).Observe(float64(size))
	if dispatchErr == nil {
		m.messagesTotal.WithLabelValues(topic).Add(float64(size))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.topics[topic]
	if !ok {
		stats = &TopicDispatchStats{Topic: topic}
		m.topics[topic] = stats
	}
	if dispatchErr != nil {
		stats.BatchesFailed++
	} else {
		stats.BatchesHandled++
		stats.MessagesHandled += uint64(size)
	}
	stats.LastBatchAt = time.Now()
	stats.LastBatchSize = size
	stats.LastBatchElapsed = elapsed
}

// TopicStats returns the snapshot for one topic, or false when the topic has
// never dispatched.
func (m *DispatchMetrics) TopicStats(topic string) (TopicDispatchStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, ok := m.topics[topic]
	if !ok {
		return TopicDispatchStats{}, false
	}
	return *stats, true
}

// Snapshot returns per-topic stats sorted by topic name.
func (m *DispatchMetrics) Snapshot() []TopicDispatchStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TopicDispatchStats, 0, len(m.topics))
	for _, stats := range m.topics {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

// Reset clears the in-process snapshot. Prometheus collectors keep their
// values.
func (m *DispatchMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = map[string]*TopicDispatchStats{}
}

// MetricsMiddleware records every dispatched batch to m.
func MetricsMiddleware(m *DispatchMetrics) Middleware {
	return func(next BatchHandlerFunc) BatchHandlerFunc {
		return func(ctx context.Context, batch *Batch, state State) error {
			start := time.Now()
			err := next(ctx, batch, state)
			m.RecordBatch(batch.Topic, batch.Len(), time.Since(start), err)
			return err
		}
	}
}
