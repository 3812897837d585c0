package metrics

import "github.com/prometheus/client_golang/prometheus"

// PersistenceMetrics counts debounced collection writes and hydration outcomes.
// A nil receiver is valid and records nothing.
type PersistenceMetrics struct {
	writes    *prometheus.CounterVec
	hydration *prometheus.CounterVec
}

func NewPersistenceMetrics(reg prometheus.Registerer) *PersistenceMetrics {
	if reg == nil {
		return &PersistenceMetrics{}
	}
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collection_writes_total",
		Help:      "Debounced collection writes by collection and result.",
	}, []string{"collection", "result"})
	hydration := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collection_hydrations_total",
		Help:      "Collection hydrations by collection and result (ok, empty, corrupt, unavailable).",
	}, []string{"collection", "result"})
	reg.MustRegister(writes, hydration)
	return &PersistenceMetrics{writes: writes, hydration: hydration}
}

func (p *PersistenceMetrics) WriteSucceeded(collection string) {
	if p == nil || p.writes == nil {
		return
	}
	p.writes.WithLabelValues(normalizeLabel(collection), "success").Inc()
}

func (p *PersistenceMetrics) WriteFailed(collection string) {
	if p == nil || p.writes == nil {
		return
	}
	p.writes.WithLabelValues(normalizeLabel(collection), "failure").Inc()
}

// Hydrated records how a store was rebuilt from durable storage.
func (p *PersistenceMetrics) Hydrated(collection, result string) {
	if p == nil || p.hydration == nil {
		return
	}
	p.hydration.WithLabelValues(normalizeLabel(collection), normalizeLabel(result)).Inc()
}
