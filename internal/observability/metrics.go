// Package observability provides the Prometheus collectors shared by the
// orchestrator and the scheduler loop.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the generation core's collectors. A nil *Metrics is valid
// and records nothing, so tests can pass nil.
type Metrics struct {
	ProviderCalls     *prometheus.CounterVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	CreditsCommitted  prometheus.Counter
	GenerationSeconds *prometheus.HistogramVec
	CycleItems        *prometheus.CounterVec
	CyclesTotal       prometheus.Counter
}

// New registers the collectors on reg (use prometheus.DefaultRegisterer in
// binaries, a fresh registry in tests).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProviderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "slideforge_provider_calls_total",
			Help: "Provider chain steps by provider and outcome.",
		}, []string{"provider", "outcome"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "slideforge_cache_hits_total",
			Help: "Response cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "slideforge_cache_misses_total",
			Help: "Response cache misses.",
		}),
		CreditsCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "slideforge_credits_committed_total",
			Help: "Credits charged for completed generations.",
		}),
		GenerationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "slideforge_generation_seconds",
			Help:    "End-to-end generation latency by provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CycleItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "slideforge_scheduler_items_total",
			Help: "Scheduler cycle items by result.",
		}, []string{"result"}),
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "slideforge_scheduler_cycles_total",
			Help: "Completed scheduler cycles.",
		}),
	}
}

// RecordProviderCall increments the provider call counter.
func (m *Metrics) RecordProviderCall(provider, outcome string) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(provider, outcome).Inc()
}

// RecordCacheLookup increments the hit or miss counter.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// RecordCreditsCommitted adds charged credits.
func (m *Metrics) RecordCreditsCommitted(amount int) {
	if m == nil {
		return
	}
	m.CreditsCommitted.Add(float64(amount))
}

// RecordGeneration observes a generation latency.
func (m *Metrics) RecordGeneration(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.GenerationSeconds.WithLabelValues(provider).Observe(seconds)
}

// RecordCycleItem increments a scheduler item result counter.
func (m *Metrics) RecordCycleItem(result string) {
	if m == nil {
		return
	}
	m.CycleItems.WithLabelValues(result).Inc()
}

// RecordCycle increments the completed cycle counter.
func (m *Metrics) RecordCycle() {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
}
