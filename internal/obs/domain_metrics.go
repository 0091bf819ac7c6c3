package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteBuildsTotal counts quote build outcomes by result.
	QuoteBuildsTotal *prometheus.CounterVec
	// QuoteBuildDuration records quote build latency in milliseconds.
	QuoteBuildDuration prometheus.Histogram
	// ProspectPhaseChanges counts prospect phase transitions by target phase.
	ProspectPhaseChanges *prometheus.CounterVec
	// RemindersDueTotal counts reminders that came due and were dispatched.
	RemindersDueTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteBuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_builds_total",
			Help:      "Count of quote build outcomes.",
		}, []string{"result"})
		QuoteBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_build_duration_ms",
			Help:      "Latency of quote builds in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		})
		ProspectPhaseChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prospect_phase_changes_total",
			Help:      "Count of prospect phase transitions by target phase.",
		}, []string{"phase"})
		RemindersDueTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_due_total",
			Help:      "Count of reminders that came due.",
		})

		mustRegisterCollector(reg, QuoteBuildsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteBuildsTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteBuildDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				QuoteBuildDuration = v
			}
		})
		mustRegisterCollector(reg, ProspectPhaseChanges, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ProspectPhaseChanges = v
			}
		})
		mustRegisterCollector(reg, RemindersDueTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RemindersDueTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
