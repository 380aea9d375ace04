package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersPlacedTotal counts order placement outcomes.
	OrdersPlacedTotal *prometheus.CounterVec
	// OrdersPaidTotal counts payment confirmation outcomes by method.
	OrdersPaidTotal *prometheus.CounterVec
	// OrdersCombinedTotal counts combined-order checkouts by member count.
	OrdersCombinedTotal prometheus.Counter
	// PrintJobsTotal tracks receipt/kitchen-ticket print job outcomes.
	PrintJobsTotal *prometheus.CounterVec
	// PrintAttemptLatency records printer bridge call latency in milliseconds.
	PrintAttemptLatency *prometheus.HistogramVec
	// PrintDLQTotal counts print jobs moved to the dead-letter queue.
	PrintDLQTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Count of order placement outcomes.",
		}, []string{"result"})
		OrdersPaidTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_paid_total",
			Help:      "Count of payment confirmations by method and outcome.",
		}, []string{"method", "result"})
		OrdersCombinedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_combined_total",
			Help:      "Number of combined-order checkouts.",
		})
		PrintJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "print_jobs_total",
			Help:      "Count of print job outcomes by document kind.",
		}, []string{"kind", "result"})
		PrintAttemptLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "print_attempt_duration_ms",
			Help:      "Latency for printer bridge calls in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})
		PrintDLQTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "print_dlq_total",
			Help:      "Number of print jobs moved to the dead-letter queue.",
		})

		mustRegisterCollector(reg, OrdersPlacedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersPlacedTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersPaidTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersPaidTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersCombinedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersCombinedTotal = v
			}
		})
		mustRegisterCollector(reg, PrintJobsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PrintJobsTotal = v
			}
		})
		mustRegisterCollector(reg, PrintAttemptLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				PrintAttemptLatency = v
			}
		})
		mustRegisterCollector(reg, PrintDLQTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PrintDLQTotal = v
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
