package queue

import "github.com/prometheus/client_golang/prometheus"

var (
	Depth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "print_queue_depth",
			Help: "Approximate number of ready jobs per kind",
		},
		[]string{"kind"},
	)
	JobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "print_queue_processed_total",
			Help: "Total jobs processed grouped by outcome",
		},
		[]string{"kind", "status"},
	)
	DLQSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "print_queue_dlq_size",
			Help: "Number of jobs parked in the dead letter queue",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(Depth, JobsProcessedTotal, DLQSize)
}
