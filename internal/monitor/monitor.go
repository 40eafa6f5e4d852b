package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provisioning metrics
var (
	ProvisionAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stressdock",
		Subsystem: "provision",
		Name:      "attempts_total",
		Help:      "Total number of workload provisioning attempts",
	})

	ProvisionedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stressdock",
		Subsystem: "provision",
		Name:      "provisioned_total",
		Help:      "Total number of successfully created containers",
	})

	ProvisionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stressdock",
		Subsystem: "provision",
		Name:      "failures_total",
		Help:      "Total number of failed provisioning attempts",
	})

	StartFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stressdock",
		Subsystem: "provision",
		Name:      "start_failures_total",
		Help:      "Containers that were created but failed to start",
	})

	CreateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stressdock",
		Subsystem: "provision",
		Name:      "create_latency_seconds",
		Help:      "Latency of the daemon create/start round trip",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)

// Port registry metrics
var (
	AllocatedPortsCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stressdock",
		Subsystem: "ports",
		Name:      "allocated_count",
		Help:      "Host ports currently held in the used-port registry",
	})
)
