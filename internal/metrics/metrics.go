// Package metrics declares the Prometheus collectors shared by the
// Controller and Plant binaries. Both binaries serve them over an optional
// /metrics HTTP endpoint (see cmd/controller and cmd/plant) when metrics
// are enabled via configuration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricNameControllerTicks          = "hils_controller_ticks_total"
	MetricNameControllerTimeouts       = "hils_controller_timeouts_total"
	MetricNameControllerDeadlineMisses = "hils_controller_deadline_misses_total"
	MetricNameControllerRTTSeconds     = "hils_controller_rtt_seconds"
	MetricNamePlantRequests            = "hils_plant_requests_total"
	MetricNamePlantInvalidPackets      = "hils_plant_invalid_packets_total"
)

var (
	// ControllerTicks counts every tick of the Controller's fixed-rate
	// loop, timeout or not.
	ControllerTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNameControllerTicks,
		Help: "Total number of Controller ticks, timeout or not.",
	})

	// ControllerTimeouts counts ticks where no response arrived within
	// the per-tick receive budget.
	ControllerTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNameControllerTimeouts,
		Help: "Total number of Controller ticks that timed out.",
	})

	// ControllerDeadlineMisses counts ticks whose processing overran the
	// next scheduled tick boundary.
	ControllerDeadlineMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNameControllerDeadlineMisses,
		Help: "Total number of Controller ticks that missed their scheduling deadline.",
	})

	// ControllerRTT observes round-trip time, in seconds, for each
	// non-timeout tick.
	ControllerRTT = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricNameControllerRTTSeconds,
		Help:    "Round-trip time observed by the Controller for each successful tick.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	// PlantRequests counts every datagram the Plant attempts to decode,
	// valid or not.
	PlantRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNamePlantRequests,
		Help: "Total number of datagrams received by the Plant.",
	})

	// PlantInvalidPackets counts datagrams discarded for failing length
	// or checksum validation.
	PlantInvalidPackets = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNamePlantInvalidPackets,
		Help: "Total number of datagrams discarded by the Plant for failing decode.",
	})
)
