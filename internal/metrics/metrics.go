// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

// Package metrics defines the Prometheus instrumentation for Linkdeck.
// All collectors are registered on the default registry via promauto and
// exposed by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP server metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkdeck_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkdeck_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Notion query cache metrics
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkdeck_cache_hits_total",
			Help: "Cache hits by cache key class",
		},
		[]string{"class"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkdeck_cache_misses_total",
			Help: "Cache misses by cache key class",
		},
		[]string{"class"},
	)
)

// Image mirroring metrics
var (
	// MirrorOperationsTotal counts single-image mirror attempts by
	// outcome: "canonical" (already mirrored, short-circuited),
	// "reused" (object existed in storage), "uploaded" (downloaded and
	// stored), "failed".
	MirrorOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkdeck_mirror_operations_total",
			Help: "Image mirror attempts by outcome",
		},
		[]string{"outcome"},
	)

	MirrorBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkdeck_mirror_bytes_total",
			Help: "Bytes downloaded and uploaded to the image mirror",
		},
	)

	MirrorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "linkdeck_mirror_duration_seconds",
			Help:    "Duration of a single image mirror operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SyncBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkdeck_sync_batches_total",
			Help: "Completed bookmark image sync batches",
		},
	)

	SyncBookmarksChanged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkdeck_sync_bookmarks_changed_total",
			Help: "Bookmarks whose image URLs changed during sync",
		},
	)
)

// Write-back queue metrics
var (
	WriteBackQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdeck_writeback_queue_depth",
			Help: "Patches currently pending in the write-back queue",
		},
	)

	WriteBackDrainsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkdeck_writeback_drains_total",
			Help: "Completed write-back drain cycles",
		},
	)

	WriteBackAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkdeck_writeback_applied_total",
			Help: "Write-back patches applied successfully",
		},
	)

	WriteBackFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkdeck_writeback_failed_total",
			Help: "Write-back patches that failed to apply",
		},
	)
)

// Circuit breaker metrics
var (
	// CircuitBreakerState tracks breaker state: 0=closed, 1=half-open, 2=open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "linkdeck_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkdeck_circuit_breaker_requests_total",
			Help: "Requests through circuit breakers by result",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkdeck_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
