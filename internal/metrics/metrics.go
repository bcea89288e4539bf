package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Upstream quota metrics
	QuotaUnitsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_quota_units_consumed_total",
			Help: "Total upstream API quota units consumed",
		},
		[]string{"api"},
	)

	QuotaRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_quota_rejections_total",
			Help: "Total reservations rejected by the daily quota budget",
		},
		[]string{"api"},
	)

	QuotaUnitsRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "curator_quota_units_remaining",
			Help: "Upstream API quota units remaining today",
		},
		[]string{"api"},
	)

	// Response cache metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_cache_hits_total",
			Help: "Total response cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_cache_misses_total",
			Help: "Total response cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_cache_swept_total",
			Help: "Total expired cache entries removed by sweeps",
		},
	)

	// Upstream call metrics
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_upstream_calls_total",
			Help: "Total calls made to the upstream metadata API",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_upstream_call_duration_seconds",
			Help:    "Upstream metadata API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Import metrics
	ImportsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_imports_started_total",
			Help: "Total playlist import jobs started",
		},
	)

	ImportsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_imports_completed_total",
			Help: "Total playlist import jobs finalized",
		},
		[]string{"status"},
	)

	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "curator_import_duration_seconds",
			Help:    "Playlist import duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	ImportedVideosTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_imported_videos_total",
			Help: "Total videos persisted by import jobs",
		},
	)

	// AI enhancement metrics
	EnhancementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_enhancements_total",
			Help: "Total enhancement attempts",
		},
		[]string{"type", "status"},
	)

	AITokensUsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_ai_tokens_used_total",
			Help: "Total tokens consumed by AI requests",
		},
		[]string{"model"},
	)

	AICostTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_ai_cost_usd_total",
			Help: "Total AI spend in US dollars",
		},
		[]string{"model"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_ai_request_duration_seconds",
			Help:    "AI request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"model"},
	)

	// Analysis metrics
	AnalysesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_analyses_generated_total",
			Help: "Total content analyses computed",
		},
		[]string{"kind", "cached"},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"operation"},
	)

	// Database Metrics
	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "curator_database_connections_active",
			Help: "Number of active database connections",
		},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_errors_total",
			Help: "Total number of errors by component and kind",
		},
		[]string{"component", "kind"},
	)
)

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordQuotaReservation records the outcome of a quota reservation
func RecordQuotaReservation(api string, unitCost, remaining int, accepted bool) {
	if !accepted {
		QuotaRejectionsTotal.WithLabelValues(api).Inc()
		return
	}
	QuotaUnitsConsumed.WithLabelValues(api).Add(float64(unitCost))
	QuotaUnitsRemaining.WithLabelValues(api).Set(float64(remaining))
}

// RecordCacheAccess records a response cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordUpstreamCall records an upstream metadata API call
func RecordUpstreamCall(endpoint, status string, duration float64) {
	UpstreamCallsTotal.WithLabelValues(endpoint, status).Inc()
	UpstreamCallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordImportCompleted records a finalized import job
func RecordImportCompleted(status string, duration float64, videos int) {
	ImportsCompletedTotal.WithLabelValues(status).Inc()
	ImportDuration.Observe(duration)
	ImportedVideosTotal.Add(float64(videos))
}

// RecordEnhancement records an enhancement attempt with its AI spend
func RecordEnhancement(enhType, status, model string, tokens int, cost, duration float64) {
	EnhancementsTotal.WithLabelValues(enhType, status).Inc()
	if model != "" {
		AITokensUsedTotal.WithLabelValues(model).Add(float64(tokens))
		AICostTotal.WithLabelValues(model).Add(cost)
		AIRequestDuration.WithLabelValues(model).Observe(duration)
	}
}

// RecordAnalysis records a content analysis computation
func RecordAnalysis(kind string, cached bool) {
	label := "false"
	if cached {
		label = "true"
	}
	AnalysesGeneratedTotal.WithLabelValues(kind, label).Inc()
}

// RecordStorageOperation records metrics for a storage operation
func RecordStorageOperation(operation, status string, duration float64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordDatabaseOperation records metrics for a database operation
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordError records an error occurrence
func RecordError(component, kind string) {
	ErrorsTotal.WithLabelValues(component, kind).Inc()
}
