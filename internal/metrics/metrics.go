package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Thumbnail cache metrics
var (
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_browser_cache_lookups_total",
			Help: "Total number of thumbnail cache lookups",
		},
		[]string{"tier", "result"}, // tier: "memory", "disk"; result: "hit", "miss"
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poster_browser_cache_entries",
			Help: "Current number of entries in the memory thumbnail cache",
		},
	)

	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poster_browser_cache_evictions_total",
			Help: "Total number of memory cache entries evicted",
		},
	)

	CacheInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poster_browser_cache_invalidations_total",
			Help: "Total number of memory cache entries invalidated by file events",
		},
	)

	CacheDiskWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_browser_cache_disk_writes_total",
			Help: "Total number of disk cache writes",
		},
		[]string{"status"}, // "success", "error"
	)
)

// Loader metrics
var (
	LoaderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_browser_loader_requests_total",
			Help: "Total number of thumbnail load requests",
		},
		[]string{"outcome"}, // "memory_hit", "coalesced", "queued"
	)

	LoaderQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poster_browser_loader_queue_depth",
			Help: "Number of requests waiting in the loader batch queue",
		},
	)

	LoaderBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poster_browser_loader_batch_size",
			Help:    "Number of requests flushed per batch",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_browser_renders_total",
			Help: "Total number of thumbnail renders",
		},
		[]string{"source", "status"}, // source: "disk_cache", "decode"; status: "success", "error"
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poster_browser_render_duration_seconds",
			Help:    "Thumbnail render duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	LoaderWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poster_browser_loader_workers",
			Help: "Number of render workers in the loader pool",
		},
	)
)

// Scanner metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_browser_scans_total",
			Help: "Total number of folder scans",
		},
		[]string{"poster", "media"}, // "found"/"absent", "yes"/"no"
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poster_browser_scan_duration_seconds",
			Help:    "Folder scan duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_browser_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poster_browser_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)
)

// Poster store metrics
var (
	PosterMigrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_browser_poster_migrations_total",
			Help: "Total number of legacy poster migrations",
		},
		[]string{"status"}, // "migrated", "skipped", "error"
	)
)
