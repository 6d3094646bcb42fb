// Package metrics declares the Prometheus metrics exported by the
// poster browser: thumbnail cache hit rates and evictions, loader
// queue depth and render durations, scanner and watcher activity, and
// legacy poster migration progress.
//
// All metrics are registered on the default registry via promauto and
// served by the metrics endpoint configured at startup.
package metrics
