// Package loader runs thumbnail rendering off the interactive context.
//
// Load is fire-and-forget: it checks the memory cache, deduplicates
// against in-flight renders for the same (source, size) key, and
// otherwise queues the request. Queued requests accumulate in a
// priority heap and are flushed to a bounded worker pool in batches,
// either when a short window elapses or as soon as a full batch has
// accumulated. Every callback, including memory hits, is invoked from
// a single dispatch goroutine, never from inside Load.
//
// A render that fails delivers a nil image to all of its waiters and
// is not retried; tiles render a placeholder instead. There is no
// cancellation: a caller that has lost interest simply ignores its
// callback, and the cache write stays useful for the next request.
package loader
