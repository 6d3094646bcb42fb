package loader

import (
	"container/heap"
	"image"
	"sync"
	"time"

	"poster-browser/internal/logging"
	"poster-browser/internal/metrics"
	"poster-browser/internal/thumbcache"
	"poster-browser/internal/workers"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // webp poster sources
)

// Priority orders queued render requests. Higher values are serviced
// first; ties fall back to arrival order.
type Priority int

const (
	// PriorityPreload is for speculative background loads. Below
	// normal so preloading never starves visible tiles.
	PriorityPreload Priority = 0
	// PriorityNormal is for ordinary tile loads.
	PriorityNormal Priority = 10
	// PriorityVisible is for tiles currently on screen.
	PriorityVisible Priority = 20
)

// Callback receives a completed load. img is nil when the source could
// not be rendered; the tile falls back to its placeholder. Callbacks
// are invoked from the loader's single dispatch goroutine and must not
// block for long.
type Callback func(source string, img image.Image)

// Config tunes the loader's batching and pool size.
type Config struct {
	// Workers is the render pool size. <= 0 means auto.
	Workers int
	// BatchSize flushes the queue immediately once this many requests
	// have accumulated.
	BatchSize int
	// BatchWindow flushes whatever is queued when it elapses, so a
	// lone request is not stuck waiting for a full batch.
	BatchWindow time.Duration
}

// DefaultConfig returns the tuning the interactive browser ships with.
func DefaultConfig() Config {
	return Config{
		Workers:     workers.ForMixed(8),
		BatchSize:   16,
		BatchWindow: 25 * time.Millisecond,
	}
}

type request struct {
	key      thumbcache.Key
	priority Priority
	seq      uint64
}

type delivery struct {
	cb     Callback
	source string
	img    image.Image
}

// Loader renders thumbnails off the interactive context. Requests for
// the same (source, size) key are deduplicated: one render runs, every
// registered callback receives its result. Distinct requests coalesce
// into priority-ordered batches handed to a bounded worker pool.
//
// Load never blocks and never invokes a callback synchronously.
type Loader struct {
	cache *thumbcache.Cache
	cfg   Config

	mu      sync.Mutex
	closed  bool
	pending map[thumbcache.Key][]Callback
	queue   requestQueue
	seq     uint64
	timer   *time.Timer

	batches    chan []request
	deliveries chan delivery
	sendWG     sync.WaitGroup
	deliverWG  sync.WaitGroup
	workerWG   sync.WaitGroup
	dispatchWG sync.WaitGroup
}

// New creates a loader over cache and starts its workers and the
// dispatch goroutine.
func New(cache *thumbcache.Cache, cfg Config) *Loader {
	if cfg.Workers <= 0 {
		cfg.Workers = workers.ForMixed(8)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.BatchWindow <= 0 {
		cfg.BatchWindow = 25 * time.Millisecond
	}

	l := &Loader{
		cache:      cache,
		cfg:        cfg,
		pending:    make(map[thumbcache.Key][]Callback),
		batches:    make(chan []request, cfg.Workers*2),
		deliveries: make(chan delivery, 128),
	}

	metrics.LoaderWorkers.Set(float64(cfg.Workers))
	for i := 0; i < cfg.Workers; i++ {
		l.workerWG.Add(1)
		go l.worker()
	}
	l.dispatchWG.Add(1)
	go l.dispatch()

	logging.Debug("loader: started %d workers, batch %d/%v",
		cfg.Workers, cfg.BatchSize, cfg.BatchWindow)
	return l
}

// Load requests a thumbnail of source fitted to w x h. The callback is
// invoked exactly once, later, with the image or nil.
func (l *Loader) Load(source string, w, h int, cb Callback, priority Priority) {
	key := thumbcache.Key{Source: source, W: w, H: h}

	if img := l.cache.Get(key); img != nil {
		// Deliver asynchronously even on a hit so callers never see
		// their callback run inside Load.
		metrics.LoaderRequestsTotal.WithLabelValues("memory_hit").Inc()
		l.deliver(delivery{cb: cb, source: source, img: img})
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		go cb(source, nil)
		return
	}

	if waiters, ok := l.pending[key]; ok {
		// A render for this key is already queued or running; ride it.
		l.pending[key] = append(waiters, cb)
		l.mu.Unlock()
		metrics.LoaderRequestsTotal.WithLabelValues("coalesced").Inc()
		return
	}

	l.pending[key] = []Callback{cb}
	l.seq++
	heap.Push(&l.queue, &request{key: key, priority: priority, seq: l.seq})
	metrics.LoaderRequestsTotal.WithLabelValues("queued").Inc()
	metrics.LoaderQueueDepth.Set(float64(l.queue.Len()))

	if l.queue.Len() >= l.cfg.BatchSize {
		l.flushLocked()
	} else if l.timer == nil {
		l.timer = time.AfterFunc(l.cfg.BatchWindow, l.flush)
	}
	l.mu.Unlock()
}

// flush is the batch-window timer callback.
func (l *Loader) flush() {
	l.mu.Lock()
	l.timer = nil
	l.flushLocked()
	l.mu.Unlock()
}

// flushLocked drains the queue into batches of at most BatchSize, in
// priority-then-arrival order. Requires l.mu held.
func (l *Loader) flushLocked() {
	for l.queue.Len() > 0 {
		n := l.queue.Len()
		if n > l.cfg.BatchSize {
			n = l.cfg.BatchSize
		}
		batch := make([]request, 0, n)
		for i := 0; i < n; i++ {
			batch = append(batch, *heap.Pop(&l.queue).(*request))
		}
		metrics.LoaderBatchSize.Observe(float64(len(batch)))
		l.enqueue(batch)
	}
	metrics.LoaderQueueDepth.Set(0)
}

// enqueue hands a batch to the pool without ever blocking the caller:
// if the workers are all busy and the channel is full, the send moves
// to a goroutine.
func (l *Loader) enqueue(batch []request) {
	select {
	case l.batches <- batch:
	default:
		l.sendWG.Add(1)
		go func() {
			defer l.sendWG.Done()
			l.batches <- batch
		}()
	}
}

func (l *Loader) worker() {
	defer l.workerWG.Done()
	for batch := range l.batches {
		for _, req := range batch {
			img := l.render(req.key)
			if img != nil {
				l.cache.Put(req.key, img)
			}
			l.complete(req.key, img)
		}
	}
}

// complete resolves the pending entry for key and fans the result out
// to every waiter registered before this moment.
func (l *Loader) complete(key thumbcache.Key, img image.Image) {
	l.mu.Lock()
	waiters := l.pending[key]
	delete(l.pending, key)
	l.mu.Unlock()

	for _, cb := range waiters {
		l.deliver(delivery{cb: cb, source: key.Source, img: img})
	}
}

// deliver hands d to the dispatch goroutine without ever blocking the
// caller: when the dispatcher is busy and the buffer is full, the send
// moves to a goroutine tracked until Close. After Close the dispatcher
// is gone, so the callback runs on a plain goroutine instead.
func (l *Loader) deliver(d delivery) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		go d.cb(d.source, d.img)
		return
	}
	select {
	case l.deliveries <- d:
		l.mu.Unlock()
		return
	default:
	}
	// Registered under the lock so Close cannot pass deliverWG.Wait
	// before this send is accounted for.
	l.deliverWG.Add(1)
	l.mu.Unlock()
	go func() {
		defer l.deliverWG.Done()
		l.deliveries <- d
	}()
}

// dispatch serializes all callback invocations on one goroutine,
// standing in for the interactive context the results are marshaled
// back to.
func (l *Loader) dispatch() {
	defer l.dispatchWG.Done()
	for d := range l.deliveries {
		d.cb(d.source, d.img)
	}
}

// render produces the image for key: disk cache first, else decode the
// source, downscale to fit if the source exceeds the target box (never
// upscale), and persist. Returns nil when the source cannot be
// rendered; that result is final for this request.
func (l *Loader) render(key thumbcache.Key) image.Image {
	start := time.Now()
	defer func() {
		metrics.RenderDuration.Observe(time.Since(start).Seconds())
	}()

	if l.cache.ExistsOnDisk(key) {
		if img := l.cache.ReadDisk(key); img != nil {
			metrics.RendersTotal.WithLabelValues("disk_cache", "success").Inc()
			return img
		}
		// Corrupt cache file: fall through and re-render over it.
		metrics.RendersTotal.WithLabelValues("disk_cache", "error").Inc()
	}

	img, err := imaging.Open(key.Source, imaging.AutoOrientation(true))
	if err != nil {
		logging.Debug("loader: cannot decode %s: %v", key.Source, err)
		metrics.RendersTotal.WithLabelValues("decode", "error").Inc()
		return nil
	}

	bounds := img.Bounds()
	if bounds.Dx() > key.W || bounds.Dy() > key.H {
		img = imaging.Fit(img, key.W, key.H, imaging.Lanczos)
	}

	l.cache.PersistToDisk(key, img)
	metrics.RendersTotal.WithLabelValues("decode", "success").Inc()
	return img
}

// PendingCount returns the number of keys with an in-flight or queued
// render.
func (l *Loader) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Close flushes the queue, waits for in-flight renders to finish
// delivering, and stops the workers and dispatcher. Load calls made
// after Close are answered on plain goroutines: a memory hit still
// delivers the cached image, anything else gets nil.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.flushLocked()
	l.mu.Unlock()

	l.sendWG.Wait()
	close(l.batches)
	l.workerWG.Wait()
	// Overflow delivery sends may still be in flight; the dispatcher
	// keeps draining until they are accounted for.
	l.deliverWG.Wait()
	close(l.deliveries)
	l.dispatchWG.Wait()
}
