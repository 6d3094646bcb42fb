package main

import (
	"image"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"poster-browser/internal/loader"
	"poster-browser/internal/logging"
	"poster-browser/internal/poster"
	"poster-browser/internal/scanner"
	"poster-browser/internal/startup"
	"poster-browser/internal/thumbcache"
	"poster-browser/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Composition root: the cache service, poster store, loader and
	// scanner are constructed once here and handed to the UI layer by
	// reference. No package-level cache state.
	store := poster.NewStore(config.PostersRoot)
	cache := thumbcache.New(config.CacheRoot, config.CacheCapacity, thumbcache.DefaultEvictFraction)

	ldr := loader.New(cache, loader.Config{
		Workers:     config.RenderWorkers,
		BatchSize:   config.BatchSize,
		BatchWindow: config.BatchWindow,
	})
	defer ldr.Close()

	scn := scanner.New(store)

	watcher, err := scanner.NewWatcher(cache)
	if err != nil {
		logging.Warn("File watcher unavailable: %v", err)
	} else {
		watcher.Add(config.MediaDir)
		defer watcher.Close()
	}

	if config.MigrateOnStart {
		go func() {
			start := time.Now()
			count, err := store.MigrateTree(config.MediaDir, func(migrated int, folder string) {
				if migrated > 0 && migrated%100 == 0 {
					logging.Info("Poster migration: %d migrated, at %s", migrated, folder)
				}
			})
			if err != nil {
				logging.Error("Poster migration: %v", err)
			}
			logging.Info("Poster migration finished: %d posters in %s", count, time.Since(start).Round(time.Millisecond))
		}()
	}

	if config.MetricsEnabled {
		go serveMetrics(config.MetricsPort)
	}

	// Warm the session like the first folder view would: scan the
	// top-level folders and preload their posters below normal
	// priority so interactive loads are never starved.
	go warmTopLevel(config, scn, ldr)

	logging.Info("poster-browser ready (media: %s)", config.MediaDir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logging.Info("Shutting down")
}

func warmTopLevel(config *startup.Config, scn *scanner.Scanner, ldr *loader.Loader) {
	entries, err := os.ReadDir(config.MediaDir)
	if err != nil {
		logging.Warn("Cannot list media directory: %v", err)
		return
	}

	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, filepath.Join(config.MediaDir, e.Name()))
		}
	}

	results := scn.ScanAll(folders, workers.ForIO(8))

	withPoster, withMedia := 0, 0
	for _, res := range results {
		if res.HasMedia {
			withMedia++
		}
		if res.PosterPath != "" {
			withPoster++
			ldr.Load(res.PosterPath, config.TileWidth, config.TileHeight,
				func(string, image.Image) {}, loader.PriorityPreload)
		}
	}
	logging.Info("Warm scan: %d folders, %d posters, %d with media",
		len(folders), withPoster, withMedia)
}

func serveMetrics(port string) {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	logging.Info("Metrics listening on :%s", port)
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Error("Metrics server: %v", err)
	}
}
