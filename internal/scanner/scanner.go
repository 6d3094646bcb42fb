package scanner

import (
	"os"
	"path/filepath"
	"time"

	"poster-browser/internal/logging"
	"poster-browser/internal/mediatypes"
	"poster-browser/internal/metrics"
	"poster-browser/internal/poster"

	"golang.org/x/sync/errgroup"
)

// Result is what a tile needs to render a folder: the canonical poster
// if one exists, and whether the folder holds anything playable.
// Results are recomputed per scan, never persisted.
type Result struct {
	Folder     string
	PosterPath string // "" when the folder has no poster
	HasMedia   bool
}

// Scanner inspects media folders for posters and playable files.
type Scanner struct {
	store *poster.Store
}

// New creates a scanner resolving posters against store.
func New(store *poster.Store) *Scanner {
	return &Scanner{store: store}
}

// Scan inspects one folder. Poster presence is a pure path derivation
// plus one stat: no directory listing is needed to find the poster.
// Media detection lists the folder's immediate entries once and stops
// at the first playable file. Any failure degrades to an empty result;
// Scan never returns an error.
func (s *Scanner) Scan(folder string) Result {
	start := time.Now()
	res := Result{Folder: folder}

	candidate := s.store.Lookup(folder)
	if info, err := os.Stat(candidate); err == nil && info.Size() > 0 {
		res.PosterPath = candidate
	}

	res.HasMedia = hasPlayable(folder)

	posterLabel, mediaLabel := "absent", "no"
	if res.PosterPath != "" {
		posterLabel = "found"
	}
	if res.HasMedia {
		mediaLabel = "yes"
	}
	metrics.ScansTotal.WithLabelValues(posterLabel, mediaLabel).Inc()
	metrics.ScanDuration.Observe(time.Since(start).Seconds())

	return res
}

// ScanAsync runs Scan off the caller's goroutine and hands the result
// to cb. Fire-and-forget: the tile registers a callback and returns to
// the event loop immediately.
func (s *Scanner) ScanAsync(folder string, cb func(Result)) {
	go func() {
		cb(s.Scan(folder))
	}()
}

// ScanAll scans folders with at most limit scans in flight and returns
// results in input order. limit <= 0 scans everything at once.
func (s *Scanner) ScanAll(folders []string, limit int) []Result {
	results := make([]Result, len(folders))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, folder := range folders {
		i, folder := i, folder
		g.Go(func() error {
			results[i] = s.Scan(folder)
			return nil
		})
	}
	// Scan never errors, so neither does the group.
	_ = g.Wait()

	return results
}

// hasPlayable reports whether folder directly contains a playable
// media file. Permission errors and vanished folders read as "no".
func hasPlayable(folder string) bool {
	entries, err := os.ReadDir(folder)
	if err != nil {
		logging.Debug("scanner: cannot list %s: %v", folder, err)
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if mediatypes.IsVideo(e.Name()) {
			return true
		}
	}
	return false
}

// FirstPlayable returns the path of the first playable media file
// directly inside folder, or "" when there is none. Used by the tile
// layer to pick a launch target.
func FirstPlayable(folder string) string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if mediatypes.IsVideo(e.Name()) {
			return filepath.Join(folder, e.Name())
		}
	}
	return ""
}
