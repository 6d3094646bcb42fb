package poster

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"poster-browser/internal/fingerprint"
	"poster-browser/internal/logging"
	"poster-browser/internal/metrics"
)

// LegacyName is the poster file convention consumed by migration:
// a poster.jpg sitting directly inside the media folder.
const LegacyName = "poster.jpg"

// Store maps media folders to canonical poster locations under a
// single root, using the folder fingerprint bucketing scheme
// root/hash[:2]/hash[:5]/hash.jpg. The bucket prefixes are prefixes of
// the same hash, so fan-out across subdirectories is even without any
// lookup table.
type Store struct {
	root string
}

// NewStore creates a poster store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Lookup returns the canonical poster path for folder without touching
// the filesystem. Use this for existence probes so that scanning a
// thousand folders does not create a thousand empty bucket
// directories.
func (s *Store) Lookup(folder string) string {
	h := fingerprint.Folder(folder)
	return filepath.Join(s.root, h[:2], h[:5], h+".jpg")
}

// Path returns the canonical poster path for folder, creating the
// bucket directory chain so the caller can write to it directly.
func (s *Store) Path(folder string) string {
	p := s.Lookup(folder)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		logging.Warn("poster: failed to create bucket for %s: %v", folder, err)
	}
	return p
}

// MigrateLegacy moves folder/poster.jpg into the store. The legacy
// file is copied first and only removed once the copy has been synced,
// so a failed copy leaves the original untouched. Returns the
// canonical path, or "" when the folder has no legacy poster.
func (s *Store) MigrateLegacy(folder string) (string, error) {
	src := filepath.Join(folder, LegacyName)
	if _, err := os.Stat(src); err != nil {
		metrics.PosterMigrationsTotal.WithLabelValues("skipped").Inc()
		return "", nil
	}

	dest := s.Path(folder)
	if err := copyFile(src, dest); err != nil {
		metrics.PosterMigrationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("poster: migrate %s: %w", folder, err)
	}

	if err := os.Remove(src); err != nil {
		// The canonical copy exists; a leftover legacy file is only
		// cosmetic and will be retried on the next migration pass.
		logging.Warn("poster: migrated %s but could not remove legacy file: %v", folder, err)
	}

	metrics.PosterMigrationsTotal.WithLabelValues("migrated").Inc()
	logging.Debug("poster: migrated %s -> %s", src, dest)
	return dest, nil
}

// ProgressFunc reports bulk migration progress: the number of posters
// migrated so far and the folder just visited.
type ProgressFunc func(migrated int, folder string)

// MigrateTree walks every folder under root and migrates each legacy
// poster found. progress may be nil. Unreadable subtrees are skipped,
// not fatal. Returns the number of folders migrated.
func (s *Store) MigrateTree(root string, progress ProgressFunc) (int, error) {
	migrated := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("poster: skipping %s during migration: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		dest, merr := s.MigrateLegacy(path)
		if merr != nil {
			logging.Warn("poster: %v", merr)
		} else if dest != "" {
			migrated++
		}
		if progress != nil {
			progress(migrated, path)
		}
		return nil
	})
	if err != nil {
		return migrated, fmt.Errorf("poster: walk %s: %w", root, err)
	}

	logging.Info("poster: migrated %d legacy posters under %s", migrated, root)
	return migrated, nil
}

// copyFile copies src to dest and syncs the destination before
// returning, so the caller can safely delete src afterwards.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
