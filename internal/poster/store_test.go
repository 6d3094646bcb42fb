package poster

import (
	"os"
	"path/filepath"
	"testing"

	"poster-browser/internal/fingerprint"
)

func TestLookupBucketing(t *testing.T) {
	store := NewStore("/posters")

	folder := "/media/movies/foo"
	h := fingerprint.Folder(folder)
	want := filepath.Join("/posters", h[:2], h[:5], h+".jpg")

	if got := store.Lookup(folder); got != want {
		t.Errorf("Lookup = %s, want %s", got, want)
	}
}

func TestLookupDoesNotCreateDirectories(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	p := store.Lookup("/media/movies/foo")
	if _, err := os.Stat(filepath.Dir(p)); !os.IsNotExist(err) {
		t.Errorf("Lookup should not create bucket directories, stat err = %v", err)
	}
}

func TestPathCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	p := store.Path("/media/movies/foo")
	info, err := os.Stat(filepath.Dir(p))
	if err != nil || !info.IsDir() {
		t.Fatalf("Path should create the bucket chain: %v", err)
	}
	if p != store.Lookup("/media/movies/foo") {
		t.Error("Path and Lookup should derive the same location")
	}
}

func TestMigrateLegacy(t *testing.T) {
	root := t.TempDir()
	folder := t.TempDir()
	store := NewStore(root)

	content := []byte("poster bytes")
	legacy := filepath.Join(folder, LegacyName)
	if err := os.WriteFile(legacy, content, 0o644); err != nil {
		t.Fatalf("Failed to create legacy poster: %v", err)
	}

	dest, err := store.MigrateLegacy(folder)
	if err != nil {
		t.Fatalf("MigrateLegacy error: %v", err)
	}
	if dest != store.Lookup(folder) {
		t.Errorf("Migrated to %s, want canonical %s", dest, store.Lookup(folder))
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read migrated poster: %v", err)
	}
	if string(got) != string(content) {
		t.Error("Migrated poster bytes differ from original")
	}

	if _, err := os.Stat(legacy); !os.IsNotExist(err) {
		t.Error("Legacy poster.jpg should be gone after migration")
	}
}

func TestMigrateLegacyIdempotent(t *testing.T) {
	root := t.TempDir()
	folder := t.TempDir()
	store := NewStore(root)

	legacy := filepath.Join(folder, LegacyName)
	if err := os.WriteFile(legacy, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create legacy poster: %v", err)
	}

	if _, err := store.MigrateLegacy(folder); err != nil {
		t.Fatalf("First migration error: %v", err)
	}

	dest, err := store.MigrateLegacy(folder)
	if err != nil {
		t.Fatalf("Second migration error: %v", err)
	}
	if dest != "" {
		t.Errorf("Second migration should be a no-op, got %s", dest)
	}
}

func TestMigrateLegacyNothingToMigrate(t *testing.T) {
	store := NewStore(t.TempDir())

	dest, err := store.MigrateLegacy(t.TempDir())
	if err != nil {
		t.Fatalf("MigrateLegacy error: %v", err)
	}
	if dest != "" {
		t.Errorf("Expected empty destination, got %s", dest)
	}
}

func TestMigrateLegacyFailedCopyKeepsOriginal(t *testing.T) {
	folder := t.TempDir()
	legacy := filepath.Join(folder, LegacyName)
	if err := os.WriteFile(legacy, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("Failed to create legacy poster: %v", err)
	}

	// Posters root is a file, so creating bucket directories fails.
	badRoot := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(badRoot, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	store := NewStore(badRoot)

	if _, err := store.MigrateLegacy(folder); err == nil {
		t.Fatal("Expected migration error with unusable posters root")
	}

	if _, err := os.Stat(legacy); err != nil {
		t.Errorf("Legacy poster must survive a failed copy: %v", err)
	}
}

func TestMigrateTree(t *testing.T) {
	root := t.TempDir()
	media := t.TempDir()
	store := NewStore(root)

	withPoster := []string{"a", "b/c", "b/c/d"}
	without := []string{"b", "e"}

	for _, rel := range append(append([]string{}, withPoster...), without...) {
		if err := os.MkdirAll(filepath.Join(media, rel), 0o755); err != nil {
			t.Fatalf("Failed to create folder: %v", err)
		}
	}
	for _, rel := range withPoster {
		p := filepath.Join(media, rel, LegacyName)
		if err := os.WriteFile(p, []byte(rel), 0o644); err != nil {
			t.Fatalf("Failed to create poster: %v", err)
		}
	}

	var visited int
	count, err := store.MigrateTree(media, func(migrated int, folder string) {
		visited++
	})
	if err != nil {
		t.Fatalf("MigrateTree error: %v", err)
	}
	if count != len(withPoster) {
		t.Errorf("Migrated %d folders, want %d", count, len(withPoster))
	}
	if visited == 0 {
		t.Error("Progress callback was never invoked")
	}

	for _, rel := range withPoster {
		folder := filepath.Join(media, rel)
		if _, err := os.Stat(store.Lookup(folder)); err != nil {
			t.Errorf("Missing migrated poster for %s: %v", rel, err)
		}
		if _, err := os.Stat(filepath.Join(folder, LegacyName)); !os.IsNotExist(err) {
			t.Errorf("Legacy poster for %s should be gone", rel)
		}
	}
}
