package thumbcache

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
)

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
}

func key(i int) Key {
	return Key{Source: fmt.Sprintf("/media/img%d.jpg", i), W: 360, H: 540}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := New(t.TempDir(), 10, 0.25)

	img := testImage(4, 4)
	c.Put(key(1), img)

	got := c.Get(key(1))
	if got == nil {
		t.Fatal("Get returned nil after Put")
	}
	if got != img {
		t.Error("Get should return the exact value that was Put")
	}
}

func TestGetMiss(t *testing.T) {
	c := New(t.TempDir(), 10, 0.25)
	if c.Get(key(99)) != nil {
		t.Error("Expected nil for a missing key")
	}
}

func TestBatchEviction(t *testing.T) {
	c := New(t.TempDir(), 100, 0.25)

	img := testImage(1, 1)
	for i := 0; i < 101; i++ {
		c.Put(key(i), img)
	}

	if got := c.Len(); got > 100 {
		t.Errorf("Capacity exceeded: %d entries, max 100", got)
	}

	// One pass removes the oldest 25%, not a single entry.
	evicted := 0
	for i := 0; i < 101; i++ {
		if c.Get(key(i)) == nil {
			evicted++
		}
	}
	if evicted < 25 {
		t.Errorf("Expected at least 25 evictions in one pass, got %d", evicted)
	}

	// The survivors are the most recently inserted.
	for i := 90; i < 101; i++ {
		if c.Get(key(i)) == nil {
			t.Errorf("Recently inserted key %d should have survived eviction", i)
		}
	}
	if c.Get(key(0)) != nil {
		t.Error("Oldest key should have been evicted")
	}
}

func TestGetRefreshesAge(t *testing.T) {
	c := New(t.TempDir(), 8, 0.25)

	img := testImage(1, 1)
	for i := 0; i < 8; i++ {
		c.Put(key(i), img)
	}

	// Touch the oldest entry, then overflow the cache.
	if c.Get(key(0)) == nil {
		t.Fatal("key 0 should be present")
	}
	c.Put(key(8), img)

	if c.Get(key(0)) == nil {
		t.Error("Recently accessed entry should not be evicted")
	}
	if c.Get(key(1)) != nil {
		t.Error("Oldest unrefreshed entry should be evicted")
	}
}

func TestPutBatch(t *testing.T) {
	c := New(t.TempDir(), 10, 0.25)

	items := map[Key]image.Image{
		key(1): testImage(1, 1),
		key(2): testImage(1, 1),
		key(3): testImage(1, 1),
	}
	c.PutBatch(items)

	if c.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", c.Len())
	}
	for k := range items {
		if c.Get(k) == nil {
			t.Errorf("Missing batch entry %v", k)
		}
	}
}

func TestInvalidateSource(t *testing.T) {
	c := New(t.TempDir(), 10, 0.25)

	img := testImage(1, 1)
	c.Put(Key{Source: "/media/a.jpg", W: 100, H: 100}, img)
	c.Put(Key{Source: "/media/a.jpg", W: 200, H: 200}, img)
	c.Put(Key{Source: "/media/b.jpg", W: 100, H: 100}, img)

	if removed := c.InvalidateSource("/media/a.jpg"); removed != 2 {
		t.Errorf("Expected 2 invalidations, got %d", removed)
	}
	if c.Get(Key{Source: "/media/a.jpg", W: 100, H: 100}) != nil {
		t.Error("Invalidated entry still present")
	}
	if c.Get(Key{Source: "/media/b.jpg", W: 100, H: 100}) == nil {
		t.Error("Unrelated source should be untouched")
	}
}

func TestDiskRoundTrip(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	c := New(root, 10, 0.25)

	src := filepath.Join(srcDir, "photo.jpg")
	if err := imaging.Save(testImage(50, 50), src); err != nil {
		t.Fatalf("Failed to create source image: %v", err)
	}
	k := Key{Source: src, W: 20, H: 20}

	if c.ExistsOnDisk(k) {
		t.Fatal("ExistsOnDisk true before any write")
	}

	c.PersistToDisk(k, testImage(20, 20))

	if !c.ExistsOnDisk(k) {
		t.Fatal("ExistsOnDisk false after PersistToDisk")
	}

	img := c.ReadDisk(k)
	if img == nil {
		t.Fatal("ReadDisk failed after PersistToDisk")
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Errorf("ReadDisk returned %v, want 20x20", img.Bounds())
	}
}

func TestDiskPathLayout(t *testing.T) {
	root := t.TempDir()
	c := New(root, 10, 0.25)

	k := Key{Source: "/media/x.jpg", W: 360, H: 540}
	p := c.DiskPath(k)
	if filepath.Dir(p) != filepath.Join(root, "360x540") {
		t.Errorf("Disk path %s not in {w}x{h} bucket", p)
	}
}

func TestPersistNeverLeavesPartialFile(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	c := New(root, 10, 0.25)

	src := filepath.Join(srcDir, "photo.jpg")
	if err := imaging.Save(testImage(30, 30), src); err != nil {
		t.Fatalf("Failed to create source image: %v", err)
	}
	k := Key{Source: src, W: 30, H: 30}
	path := c.DiskPath(k)

	// Hammer the same path from several writers while a reader polls.
	// Every observed file must be complete and decodable.
	var writers sync.WaitGroup
	for i := 0; i < 4; i++ {
		writers.Add(1)
		go func() {
			defer writers.Done()
			for j := 0; j < 20; j++ {
				c.PersistToDisk(k, testImage(30, 30))
			}
		}()
	}

	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			data, err := os.ReadFile(path)
			if err != nil {
				continue // not yet written
			}
			if len(data) == 0 {
				t.Error("Observed a zero-byte cache file during concurrent writes")
				return
			}
			if _, err := imaging.Open(path); err != nil {
				t.Errorf("Observed an undecodable cache file: %v", err)
				return
			}
		}
	}()

	writers.Wait()
	close(stop)
	<-readerDone
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	// Root is a plain file; bucket creation and writes fail, but the
	// cache is best effort and must not panic.
	badRoot := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(badRoot, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create blocking file: %v", err)
	}

	c := New(badRoot, 10, 0.25)
	k := Key{Source: "/media/x.jpg", W: 10, H: 10}
	c.PersistToDisk(k, testImage(10, 10))

	if c.ExistsOnDisk(k) {
		t.Error("Nothing should exist after a failed persist")
	}
}
