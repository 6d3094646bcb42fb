package workers

import (
	"runtime"
	"testing"
)

func TestCountRespectsLimit(t *testing.T) {
	t.Setenv("POSTER_WORKERS", "")
	if got := Count(100.0, 4); got != 4 {
		t.Errorf("Count(100.0, 4) = %d, want 4", got)
	}
}

func TestCountFloor(t *testing.T) {
	t.Setenv("POSTER_WORKERS", "")
	if got := Count(0.0001, 0); got < MinWorkers {
		t.Errorf("Count should never drop below %d, got %d", MinWorkers, got)
	}
}

func TestCountNoLimit(t *testing.T) {
	t.Setenv("POSTER_WORKERS", "")
	want := runtime.GOMAXPROCS(0)
	if want < MinWorkers {
		want = MinWorkers
	}
	if got := Count(1.0, 0); got != want {
		t.Errorf("Count(1.0, 0) = %d, want %d", got, want)
	}
}

func TestOverride(t *testing.T) {
	t.Setenv("POSTER_WORKERS", "3")
	if got := Count(1.0, 0); got != 3 {
		t.Errorf("POSTER_WORKERS override ignored: got %d, want 3", got)
	}
	// The limit still caps an override.
	if got := Count(1.0, 2); got != 2 {
		t.Errorf("Limit should cap the override: got %d, want 2", got)
	}
}

func TestOverrideInvalid(t *testing.T) {
	t.Setenv("POSTER_WORKERS", "not-a-number")
	if got := Count(1.0, 4); got < MinWorkers || got > 4 {
		t.Errorf("Invalid override should fall back to calculation, got %d", got)
	}
}

func TestHelpers(t *testing.T) {
	t.Setenv("POSTER_WORKERS", "")
	if ForCPU(8) > 8 || ForIO(8) > 8 || ForMixed(8) > 8 {
		t.Error("Helper functions must honor the limit")
	}
	if ForIO(0) < ForCPU(0) {
		t.Error("I/O-bound pools should not be smaller than CPU-bound pools")
	}
}
