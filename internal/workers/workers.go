package workers

import (
	"os"
	"runtime"
	"strconv"
)

// MinWorkers is the floor applied to every calculated pool size so a
// low-core machine still gets enough parallelism to keep tile loading
// responsive.
const MinWorkers = 2

// Count returns the number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks
//
// The limit parameter caps the worker count to prevent resource
// exhaustion. Use 0 for no limit.
//
// Can be overridden with the POSTER_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("POSTER_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	// GOMAXPROCS tracks the container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	count := int(float64(available) * multiplier)

	if count < MinWorkers {
		count = MinWorkers
	}
	if limit > 0 && count > limit {
		count = limit
	}

	return count
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
// Thumbnail rendering (read file, decode, resize, write) is mixed.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
