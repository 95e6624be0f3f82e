package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that pins the worker count.
const OverrideEnv = "THUMBNAIL_WORKERS"

// Count returns the number of workers for a task, scaled from GOMAXPROCS by
// multiplier and capped by limit (0 means no cap). A positive integer in
// THUMBNAIL_WORKERS replaces the computed value.
func Count(multiplier float64, limit int) int {
	return count(runtime.GOMAXPROCS(0), os.Getenv(OverrideEnv), multiplier, limit)
}

func count(available int, override string, multiplier float64, limit int) int {
	if override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			return capAt(n, limit)
		}
	}

	n := int(float64(available) * multiplier)
	if n < 1 {
		n = 1
	}
	return capAt(n, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// The limit parameter caps the maximum number of workers.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}
