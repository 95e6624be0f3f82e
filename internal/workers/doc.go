/*
Package workers sizes worker pools for CPU-bound image work in containers.

Go 1.19+ sets GOMAXPROCS from the container CPU quota, while runtime.NumCPU
still reports the host. Thumbnail batches decode and resize full images, so
sizing them from the host count on a 64-core node with a 2-CPU limit only
buys context switching and throttling:

	workers := runtime.NumCPU()      // 64, ignores the quota
	workers := runtime.GOMAXPROCS(0) // 2

Usage:

	limit := workers.ForCPU(8) // one per CPU, at most 8

The THUMBNAIL_WORKERS environment variable overrides the computed value
(still capped by the limit).
*/
package workers
