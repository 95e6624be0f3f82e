// Package memory configures the Go runtime memory limit for containers.
//
// Go reads the cgroup CPU quota for GOMAXPROCS but never the memory limit,
// so an image decoder burst can get the process OOM-killed. Call
// [ConfigureFromEnv] first thing in main:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// With MEMORY_LIMIT set (typically from the Kubernetes Downward API), the
// heap limit becomes MEMORY_LIMIT * MEMORY_RATIO, ratio defaulting to 0.85.
// An explicit GOMEMLIMIT always wins.
package memory
