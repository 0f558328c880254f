// Package memory keeps the intake service inside its container's memory
// budget.
//
// GOMAXPROCS follows cgroup CPU limits automatically, GOMEMLIMIT does not.
// [ConfigureFromEnv] derives it from the container limit and should run
// first thing in main:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// # Environment Variables
//
//   - GOMEMLIMIT: the standard Go variable. When set it wins and nothing
//     else is read.
//   - MEMORY_LIMIT: the container limit, either raw bytes (as the Kubernetes
//     Downward API writes it) or a size string such as "512MB".
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap, between
//     0 and 1. Defaults to 0.85; lower it when libvips is enabled, since its
//     allocations are outside the Go heap.
//
// # Upload Admission
//
// Decoding an upload holds both the raw bytes and the bitmap in memory. A
// [Monitor] samples heap usage and refuses new uploads once it crosses the
// critical water mark, accepting them again below the high water mark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	if err := monitor.Admit(); err != nil {
//	    // respond 503
//	}
package memory
