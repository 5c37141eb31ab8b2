//go:build !(linux || darwin || freebsd)

package timer

import "time"

// Without a per-thread cpu clock the wall clock is the closest stand-in.
func threadCPU(base time.Time) time.Duration {
	return time.Since(base)
}

func processCPU(base time.Time) time.Duration {
	return time.Since(base)
}
