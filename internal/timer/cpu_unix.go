//go:build linux || darwin || freebsd

package timer

import (
	"time"

	"golang.org/x/sys/unix"
)

func threadCPU(_ time.Time) time.Duration {
	return clock(unix.CLOCK_THREAD_CPUTIME_ID)
}

func processCPU(_ time.Time) time.Duration {
	return clock(unix.CLOCK_PROCESS_CPUTIME_ID)
}

func clock(id int32) time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(id, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}
