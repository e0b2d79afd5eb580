//go:build linux && cgo

package clocksource

/*
#include <errno.h>
#include <time.h>

static int vdsobench_clock_gettime(int clk, long long *sec, long long *nsec) {
	struct timespec ts;
	if (clock_gettime((clockid_t)clk, &ts) != 0) {
		return errno;
	}
	*sec = (long long)ts.tv_sec;
	*nsec = (long long)ts.tv_nsec;
	return 0;
}
*/
import "C"

import "syscall"

const libcAvailable = true

func libcClockGettime(clock ClockID) (Timestamp, error) {
	var sec, nsec C.longlong
	if rc := C.vdsobench_clock_gettime(C.int(clock), &sec, &nsec); rc != 0 {
		return Timestamp{}, syscall.Errno(rc)
	}
	return Timestamp{Sec: int64(sec), Nsec: int64(nsec)}, nil
}
