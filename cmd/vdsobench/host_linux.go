package main

import (
	"log/slog"
	"runtime"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/cycles"
)

func detectHost(counter cycles.Counter) benchmark.HostInfo {
	info := benchmark.HostInfo{Arch: runtime.GOARCH, Counter: counter.Name()}

	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		info.Kernel = unix.ByteSliceToString(uts.Release[:])
	} else {
		slog.Debug("uname failed", "error", err)
	}

	fs, err := procfs.NewDefaultFS()
	if err != nil {
		slog.Debug("procfs unavailable", "error", err)
		return info
	}
	cpus, err := fs.CPUInfo()
	if err != nil || len(cpus) == 0 {
		slog.Debug("cpuinfo unavailable", "error", err)
		return info
	}
	info.CPUModel = cpus[0].ModelName
	return info
}
