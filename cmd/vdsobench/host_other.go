//go:build !linux

package main

import (
	"runtime"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/cycles"
)

func detectHost(counter cycles.Counter) benchmark.HostInfo {
	return benchmark.HostInfo{Kernel: runtime.GOOS, Arch: runtime.GOARCH, Counter: counter.Name()}
}
