package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"vdsobench/internal/config"
)

func TestInfoCmd(t *testing.T) {
	useFakeEnv(t)

	out, err := executeCommand(rootCmd, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Kernel:")
	assert.Contains(t, out, "6.8.0-test")
	assert.Contains(t, out, "fake (native)")
	assert.Contains(t, out, "1000.00 MHz")
	assert.Contains(t, out, "Clocks (fast):")
	assert.Contains(t, out, "monotonic_raw")
}

func TestInfoCmd_JSON(t *testing.T) {
	useFakeEnv(t)

	out, err := executeCommand(rootCmd, "info", "--json")
	require.NoError(t, err)

	var r hostReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.True(t, r.Known)
	assert.InDelta(t, 1e9, r.FrequencyHz, 1)
	assert.Equal(t, "amd64", r.Host.Arch)
	assert.Len(t, r.Clocks["fast"], 6)
	assert.Len(t, r.Clocks["syscall"], 6)
}

func TestConfigCmd(t *testing.T) {
	useFakeEnv(t)
	t.Setenv("VDSOBENCH_BENCHMARK_WARMUP", "42")

	out, err := executeCommand(rootCmd, "config")
	require.NoError(t, err)

	var s config.Settings
	require.NoError(t, yaml.Unmarshal([]byte(out), &s))
	assert.Equal(t, 42, s.Benchmark.Warmup)
	assert.Equal(t, 2, s.Stress.Threads)
	assert.Equal(t, "file", s.History.Type)
	assert.Contains(t, out, "sustained_duration: 50ms")
}
