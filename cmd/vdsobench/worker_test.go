package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdsobench/internal/clocksource"
	harnesserr "vdsobench/internal/errors"
)

func TestWorkerCmd(t *testing.T) {
	useFakeEnv(t)

	out, err := executeCommand(rootCmd, "worker", "--calls", "100", "--clock", "boottime")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestWorkerCmd_ReadFailure(t *testing.T) {
	useFakeEnv(t)
	env.Fast = func() clocksource.Source {
		return clocksource.FuncSource{Label: "broken", Fn: func(clocksource.ClockID) (clocksource.Timestamp, error) {
			return clocksource.Timestamp{}, errors.New("EINVAL")
		}}
	}

	_, err := executeCommand(rootCmd, "worker", "--calls", "10")
	require.Error(t, err)
	assert.ErrorIs(t, err, harnesserr.ErrAdapter)
	assert.Equal(t, 1, exitCode(err))
}

func TestWorkerCmd_BadClock(t *testing.T) {
	useFakeEnv(t)

	_, err := executeCommand(rootCmd, "worker", "--clock", "sundial")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}
