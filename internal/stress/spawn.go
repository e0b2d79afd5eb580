package stress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"vdsobench/internal/clocksource"
)

// Spawner runs one child worker to completion. A nil error means exit 0.
type Spawner interface {
	Spawn(ctx context.Context, id, calls int) error
}

// SpawnFunc adapts a function to Spawner.
type SpawnFunc func(ctx context.Context, id, calls int) error

func (f SpawnFunc) Spawn(ctx context.Context, id, calls int) error { return f(ctx, id, calls) }

// SelfSpawner re-executes a binary with Args followed by
// "--calls N --clock NAME".
type SelfSpawner struct {
	Path  string
	Args  []string
	Env   []string
	Clock clocksource.ClockID
}

// NewSelfSpawner re-executes the running binary's worker command.
func NewSelfSpawner(clock clocksource.ClockID) (*SelfSpawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &SelfSpawner{Path: exe, Args: []string{"worker"}, Clock: clock}, nil
}

func (s *SelfSpawner) Spawn(ctx context.Context, id, calls int) error {
	args := append(append([]string{}, s.Args...), "--calls", strconv.Itoa(calls), "--clock", s.Clock.String())
	cmd := exec.CommandContext(ctx, s.Path, args...)
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("worker %d exited with status %d: %s: %w", id, exitErr.ExitCode(), strings.TrimSpace(stderr.String()), ErrChildFailed)
		}
		return fmt.Errorf("worker %d: %w: %w", id, ErrChildFailed, err)
	}
	return nil
}
