//go:build !linux

package clocksource

type syscallSource struct{}

// Syscall returns a source that reports every clock as unsupported; the
// direct system call path is only wired up on Linux.
func Syscall() Source { return syscallSource{} }

func (syscallSource) Name() string { return SyscallName }

func (syscallSource) Now(clock ClockID) (Timestamp, error) {
	return Timestamp{}, &ReadError{Source: SyscallName, Clock: clock, Err: ErrUnsupportedClock}
}

func (syscallSource) Supports(ClockID) bool { return false }
