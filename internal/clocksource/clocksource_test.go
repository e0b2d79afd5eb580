package clocksource

import (
	"errors"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	harnesserr "vdsobench/internal/errors"
)

func TestTimestampMath(t *testing.T) {
	a := Timestamp{Sec: 10, Nsec: 900_000_000}
	b := Timestamp{Sec: 11, Nsec: 100_000_000}

	assert.Equal(t, int64(10_900_000_000), a.Nanos())
	assert.Equal(t, int64(200_000_000), b.Sub(a))
	assert.Equal(t, int64(-200_000_000), a.Sub(b))
	assert.Equal(t, Timestamp{Sec: 3, Nsec: 5}, FromNanos(3_000_000_005))
	assert.Equal(t, "10.900000000", a.String())

	assert.True(t, a.Valid())
	assert.False(t, Timestamp{Nsec: 1_000_000_000}.Valid())
	assert.False(t, Timestamp{Nsec: -1}.Valid())
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want ClockID
	}{
		{"monotonic", Monotonic},
		{"CLOCK_MONOTONIC", Monotonic},
		{"realtime", Realtime},
		{"boottime", Boottime},
		{"monotonic-raw", MonotonicRaw},
		{"Realtime_Coarse", RealtimeCoarse},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseClock("tai")
	require.Error(t, err)
	assert.ErrorIs(t, err, harnesserr.ErrConfiguration)
}

func TestClockIDString(t *testing.T) {
	assert.Equal(t, "monotonic", Monotonic.String())
	assert.Equal(t, "clock(42)", ClockID(42).String())
	assert.True(t, Realtime.WallClock())
	assert.False(t, Boottime.WallClock())
}

func TestFastMonotonicAndRealtime(t *testing.T) {
	src := Fast()
	assert.Equal(t, FastName, src.Name())

	prev, err := src.Now(Monotonic)
	require.NoError(t, err)
	require.True(t, prev.Valid())
	for i := 0; i < 10000; i++ {
		cur, err := src.Now(Monotonic)
		require.NoError(t, err)
		require.GreaterOrEqual(t, cur.Sub(prev), int64(0), "monotonic went backwards at %d", i)
		prev = cur
	}

	wall, err := src.Now(Realtime)
	require.NoError(t, err)
	assert.Positive(t, wall.Sec)
	assert.InDelta(t, time.Now().Unix(), wall.Sec, 2)
}

func TestFastUnsupportedWithoutLibc(t *testing.T) {
	if libcAvailable {
		t.Skip("libc clock_gettime available")
	}
	_, err := Fast().Now(Boottime)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedClock)
	assert.ErrorIs(t, err, harnesserr.ErrAdapter)
	assert.ElementsMatch(t, []ClockID{Realtime, Monotonic}, Clocks(Fast()))
}

func TestFastAgreesWithSyscall(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("syscall path is Linux only")
	}
	fast, slow := Fast(), Syscall()
	for _, clock := range Clocks(fast) {
		a, err := fast.Now(clock)
		require.NoError(t, err, clock.String())
		b, err := slow.Now(clock)
		require.NoError(t, err, clock.String())

		// Coarse clocks tick at jiffy resolution, so allow one tick of slack.
		limit := int64(time.Millisecond)
		if clock == RealtimeCoarse || clock == MonotonicCoarse {
			limit = int64(20 * time.Millisecond)
		}
		diff := b.Sub(a)
		if diff < 0 {
			diff = -diff
		}
		assert.Less(t, diff, limit, "clock %s", clock)
	}
}

func TestSyscallInvalidClock(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("syscall path is Linux only")
	}
	_, err := Syscall().Now(ClockID(100))
	require.Error(t, err)

	var re *ReadError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, SyscallName, re.Source)
	assert.ErrorIs(t, err, harnesserr.ErrAdapter)

	var errno syscall.Errno
	assert.True(t, errors.As(err, &errno), "status should carry the errno")
}

func TestFuncSource(t *testing.T) {
	boom := errors.New("boom")
	src := FuncSource{Label: "fake", Fn: func(c ClockID) (Timestamp, error) {
		if c == Boottime {
			return Timestamp{}, boom
		}
		return Timestamp{Sec: 1}, nil
	}}

	ts, err := src.Now(Monotonic)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ts.Sec)

	_, err = src.Now(Boottime)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, harnesserr.ErrAdapter)
	assert.Contains(t, err.Error(), "fake: read boottime")
	assert.Len(t, Clocks(src), len(Standard))
}
