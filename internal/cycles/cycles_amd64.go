//go:build amd64

package cycles

// rdtsc reads the Time Stamp Counter after an LFENCE.
// Implemented in cycles_amd64.s
//
//go:noescape
func rdtsc() uint64

type tsc struct{}

func (tsc) Read() uint64 { return rdtsc() }

func (tsc) Name() string { return "rdtsc" }

func (tsc) Native() bool { return true }

func native() Counter { return tsc{} }
