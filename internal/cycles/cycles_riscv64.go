//go:build riscv64

package cycles

// rdtime reads the time CSR. RDCYCLE is not readable from user space on
// kernels that restrict perf counters, so the constant-rate timer is used
// the same way the Go runtime does for cputicks.
// Implemented in cycles_riscv64.s
//
//go:noescape
func rdtime() uint64

type timeCSR struct{}

func (timeCSR) Read() uint64 { return rdtime() }

func (timeCSR) Name() string { return "rdtime" }

func (timeCSR) Native() bool { return true }

func native() Counter { return timeCSR{} }
