//go:build arm64

package cycles

// cntvct reads the virtual counter via CNTVCT_EL0.
// Implemented in cycles_arm64.s
//
//go:noescape
func cntvct() uint64

// cntfrq reads the counter frequency via CNTFRQ_EL0.
// Implemented in cycles_arm64.s
//
//go:noescape
func cntfrq() uint64

type virtualCounter struct{}

func (virtualCounter) Read() uint64 { return cntvct() }

func (virtualCounter) Name() string { return "cntvct_el0" }

func (virtualCounter) Native() bool { return true }

// NominalHz is the architected timer frequency, typically 24MHz to 1GHz.
func (virtualCounter) NominalHz() uint64 { return cntfrq() }

func native() Counter { return virtualCounter{} }
