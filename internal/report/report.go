// Package report holds verdicts and tallies them into a run summary.
package report

import "fmt"

// Category groups checks in the suite.
type Category string

const (
	Functional  Category = "functional"
	Performance Category = "performance"
	Accuracy    Category = "accuracy"
	Stress      Category = "stress"
)

// Categories is the order the suite runs in.
var Categories = []Category{Functional, Performance, Accuracy, Stress}

// Verdict is the outcome of one check.
type Verdict struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Passed   bool     `json:"passed"`
	Skipped  bool     `json:"skipped,omitempty"`
	Value    float64  `json:"value"`
	Unit     string   `json:"unit"`
	Detail   string   `json:"detail,omitempty"`
	Err      error    `json:"-"`
}

// Pass builds a passing verdict.
func Pass(name string, cat Category, value float64, unit string) Verdict {
	return Verdict{Name: name, Category: cat, Passed: true, Value: value, Unit: unit}
}

// Check builds a verdict from a pass condition.
func Check(name string, cat Category, passed bool, value float64, unit string) Verdict {
	return Verdict{Name: name, Category: cat, Passed: passed, Value: value, Unit: unit}
}

// Fail builds a failed verdict carrying err.
func Fail(name string, cat Category, err error) Verdict {
	v := Verdict{Name: name, Category: cat, Err: err}
	if err != nil {
		v.Detail = err.Error()
	}
	return v
}

// Skip builds a skipped verdict.
func Skip(name string, cat Category, reason string) Verdict {
	return Verdict{Name: name, Category: cat, Skipped: true, Detail: reason}
}

// WithDetail returns v with Detail set.
func (v Verdict) WithDetail(format string, args ...any) Verdict {
	v.Detail = fmt.Sprintf(format, args...)
	return v
}

// Status is PASS, FAIL or SKIP.
func (v Verdict) Status() string {
	switch {
	case v.Skipped:
		return "SKIP"
	case v.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

// Aggregator counts verdicts for one suite run. Counters only grow.
// It is owned by the coordinating goroutine; workers never touch it.
type Aggregator struct {
	passed  int
	failed  int
	skipped int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records one outcome. A skipped outcome counts toward the total
// but neither passes nor fails.
func (a *Aggregator) Add(passed, skipped bool) {
	switch {
	case skipped:
		a.skipped++
	case passed:
		a.passed++
	default:
		a.failed++
	}
}

// AddVerdict records v.
func (a *Aggregator) AddVerdict(v Verdict) {
	a.Add(v.Passed, v.Skipped)
}

// Summary is the final tally of a run.
type Summary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	PassRate float64 `json:"pass_rate"`
}

// Summary computes the pass rate over every recorded verdict.
func (a *Aggregator) Summary() Summary {
	s := Summary{
		Passed:  a.passed,
		Failed:  a.failed,
		Skipped: a.skipped,
		Total:   a.passed + a.failed + a.skipped,
	}
	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total)
	}
	return s
}

// OK reports whether no verdict failed.
func (s Summary) OK() bool {
	return s.Failed == 0
}
