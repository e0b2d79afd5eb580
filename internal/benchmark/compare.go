package benchmark

import (
	"fmt"
)

// Comparison relates a result to a baseline. Speedup above 1 means Result
// is faster than Baseline.
type Comparison struct {
	Baseline       Result  `json:"baseline"`
	Result         Result  `json:"result"`
	Speedup        float64 `json:"speedup"`
	ImprovementPct float64 `json:"improvement_pct"`
}

// Compare computes speedup and percentage improvement of result over baseline.
func Compare(baseline, result Result) (Comparison, error) {
	if baseline.AvgCycles <= 0 {
		return Comparison{}, fmt.Errorf("baseline %q: %w", baseline.Label, ErrZeroAverage)
	}
	if result.AvgCycles <= 0 {
		return Comparison{}, fmt.Errorf("result %q: %w", result.Label, ErrZeroAverage)
	}
	return Comparison{
		Baseline:       baseline,
		Result:         result,
		Speedup:        baseline.AvgCycles / result.AvgCycles,
		ImprovementPct: (baseline.AvgCycles - result.AvgCycles) / baseline.AvgCycles * 100,
	}, nil
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s vs %s: %.2fx (%.1f%%)", c.Result.Label, c.Baseline.Label, c.Speedup, c.ImprovementPct)
}

// Delta is the change of one labelled result between two saved runs.
type Delta struct {
	Label      string  `json:"label"`
	Prev       Result  `json:"prev"`
	Curr       Result  `json:"curr"`
	AvgDiffPct float64 `json:"avg_diff_pct"` // positive means slower
}

// CompareRuns matches results by label and returns the percentage change in
// average cycles for every label present in both runs, in curr's order.
func CompareRuns(prev, curr Run) []Delta {
	prevByLabel := make(map[string]Result, len(prev.Results))
	for _, r := range prev.Results {
		prevByLabel[r.Label] = r
	}

	var deltas []Delta
	for _, c := range curr.Results {
		p, ok := prevByLabel[c.Label]
		if !ok {
			continue
		}
		d := Delta{Label: c.Label, Prev: p, Curr: c}
		if p.AvgCycles > 0 {
			d.AvgDiffPct = (c.AvgCycles - p.AvgCycles) / p.AvgCycles * 100
		}
		deltas = append(deltas, d)
	}
	return deltas
}

// Regressed reports whether the delta is slower than thresholdPct.
func (d Delta) Regressed(thresholdPct float64) bool {
	return d.AvgDiffPct > thresholdPct
}

func (d Delta) String() string {
	return fmt.Sprintf("%s: %+.2f%% avg cycles", d.Label, d.AvgDiffPct)
}
