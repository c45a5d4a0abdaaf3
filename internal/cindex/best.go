package cindex

import "math"

// Best is the composite index with the highest final score across runs.
type Best struct {
	Index      int
	Score      float64
	Features   []string
	Signs      []Sign
	Directions []Sign
}

// SelectBest picks the run whose monotonic prefix ends on the highest score.
// Earlier runs win ties. Runs with Err set or a NaN final score are skipped;
// +Inf counts as the largest score.
func SelectBest(runs []CompositeRun) (Best, error) {
	idx := -1
	var top float64
	for i, r := range runs {
		if r.Err != nil || r.MonotonicLen == 0 {
			continue
		}
		s := r.Final()
		if math.IsNaN(s) {
			continue
		}
		if idx < 0 || s > top {
			idx, top = i, s
		}
	}
	if idx < 0 {
		return Best{}, ErrNoResult
	}
	r := runs[idx]
	n := r.MonotonicLen
	return Best{
		Index:      idx,
		Score:      top,
		Features:   r.Features[:n:n],
		Signs:      r.Signs[:n:n],
		Directions: r.Directions[:n:n],
	}, nil
}
