// Package cindex builds composite indices from standardized features by
// greedy sequential selection, maximizing the separation between a positive
// and a negative group of observations.
package cindex

import (
	"fmt"
	"math"
)

// Sign marks a feature as added ('+') or subtracted ('-'), and doubles as the
// stress direction label.
type Sign byte

const (
	Plus  Sign = '+'
	Minus Sign = '-'
)

func (s Sign) String() string { return string(rune(s)) }

// Flip returns the opposite sign.
func (s Sign) Flip() Sign {
	if s == Plus {
		return Minus
	}
	return Plus
}

// Features is an N x M table stored column-wise. Names[j] labels Columns[j].
// Columns are expected to hold Z-scores; that is not checked here.
type Features struct {
	Names   []string
	Columns [][]float64
}

// M returns the number of features.
func (f Features) M() int { return len(f.Columns) }

// N returns the number of observations.
func (f Features) N() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0])
}

// Validate checks that names and columns line up and every column has N rows.
func (f Features) Validate() error {
	if len(f.Columns) == 0 {
		return shapeErr("no features")
	}
	if len(f.Names) != len(f.Columns) {
		return shapeErr("%d names for %d columns", len(f.Names), len(f.Columns))
	}
	n := len(f.Columns[0])
	if n == 0 {
		return shapeErr("no observations")
	}
	for j, col := range f.Columns {
		if len(col) != n {
			return shapeErr("column %q has %d rows, want %d", f.Names[j], len(col), n)
		}
	}
	return nil
}

// Groups holds the row indices of the positive and negative conditions.
type Groups struct {
	Positive []int
	Negative []int
}

// Split assigns rows with cond > hi to the positive group and rows with
// cond < lo to the negative group.
func Split(cond []float64, hi, lo float64) Groups {
	var g Groups
	for i, v := range cond {
		switch {
		case v > hi:
			g.Positive = append(g.Positive, i)
		case v < lo:
			g.Negative = append(g.Negative, i)
		}
	}
	return g
}

// Validate checks both groups are non-empty and index into [0, n).
func (g Groups) Validate(n int) error {
	for _, idx := range [][]int{g.Positive, g.Negative} {
		for _, i := range idx {
			if i < 0 || i >= n {
				return shapeErr("group index %d outside [0, %d)", i, n)
			}
		}
	}
	if len(g.Positive) == 0 {
		return fmt.Errorf("%w: positive group has no observations", ErrEmptyGroup)
	}
	if len(g.Negative) == 0 {
		return fmt.Errorf("%w: negative group has no observations", ErrEmptyGroup)
	}
	return nil
}

// CompositeRun is the outcome of growing a composite index from one
// starting feature.
type CompositeRun struct {
	Start      int
	Trajectory []float64
	Features   []string
	Columns    []int
	Signs      []Sign
	Directions []Sign
	// MonotonicLen is the length of the non-decreasing prefix of Trajectory.
	MonotonicLen int
	// Truncated is set when a round ended with every candidate dropped as a tie.
	Truncated bool
	// Err is set when a round could not pick a candidate; data up to that
	// round is kept.
	Err error

	digits int
}

// Final returns the score at the end of the monotonic prefix.
func (r CompositeRun) Final() float64 {
	if r.MonotonicLen == 0 {
		return math.NaN()
	}
	return r.Trajectory[r.MonotonicLen-1]
}

// Composite rebuilds the composite vector over the monotonic prefix, rounding
// after each step exactly as the composer did.
func (r CompositeRun) Composite(f Features) []float64 {
	if r.MonotonicLen == 0 {
		return nil
	}
	x := append([]float64(nil), f.Columns[r.Start]...)
	for k := 1; k < r.MonotonicLen; k++ {
		col := f.Columns[r.Columns[k]]
		for i := range x {
			if r.Signs[k] == Plus {
				x[i] = Round(x[i]+col[i], r.digits)
			} else {
				x[i] = Round(x[i]-col[i], r.digits)
			}
		}
	}
	return x
}
