package cindex

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape indicates inconsistent input dimensions or out-of-range indices.
	ErrInvalidShape = errors.New("cindex: invalid input shape")
	// ErrEmptyGroup indicates the positive or negative group has no observations.
	ErrEmptyGroup = errors.New("cindex: empty group")
	// ErrDegenerateScore indicates every candidate in a round scored NaN or ±Inf.
	ErrDegenerateScore = errors.New("cindex: degenerate score")
	// ErrNoResult indicates no run produced a usable final score.
	ErrNoResult = errors.New("cindex: no eligible composite index")
)

// RoundError localizes a degenerate round to one starting feature.
type RoundError struct {
	Start   int
	Feature string
	Step    int
}

func (e *RoundError) Error() string {
	return fmt.Sprintf("%v: start %d (%s), step %d: every candidate is non-finite", ErrDegenerateScore, e.Start, e.Feature, e.Step)
}

func (e *RoundError) Unwrap() error { return ErrDegenerateScore }

func shapeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidShape, fmt.Sprintf(format, args...))
}
