package cindex

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// TiePolicy decides what happens when adding and subtracting a feature give
// the same score.
type TiePolicy int

const (
	// TieDrop skips the feature for that round.
	TieDrop TiePolicy = iota
	// TiePreferAdd records the addition.
	TiePreferAdd
	// TiePreferSubtract records the subtraction.
	TiePreferSubtract
)

func (p TiePolicy) String() string {
	switch p {
	case TiePreferAdd:
		return "add"
	case TiePreferSubtract:
		return "subtract"
	default:
		return "drop"
	}
}

// ParseTiePolicy accepts "drop", "add" or "subtract".
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return TieDrop, nil
	case "add", "+", "prefer-add":
		return TiePreferAdd, nil
	case "subtract", "sub", "-", "prefer-subtract":
		return TiePreferSubtract, nil
	default:
		return TieDrop, fmt.Errorf("unknown tie policy %q (use drop, add or subtract)", s)
	}
}

// Option configures a Composer.
type Option func(*Composer)

// WithRoundingDigits sets the decimals kept on scores and on the running
// composite. Negative disables rounding.
func WithRoundingDigits(d int) Option { return func(c *Composer) { c.digits = d } }

// WithRoundSeed also rounds the score of the starting feature alone.
func WithRoundSeed(on bool) Option { return func(c *Composer) { c.roundSeed = on } }

// WithTiePolicy sets how add/subtract ties are resolved.
func WithTiePolicy(p TiePolicy) Option { return func(c *Composer) { c.tie = p } }

// WithWorkers bounds how many starting features are composed at once.
func WithWorkers(n int) Option { return func(c *Composer) { c.workers = n } }

// WithOnRun registers a hook called once per starting feature, in index
// order, from the goroutine that called Run.
func WithOnRun(fn func(CompositeRun)) Option { return func(c *Composer) { c.onRun = fn } }

// WithLogger sets the logger used for per-run diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Composer) {
		if l != nil {
			c.log = l
		}
	}
}

// Composer grows one composite index per starting feature.
type Composer struct {
	digits    int
	roundSeed bool
	tie       TiePolicy
	workers   int
	onRun     func(CompositeRun)
	log       logrus.FieldLogger
}

// NewComposer returns a Composer with 4-decimal rounding, the drop tie policy
// and sequential execution unless overridden.
func NewComposer(opts ...Option) *Composer {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	c := &Composer{digits: DefaultRoundingDigits, tie: TieDrop, workers: 1, log: quiet}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run composes from every feature in turn and returns one CompositeRun per
// feature, ordered by starting index. Shape and empty-group problems fail the
// whole call; a degenerate round only sets Err on the affected run.
func (c *Composer) Run(ctx context.Context, f Features, g Groups) ([]CompositeRun, error) {
	if err := validate(f, g); err != nil {
		return nil, err
	}
	runs := make([]CompositeRun, f.M())
	if c.workers <= 1 {
		for i := range runs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			runs[i] = c.compose(f, g, i)
			c.emit(runs[i])
		}
		return runs, nil
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers)
	for i := range runs {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			runs[i] = c.compose(f, g, i)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, r := range runs {
		c.emit(r)
	}
	return runs, nil
}

// RunOne composes from a single starting feature. The returned error is the
// run's Err when a round degenerates.
func (c *Composer) RunOne(f Features, g Groups, start int) (CompositeRun, error) {
	if err := validate(f, g); err != nil {
		return CompositeRun{}, err
	}
	if start < 0 || start >= f.M() {
		return CompositeRun{}, shapeErr("start %d outside [0, %d)", start, f.M())
	}
	run := c.compose(f, g, start)
	c.emit(run)
	return run, run.Err
}

func validate(f Features, g Groups) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return g.Validate(f.N())
}

func (c *Composer) emit(r CompositeRun) {
	if c.onRun != nil {
		c.onRun(r)
	}
}

type candidate struct {
	pos   int
	score float64
	sign  Sign
}

func (c *Composer) compose(f Features, g Groups, start int) CompositeRun {
	m := f.M()
	log := c.log.WithFields(logrus.Fields{"start": start, "feature": f.Names[start]})

	x := slices.Clone(f.Columns[start])
	seed := Score(x, g.Positive, g.Negative)
	if c.roundSeed {
		seed = Round(seed, c.digits)
	}
	dir := Minus
	if pm, nm := GroupMeans(x, g.Positive, g.Negative); nm > pm {
		dir = Plus
	}
	run := CompositeRun{
		Start:      start,
		Trajectory: append(make([]float64, 0, m), seed),
		Features:   append(make([]string, 0, m), f.Names[start]),
		Columns:    append(make([]int, 0, m), start),
		Signs:      append(make([]Sign, 0, m), Plus),
		Directions: append(make([]Sign, 0, m), dir),
		digits:     c.digits,
	}
	log.Debugf("initial direction %s, D=%v", dir, seed)

	remaining := make([]int, 0, m-1)
	for j := 0; j < m; j++ {
		if j != start {
			remaining = append(remaining, j)
		}
	}
	buf := make([]float64, len(x))
	for len(remaining) > 0 {
		best, ok, degenerate := c.round(x, buf, f, g, remaining)
		if !ok {
			if degenerate {
				run.Err = &RoundError{Start: start, Feature: f.Names[start], Step: len(run.Trajectory)}
				log.WithError(run.Err).Warn("composite aborted")
			} else {
				run.Truncated = true
				log.Debugf("all %d remaining candidates tied, stopping", len(remaining))
			}
			break
		}
		j := remaining[best.pos]
		run.Trajectory = append(run.Trajectory, best.score)
		run.Features = append(run.Features, f.Names[j])
		run.Columns = append(run.Columns, j)
		run.Signs = append(run.Signs, best.sign)
		if best.sign == Plus {
			run.Directions = append(run.Directions, dir)
		} else {
			run.Directions = append(run.Directions, dir.Flip())
		}
		col := f.Columns[j]
		for i := range x {
			if best.sign == Plus {
				x[i] = Round(x[i]+col[i], c.digits)
			} else {
				x[i] = Round(x[i]-col[i], c.digits)
			}
		}
		remaining = slices.Delete(remaining, best.pos, best.pos+1)
		log.Debugf("step %d: %s%s D=%v", len(run.Trajectory)-1, best.sign, f.Names[j], best.score)
	}
	run.MonotonicLen = MonotonicPrefix(run.Trajectory)
	return run
}

// round scores every remaining feature both ways and returns the winner.
// degenerate is set when no feature had a finite score at all.
func (c *Composer) round(x, buf []float64, f Features, g Groups, remaining []int) (best candidate, ok, degenerate bool) {
	tied := false
	for pos, j := range remaining {
		col := f.Columns[j]
		for i := range x {
			buf[i] = x[i] + col[i]
		}
		add := Round(Score(buf, g.Positive, g.Negative), c.digits)
		for i := range x {
			buf[i] = x[i] - col[i]
		}
		sub := Round(Score(buf, g.Positive, g.Negative), c.digits)

		cand, recorded := c.choose(add, sub)
		if !recorded {
			if finite(add) {
				tied = true
			}
			continue
		}
		cand.pos = pos
		if !ok || better(cand.score, best.score) {
			best, ok = cand, true
		}
	}
	return best, ok, !ok && !tied
}

// choose picks between adding and subtracting one feature. It reports false
// when neither is recorded: both non-finite, or tied under TieDrop.
func (c *Composer) choose(add, sub float64) (candidate, bool) {
	switch {
	case better(add, sub):
		return candidate{score: add, sign: Plus}, true
	case better(sub, add):
		return candidate{score: sub, sign: Minus}, true
	case !finite(add):
		return candidate{}, false
	}
	switch c.tie {
	case TiePreferAdd:
		return candidate{score: add, sign: Plus}, true
	case TiePreferSubtract:
		return candidate{score: sub, sign: Minus}, true
	}
	return candidate{}, false
}
