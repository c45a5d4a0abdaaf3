package cindex

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separatorFixture() (Features, Groups) {
	return Features{
			Names: []string{"A", "B", "C"},
			Columns: [][]float64{
				{2, 2, 2, -2, -2, -2},
				{0.5, -0.3, 0.1, 0.4, -0.6, 0.2},
				{-0.2, 0.7, -0.4, 0.3, 0.1, -0.5},
			},
		}, Groups{
			Positive: []int{0, 1, 2},
			Negative: []int{3, 4, 5},
		}
}

// randomFixture builds m roughly standardized columns of n rows with groups
// taken from a noisy copy of the first column.
func randomFixture(seed int64, n, m int) (Features, Groups) {
	rng := rand.New(rand.NewSource(seed))
	f := Features{Names: make([]string, m), Columns: make([][]float64, m)}
	for j := 0; j < m; j++ {
		f.Names[j] = string(rune('a' + j))
		col := make([]float64, n)
		for i := range col {
			col[i] = Round(rng.NormFloat64(), 4)
		}
		f.Columns[j] = col
	}
	cond := make([]float64, n)
	for i := range cond {
		cond[i] = 0.7*f.Columns[0][i] - 0.5*f.Columns[1][i] + 0.5*rng.NormFloat64()
	}
	return f, Split(cond, 0.5, -0.5)
}

func TestRunSeparatorScenario(t *testing.T) {
	f, g := separatorFixture()
	runs, err := NewComposer().Run(context.Background(), f, g)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	a := runs[0]
	assert.True(t, math.IsInf(a.Trajectory[0], 1), "perfect separator scores +Inf alone")
	assert.Equal(t, []string{"A", "B", "C"}, a.Features)
	assert.Equal(t, []int{0, 1, 2}, a.Columns)
	assert.Equal(t, []float64{57.3068, 46.7814}, a.Trajectory[1:])
	assert.Equal(t, 1, a.MonotonicLen)

	b := runs[1]
	assert.InDelta(t, 0.034090909090909095, b.Trajectory[0], 1e-15)
	assert.Equal(t, []string{"B", "A", "C"}, b.Features)
	assert.Equal(t, []float64{57.3068, 46.7814}, b.Trajectory[1:])
	assert.Equal(t, []Sign{Plus, Plus, Plus}, b.Signs)
	assert.Equal(t, []Sign{Minus, Minus, Minus}, b.Directions)
	assert.Equal(t, 2, b.MonotonicLen)

	c := runs[2]
	assert.Equal(t, []string{"C", "A", "B"}, c.Features)
	assert.Equal(t, []float64{48.0129, 46.7814}, c.Trajectory[1:])
	assert.Equal(t, 2, c.MonotonicLen)

	for _, r := range runs {
		assert.NoError(t, r.Err)
		assert.False(t, r.Truncated)
	}
}

func TestRunProperties(t *testing.T) {
	f, g := randomFixture(7, 60, 6)
	runs, err := NewComposer().Run(context.Background(), f, g)
	require.NoError(t, err)
	require.Len(t, runs, f.M())

	wantNames := slices.Sorted(slices.Values(f.Names))
	for i, r := range runs {
		require.NoError(t, r.Err)
		assert.Equal(t, i, r.Start)
		assert.Equal(t, f.Names[i], r.Features[0])
		if !r.Truncated {
			assert.Len(t, r.Trajectory, f.M())
			assert.Equal(t, wantNames, slices.Sorted(slices.Values(r.Features)))
		}

		for k := range r.Signs {
			assert.Equal(t, r.Signs[k] == Plus, r.Directions[k] == r.Directions[0], "run %d step %d", i, k)
		}

		n := r.MonotonicLen
		require.GreaterOrEqual(t, n, 1)
		for k := 1; k < n; k++ {
			assert.GreaterOrEqual(t, r.Trajectory[k], r.Trajectory[k-1])
		}
		if n < len(r.Trajectory) {
			assert.Less(t, r.Trajectory[n], r.Trajectory[n-1])
		}
		for _, s := range r.Trajectory[1:] {
			assert.Equal(t, Round(s, 4), s, "candidate scores are rounded")
		}
	}
}

func TestRunDeterministic(t *testing.T) {
	f, g := randomFixture(11, 40, 5)
	first, err := NewComposer().Run(context.Background(), f, g)
	require.NoError(t, err)
	again, err := NewComposer().Run(context.Background(), f, g)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	parallel, err := NewComposer(WithWorkers(3)).Run(context.Background(), f, g)
	require.NoError(t, err)
	assert.Equal(t, first, parallel)
}

func TestRunDoesNotMutateInput(t *testing.T) {
	f, g := randomFixture(3, 30, 4)
	cols := make([][]float64, len(f.Columns))
	for j, c := range f.Columns {
		cols[j] = slices.Clone(c)
	}
	_, err := NewComposer().Run(context.Background(), f, g)
	require.NoError(t, err)
	assert.Equal(t, cols, f.Columns)
}

func TestRunSingleFeature(t *testing.T) {
	f := Features{Names: []string{"only"}, Columns: [][]float64{{1, 0.5, -0.2, -1, -0.4}}}
	g := Groups{Positive: []int{0, 1}, Negative: []int{3, 4}}
	runs, err := NewComposer().Run(context.Background(), f, g)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Len(t, runs[0].Trajectory, 1)
	assert.Equal(t, 1, runs[0].MonotonicLen)
	assert.Equal(t, []string{"only"}, runs[0].Features)
	assert.Equal(t, []Sign{Plus}, runs[0].Signs)
}

func TestRunInputErrors(t *testing.T) {
	f, g := separatorFixture()
	scored := 0
	c := NewComposer(WithOnRun(func(CompositeRun) { scored++ }))

	tests := []struct {
		name string
		f    Features
		g    Groups
		want error
	}{
		{"empty positive", f, Groups{Negative: g.Negative}, ErrEmptyGroup},
		{"empty negative", f, Groups{Positive: g.Positive}, ErrEmptyGroup},
		{"names mismatch", Features{Names: []string{"A"}, Columns: f.Columns}, g, ErrInvalidShape},
		{"ragged", Features{Names: []string{"A", "B"}, Columns: [][]float64{{1, 2, 3, 4, 5, 6}, {1, 2}}}, g, ErrInvalidShape},
		{"no features", Features{}, g, ErrInvalidShape},
		{"index out of range", f, Groups{Positive: []int{0, 9}, Negative: g.Negative}, ErrInvalidShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := c.Run(context.Background(), tt.f, tt.g)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, runs)
		})
	}
	assert.Zero(t, scored, "no run is emitted when inputs are rejected")
}

func TestRunTiePolicies(t *testing.T) {
	// Adding or subtracting an all-zero column gives the same score.
	f := Features{
		Names:   []string{"x", "zero"},
		Columns: [][]float64{{1.2, 0.8, 1.5, -0.9, -1.1, -0.7}, {0, 0, 0, 0, 0, 0}},
	}
	g := Groups{Positive: []int{0, 1, 2}, Negative: []int{3, 4, 5}}

	runs, err := NewComposer().Run(context.Background(), f, g)
	require.NoError(t, err)
	assert.True(t, runs[0].Truncated)
	assert.Len(t, runs[0].Trajectory, 1)
	assert.NoError(t, runs[0].Err)

	run, err := NewComposer(WithTiePolicy(TiePreferAdd)).RunOne(f, g, 0)
	require.NoError(t, err)
	assert.False(t, run.Truncated)
	assert.Equal(t, []Sign{Plus, Plus}, run.Signs)
	assert.Equal(t, run.Directions[0], run.Directions[1])

	run, err = NewComposer(WithTiePolicy(TiePreferSubtract)).RunOne(f, g, 0)
	require.NoError(t, err)
	assert.Equal(t, []Sign{Plus, Minus}, run.Signs)
	assert.Equal(t, run.Directions[0].Flip(), run.Directions[1])
}

func TestRunDegenerateRoundIsLocalized(t *testing.T) {
	// Single-row groups have zero variance, so every candidate is non-finite.
	f := Features{
		Names:   []string{"p", "q", "r"},
		Columns: [][]float64{{1, -1, 0}, {0.5, 0.2, 0}, {-0.3, 0.4, 0}},
	}
	g := Groups{Positive: []int{0}, Negative: []int{1}}

	runs, err := NewComposer().Run(context.Background(), f, g)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, r := range runs {
		require.ErrorIs(t, r.Err, ErrDegenerateScore)
		var re *RoundError
		require.True(t, errors.As(r.Err, &re))
		assert.Equal(t, i, re.Start)
		assert.Equal(t, 1, re.Step)
		assert.Len(t, r.Trajectory, 1)
	}

	_, err = SelectBest(runs)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestRunTieAmongNonFiniteTruncates(t *testing.T) {
	// x±y is constant within both groups (+Inf); x±z ties on a finite score.
	f := Features{
		Names: []string{"x", "y", "z"},
		Columns: [][]float64{
			{1, 1, 1, -1, -1, -1},
			{1, 1, 1, 2, 2, 2},
			{1, -1, 0, 1, -1, 0},
		},
	}
	g := Groups{Positive: []int{0, 1, 2}, Negative: []int{3, 4, 5}}

	run, err := NewComposer().RunOne(f, g, 0)
	require.NoError(t, err)
	assert.NoError(t, run.Err)
	assert.True(t, run.Truncated)
	require.Len(t, run.Trajectory, 1)
	assert.True(t, math.IsInf(run.Trajectory[0], 1))

	runs, err := NewComposer().Run(context.Background(), f, g)
	require.NoError(t, err)
	for _, r := range runs {
		assert.NoError(t, r.Err)
		assert.True(t, r.Truncated)
	}
	best, err := SelectBest(runs)
	require.NoError(t, err)
	assert.Equal(t, 0, best.Index)
}

func TestRunPrefersFiniteCandidates(t *testing.T) {
	// Adding "d" to "s" makes both groups constant (+Inf); the finite
	// candidate must still win the round.
	f := Features{
		Names: []string{"s", "d", "n"},
		Columns: [][]float64{
			{1, 2, 3, -1, -2, -3},
			{1, 0, -1, -1, 0, 1},
			{0.3, -0.2, 0.4, 0.1, -0.5, 0.2},
		},
	}
	g := Groups{Positive: []int{0, 1, 2}, Negative: []int{3, 4, 5}}
	run, err := NewComposer().RunOne(f, g, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"s", "n", "d"}, run.Features)
	assert.Equal(t, []float64{11.9651, 108.9797}, run.Trajectory[1:])
	assert.Equal(t, 1, run.MonotonicLen)
}

func TestRunOneRejectsBadStart(t *testing.T) {
	f, g := separatorFixture()
	_, err := NewComposer().RunOne(f, g, 3)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestRunHookOrder(t *testing.T) {
	f, g := randomFixture(5, 30, 5)
	for _, workers := range []int{1, 4} {
		var seen []int
		_, err := NewComposer(WithWorkers(workers), WithOnRun(func(r CompositeRun) {
			seen = append(seen, r.Start)
		})).Run(context.Background(), f, g)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, seen, "workers=%d", workers)
	}
}

func TestRunCanceled(t *testing.T) {
	f, g := randomFixture(5, 30, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewComposer().Run(ctx, f, g)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = NewComposer(WithWorkers(2)).Run(ctx, f, g)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRoundSeed(t *testing.T) {
	f, g := separatorFixture()
	run, err := NewComposer(WithRoundSeed(true)).RunOne(f, g, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0341, run.Trajectory[0])

	run, err = NewComposer(WithRoundingDigits(-1)).RunOne(f, g, 1)
	require.NoError(t, err)
	assert.InDelta(t, 57.3068, run.Trajectory[1], 1e-4)
}

func TestCompositeMatchesRunningVector(t *testing.T) {
	f, g := separatorFixture()
	run, err := NewComposer().RunOne(f, g, 1)
	require.NoError(t, err)
	x := run.Composite(f)
	want := make([]float64, f.N())
	for i := range want {
		want[i] = Round(f.Columns[1][i]+f.Columns[0][i], 4)
	}
	assert.Equal(t, want, x)
	assert.Equal(t, run.Final(), Round(Score(x, g.Positive, g.Negative), 4))
}

func TestParseTiePolicy(t *testing.T) {
	for in, want := range map[string]TiePolicy{"": TieDrop, "drop": TieDrop, "ADD": TiePreferAdd, "subtract": TiePreferSubtract} {
		got, err := ParseTiePolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, got.String())
	}
	_, err := ParseTiePolicy("coin")
	assert.Error(t, err)
}
