package cindex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	pos, neg := []int{0, 1, 2}, []int{3, 4, 5}

	tests := []struct {
		name string
		v    []float64
		want float64
	}{
		{"noise", []float64{0.5, -0.3, 0.1, 0.4, -0.6, 0.2}, 0.034090909090909095},
		{"other noise", []float64{-0.2, 0.7, -0.4, 0.3, 0.1, -0.5}, 0.012903225806451596},
		{"unit spread", []float64{1, 2, 3, -1, -2, -3}, 16.0 / (2.0/3 + 2.0/3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.v, pos, neg), 1e-12)
		})
	}
}

func TestScoreDegenerate(t *testing.T) {
	pos, neg := []int{0, 1, 2}, []int{3, 4, 5}
	assert.True(t, math.IsInf(Score([]float64{2, 2, 2, -2, -2, -2}, pos, neg), 1), "constant groups with distinct means")
	assert.True(t, math.IsNaN(Score([]float64{1, 1, 1, 1, 1, 1}, pos, neg)), "constant groups with equal means")
	assert.True(t, math.IsInf(Score([]float64{3, -1}, []int{0}, []int{1}), 1), "single-element groups")
}

func TestScoreIsPure(t *testing.T) {
	v := []float64{0.5, -0.3, 0.1, 0.4, -0.6, 0.2}
	orig := append([]float64(nil), v...)
	pos, neg := []int{0, 1, 2}, []int{3, 4, 5}
	first := Score(v, pos, neg)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Score(v, pos, neg))
	}
	require.Equal(t, orig, v)
	require.Equal(t, []int{0, 1, 2}, pos)
}

func TestGroupMeans(t *testing.T) {
	pm, nm := GroupMeans([]float64{1, 2, 3, -4, -6}, []int{0, 1, 2}, []int{3, 4})
	assert.InDelta(t, 2.0, pm, 1e-12)
	assert.InDelta(t, -5.0, nm, 1e-12)
}

func TestRound(t *testing.T) {
	tests := []struct {
		x      float64
		digits int
		want   float64
	}{
		{1.23456, 4, 1.2346},
		{-1.23454, 4, -1.2345},
		{2.5, 0, 2},
		{3.5, 0, 4},
		{0.125, 2, 0.12},
		{1.23456, -1, 1.23456},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.x, tt.digits), "Round(%v, %d)", tt.x, tt.digits)
	}
	assert.True(t, math.IsNaN(Round(math.NaN(), 4)))
	assert.True(t, math.IsInf(Round(math.Inf(1), 4), 1))
}

func TestBetter(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	assert.True(t, better(1, 0.5))
	assert.False(t, better(0.5, 1))
	assert.False(t, better(1, 1))
	assert.True(t, better(0, nan))
	assert.True(t, better(0, inf))
	assert.False(t, better(inf, 0))
	assert.False(t, better(nan, 0))
	assert.False(t, better(nan, nan))
}

func TestMonotonicPrefix(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want int
	}{
		{"empty", nil, 0},
		{"single", []float64{3}, 1},
		{"increasing", []float64{1, 2, 3}, 3},
		{"plateau counts", []float64{1, 1, 2, 2}, 4},
		{"drop after two", []float64{1, 2, 1.5, 4}, 2},
		{"drop at once", []float64{5, 4, 6}, 1},
		{"inf first", []float64{math.Inf(1), 57.3, 46.8}, 1},
		{"nan stops", []float64{1, math.NaN(), 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonotonicPrefix(tt.xs))
		})
	}
}
