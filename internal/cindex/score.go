package cindex

import "math"

// DefaultRoundingDigits is the number of decimals kept on candidate scores
// and on the running composite.
const DefaultRoundingDigits = 4

// Score returns the separation between the positive and negative groups of v:
//
//	(mean(v[pos]) - mean(v[neg]))^2 / (var(v[pos]) + var(v[neg]))
//
// using population variance. Both groups must be non-empty. When both groups
// are constant the result is NaN or +Inf and is returned as is.
func Score(v []float64, pos, neg []int) float64 {
	mp, vp := meanVar(v, pos)
	mn, vn := meanVar(v, neg)
	d := mp - mn
	return d * d / (vp + vn)
}

// GroupMeans returns the mean of v over each group.
func GroupMeans(v []float64, pos, neg []int) (posMean, negMean float64) {
	posMean, _ = meanVar(v, pos)
	negMean, _ = meanVar(v, neg)
	return posMean, negMean
}

func meanVar(v []float64, idx []int) (mean, variance float64) {
	n := float64(len(idx))
	for _, i := range idx {
		mean += v[i]
	}
	mean /= n
	for _, i := range idx {
		d := v[i] - mean
		variance += d * d
	}
	variance /= n
	return mean, variance
}

// Round rounds x half-to-even at the given number of decimals. A negative
// digits value leaves x unchanged, as do NaN and infinities.
func Round(x float64, digits int) float64 {
	if digits < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(digits))
	return math.RoundToEven(x*p) / p
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// better reports whether a beats b: a finite score beats any non-finite one,
// and among finite scores the larger wins.
func better(a, b float64) bool {
	if !finite(a) {
		return false
	}
	return !finite(b) || a > b
}
