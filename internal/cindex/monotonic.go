package cindex

// MonotonicPrefix returns the length of the longest leading run of xs in
// which every element is >= its predecessor. Index 0 is always included.
func MonotonicPrefix(xs []float64) int {
	if len(xs) == 0 {
		return 0
	}
	n := 1
	for n < len(xs) && xs[n] >= xs[n-1] {
		n++
	}
	return n
}
