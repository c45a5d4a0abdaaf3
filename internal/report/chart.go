package report

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/aclements/go-moremath/stats"

	"github.com/KaramelBytes/cindex/internal/cindex"
	"github.com/KaramelBytes/cindex/internal/utils"
)

const (
	chartWidth = 40
	labelWidth = 14
)

// Box is a five-number summary of composite scores over a set of rows.
type Box struct {
	Label  string
	N      int
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// NewBox summarizes xs.
func NewBox(label string, xs []float64) Box {
	b := Box{Label: label, N: len(xs)}
	if len(xs) == 0 {
		nan := math.NaN()
		b.Min, b.Q1, b.Median, b.Q3, b.Max = nan, nan, nan, nan, nan
		return b
	}
	s := &stats.Sample{Xs: slices.Clone(xs)}
	s.Sort()
	b.Min, b.Max = s.Bounds()
	b.Q1 = s.Quantile(0.25)
	b.Median = s.Quantile(0.5)
	b.Q3 = s.Quantile(0.75)
	return b
}

// GroupBoxes summarizes the composite of run over the negative group, the
// positive group and all rows, in that order.
func GroupBoxes(run cindex.CompositeRun, f cindex.Features, g cindex.Groups) []Box {
	x := run.Composite(f)
	pick := func(idx []int) []float64 {
		out := make([]float64, len(idx))
		for i, j := range idx {
			out[i] = x[j]
		}
		return out
	}
	return []Box{
		NewBox("negative", pick(g.Negative)),
		NewBox("positive", pick(g.Positive)),
		NewBox("all", x),
	}
}

// TrajectoryChart draws one bar per step. Steps inside the monotonic prefix
// use solid bars.
func TrajectoryChart(run cindex.CompositeRun) string {
	top := 0.0
	for _, v := range run.Trajectory {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v > top {
			top = v
		}
	}
	var b strings.Builder
	for k, v := range run.Trajectory {
		label := utils.Truncate(run.Directions[k].String()+run.Features[k], labelWidth)
		fill := "░"
		if k < run.MonotonicLen {
			fill = "█"
		}
		var n int
		switch {
		case math.IsInf(v, 1):
			n = chartWidth
		case math.IsNaN(v) || math.IsInf(v, -1) || top == 0:
			n = 0
		default:
			n = int(math.Round(v / top * chartWidth))
		}
		b.WriteString(fmt.Sprintf("%3d %-*s %10s %s\n", k, labelWidth, label, formatScore(v, 4), strings.Repeat(fill, n)))
	}
	return b.String()
}

// RenderBoxes draws the boxes on a shared horizontal axis.
func RenderBoxes(boxes []Box) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, bx := range boxes {
		if bx.N == 0 {
			continue
		}
		lo = math.Min(lo, bx.Min)
		hi = math.Max(hi, bx.Max)
	}
	if math.IsInf(lo, 0) {
		return "(no rows)\n"
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}
	var b strings.Builder
	for _, bx := range boxes {
		b.WriteString(fmt.Sprintf("%-9s ", bx.Label))
		if bx.N == 0 {
			b.WriteString("(empty)\n")
			continue
		}
		b.WriteString(drawBox(bx, lo, hi))
		b.WriteString(fmt.Sprintf("  n=%d median %.2f [%.2f, %.2f]\n", bx.N, bx.Median, bx.Q1, bx.Q3))
	}
	b.WriteString(fmt.Sprintf("%-9s %-*s%*s\n", "", chartWidth/2, fmt.Sprintf("%.2f", lo), chartWidth-chartWidth/2, fmt.Sprintf("%.2f", hi)))
	return b.String()
}

func drawBox(bx Box, lo, hi float64) string {
	line := []rune(strings.Repeat(" ", chartWidth))
	at := func(x float64) int {
		i := int(math.Round((x - lo) / (hi - lo) * float64(chartWidth-1)))
		return max(0, min(chartWidth-1, i))
	}
	for i := at(bx.Min); i <= at(bx.Max); i++ {
		line[i] = '-'
	}
	for i := at(bx.Q1); i <= at(bx.Q3); i++ {
		line[i] = '='
	}
	line[at(bx.Min)] = '|'
	line[at(bx.Max)] = '|'
	line[at(bx.Median)] = '#'
	return string(line)
}
