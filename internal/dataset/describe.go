package dataset

import (
	"fmt"
	"math"
	"strings"

	"github.com/aclements/go-moremath/stats"

	"github.com/KaramelBytes/cindex/internal/cindex"
)

// DefaultTolerance is how far a column's mean may sit from 0, and its
// standard deviation from 1, before it is flagged as not standardized.
const DefaultTolerance = 0.05

// ColumnSummary describes one feature column.
type ColumnSummary struct {
	Name   string
	N      int
	Mean   float64
	Std    float64 // population
	Min    float64
	Median float64
	Max    float64
	// Standardized is false when the column does not look like Z-scores.
	Standardized bool
}

// Summary describes a feature table.
type Summary struct {
	Name      string
	Rows      int
	Cols      []ColumnSummary
	Tolerance float64
	Warnings  []string
}

// Describe computes per-column statistics and flags columns that are not
// Z-score standardized. tol <= 0 selects DefaultTolerance.
func Describe(name string, f cindex.Features, tol float64) *Summary {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	s := &Summary{Name: name, Rows: f.N(), Tolerance: tol}
	for j, col := range f.Columns {
		c := ColumnSummary{Name: f.Names[j], Min: math.Inf(1), Max: math.Inf(-1)}
		// Welford update
		var m2 float64
		for _, x := range col {
			c.N++
			if x < c.Min {
				c.Min = x
			}
			if x > c.Max {
				c.Max = x
			}
			delta := x - c.Mean
			c.Mean += delta / float64(c.N)
			m2 += delta * (x - c.Mean)
		}
		if c.N > 0 {
			c.Std = math.Sqrt(m2 / float64(c.N))
			c.Median = stats.Sample{Xs: col}.Quantile(0.5)
		}
		c.Standardized = math.Abs(c.Mean) <= tol && math.Abs(c.Std-1) <= tol
		if !c.Standardized {
			s.Warnings = append(s.Warnings, fmt.Sprintf("column %q does not look standardized (mean %.3f, std %.3f)", c.Name, c.Mean, c.Std))
		}
		s.Cols = append(s.Cols, c)
	}
	return s
}

// Standardize returns a copy of f with every column rescaled to zero mean and
// unit population standard deviation. Constant columns are left centered.
func Standardize(f cindex.Features) cindex.Features {
	out := cindex.Features{Names: append([]string(nil), f.Names...), Columns: make([][]float64, len(f.Columns))}
	for j, col := range f.Columns {
		mean := stats.Mean(col)
		var ss float64
		for _, x := range col {
			ss += (x - mean) * (x - mean)
		}
		sd := math.Sqrt(ss / float64(len(col)))
		z := make([]float64, len(col))
		for i, x := range col {
			z[i] = x - mean
			if sd > 0 {
				z[i] /= sd
			}
		}
		out.Columns[j] = z
	}
	return out
}

// Markdown renders the summary in the same compact style as the run report.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Features: %d\n\n", len(s.Cols)))

	b.WriteString("[FEATURES]\n")
	for _, c := range s.Cols {
		mark := "z-score"
		if !c.Standardized {
			mark = "NOT standardized"
		}
		b.WriteString(fmt.Sprintf("- %s: %s (mean %.4g, std %.4g, min %.4g, median %.4g, max %.4g)\n",
			c.Name, mark, c.Mean, c.Std, c.Min, c.Median, c.Max))
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
