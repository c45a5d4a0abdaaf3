package report

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/cindex/internal/cindex"
)

// Printer writes a summary of each run as the composer produces it. Pass
// Observe to cindex.WithOnRun. Figures are numbered per Printer.
type Printer struct {
	w        io.Writer
	features cindex.Features
	groups   cindex.Groups

	// Verbose prints the selected components of every run.
	Verbose bool
	// Plot draws the trajectory chart and the group boxes of every run.
	Plot bool

	fig int
}

// NewPrinter returns a Printer for runs over f and g.
func NewPrinter(w io.Writer, f cindex.Features, g cindex.Groups) *Printer {
	return &Printer{w: w, features: f, groups: g}
}

// Figures returns how many figures have been drawn.
func (p *Printer) Figures() int { return p.fig }

// Observe renders one run.
func (p *Printer) Observe(run cindex.CompositeRun) {
	if !p.Verbose && !p.Plot {
		return
	}
	name := p.features.Names[run.Start]
	if p.Verbose {
		fmt.Fprintf(p.w, "[RUN %d/%d] initial feature %s, direction %s\n", run.Start+1, p.features.M(), name, run.Directions[0])
		for k := 0; k < run.MonotonicLen; k++ {
			fmt.Fprintf(p.w, "    %s%s %s\n", run.Directions[k], run.Features[k], formatScore(run.Trajectory[k], 2))
		}
		fmt.Fprintf(p.w, "Distance reached: %s\n", formatScore(run.Final(), 2))
		if run.Err != nil {
			fmt.Fprintf(p.w, "⚠ %v\n", run.Err)
		} else if run.Truncated {
			fmt.Fprintf(p.w, "⚠ stopped after %d of %d features (tied scores)\n", len(run.Trajectory), p.features.M())
		}
	}
	if p.Plot {
		p.fig++
		fmt.Fprintf(p.w, "\nfig. %d: D by step (solid = monotonic prefix)\n", p.fig)
		fmt.Fprint(p.w, TrajectoryChart(run))
		fmt.Fprintf(p.w, "\nfig. %d: composite z-score by group\n", p.fig)
		fmt.Fprint(p.w, RenderBoxes(GroupBoxes(run, p.features, p.groups)))
	}
	fmt.Fprintln(p.w, "*********************************")
}
