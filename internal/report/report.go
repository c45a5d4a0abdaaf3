// Package report renders and exports composite index results.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/cindex/internal/cindex"
	"github.com/KaramelBytes/cindex/internal/utils"
)

// Format selects the export encoding.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts md|markdown, json, yaml|yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown", "text":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use md, json or yaml)", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to
// markdown.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatMarkdown
	}
	return f
}

// Score is a float that survives JSON encoding when it is NaN or infinite.
type Score float64

func (s Score) MarshalJSON() ([]byte, error) {
	x := float64(s)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return json.Marshal(formatScore(x, -1))
	}
	return json.Marshal(x)
}

func (s *Score) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		x, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("parse score %q: %w", str, err)
		}
		*s = Score(x)
		return nil
	}
	var x float64
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}
	*s = Score(x)
	return nil
}

// Settings records the parameters a report was produced with.
type Settings struct {
	PositiveThreshold float64 `json:"positive_threshold" yaml:"positive_threshold"`
	NegativeThreshold float64 `json:"negative_threshold" yaml:"negative_threshold"`
	RoundingDigits    int     `json:"rounding_digits" yaml:"rounding_digits"`
	RoundSeed         bool    `json:"round_seed" yaml:"round_seed"`
	TiePolicy         string  `json:"tie_policy" yaml:"tie_policy"`
}

// Run is the exported form of a cindex.CompositeRun.
type Run struct {
	Start        string   `json:"start" yaml:"start"`
	Trajectory   []Score  `json:"trajectory" yaml:"trajectory"`
	Features     []string `json:"features" yaml:"features"`
	Signs        []string `json:"signs" yaml:"signs"`
	Directions   []string `json:"directions" yaml:"directions"`
	MonotonicLen int      `json:"monotonic_len" yaml:"monotonic_len"`
	Truncated    bool     `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Error        string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Best is the exported best composite index.
type Best struct {
	Start      string   `json:"start" yaml:"start"`
	Distance   Score    `json:"distance" yaml:"distance"`
	Components []string `json:"components" yaml:"components"`
}

// Report is a self-contained record of one composer invocation.
type Report struct {
	ID           string    `json:"id" yaml:"id"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	Source       string    `json:"source,omitempty" yaml:"source,omitempty"`
	Observations int       `json:"observations" yaml:"observations"`
	Positive     int       `json:"positive" yaml:"positive"`
	Negative     int       `json:"negative" yaml:"negative"`
	Features     []string  `json:"features" yaml:"features"`
	Settings     Settings  `json:"settings" yaml:"settings"`
	Runs         []Run     `json:"runs" yaml:"runs"`
	Best         *Best     `json:"best,omitempty" yaml:"best,omitempty"`
	Warnings     []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// New assembles a report and selects the best composite index.
func New(source string, settings Settings, f cindex.Features, g cindex.Groups, runs []cindex.CompositeRun) *Report {
	r := &Report{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Source:       source,
		Observations: f.N(),
		Positive:     len(g.Positive),
		Negative:     len(g.Negative),
		Features:     append([]string(nil), f.Names...),
		Settings:     settings,
		Runs:         make([]Run, 0, len(runs)),
	}
	for _, cr := range runs {
		run := Run{
			Start:        f.Names[cr.Start],
			Trajectory:   make([]Score, len(cr.Trajectory)),
			Features:     append([]string(nil), cr.Features...),
			Signs:        signStrings(cr.Signs),
			Directions:   signStrings(cr.Directions),
			MonotonicLen: cr.MonotonicLen,
			Truncated:    cr.Truncated,
		}
		for k, v := range cr.Trajectory {
			run.Trajectory[k] = Score(v)
		}
		if cr.Err != nil {
			run.Error = cr.Err.Error()
			r.Warnings = append(r.Warnings, fmt.Sprintf("run from %s stopped early: %v", run.Start, cr.Err))
		} else if cr.Truncated {
			r.Warnings = append(r.Warnings, fmt.Sprintf("run from %s stopped after %d of %d features: remaining add/subtract scores tied", run.Start, len(cr.Trajectory), f.M()))
		}
		r.Runs = append(r.Runs, run)
	}

	best, err := cindex.SelectBest(runs)
	switch {
	case err == nil:
		r.Best = &Best{
			Start:      f.Names[runs[best.Index].Start],
			Distance:   Score(best.Score),
			Components: components(signStrings(best.Directions), best.Features),
		}
	case errors.Is(err, cindex.ErrNoResult):
		r.Warnings = append(r.Warnings, "no run produced a usable distance")
	}
	return r
}

// Markdown renders a compact summary of the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[C-INDEX SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Run: %s\n", r.ID))
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Observations: %d (positive %d, negative %d)\n", r.Observations, r.Positive, r.Negative))
	b.WriteString(fmt.Sprintf("Features: %d\n", len(r.Features)))
	b.WriteString(fmt.Sprintf("Settings: thresholds %g/%g, rounding %d, tie policy %s\n\n",
		r.Settings.PositiveThreshold, r.Settings.NegativeThreshold, r.Settings.RoundingDigits, r.Settings.TiePolicy))

	b.WriteString("[RUNS]\n")
	for _, run := range r.Runs {
		n := run.MonotonicLen
		dist := "n/a"
		if n > 0 {
			dist = formatScore(float64(run.Trajectory[n-1]), 2)
		}
		b.WriteString(fmt.Sprintf("- %s: D=%s with %d component(s): %s", run.Start, dist, n,
			strings.Join(components(run.Directions[:n], run.Features[:n]), ", ")))
		if run.Error != "" {
			b.WriteString(" (aborted)")
		} else if run.Truncated {
			b.WriteString(" (truncated)")
		}
		b.WriteString("\n")
	}

	if r.Best != nil {
		b.WriteString("\n[BEST C-INDEX]\n")
		b.WriteString(fmt.Sprintf("Start: %s\n", r.Best.Start))
		b.WriteString(fmt.Sprintf("Distance: %s\n", formatScore(float64(r.Best.Distance), 2)))
		b.WriteString("Components:\n")
		for _, c := range r.Best.Components {
			b.WriteString("  ")
			b.WriteString(c)
			b.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Write encodes the report to w.
func (r *Report) Write(w io.Writer, format Format) error {
	var (
		b   []byte
		err error
	)
	switch format {
	case FormatJSON:
		b, err = utils.PrettyJSON(r)
		b = append(b, '\n')
	case FormatYAML:
		b, err = yaml.Marshal(r)
		if err != nil {
			err = fmt.Errorf("marshal yaml: %w", err)
		}
	case FormatMarkdown, "":
		b = []byte(r.Markdown())
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Save writes the report to path, atomically.
func (r *Report) Save(path string, format Format) error {
	var sb strings.Builder
	if err := r.Write(&sb, format); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, []byte(sb.String()))
}

func signStrings(s []cindex.Sign) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.String()
	}
	return out
}

// components labels each feature with its stress direction, e.g. "-SPEI3".
func components(directions, features []string) []string {
	out := make([]string, len(features))
	for i := range features {
		out[i] = directions[i] + features[i]
	}
	return out
}

func formatScore(x float64, prec int) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "+Inf"
	case math.IsInf(x, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(x, 'f', prec, 64)
}
