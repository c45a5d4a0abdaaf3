// Package dataset loads standardized feature tables and conditioning
// variables from delimited text.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/cindex/internal/cindex"
)

// Options controls how tables are read.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used unless the file ends in .tsv.
	Delimiter rune
	// DecimalSeparator is '.' when 0. Set ',' for decimal-comma locales.
	DecimalSeparator rune
	// ConditionColumn, when set, is pulled out of the feature table and
	// returned as the conditioning vector.
	ConditionColumn string
}

// Table is a loaded feature matrix with an optional conditioning vector.
type Table struct {
	Name      string
	Features  cindex.Features
	Condition []float64
}

// LoadTable reads a feature table with a header row of names and one row
// per observation.
func LoadTable(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadTable(f, filepath.Base(path), opt)
}

// ReadTable is LoadTable over an arbitrary reader.
func ReadTable(r io.Reader, name string, opt Options) (*Table, error) {
	cr := newReader(r, opt)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", cindex.ErrInvalidShape, name)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	names := make([]string, ncol)
	condIdx := -1
	for j, h := range header {
		names[j] = strings.TrimSpace(h)
		if opt.ConditionColumn != "" && strings.EqualFold(names[j], strings.TrimSpace(opt.ConditionColumn)) {
			condIdx = j
		}
	}
	if opt.ConditionColumn != "" && condIdx < 0 {
		return nil, fmt.Errorf("condition column %q not found in %s", opt.ConditionColumn, name)
	}

	cols := make([][]float64, ncol)
	row := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if ncol > 1 && len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != ncol {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", cindex.ErrInvalidShape, row, len(rec), ncol)
		}
		for j, cell := range rec {
			x, err := parseNumeric(cell, opt)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", row, names[j], err)
			}
			cols[j] = append(cols[j], x)
		}
	}

	t := &Table{Name: name}
	for j := range cols {
		if j == condIdx {
			t.Condition = cols[j]
			continue
		}
		t.Features.Names = append(t.Features.Names, names[j])
		t.Features.Columns = append(t.Features.Columns, cols[j])
	}
	if err := t.Features.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// LoadCondition reads a conditioning vector laid out as one value per line
// or as a single row. A non-numeric first record is taken as a header.
func LoadCondition(path string, opt Options) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open condition: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCondition(f, opt)
}

// ReadCondition is LoadCondition over an arbitrary reader.
func ReadCondition(r io.Reader, opt Options) ([]float64, error) {
	cr := newReader(r, opt)
	var out []float64
	line := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read condition line %d: %w", line+1, err)
		}
		line++
		vals := make([]float64, 0, len(rec))
		var perr error
		for _, cell := range rec {
			if strings.TrimSpace(cell) == "" && len(rec) > 1 {
				continue
			}
			x, err := parseNumeric(cell, opt)
			if err != nil {
				perr = err
				break
			}
			vals = append(vals, x)
		}
		if perr != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("condition line %d: %w", line, perr)
		}
		out = append(out, vals...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: conditioning variable has no values", cindex.ErrInvalidShape)
	}
	return out, nil
}

// Split thresholds cond into groups after checking it has one value per
// observation.
func Split(cond []float64, n int, hi, lo float64) (cindex.Groups, error) {
	if len(cond) != n {
		return cindex.Groups{}, fmt.Errorf("%w: conditioning variable has %d values for %d observations", cindex.ErrInvalidShape, len(cond), n)
	}
	if lo > hi {
		return cindex.Groups{}, fmt.Errorf("negative threshold %g is above positive threshold %g", lo, hi)
	}
	return cindex.Split(cond, hi, lo), nil
}

func newReader(r io.Reader, opt Options) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	cr.Comma = ','
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	return cr
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func parseNumeric(s string, opt Options) (float64, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, errors.New("missing value")
	}
	if dec := opt.DecimalSeparator; dec != 0 && dec != '.' {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	x, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return x, nil
}
