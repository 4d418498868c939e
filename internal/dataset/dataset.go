// Package dataset loads tabular files into typed, per-invocation datasets.
//
// A Dataset is produced by Loader.Load from a local path or an HTTP(S) URL and
// lives only for the duration of one analysis; nothing is cached across calls.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrRowWidth indicates a row with more fields than the header.
var ErrRowWidth = errors.New("dataset: row has more fields than header")

// Dataset is an ordered set of named columns with typed rows. Every row holds
// exactly len(Columns) cells.
type Dataset struct {
	Columns []string
	Rows    [][]Value
}

// Build turns a header and raw records into a Dataset. Header names are trimmed,
// a UTF-8 BOM is stripped and duplicates are renamed name.1, name.2, ...
// Records shorter than the header are padded with Missing; wider records fail.
func Build(header []string, records [][]string) (*Dataset, error) {
	cols := normalizeHeader(header)
	rows := make([][]Value, 0, len(records))
	for i, rec := range records {
		if len(rec) > len(cols) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrRowWidth, i+2, len(rec), len(cols))
		}
		row := make([]Value, len(cols))
		for j, field := range rec {
			row[j] = Coerce(field)
		}
		rows = append(rows, row)
	}
	return &Dataset{Columns: cols, Rows: rows}, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	next := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for n := next[h]; used[name]; n++ {
			name = h + "." + strconv.Itoa(n+1)
			next[h] = n + 1
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// Shape returns (rows, columns).
func (d *Dataset) Shape() (int, int) {
	return len(d.Rows), len(d.Columns)
}

// Index returns the position of the named column or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column's cells.
func (d *Dataset) Column(name string) ([]Value, bool) {
	idx := d.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]Value, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Project keeps only the named columns, in the order given. Unknown names are
// ignored. An empty list returns d unchanged.
func (d *Dataset) Project(names []string) *Dataset {
	if len(names) == 0 {
		return d
	}
	var idx []int
	var cols []string
	picked := make(map[string]bool, len(names))
	for _, n := range names {
		if picked[n] {
			continue
		}
		if i := d.Index(n); i >= 0 {
			idx = append(idx, i)
			cols = append(cols, n)
			picked[n] = true
		}
	}
	rows := make([][]Value, len(d.Rows))
	for r, row := range d.Rows {
		out := make([]Value, len(idx))
		for j, i := range idx {
			out[j] = row[i]
		}
		rows[r] = out
	}
	return &Dataset{Columns: cols, Rows: rows}
}

// Floats returns column idx aligned by row with NaN where the cell is not a Number.
func (d *Dataset) Floats(idx int) []float64 {
	out := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		if f, ok := row[idx].Float(); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Numbers returns the Number cells of column idx, skipping everything else.
func (d *Dataset) Numbers(idx int) []float64 {
	out := make([]float64, 0, len(d.Rows))
	for _, row := range d.Rows {
		if f, ok := row[idx].Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Records converts the rows into independent maps keyed by column name.
func (d *Dataset) Records() []map[string]any {
	out := make([]map[string]any, len(d.Rows))
	for i, row := range d.Rows {
		rec := make(map[string]any, len(d.Columns))
		for j, c := range d.Columns {
			rec[c] = row[j].Interface()
		}
		out[i] = rec
	}
	return out
}

// MissingCount returns the number of Missing cells in column idx.
func (d *Dataset) MissingCount(idx int) int {
	n := 0
	for _, row := range d.Rows {
		if row[idx].IsMissing() {
			n++
		}
	}
	return n
}
