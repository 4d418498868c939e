package dataset

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vinodismyname/edamcp/internal/stats"
)

// ColumnKind is the inferred type of a whole column.
type ColumnKind string

const (
	ColumnEmpty   ColumnKind = "empty"
	ColumnNumber  ColumnKind = "number"
	ColumnBoolean ColumnKind = "boolean"
	ColumnString  ColumnKind = "string"
)

// ColumnProfile describes one column after inference.
type ColumnProfile struct {
	Name     string         `json:"name"`
	Kind     ColumnKind     `json:"kind"`
	NonNull  int            `json:"non_null"`
	Missing  int            `json:"missing"`
	Numeric  *stats.Summary `json:"numeric,omitempty"`
	Distinct int            `json:"distinct"`
}

// InferKind classifies a column. A column is numeric only when every non-missing
// cell is a Number; likewise for boolean. Mixed columns are strings.
func InferKind(cells []Value) ColumnKind {
	var numbers, bools, present int
	for _, v := range cells {
		switch v.Kind() {
		case KindMissing:
			continue
		case KindNumber:
			numbers++
		case KindBool:
			bools++
		}
		present++
	}
	switch {
	case present == 0:
		return ColumnEmpty
	case numbers == present:
		return ColumnNumber
	case bools == present:
		return ColumnBoolean
	default:
		return ColumnString
	}
}

// Kinds infers every column of d in header order.
func (d *Dataset) Kinds() []ColumnKind {
	out := make([]ColumnKind, len(d.Columns))
	for i, c := range d.Columns {
		cells, _ := d.Column(c)
		out[i] = InferKind(cells)
	}
	return out
}

// NumericColumns returns the indices of numeric columns in header order.
func (d *Dataset) NumericColumns() []int {
	var idx []int
	for i, k := range d.Kinds() {
		if k == ColumnNumber {
			idx = append(idx, i)
		}
	}
	return idx
}

// Profile infers kinds and computes per-column summaries. Columns are profiled
// concurrently; the result keeps header order.
func Profile(ctx context.Context, d *Dataset) ([]ColumnProfile, error) {
	out := make([]ColumnProfile, len(d.Columns))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range d.Columns {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cells, _ := d.Column(name)
			p := ColumnProfile{Name: name, Kind: InferKind(cells)}
			distinct := make(map[string]struct{})
			for _, v := range cells {
				if v.IsMissing() {
					p.Missing++
					continue
				}
				p.NonNull++
				distinct[v.Text()] = struct{}{}
			}
			p.Distinct = len(distinct)
			if p.Kind == ColumnNumber {
				s, err := stats.Summarize(d.Numbers(i))
				if err != nil {
					return err
				}
				p.Numeric = &s
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
