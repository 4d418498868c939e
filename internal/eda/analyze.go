package eda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vinodismyname/edamcp/internal/dataset"
	"github.com/vinodismyname/edamcp/internal/sandbox"
	"github.com/vinodismyname/edamcp/internal/stats"
)

// Report limits shared by every backend.
const (
	HeadRows          = 5
	TopValues         = 3
	StrongCorrelation = 0.7
)

// Engine computes analyses over loaded content. It holds no per-call state.
type Engine struct {
	Sandbox *sandbox.Sandbox
}

// Run dispatches req.Type over content and renders the report.
func (e *Engine) Run(ctx context.Context, content *dataset.Content, req Request) (*Report, error) {
	if content.Table == nil {
		preview := content.Text
		if preview == nil {
			preview = &dataset.TextPreview{}
		}
		res := &Result{Type: req.Type, Preview: preview}
		return &Report{Text: Render(res), Result: res}, nil
	}
	res, err := e.Compute(ctx, content.Table, req)
	if err != nil {
		return nil, err
	}
	return &Report{Text: Render(res), Result: res}, nil
}

// Compute builds the structured result for a table.
func (e *Engine) Compute(ctx context.Context, source *dataset.Dataset, req Request) (*Result, error) {
	sr, sc := source.Shape()
	d := source.Project(req.Columns)
	rows, _ := d.Shape()
	res := &Result{Type: req.Type, SourceRows: sr, SourceColumns: sc, Rows: rows}
	for i, k := range d.Kinds() {
		res.Columns = append(res.Columns, ColumnInfo{Name: d.Columns[i], Kind: k})
	}

	var err error
	switch req.Type {
	case BasicInfo:
		err = basicInfo(d, res)
	case StatisticalSummary:
		err = summarize(ctx, d, res)
	case Correlation:
		err = correlate(d, res)
	case Distribution:
		err = distribute(ctx, d, res)
	case MissingData:
		missing(d, res)
	case Custom:
		e.custom(ctx, d, req.CustomCode, res)
	default:
		return nil, fmt.Errorf("%w: unsupported analysis_type %q", ErrInvalidRequest, req.Type)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// MemoryKB estimates the in-memory size of d as the length of its JSON
// record encoding in kibibytes.
func MemoryKB(d *dataset.Dataset) (float64, error) {
	b, err := json.Marshal(d.Records())
	if err != nil {
		return 0, fmt.Errorf("eda: estimate size: %w", err)
	}
	return float64(len(b)) / 1024, nil
}

func basicInfo(d *dataset.Dataset, res *Result) error {
	kb, err := MemoryKB(d)
	if err != nil {
		return err
	}
	res.MemoryKB = kb
	res.Head = append(res.Head, append([]string(nil), d.Columns...))
	for i, row := range d.Rows {
		if i == HeadRows {
			break
		}
		line := make([]string, len(row))
		for j, v := range row {
			line[j] = v.Text()
		}
		res.Head = append(res.Head, line)
	}
	return nil
}

func numericColumns(ctx context.Context, d *dataset.Dataset) ([]NumericColumn, error) {
	profiles, err := dataset.Profile(ctx, d)
	if err != nil {
		return nil, err
	}
	var out []NumericColumn
	for i, p := range profiles {
		if p.Numeric == nil {
			continue
		}
		xs := d.Numbers(i)
		n, err := stats.Outliers(xs)
		if err != nil {
			return nil, err
		}
		out = append(out, NumericColumn{
			Name:       p.Name,
			Summary:    *p.Numeric,
			Outliers:   n,
			OutlierPct: pct(n, len(xs)),
		})
	}
	return out, nil
}

func summarize(ctx context.Context, d *dataset.Dataset, res *Result) error {
	num, err := numericColumns(ctx, d)
	if err != nil {
		return err
	}
	res.Numeric = num
	for i, c := range res.Columns {
		if c.Kind != dataset.ColumnString && c.Kind != dataset.ColumnBoolean {
			continue
		}
		res.Categorical = append(res.Categorical, categorical(d, i))
	}
	return nil
}

// categorical counts distinct values; ties keep first-appearance order.
func categorical(d *dataset.Dataset, idx int) CategoricalColumn {
	var order []string
	counts := make(map[string]int)
	for _, row := range d.Rows {
		v := row[idx]
		if v.IsMissing() {
			continue
		}
		key := v.Text()
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	top := make([]ValueCount, 0, len(order))
	for _, k := range order {
		top = append(top, ValueCount{Value: k, Count: counts[k]})
	}
	// Insertion sort keeps equal counts in first-appearance order.
	for i := 1; i < len(top); i++ {
		for j := i; j > 0 && top[j].Count > top[j-1].Count; j-- {
			top[j], top[j-1] = top[j-1], top[j]
		}
	}
	if len(top) > TopValues {
		top = top[:TopValues]
	}
	return CategoricalColumn{Name: d.Columns[idx], Unique: len(order), Top: top}
}

func correlate(d *dataset.Dataset, res *Result) error {
	idx := d.NumericColumns()
	if len(idx) < 2 {
		return nil
	}
	names := make([]string, len(idx))
	series := make([][]float64, len(idx))
	for k, i := range idx {
		names[k] = d.Columns[i]
		series[k] = d.Floats(i)
	}
	m, err := stats.Correlate(names, series)
	if err != nil {
		return err
	}
	res.Correlation = &m
	res.HighCorrelations = m.Strong(StrongCorrelation)
	return nil
}

func distribute(ctx context.Context, d *dataset.Dataset, res *Result) error {
	num, err := numericColumns(ctx, d)
	if err != nil {
		return err
	}
	res.Numeric = num
	return nil
}

func missing(d *dataset.Dataset, res *Result) {
	rows, cols := d.Shape()
	ms := &MissingSummary{}
	for i, c := range d.Columns {
		n := d.MissingCount(i)
		ms.Columns = append(ms.Columns, MissingColumn{Name: c, Count: n, Pct: pct(n, rows)})
		ms.Total += n
	}
	ms.TotalPct = pct(ms.Total, rows*cols)
	res.Missing = ms
}

func (e *Engine) custom(ctx context.Context, d *dataset.Dataset, code string, res *Result) {
	if strings.TrimSpace(code) == "" {
		res.Custom = &CustomOutput{Help: true}
		return
	}
	sb := e.Sandbox
	if sb == nil {
		sb = sandbox.New(0, 0)
	}
	out, err := sb.Run(ctx, code, sandbox.Input{Columns: d.Columns, Records: d.Records()})
	res.Custom = &CustomOutput{Output: out}
	var rej *sandbox.RejectedError
	switch {
	case err == nil:
	case errors.As(err, &rej):
		res.Custom.Rejected = rej.Marker
	case errors.Is(err, sandbox.ErrTimeout):
		res.Custom.Error = "custom code exceeded its time limit"
	default:
		res.Custom.Error = strings.TrimPrefix(err.Error(), sandbox.ErrFailed.Error()+": ")
	}
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
