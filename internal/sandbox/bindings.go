package sandbox

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/tidwall/gjson"
	"github.com/traefik/yaegi/interp"

	"github.com/vinodismyname/edamcp/internal/stats"
)

// Input is the read-only view of the dataset handed to custom code.
type Input struct {
	Columns []string
	Records []map[string]any
}

func orNaN(v float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return v
}

// exports builds the "eda" package visible to interpreted code. Every call to
// Data returns a fresh copy so that user code cannot alter shared state.
func exports(in Input, out io.Writer) interp.Exports {
	data := func() []map[string]any {
		cp := make([]map[string]any, len(in.Records))
		for i, rec := range in.Records {
			m := make(map[string]any, len(rec))
			for k, v := range rec {
				m[k] = v
			}
			cp[i] = m
		}
		return cp
	}
	columns := func() []string {
		cp := make([]string, len(in.Columns))
		copy(cp, in.Columns)
		return cp
	}
	column := func(name string) []float64 {
		var xs []float64
		for _, rec := range in.Records {
			if f, ok := rec[name].(float64); ok {
				xs = append(xs, f)
			}
		}
		return xs
	}
	fns := map[string]any{
		"Data":     data,
		"Columns":  columns,
		"Column":   column,
		"Print":    func(args ...any) { fmt.Fprintln(out, args...) },
		"Printf":   func(format string, args ...any) { fmt.Fprintf(out, format, args...) },
		"Mean":     func(xs []float64) float64 { return orNaN(stats.Mean(xs)) },
		"Median":   func(xs []float64) float64 { return orNaN(stats.Median(xs)) },
		"Std":      func(xs []float64) float64 { return orNaN(stats.Std(xs)) },
		"Min":      func(xs []float64) float64 { return orNaN(stats.Min(xs)) },
		"Max":      func(xs []float64) float64 { return orNaN(stats.Max(xs)) },
		"Skewness": func(xs []float64) float64 { return orNaN(stats.Skewness(xs)) },
		"Quantile": func(xs []float64, p float64) float64 {
			return orNaN(stats.Quantile(xs, p))
		},
		"Correlation": func(xs, ys []float64) float64 {
			return orNaN(stats.Correlation(xs, ys))
		},
		"ToJSON": func(v any) string {
			b, err := json.Marshal(v)
			if err != nil {
				return ""
			}
			return string(b)
		},
		"JSONGet": func(doc, path string) string {
			return gjson.Get(doc, path).String()
		},
	}
	pkg := make(map[string]reflect.Value, len(fns))
	for name, fn := range fns {
		pkg[name] = reflect.ValueOf(fn)
	}
	return interp.Exports{"eda/eda": pkg}
}
