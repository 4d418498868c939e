package eda

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vinodismyname/edamcp/internal/sandbox"
)

// Section headers and fixed lines of the text report. Callers that parse
// reports rely on these markers.
const (
	Rule = "=================================================="

	HeaderBasic        = "📋 BASIC INFORMATION"
	HeaderSummary      = "📈 STATISTICAL SUMMARY"
	HeaderCorrelation  = "🔗 CORRELATION ANALYSIS"
	HeaderDistribution = "📊 DISTRIBUTION ANALYSIS"
	HeaderMissing      = "❓ MISSING DATA ANALYSIS"
	HeaderCustom       = "🔧 CUSTOM ANALYSIS"

	NeedTwoNumeric  = "⚠️ Need at least 2 numerical columns for correlation analysis"
	NoHighCorr      = "✅ No high correlations found (|r| > 0.7)"
	HighCorrHeader  = "🔍 High correlations (|r| > 0.7):"
	NoMissingValues = "  ✅ No missing values found in any column"
	NoNumeric       = "⚠️ No numerical columns found"
)

// Header returns the section header for t, or "" for an unknown type.
func Header(t AnalysisType) string {
	switch t {
	case BasicInfo:
		return HeaderBasic
	case StatisticalSummary:
		return HeaderSummary
	case Correlation:
		return HeaderCorrelation
	case Distribution:
		return HeaderDistribution
	case MissingData:
		return HeaderMissing
	case Custom:
		return HeaderCustom
	}
	return ""
}

type writer struct{ strings.Builder }

func (w *writer) line(format string, args ...any) {
	fmt.Fprintf(w, format, args...)
	w.WriteByte('\n')
}

// Render produces the text report for a result.
func Render(res *Result) string {
	var w writer
	if res.Preview != nil {
		w.line("📄 File contains %d lines of text", res.Preview.Lines)
		w.line("First few lines:")
		for i, l := range res.Preview.Head {
			w.line("  %d: %s", i+1, l)
		}
		return w.String()
	}

	w.line("📊 Data loaded successfully: %d rows × %d columns", res.SourceRows, res.SourceColumns)
	w.line("")
	w.line("%s", Header(res.Type))
	w.line("%s", Rule)

	switch res.Type {
	case BasicInfo:
		renderBasic(&w, res)
	case StatisticalSummary:
		renderSummary(&w, res)
	case Correlation:
		renderCorrelation(&w, res)
	case Distribution:
		renderDistribution(&w, res)
	case MissingData:
		renderMissing(&w, res)
	case Custom:
		renderCustom(&w, res)
	}
	return w.String()
}

func renderBasic(w *writer, res *Result) {
	w.line("Shape: (%d, %d)", res.Rows, len(res.Columns))
	w.line("")
	w.line("Column names and types:")
	for _, c := range res.Columns {
		w.line("  • %s: %s", c.Name, c.Kind)
	}
	w.line("")
	w.line("Memory usage: %.2f KB", res.MemoryKB)
	w.line("")
	w.line("First 5 rows:")
	for _, row := range res.Head {
		w.line("%s", strings.Join(row, "\t"))
	}
}

func renderSummary(w *writer, res *Result) {
	if len(res.Numeric) > 0 {
		w.line("")
		w.line("Numerical columns summary:")
		w.line("Column\tCount\tMean\tStd\tMin\tMax\t25%%\t50%%\t75%%")
		for _, n := range res.Numeric {
			w.line("%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f",
				n.Name, n.Count, n.Mean, n.Std, n.Min, n.Max, n.P25, n.Median, n.P75)
		}
	}
	if len(res.Categorical) > 0 {
		w.line("")
		w.line("Categorical columns summary:")
		for _, c := range res.Categorical {
			w.line("")
			w.line("%s:", c.Name)
			w.line("  Unique values: %d", c.Unique)
			w.line("  Most common: %s", formatCounts(c.Top))
		}
	}
	if len(res.Numeric) == 0 && len(res.Categorical) == 0 {
		w.line("No numerical or categorical columns to summarize")
	}
}

// formatCounts renders {"a": 2, "b": 1} with JSON-quoted keys.
func formatCounts(top []ValueCount) string {
	parts := make([]string, len(top))
	for i, vc := range top {
		parts[i] = fmt.Sprintf("%s: %d", quote(vc.Value), vc.Count)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `"` + s + `"`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func renderCorrelation(w *writer, res *Result) {
	if res.Correlation == nil {
		w.line("%s", NeedTwoNumeric)
		return
	}
	m := res.Correlation
	w.line("")
	w.line("Correlation Matrix:")
	w.line("\t%s", strings.Join(m.Columns, "\t"))
	for i, name := range m.Columns {
		cells := make([]string, len(m.Values[i]))
		for j, r := range m.Values[i] {
			cells[j] = fmt.Sprintf("%.3f", r)
		}
		w.line("%s\t%s", name, strings.Join(cells, "\t"))
	}
	w.line("")
	if len(res.HighCorrelations) == 0 {
		w.line("%s", NoHighCorr)
		return
	}
	w.line("%s", HighCorrHeader)
	for _, p := range res.HighCorrelations {
		w.line("  • %s ↔ %s: %.3f", p.A, p.B, p.R)
	}
}

func renderDistribution(w *writer, res *Result) {
	if len(res.Numeric) == 0 {
		w.line("%s", NoNumeric)
		return
	}
	for _, n := range res.Numeric {
		w.line("")
		w.line("%s:", n.Name)
		w.line("  Mean: %.3f", n.Mean)
		w.line("  Median: %.3f", n.Median)
		w.line("  Std: %.3f", n.Std)
		w.line("  Skewness: %.3f", n.Skewness)
		w.line("  Range: %.3f to %.3f", n.Min, n.Max)
		w.line("  Outliers (IQR method): %d (%.1f%%)", n.Outliers, n.OutlierPct)
	}
}

func renderMissing(w *writer, res *Result) {
	m := res.Missing
	w.line("Missing values by column:")
	if m == nil || m.Total == 0 {
		w.line("%s", NoMissingValues)
		return
	}
	for _, c := range m.Columns {
		if c.Count > 0 {
			w.line("  • %s: %d (%.1f%%)", c.Name, c.Count, c.Pct)
		} else {
			w.line("  ✅ %s: No missing values", c.Name)
		}
	}
	w.line("")
	w.line("Total missing values: %d (%.1f%% of all values)", m.Total, m.TotalPct)
}

func renderCustom(w *writer, res *Result) {
	c := res.Custom
	switch {
	case c == nil || c.Help:
		w.line("No custom code provided. Available variables:")
		for _, h := range sandbox.Help {
			w.line("  • %s", h)
		}
		w.line("")
		w.line("Dataset info:")
		w.line("Shape: (%d, %d)", res.Rows, len(res.Columns))
		names := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			names[i] = col.Name
		}
		w.line("Columns: [%s]", strings.Join(names, ", "))
		return
	case c.Rejected != "":
		w.line("❌ Custom code contains restricted operations: %s", c.Rejected)
		return
	}
	if c.Output != "" {
		w.WriteString(c.Output)
		if !strings.HasSuffix(c.Output, "\n") {
			w.WriteByte('\n')
		}
	}
	if c.Error != "" {
		w.line("❌ Error in custom analysis: %s", c.Error)
		return
	}
	if c.Output == "" {
		w.line("✅ Custom analysis completed (no output)")
	}
}
