package eda

import (
	"github.com/vinodismyname/edamcp/internal/dataset"
	"github.com/vinodismyname/edamcp/internal/stats"
)

// Report is the outcome of one analysis. Text is the stable contract; Result
// is filled by the native backend only.
type Report struct {
	Text   string  `json:"text"`
	Result *Result `json:"result,omitempty"`
}

// Result is the structured form of a native report.
type Result struct {
	Type          AnalysisType `json:"analysis_type"`
	SourceRows    int          `json:"source_rows"`
	SourceColumns int          `json:"source_columns"`
	Rows          int          `json:"rows"`
	Columns       []ColumnInfo `json:"columns"`

	MemoryKB float64    `json:"memory_kb,omitempty"`
	Head     [][]string `json:"head,omitempty"`

	Numeric          []NumericColumn          `json:"numeric,omitempty"`
	Categorical      []CategoricalColumn      `json:"categorical,omitempty"`
	Correlation      *stats.CorrelationMatrix `json:"correlation,omitempty"`
	HighCorrelations []stats.StrongPair       `json:"high_correlations,omitempty"`
	Missing          *MissingSummary          `json:"missing,omitempty"`
	Custom           *CustomOutput            `json:"custom,omitempty"`

	// Preview is set instead of everything above for non-tabular content.
	Preview *dataset.TextPreview `json:"preview,omitempty"`
}

// ColumnInfo is a column name with its inferred kind.
type ColumnInfo struct {
	Name string             `json:"name"`
	Kind dataset.ColumnKind `json:"kind"`
}

// NumericColumn summarizes one numeric column.
type NumericColumn struct {
	Name string `json:"name"`
	stats.Summary
	Outliers   int     `json:"outliers"`
	OutlierPct float64 `json:"outlier_pct"`
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalColumn summarizes a non-numeric column.
type CategoricalColumn struct {
	Name   string       `json:"name"`
	Unique int          `json:"unique"`
	Top    []ValueCount `json:"top"`
}

// MissingColumn is the missing-cell count of one column.
type MissingColumn struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// MissingSummary covers every column plus the overall total.
type MissingSummary struct {
	Columns  []MissingColumn `json:"columns"`
	Total    int             `json:"total"`
	TotalPct float64         `json:"total_pct"`
}

// CustomOutput holds what custom code printed, or the help listing.
type CustomOutput struct {
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	Rejected string `json:"rejected,omitempty"`
	Help     bool   `json:"help,omitempty"`
}
