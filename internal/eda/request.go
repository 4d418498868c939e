package eda

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vinodismyname/edamcp/pkg/validation"
)

// AnalysisType selects one of the report variants.
type AnalysisType string

const (
	BasicInfo          AnalysisType = "basic_info"
	StatisticalSummary AnalysisType = "statistical_summary"
	Correlation        AnalysisType = "correlation_analysis"
	Distribution       AnalysisType = "distribution_plots"
	MissingData        AnalysisType = "missing_data_analysis"
	Custom             AnalysisType = "custom_analysis"
)

// AnalysisTypes lists every supported type in presentation order.
var AnalysisTypes = []AnalysisType{BasicInfo, StatisticalSummary, Correlation, Distribution, MissingData, Custom}

// Describe returns a one-line description used by discovery tools.
func (t AnalysisType) Describe() string {
	switch t {
	case BasicInfo:
		return "shape, inferred column types, memory estimate and the first 5 rows"
	case StatisticalSummary:
		return "count/mean/std/min/max/quartiles per numeric column and top values per categorical column"
	case Correlation:
		return "pairwise Pearson correlation matrix with |r| > 0.7 pairs highlighted"
	case Distribution:
		return "mean, median, std, skewness, range and IQR outliers per numeric column"
	case MissingData:
		return "missing value counts and percentages per column and overall"
	case Custom:
		return "run caller-supplied code against the dataset"
	}
	return ""
}

// Valid reports whether t is a supported analysis type.
func (t AnalysisType) Valid() bool {
	for _, a := range AnalysisTypes {
		if a == t {
			return true
		}
	}
	return false
}

// ParseAnalysisType converts a string into an AnalysisType.
func ParseAnalysisType(s string) (AnalysisType, bool) {
	t := AnalysisType(strings.TrimSpace(s))
	return t, t.Valid()
}

// ErrInvalidRequest wraps validation failures. The message carries the
// VALIDATION text produced by pkg/validation.
var ErrInvalidRequest = errors.New("eda: invalid request")

// Request is one analysis invocation. It is immutable once validated.
type Request struct {
	FileRef    string       `json:"file_path" validate:"required,fileref"`
	Type       AnalysisType `json:"analysis_type" validate:"required,analysis_type"`
	Columns    []string     `json:"columns,omitempty" validate:"omitempty,max=512,dive,required"`
	CustomCode string       `json:"custom_code,omitempty" validate:"max=65536"`
}

func init() {
	validation.Register("analysis_type", func(fl validator.FieldLevel) bool {
		return AnalysisType(fl.Field().String()).Valid()
	})
}

// Validate checks the request against its struct tags.
func (r Request) Validate() error {
	if msg := validation.ValidateStruct(r); msg != "" {
		return &validationError{msg: msg}
	}
	return nil
}

type validationError struct{ msg string }

func (e *validationError) Error() string        { return e.msg }
func (e *validationError) Is(target error) bool { return target == ErrInvalidRequest }
