package eda_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/edamcp/internal/dataset"
	"github.com/vinodismyname/edamcp/internal/eda"
	"github.com/vinodismyname/edamcp/internal/eda/edatest"
	"github.com/vinodismyname/edamcp/internal/sandbox"
	"github.com/vinodismyname/edamcp/internal/stats"
	"github.com/vinodismyname/edamcp/pkg/mcperr"
)

func newNative() *eda.Native {
	loader := dataset.NewLoader(dataset.Options{FetchTimeout: 5 * time.Second, MaxBytes: 1 << 20})
	return eda.NewNative(loader, sandbox.New(5*time.Second, 0))
}

func TestNativeScenarios(t *testing.T) {
	edatest.Run(t, newNative())
}

func TestNativeIsIdempotent(t *testing.T) {
	b := newNative()
	for _, typ := range eda.AnalysisTypes {
		req := eda.Request{FileRef: edatest.Fixture("sales.csv"), Type: typ}
		first, err := b.Analyze(context.Background(), req)
		require.NoError(t, err)
		second, err := b.Analyze(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, first.Text, second.Text, typ)
	}
}

func TestNativeStructuredCorrelation(t *testing.T) {
	rep, err := newNative().Analyze(context.Background(), eda.Request{
		FileRef: edatest.Fixture("linear.csv"),
		Type:    eda.Correlation,
	})
	require.NoError(t, err)
	require.NotNil(t, rep.Result)

	want := &stats.CorrelationMatrix{
		Columns: []string{"x", "y"},
		Values:  [][]float64{{1, 1}, {1, 1}},
	}
	if diff := cmp.Diff(want, rep.Result.Correlation, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("correlation mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, rep.Result.HighCorrelations, 1)
}

func TestNativeStructuredBasicInfo(t *testing.T) {
	rep, err := newNative().Analyze(context.Background(), eda.Request{
		FileRef: edatest.Fixture("sales.csv"),
		Type:    eda.BasicInfo,
	})
	require.NoError(t, err)
	res := rep.Result
	require.Equal(t, 5, res.SourceRows)
	require.Equal(t, 6, res.SourceColumns)
	require.Equal(t, 5, res.Rows)
	require.Len(t, res.Head, 6)
	require.Greater(t, res.MemoryKB, 0.0)

	want := []eda.ColumnInfo{
		{Name: "region", Kind: dataset.ColumnString},
		{Name: "units", Kind: dataset.ColumnNumber},
		{Name: "price", Kind: dataset.ColumnNumber},
		{Name: "revenue", Kind: dataset.ColumnNumber},
		{Name: "rep", Kind: dataset.ColumnString},
		{Name: "active", Kind: dataset.ColumnBoolean},
	}
	if diff := cmp.Diff(want, res.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestNativeSingleValuedColumn(t *testing.T) {
	for _, v := range []string{"5", "0.1"} {
		t.Run(v, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "flat.csv")
			data := "v,w\n" + v + ",1\n" + v + ",2\n" + v + ",3\n" + v + ",4\n"
			require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
			want := map[string]string{"5": "5.000", "0.1": "0.100"}[v]

			b := newNative()
			rep, err := b.Analyze(context.Background(), eda.Request{FileRef: path, Type: eda.Distribution})
			require.NoError(t, err)
			require.Contains(t, rep.Text, "v:\n  Mean: "+want+"\n  Median: "+want+"\n  Std: 0.000\n  Skewness: 0.000\n  Range: "+want+" to "+want+"\n  Outliers (IQR method): 0 (0.0%)\n")

			rep, err = b.Analyze(context.Background(), eda.Request{FileRef: path, Type: eda.Correlation})
			require.NoError(t, err)
			require.Contains(t, rep.Text, "v\t1.000\t0.000\n")
			require.Contains(t, rep.Text, eda.NoHighCorr)
		})
	}
}

func TestNativeCustomAnalysis(t *testing.T) {
	b := newNative()
	sales := edatest.Fixture("sales.csv")

	rep, err := b.Analyze(context.Background(), eda.Request{
		FileRef:    sales,
		Type:       eda.Custom,
		CustomCode: `printf("units mean: %.1f\n", eda.Mean(eda.Column("units")))`,
	})
	require.NoError(t, err)
	require.Contains(t, rep.Text, eda.HeaderCustom+"\n")
	require.Contains(t, rep.Text, "units mean: 25.0\n")

	rep, err = b.Analyze(context.Background(), eda.Request{FileRef: sales, Type: eda.Custom})
	require.NoError(t, err)
	require.Contains(t, rep.Text, "No custom code provided. Available variables:\n")
	require.Contains(t, rep.Text, "Columns: [region, units, price, revenue, rep, active]\n")

	rep, err = b.Analyze(context.Background(), eda.Request{
		FileRef:    sales,
		Type:       eda.Custom,
		CustomCode: `var m map[string]int; m["x"] = 1`,
	})
	require.NoError(t, err)
	require.Contains(t, rep.Text, "❌ Error in custom analysis: ")

	rep, err = b.Analyze(context.Background(), eda.Request{
		FileRef:    sales,
		Type:       eda.Custom,
		CustomCode: `x := 1; _ = x`,
	})
	require.NoError(t, err)
	require.Contains(t, rep.Text, "✅ Custom analysis completed (no output)\n")
}

func TestNativeRejectsCodeBeforeLoading(t *testing.T) {
	_, err := newNative().Analyze(context.Background(), eda.Request{
		FileRef:    "/definitely/not/here.csv",
		Type:       eda.Custom,
		CustomCode: `import "os"`,
	})
	require.ErrorIs(t, err, sandbox.ErrRejected)

	text := eda.ErrorText(err)
	require.True(t, strings.HasPrefix(text, "❌ CODE_REJECTED: Custom code contains restricted operations: import"), text)
}

func TestNativeMissingFileGuidance(t *testing.T) {
	_, err := newNative().Analyze(context.Background(), eda.Request{
		FileRef: "no/such/file.csv",
		Type:    eda.BasicInfo,
	})
	require.ErrorIs(t, err, dataset.ErrNotFound)

	code, msg := eda.Classify(err)
	require.Equal(t, mcperr.FileNotFound, code)
	require.Contains(t, msg, "File 'no/such/file.csv' not found.")
	require.Contains(t, msg, dataset.SampleURL)
}

func TestRequestValidation(t *testing.T) {
	cases := []struct {
		req  eda.Request
		want string
	}{
		{eda.Request{Type: eda.BasicInfo}, "file_path is required"},
		{eda.Request{FileRef: "a.csv"}, "analysis_type is required"},
		{eda.Request{FileRef: "a.csv", Type: "plot_everything"}, `unsupported analysis_type "plot_everything"`},
		{eda.Request{FileRef: "ftp://host/a.csv", Type: eda.BasicInfo}, "file_path must be a local path or an http(s) URL"},
		{eda.Request{FileRef: "a.csv", Type: eda.BasicInfo, Columns: []string{""}}, "VALIDATION"},
	}
	for _, tc := range cases {
		err := tc.req.Validate()
		require.ErrorIs(t, err, eda.ErrInvalidRequest)
		require.Contains(t, err.Error(), tc.want)

		code, _ := eda.Classify(err)
		require.Equal(t, mcperr.Validation, code)
	}
	require.NoError(t, eda.Request{FileRef: "https://example.com/d.csv", Type: eda.Custom}.Validate())
}

func TestSelector(t *testing.T) {
	native := newNative()
	sel := eda.NewSelector(native, nil)

	b, err := sel.Select(" Native ")
	require.NoError(t, err)
	require.Same(t, native, b)

	_, err = sel.Select("python")
	require.ErrorIs(t, err, eda.ErrUnknownBackend)
	require.Equal(t, []string{"native"}, sel.Names())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		code mcperr.Code
	}{
		{dataset.ErrNotAllowed, mcperr.PermissionDenied},
		{dataset.ErrUnsupported, mcperr.UnsupportedFormat},
		{dataset.ErrTooLarge, mcperr.FileTooLarge},
		{dataset.ErrFetch, mcperr.LoadFailed},
		{sandbox.ErrTimeout, mcperr.Timeout},
		{context.DeadlineExceeded, mcperr.Timeout},
		{sandbox.ErrFailed, mcperr.CodeFailed},
		{eda.ErrExecution, mcperr.ExecutionFailed},
		{errors.New("boom"), mcperr.ExecutionFailed},
	}
	for _, tc := range cases {
		code, _ := eda.Classify(tc.err)
		require.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestAnalysisTypes(t *testing.T) {
	require.Len(t, eda.AnalysisTypes, 6)
	for _, a := range eda.AnalysisTypes {
		require.True(t, a.Valid())
		require.NotEmpty(t, a.Describe())
	}
	_, ok := eda.ParseAnalysisType("histogram")
	require.False(t, ok)
	typ, ok := eda.ParseAnalysisType(" basic_info ")
	require.True(t, ok)
	require.Equal(t, eda.BasicInfo, typ)
}
