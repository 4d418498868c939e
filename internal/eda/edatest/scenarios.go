// Package edatest holds the report scenarios every backend must satisfy.
package edatest

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/edamcp/internal/eda"
)

// Scenario is one request with the lines its report must and must not contain.
type Scenario struct {
	Name    string
	Request eda.Request
	Want    []string
	Absent  []string
}

// Fixture returns the absolute path of a file under internal/eda/testdata.
func Fixture(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "testdata", name)
}

// Scenarios lists the shared expectations. Values are computed by hand from
// the fixtures.
func Scenarios() []Scenario {
	sales := Fixture("sales.csv")
	return []Scenario{
		{
			Name:    "basic_info",
			Request: eda.Request{FileRef: sales, Type: eda.BasicInfo},
			Want: []string{
				"📊 Data loaded successfully: 5 rows × 6 columns\n",
				eda.HeaderBasic + "\n",
				"Shape: (5, 6)\n",
				"  • region: string\n",
				"  • units: number\n",
				"  • active: boolean\n",
				"Memory usage: ",
				"First 5 rows:\nregion\tunits\tprice\trevenue\trep\tactive\n",
				"north\t10\t2.5\t25\tann\ttrue\n",
				"east\t\t3\t\tcy\ttrue\n",
			},
		},
		{
			Name:    "statistical_summary",
			Request: eda.Request{FileRef: sales, Type: eda.StatisticalSummary},
			Want: []string{
				eda.HeaderSummary + "\n",
				"Column\tCount\tMean\tStd\tMin\tMax\t25%\t50%\t75%\n",
				"units\t4\t25.000\t12.910\t10.000\t40.000\t17.500\t25.000\t32.500\n",
				"price\t5\t3.000\t0.612\t2.500\t4.000\t2.500\t3.000\t3.000\n",
				"revenue\t4\t81.250\t58.931\t25.000\t160.000\t43.750\t70.000\t107.500\n",
				"region:\n  Unique values: 4\n  Most common: {\"north\": 2, \"south\": 1, \"east\": 1}\n",
				"rep:\n  Unique values: 3\n  Most common: {\"ann\": 2, \"bob\": 2, \"cy\": 1}\n",
				"active:\n  Unique values: 2\n  Most common: {\"true\": 3, \"false\": 1}\n",
			},
		},
		{
			Name:    "correlation_analysis",
			Request: eda.Request{FileRef: sales, Type: eda.Correlation},
			Want: []string{
				eda.HeaderCorrelation + "\n",
				"\tunits\tprice\trevenue\n",
				"units\t1.000\t0.913\t0.975\n",
				"price\t0.913\t1.000\t0.980\n",
				eda.HighCorrHeader + "\n",
				"  • units ↔ price: 0.913\n",
				"  • units ↔ revenue: 0.975\n",
				"  • price ↔ revenue: 0.980\n",
			},
			Absent: []string{eda.NoHighCorr},
		},
		{
			Name:    "correlation_insufficient",
			Request: eda.Request{FileRef: Fixture("one_numeric.csv"), Type: eda.Correlation},
			Want:    []string{eda.NeedTwoNumeric + "\n"},
			Absent:  []string{"Correlation Matrix:"},
		},
		{
			Name:    "distribution_plots",
			Request: eda.Request{FileRef: sales, Type: eda.Distribution},
			Want: []string{
				eda.HeaderDistribution + "\n",
				"price:\n  Mean: 3.000\n  Median: 3.000\n  Std: 0.612\n  Skewness: 1.361\n  Range: 2.500 to 4.000\n  Outliers (IQR method): 1 (20.0%)\n",
				"units:\n  Mean: 25.000\n  Median: 25.000\n  Std: 12.910\n",
				"  Range: 10.000 to 40.000\n  Outliers (IQR method): 0 (0.0%)\n",
			},
			Absent: []string{"region:"},
		},
		{
			Name:    "distribution_constant_fraction",
			Request: eda.Request{FileRef: Fixture("constant.csv"), Type: eda.Distribution},
			Want: []string{
				"a:\n  Mean: 0.100\n  Median: 0.100\n  Std: 0.000\n  Skewness: 0.000\n  Range: 0.100 to 0.100\n  Outliers (IQR method): 0 (0.0%)\n",
			},
		},
		{
			Name:    "correlation_constant_fraction",
			Request: eda.Request{FileRef: Fixture("constant.csv"), Type: eda.Correlation},
			Want:    []string{"a\t1.000\t0.000\n", "b\t0.000\t1.000\n", eda.NoHighCorr + "\n"},
		},
		{
			Name:    "missing_data_analysis",
			Request: eda.Request{FileRef: sales, Type: eda.MissingData},
			Want: []string{
				eda.HeaderMissing + "\n",
				"Missing values by column:\n",
				"  ✅ region: No missing values\n",
				"  • units: 1 (20.0%)\n",
				"  • revenue: 1 (20.0%)\n",
				"  • active: 1 (20.0%)\n",
				"Total missing values: 3 (10.0% of all values)\n",
			},
		},
		{
			Name:    "missing_data_none",
			Request: eda.Request{FileRef: Fixture("linear.csv"), Type: eda.MissingData},
			Want:    []string{"Missing values by column:\n" + eda.NoMissingValues + "\n"},
			Absent:  []string{"Total missing values"},
		},
		{
			Name:    "column_projection",
			Request: eda.Request{FileRef: sales, Type: eda.BasicInfo, Columns: []string{"price", "units", "nope"}},
			Want: []string{
				"📊 Data loaded successfully: 5 rows × 6 columns\n",
				"Shape: (5, 2)\n",
				"price\tunits\n2.5\t10\n",
			},
			Absent: []string{"  • region:"},
		},
		{
			Name:    "perfect_correlation",
			Request: eda.Request{FileRef: Fixture("linear.csv"), Type: eda.Correlation},
			Want:    []string{"  • x ↔ y: 1.000\n"},
		},
		{
			Name:    "text_preview",
			Request: eda.Request{FileRef: Fixture("notes.txt"), Type: eda.StatisticalSummary},
			Want: []string{
				"📄 File contains 2 lines of text\n",
				"First few lines:\n  1: Quarterly notes\n  2: Revenue grew in Q3\n",
			},
			Absent: []string{"Data loaded successfully", eda.HeaderSummary},
		},
	}
}

// Run executes every scenario against b.
func Run(t *testing.T, b eda.Backend) {
	t.Helper()
	for _, sc := range Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			rep, err := b.Analyze(context.Background(), sc.Request)
			require.NoError(t, err)
			for _, w := range sc.Want {
				require.Contains(t, rep.Text, w)
			}
			for _, a := range sc.Absent {
				require.NotContains(t, rep.Text, a)
			}
			require.True(t, strings.HasSuffix(rep.Text, "\n"), "report should end with a newline")
		})
	}
}
