package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMeanStdMinMax(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	mean, err := Mean(xs)
	require.NoError(t, err)
	require.Equal(t, 5.0, mean)

	std, err := Std(xs)
	require.NoError(t, err)
	require.InDelta(t, 2.138089935, std, 1e-9)

	lo, err := Min(xs)
	require.NoError(t, err)
	require.Equal(t, 2.0, lo)

	hi, err := Max(xs)
	require.NoError(t, err)
	require.Equal(t, 9.0, hi)
}

func TestEmptySample(t *testing.T) {
	for name, fn := range map[string]func([]float64) (float64, error){
		"mean":     Mean,
		"std":      Std,
		"min":      Min,
		"max":      Max,
		"median":   Median,
		"skewness": Skewness,
	} {
		_, err := fn(nil)
		require.ErrorIs(t, err, ErrEmpty, name)
	}
	_, err := Quantile(nil, 0.5)
	require.ErrorIs(t, err, ErrEmpty)
	_, err = Summarize(nil)
	require.ErrorIs(t, err, ErrEmpty)
	_, err = Outliers(nil)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestQuantileLinear(t *testing.T) {
	xs := []float64{4, 1, 3, 2}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tc := range cases {
		got, err := Quantile(xs, tc.p)
		require.NoError(t, err)
		require.InDelta(t, tc.want, got, 1e-12, "p=%v", tc.p)
	}
	// Input must not be reordered.
	require.Equal(t, []float64{4, 1, 3, 2}, xs)
}

func TestMedianBetweenMinAndMax(t *testing.T) {
	samples := [][]float64{
		{1},
		{3, 1, 2},
		{-5, 10, 0.5, 7, 7},
		{1e6, -1e6},
	}
	for _, xs := range samples {
		med, err := Median(xs)
		require.NoError(t, err)
		lo, _ := Min(xs)
		hi, _ := Max(xs)
		require.GreaterOrEqual(t, med, lo)
		require.LessOrEqual(t, med, hi)
	}
}

func TestSingleValuedSample(t *testing.T) {
	xs := []float64{7, 7, 7, 7}
	s, err := Summarize(xs)
	require.NoError(t, err)
	require.Equal(t, 0.0, s.Std)
	require.Equal(t, 0.0, s.Skewness)
	n, err := Outliers(xs)
	require.NoError(t, err)
	require.Zero(t, n)

	std, err := Std([]float64{42})
	require.NoError(t, err)
	require.Equal(t, 0.0, std)
}

func TestFractionalConstantSample(t *testing.T) {
	xs := []float64{0.1, 0.1, 0.1}
	s, err := Summarize(xs)
	require.NoError(t, err)
	require.Equal(t, 0.0, s.Std)
	require.Equal(t, 0.0, s.Skewness)
	require.Equal(t, 0.1, s.Min)
	require.Equal(t, 0.1, s.Max)

	g, err := Skewness([]float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1})
	require.NoError(t, err)
	require.Equal(t, 0.0, g)

	r, err := Correlation(xs, []float64{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 0.0, r)
	r, err = Correlation([]float64{1, 2, 3}, []float64{0.3, 0.3, 0.3})
	require.NoError(t, err)
	require.Equal(t, 0.0, r)
}

func TestSkewness(t *testing.T) {
	g, err := Skewness([]float64{1, 2, 10})
	require.NoError(t, err)
	require.InDelta(t, 1.652316740, g, 1e-9)

	g, err = Skewness([]float64{1, 2, 3})
	require.NoError(t, err)
	require.InDelta(t, 0, g, 1e-12)

	g, err = Skewness([]float64{1, 5})
	require.NoError(t, err)
	require.Equal(t, 0.0, g)
}

func TestCorrelation(t *testing.T) {
	r, err := Correlation([]float64{1, 2, 3}, []float64{2, 4, 6})
	require.NoError(t, err)
	require.InDelta(t, 1, r, 1e-12)

	r, err = Correlation([]float64{1, 2, 3}, []float64{6, 4, 2})
	require.NoError(t, err)
	require.InDelta(t, -1, r, 1e-12)

	r, err = Correlation([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 4})
	require.NoError(t, err)
	require.InDelta(t, 0.8, r, 1e-12)

	r, err = Correlation([]float64{1, 1, 1}, []float64{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 0.0, r)

	r, err = Correlation([]float64{1}, []float64{2})
	require.NoError(t, err)
	require.Equal(t, 0.0, r)

	_, err = Correlation([]float64{1, 2}, []float64{1})
	require.ErrorIs(t, err, ErrLength)
}

func TestPairwiseComplete(t *testing.T) {
	nan := math.NaN()
	xs, ys, err := PairwiseComplete(
		[]float64{1, nan, 3, 4},
		[]float64{2, 5, nan, 8},
	)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 4}, xs)
	require.Equal(t, []float64{2, 8}, ys)
}

func TestCorrelateMatrix(t *testing.T) {
	nan := math.NaN()
	m, err := Correlate(
		[]string{"a", "b", "c"},
		[][]float64{
			{1, 2, 3, 4},
			{2, 4, 6, 8},
			{1, 3, 2, nan},
		},
	)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, m.Columns)
	for i := range m.Values {
		require.Equal(t, 1.0, m.Values[i][i])
		for j := range m.Values {
			require.Equal(t, m.Values[i][j], m.Values[j][i])
			require.LessOrEqual(t, math.Abs(m.Values[i][j]), 1.0)
		}
	}
	require.InDelta(t, 1, m.Values[0][1], 1e-12)
	// a/c pairs: (1,1) (2,3) (3,2) -> r = 0.5
	require.InDelta(t, 0.5, m.Values[0][2], 1e-12)

	strong := m.Strong(0.7)
	require.Len(t, strong, 1)
	require.Equal(t, "a", strong[0].A)
	require.Equal(t, "b", strong[0].B)
}

func TestOutliersIQR(t *testing.T) {
	n, err := Outliers([]float64{1, 2, 3, 4, 100})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	f, err := IQRFences([]float64{1, 2, 3, 4, 100})
	require.NoError(t, err)
	require.Equal(t, -1.0, f.Lower)
	require.Equal(t, 7.0, f.Upper)
	require.False(t, f.Outside(7))
}
