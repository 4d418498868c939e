package stats

import "math"

// Summary is the five-number summary plus moments for one numeric sample.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	P25      float64 `json:"p25"`
	Median   float64 `json:"median"`
	P75      float64 `json:"p75"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"`
}

// Summarize computes a Summary in one sort.
func Summarize(xs []float64) (Summary, error) {
	if len(xs) == 0 {
		return Summary{}, ErrEmpty
	}
	sorted := Sorted(xs)
	mean, _ := Mean(xs)
	std, _ := Std(xs)
	skew, _ := Skewness(xs)
	return Summary{
		Count:    len(xs),
		Mean:     mean,
		Std:      std,
		Min:      sorted[0],
		P25:      quantileSorted(sorted, 0.25),
		Median:   quantileSorted(sorted, 0.5),
		P75:      quantileSorted(sorted, 0.75),
		Max:      sorted[len(sorted)-1],
		Skewness: skew,
	}, nil
}

// Fences are the IQR outlier bounds Q1-1.5*IQR and Q3+1.5*IQR.
type Fences struct {
	Lower float64
	Upper float64
}

// IQRFences computes outlier fences from the quartiles of xs.
func IQRFences(xs []float64) (Fences, error) {
	if len(xs) == 0 {
		return Fences{}, ErrEmpty
	}
	sorted := Sorted(xs)
	q1 := quantileSorted(sorted, 0.25)
	q3 := quantileSorted(sorted, 0.75)
	iqr := q3 - q1
	return Fences{Lower: q1 - 1.5*iqr, Upper: q3 + 1.5*iqr}, nil
}

// Outside reports whether x lies strictly beyond the fences.
func (f Fences) Outside(x float64) bool {
	return x < f.Lower || x > f.Upper
}

// Outliers counts the values of xs strictly outside the IQR fences.
func Outliers(xs []float64) (int, error) {
	f, err := IQRFences(xs)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, x := range xs {
		if f.Outside(x) {
			n++
		}
	}
	return n, nil
}

// PairwiseComplete keeps the positions where both samples hold a value.
// Missing observations are encoded as NaN by the caller.
func PairwiseComplete(xs, ys []float64) ([]float64, []float64, error) {
	if len(xs) != len(ys) {
		return nil, nil, ErrLength
	}
	outX := make([]float64, 0, len(xs))
	outY := make([]float64, 0, len(ys))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		outX = append(outX, xs[i])
		outY = append(outY, ys[i])
	}
	return outX, outY, nil
}

// CorrelationMatrix is a square Pearson matrix over named columns.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Correlate builds the pairwise-complete correlation matrix of the given
// columns. series[i] is aligned by row and uses NaN for missing cells. The
// diagonal is exactly 1.
func Correlate(columns []string, series [][]float64) (CorrelationMatrix, error) {
	if len(columns) != len(series) {
		return CorrelationMatrix{}, ErrLength
	}
	n := len(columns)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		values[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			xs, ys, err := PairwiseComplete(series[i], series[j])
			if err != nil {
				return CorrelationMatrix{}, err
			}
			r, err := Correlation(xs, ys)
			if err != nil {
				return CorrelationMatrix{}, err
			}
			values[i][j] = r
			values[j][i] = r
		}
	}
	cols := make([]string, n)
	copy(cols, columns)
	return CorrelationMatrix{Columns: cols, Values: values}, nil
}

// StrongPair is an off-diagonal entry whose magnitude exceeds a threshold.
type StrongPair struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// Strong lists upper-triangle pairs with |r| > threshold in row-major order.
func (m CorrelationMatrix) Strong(threshold float64) []StrongPair {
	var out []StrongPair
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			if math.Abs(m.Values[i][j]) > threshold {
				out = append(out, StrongPair{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
			}
		}
	}
	return out
}
