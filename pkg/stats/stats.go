package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned when a statistic is requested for no data.
var ErrEmpty = errors.New("stats: empty input")

// Summary holds the descriptive statistics of one variable.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	Std    float64 // population standard deviation
	Q1     float64
	Q3     float64
}

// Describe computes the summary statistics of x.
func Describe(x []float64) (Summary, error) {
	if len(x) == 0 {
		return Summary{}, ErrEmpty
	}
	data := mstats.Float64Data(x)
	s := Summary{Count: len(x)}
	var err error
	if s.Min, err = data.Min(); err != nil {
		return Summary{}, fmt.Errorf("stats: min: %w", err)
	}
	if s.Max, err = data.Max(); err != nil {
		return Summary{}, fmt.Errorf("stats: max: %w", err)
	}
	if s.Mean, err = data.Mean(); err != nil {
		return Summary{}, fmt.Errorf("stats: mean: %w", err)
	}
	if s.Median, err = data.Median(); err != nil {
		return Summary{}, fmt.Errorf("stats: median: %w", err)
	}
	if s.Std, err = data.StandardDeviationPopulation(); err != nil {
		return Summary{}, fmt.Errorf("stats: std: %w", err)
	}
	s.Q1, s.Q3 = quantile(x, 0.25), quantile(x, 0.75)
	return s, nil
}

// quantile uses linear interpolation between order statistics.
func quantile(x []float64, p float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// Correlation returns the Pearson correlation of x and y, or 0 when either
// is constant or the lengths differ.
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// FeatureCorrelation is the correlation of one feature column with the target.
type FeatureCorrelation struct {
	Name string
	R    float64
}

// FeatureCorrelations correlates every column of X with y and orders the
// result by decreasing |R|.
func FeatureCorrelations(X [][]float64, y []float64, names []string) ([]FeatureCorrelation, error) {
	if len(X) == 0 {
		return nil, ErrEmpty
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("stats: %d rows but %d targets", len(X), len(y))
	}
	cols := len(X[0])
	if len(names) != cols {
		return nil, fmt.Errorf("stats: %d names for %d columns", len(names), cols)
	}

	out := make([]FeatureCorrelation, cols)
	for j := range cols {
		out[j] = FeatureCorrelation{Name: names[j], R: Correlation(Column(X, j), y)}
	}
	sort.SliceStable(out, func(a, b int) bool { return math.Abs(out[a].R) > math.Abs(out[b].R) })
	return out, nil
}

// Column copies column j of X.
func Column(X [][]float64, j int) []float64 {
	col := make([]float64, len(X))
	for i := range X {
		col[i] = X[i][j]
	}
	return col
}
