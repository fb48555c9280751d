package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{4, 1, 3, 2})
	require.NoError(t, err)

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Std, 1e-12)
	assert.LessOrEqual(t, s.Min, s.Q1)
	assert.LessOrEqual(t, s.Q1, s.Median)
	assert.LessOrEqual(t, s.Median, s.Q3)
	assert.LessOrEqual(t, s.Q3, s.Max)
}

func TestDescribePrices(t *testing.T) {
	prices := []float64{24, 21.6, 34.7, 33.4, 36.2}
	s, err := Describe(prices)
	require.NoError(t, err)

	assert.Equal(t, 21.6, s.Min)
	assert.Equal(t, 36.2, s.Max)
	assert.InDelta(t, 29.98, s.Mean, 1e-9)
	assert.Equal(t, 33.4, s.Median)
	// input order is untouched
	assert.Equal(t, []float64{24, 21.6, 34.7, 33.4, 36.2}, prices)
}

func TestDescribeConstant(t *testing.T) {
	s, err := Describe([]float64{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Std)
	assert.Equal(t, 5.0, s.Q1)
	assert.Equal(t, 5.0, s.Q3)
}

func TestDescribeEmpty(t *testing.T) {
	_, err := Describe(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Correlation(x, []float64{2, 4, 6, 8, 10}), 1e-12)
	assert.InDelta(t, -1.0, Correlation(x, []float64{5, 4, 3, 2, 1}), 1e-12)
	assert.Equal(t, 0.0, Correlation(x, []float64{3, 3, 3, 3, 3}))
	assert.Equal(t, 0.0, Correlation(x, []float64{1, 2}))
	assert.Equal(t, 0.0, Correlation(nil, nil))
}

func TestFeatureCorrelationsOrdersByStrength(t *testing.T) {
	X := [][]float64{
		{1, 10, 3},
		{2, 8, 1},
		{3, 6, 4},
		{4, 4, 1},
		{5, 2, 5},
	}
	y := []float64{1, 2, 3, 4, 5}

	got, err := FeatureCorrelations(X, y, []string{"up", "down", "noise"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Contains(t, []string{"up", "down"}, got[0].Name)
	assert.Contains(t, []string{"up", "down"}, got[1].Name)
	assert.Equal(t, "noise", got[2].Name)
	assert.InDelta(t, 1.0, math.Abs(got[0].R), 1e-12)
}

func TestFeatureCorrelationsShapeErrors(t *testing.T) {
	_, err := FeatureCorrelations(nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = FeatureCorrelations([][]float64{{1}}, []float64{1, 2}, []string{"a"})
	assert.Error(t, err)

	_, err = FeatureCorrelations([][]float64{{1, 2}}, []float64{1}, []string{"a"})
	assert.Error(t, err)
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 7}, {2, 7}, {3, 7}}
	s := NewStandardScaler()

	_, err := s.Transform(X)
	assert.Error(t, err, "transform before fit")

	out, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 7}, s.Mean)
	assert.InDelta(t, 1.0, s.Std[0], 1e-12)
	assert.Equal(t, 1.0, s.Std[1])
	assert.InDeltaSlice(t, []float64{-1, 0, 1}, Column(out, 0), 1e-12)
	assert.Equal(t, []float64{0, 0, 0}, Column(out, 1))
	assert.Equal(t, 1.0, X[0][0], "input is not modified")

	_, err = s.Transform([][]float64{{1}})
	assert.Error(t, err)

	assert.ErrorIs(t, NewStandardScaler().Fit(nil), ErrEmpty)
}
