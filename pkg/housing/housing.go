// Package housing exposes the Boston housing data as features, prices and
// feature names, plus the feature vector of a sample client.
package housing

import (
	"errors"

	"bostonhousing/pkg/datasets"
)

// ErrNoData is returned when a source reports success without a dataset.
var ErrNoData = errors.New("housing: source returned no dataset")

// HousingData is the Boston dataset split into its three parts. Prices is
// aligned with the rows of Features, Names with its columns.
type HousingData struct {
	Features [][]float64
	Prices   []float64
	Names    []string
}

// Load returns the Boston housing data from the default dataset source.
// Errors from the source are returned unchanged.
func Load() (HousingData, error) {
	return LoadFrom(datasets.Boston())
}

// LoadFrom returns the housing data provided by src.
func LoadFrom(src datasets.Loader) (HousingData, error) {
	b, err := src.Load()
	if err != nil {
		return HousingData{}, err
	}
	if b == nil {
		return HousingData{}, ErrNoData
	}
	return HousingData{Features: b.Data, Prices: b.Target, Names: b.FeatureNames}, nil
}

var clientFeatures = [1][13]float64{
	{11.95, 0.00, 18.100, 0, 0.6590, 5.6090, 90.00, 1.385, 24, 680.0, 20.20, 332.09, 12.13},
}

// ClientFeatures returns the feature vector of the sample client as a
// single-row matrix, in the column order of HousingData.Names. Every call
// returns a fresh copy.
func ClientFeatures() [][]float64 {
	out := make([][]float64, len(clientFeatures))
	for i, row := range clientFeatures {
		out[i] = append([]float64(nil), row[:]...)
	}
	return out
}
