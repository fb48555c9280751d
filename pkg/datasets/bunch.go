// Package datasets provides tabular datasets in the shape the modelling code
// consumes: a feature matrix, a target vector and the feature names.
package datasets

import "errors"

var (
	// ErrNotFound is returned when a dataset is in neither the data home nor the
	// bundled copy and downloading is disabled.
	ErrNotFound = errors.New("datasets: dataset not found")
	// ErrMalformed is returned when a dataset file does not have the expected layout.
	ErrMalformed = errors.New("datasets: malformed dataset")
)

// Bunch is a loaded dataset.
type Bunch struct {
	Data         [][]float64 // one row per sample
	Target       []float64   // one value per sample
	FeatureNames []string    // one label per column of Data
	TargetName   string
	Descr        string
	Filename     string // file the dataset was read from, if any
}

// Shape returns the number of samples and features.
func (b *Bunch) Shape() (rows, cols int) {
	if len(b.Data) == 0 {
		return 0, len(b.FeatureNames)
	}
	return len(b.Data), len(b.Data[0])
}

// Loader provides a dataset on demand.
type Loader interface {
	Load() (*Bunch, error)
}

// LoaderFunc adapts a function to a Loader.
type LoaderFunc func() (*Bunch, error)

// Load calls f.
func (f LoaderFunc) Load() (*Bunch, error) { return f() }
