package model

import "errors"

// ErrNotFitted is returned when predicting with a model that has not been trained.
var ErrNotFitted = errors.New("model: not fitted")

// Regressor is a supervised model predicting a continuous target.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// checkXY validates a training set: non-empty, aligned and rectangular.
// It returns the number of features.
func checkXY(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, errors.New("model: empty X")
	}
	if len(y) != len(X) {
		return 0, errors.New("model: X and y length mismatch")
	}
	p := len(X[0])
	if p == 0 {
		return 0, errors.New("model: rows have no features")
	}
	for i := range X {
		if len(X[i]) != p {
			return 0, errors.New("model: inconsistent number of features in X rows")
		}
	}
	return p, nil
}

func checkRows(X [][]float64, p int) error {
	for i := range X {
		if len(X[i]) != p {
			return errors.New("model: feature count mismatch between model and input")
		}
	}
	return nil
}
