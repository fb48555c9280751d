package model

import (
	"errors"
	"runtime"
	"sort"
	"sync"
)

// KNNRegressor predicts the mean target of the K nearest training rows
// (Euclidean distance). Features should be on comparable scales.
type KNNRegressor struct {
	K int
	X [][]float64
	y []float64
}

// NewKNNRegressor creates and returns a new KNN model.
func NewKNNRegressor(k int) *KNNRegressor {
	return &KNNRegressor{K: k}
}

// Fit stores the training data; all work happens at prediction time.
func (m *KNNRegressor) Fit(X [][]float64, y []float64) error {
	if _, err := checkXY(X, y); err != nil {
		return err
	}
	if m.K < 1 || m.K > len(X) {
		return errors.New("knn: K must be in [1, number of training rows]")
	}
	m.X = X
	m.y = y
	return nil
}

// Predict averages the neighbours of each row, one worker per CPU.
func (m *KNNRegressor) Predict(X [][]float64) ([]float64, error) {
	if m.X == nil {
		return nil, ErrNotFitted
	}
	if err := checkRows(X, len(m.X[0])); err != nil {
		return nil, err
	}

	out := make([]float64, len(X))
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, len(X))
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				out[i] = m.predictSingle(X[i])
			}
		}(start, end)
	}

	wg.Wait()
	return out, nil
}

func (m *KNNRegressor) predictSingle(xi []float64) float64 {
	type neighbour struct {
		d float64
		v float64
	}

	// kept sorted by distance, at most K long
	nbrs := make([]neighbour, 0, m.K+1)
	byDist := func(a, b int) bool { return nbrs[a].d < nbrs[b].d }

	for j, xj := range m.X {
		nb := neighbour{d: euclidSquared(xi, xj), v: m.y[j]}
		if len(nbrs) < m.K {
			nbrs = append(nbrs, nb)
			sort.SliceStable(nbrs, byDist)
		} else if nb.d < nbrs[len(nbrs)-1].d {
			nbrs[len(nbrs)-1] = nb
			sort.SliceStable(nbrs, byDist)
		}
	}

	sum := 0.0
	for _, nb := range nbrs {
		sum += nb.v
	}
	return sum / float64(len(nbrs))
}

// euclidSquared skips the square root; ordering is all that matters.
func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
