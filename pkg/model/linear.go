package model

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"bostonhousing/pkg/data"
	"bostonhousing/pkg/optim"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression models y as W·x + B. Fit solves ordinary least squares
// exactly; FitSGD trains by mini-batch gradient descent and expects
// standardised features.
type LinearRegression struct {
	W         []float64 // weights
	B         float64   // bias
	Lr        float64
	Epochs    int
	BatchSize int
	Seed      int64
}

// NewLinearRegression initializes a model with the given SGD parameters.
func NewLinearRegression(lr float64, epochs int, batchSize int) *LinearRegression {
	return &LinearRegression{Lr: lr, Epochs: epochs, BatchSize: batchSize, Seed: 1}
}

// Fit computes the least-squares solution of [1 X]·[B W] = y.
func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	n := len(X)
	if n < p+1 {
		return fmt.Errorf("linear: need at least %d rows for %d features, got %d", p+1, p, n)
	}

	A := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		A.Set(i, 0, 1)
		for j, v := range row {
			A.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var beta mat.VecDense
	if err := beta.SolveVec(A, b); err != nil {
		return fmt.Errorf("linear: least squares: %w", err)
	}
	m.B = beta.AtVec(0)
	m.W = make([]float64, p)
	for j := range m.W {
		m.W[j] = beta.AtVec(j + 1)
	}
	return nil
}

// FitSGD trains via mini-batch SGD. Each epoch streams the rows through a
// data.Batcher.
func (m *LinearRegression) FitSGD(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if m.Lr <= 0 || m.Epochs < 1 {
		return errors.New("linear: learning rate and epochs must be positive")
	}

	rnd := rand.New(rand.NewSource(m.Seed))
	m.W = make([]float64, p)
	for i := range m.W {
		m.W[i] = rnd.NormFloat64() * 0.01
	}
	m.B = 0
	opt := optim.NewSGD(m.Lr)

	for ep := 0; ep < m.Epochs; ep++ {
		samples := make(chan data.Sample, max(m.BatchSize, 1))
		if _, err := data.Samples(X, y, samples); err != nil {
			return err
		}
		batches := make(chan data.Batch)
		data.Batcher(samples, m.BatchSize, batches)

		loss := 0.0
		for batch := range batches {
			yhat := m.predictRows(batch.X)
			l, dy := MSELoss(batch.Y, yhat)
			loss += l * float64(len(batch.Y))

			gW := make([]float64, len(m.W))
			gb := 0.0
			for i, row := range batch.X {
				d := dy[i]
				for j, xij := range row {
					gW[j] += d * xij
				}
				gb += d
			}
			opt.Step(m.W, gW)
			m.B -= m.Lr * gb
		}
		if ep%100 == 0 || ep == m.Epochs-1 {
			log.Debug().Int("epoch", ep).Float64("mse", loss/float64(len(X))).Msg("linear sgd")
		}
	}
	return nil
}

// SGDRegressor is a LinearRegression whose Fit runs FitSGD.
type SGDRegressor struct {
	LinearRegression
}

// NewSGDRegressor returns a regressor trained by mini-batch gradient descent.
func NewSGDRegressor(lr float64, epochs int, batchSize int) *SGDRegressor {
	return &SGDRegressor{LinearRegression: *NewLinearRegression(lr, epochs, batchSize)}
}

// Fit trains by mini-batch SGD.
func (m *SGDRegressor) Fit(X [][]float64, y []float64) error {
	return m.FitSGD(X, y)
}

// Predict returns predictions for rows in X.
func (m *LinearRegression) Predict(X [][]float64) ([]float64, error) {
	if m.W == nil {
		return nil, ErrNotFitted
	}
	if err := checkRows(X, len(m.W)); err != nil {
		return nil, err
	}
	return m.predictRows(X), nil
}

// predictRows spreads rows across GOMAXPROCS workers.
func (m *LinearRegression) predictRows(X [][]float64) []float64 {
	pred := make([]float64, len(X))
	if len(X) == 0 {
		return pred
	}
	var wg sync.WaitGroup

	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := min(s+rowsPerWorker, len(X))
		if s >= e {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				sum := m.B
				for j, v := range X[i] {
					sum += m.W[j] * v
				}
				pred[i] = sum
			}
		}(s, e)
	}
	wg.Wait()
	return pred
}
