// Package pipeline chains feature transformers in front of a regressor.
package pipeline

import (
	"errors"
	"fmt"

	"bostonhousing/pkg/model"
)

// Transformer learns a mapping of feature rows in Fit and applies it in
// Transform. Transform must not modify its input.
type Transformer interface {
	Fit(X [][]float64) error
	Transform(X [][]float64) ([][]float64, error)
}

// Pipeline fits its steps in order, feeding each the output of the one
// before, then fits the final model on the transformed rows. It is itself a
// model.Regressor.
type Pipeline struct {
	steps []Transformer
	final model.Regressor
}

// New returns a pipeline that applies steps in order before final.
func New(final model.Regressor, steps ...Transformer) *Pipeline {
	return &Pipeline{steps: steps, final: final}
}

// Fit fits every step on the output of the previous one, then the final model.
func (p *Pipeline) Fit(X [][]float64, y []float64) error {
	if p.final == nil {
		return errors.New("pipeline: no final model")
	}
	for i, step := range p.steps {
		if err := step.Fit(X); err != nil {
			return fmt.Errorf("pipeline: fit step %d: %w", i, err)
		}
		var err error
		if X, err = step.Transform(X); err != nil {
			return fmt.Errorf("pipeline: transform step %d: %w", i, err)
		}
	}
	return p.final.Fit(X, y)
}

// Transform applies the fitted steps to X.
func (p *Pipeline) Transform(X [][]float64) ([][]float64, error) {
	for i, step := range p.steps {
		var err error
		if X, err = step.Transform(X); err != nil {
			return nil, fmt.Errorf("pipeline: transform step %d: %w", i, err)
		}
	}
	return X, nil
}

// Predict transforms X and predicts with the final model.
func (p *Pipeline) Predict(X [][]float64) ([]float64, error) {
	if p.final == nil {
		return nil, errors.New("pipeline: no final model")
	}
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.final.Predict(Xt)
}

// Final returns the model at the end of the pipeline.
func (p *Pipeline) Final() model.Regressor { return p.final }
