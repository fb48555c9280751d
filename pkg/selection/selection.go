// Package selection scores models by cross-validated R² and picks
// hyperparameters.
package selection

import (
	"errors"
	"fmt"
	"math"

	"bostonhousing/pkg/loader"
	"bostonhousing/pkg/model"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// Builder returns a fresh, unfitted model for a hyperparameter value.
type Builder func(param int) model.Regressor

// Score is the cross-validated performance of one hyperparameter value.
type Score struct {
	Param      int
	TrainR2    float64 // mean R² on the training folds
	ValidR2    float64 // mean R² on the held-out folds
	ValidR2Std float64
}

// Result is the outcome of a grid search.
type Result struct {
	Best   Score
	Scores []Score // in the order of the searched params
}

// GridSearch fits build(param) on every fold for every param and keeps the
// param with the highest mean validation R². Ties keep the earlier param.
func GridSearch(build Builder, params []int, X [][]float64, y []float64, folds []loader.Fold) (Result, error) {
	if len(params) == 0 {
		return Result{}, errors.New("selection: no parameters to search")
	}
	scores, err := ComplexityCurve(build, params, X, y, folds)
	if err != nil {
		return Result{}, err
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.ValidR2 > best.ValidR2 {
			best = s
		}
	}
	log.Debug().Int("param", best.Param).Float64("r2", best.ValidR2).Msg("grid search done")
	return Result{Best: best, Scores: scores}, nil
}

// ComplexityCurve scores every param on every fold.
func ComplexityCurve(build Builder, params []int, X [][]float64, y []float64, folds []loader.Fold) ([]Score, error) {
	if len(folds) == 0 {
		return nil, errors.New("selection: no folds")
	}
	if len(X) != len(y) {
		return nil, errors.New("selection: X and y length mismatch")
	}
	scores := make([]Score, 0, len(params))
	for _, p := range params {
		train := make([]float64, len(folds))
		valid := make([]float64, len(folds))
		for i, f := range folds {
			tr, va, err := scoreFold(build(p), X, y, f.Train, f.Test)
			if err != nil {
				return nil, fmt.Errorf("selection: param %d, fold %d: %w", p, i, err)
			}
			train[i], valid[i] = tr, va
		}
		mean, std := meanStd(valid)
		scores = append(scores, Score{Param: p, TrainR2: stat.Mean(train, nil), ValidR2: mean, ValidR2Std: std})
		log.Debug().Int("param", p).Float64("train_r2", scores[len(scores)-1].TrainR2).Float64("valid_r2", mean).Msg("scored")
	}
	return scores, nil
}

// LearningPoint is the performance of a model trained on Size rows.
type LearningPoint struct {
	Size    int
	TrainR2 float64
	ValidR2 float64
}

// LearningCurve trains a fresh model on growing prefixes of each fold's training rows
// and reports mean train and validation R² per size.
func LearningCurve(build func() model.Regressor, sizes []int, X [][]float64, y []float64, folds []loader.Fold) ([]LearningPoint, error) {
	if len(folds) == 0 {
		return nil, errors.New("selection: no folds")
	}
	points := make([]LearningPoint, 0, len(sizes))
	for _, n := range sizes {
		if n < 2 {
			return nil, fmt.Errorf("selection: training size %d too small", n)
		}
		train := make([]float64, len(folds))
		valid := make([]float64, len(folds))
		for i, f := range folds {
			if n > len(f.Train) {
				return nil, fmt.Errorf("selection: training size %d exceeds fold %d (%d rows)", n, i, len(f.Train))
			}
			tr, va, err := scoreFold(build(), X, y, f.Train[:n], f.Test)
			if err != nil {
				return nil, fmt.Errorf("selection: size %d, fold %d: %w", n, i, err)
			}
			train[i], valid[i] = tr, va
		}
		points = append(points, LearningPoint{Size: n, TrainR2: stat.Mean(train, nil), ValidR2: stat.Mean(valid, nil)})
	}
	return points, nil
}

func scoreFold(m model.Regressor, X [][]float64, y []float64, trainIdx, testIdx []int) (float64, float64, error) {
	XTrain, yTrain := loader.Take(X, y, trainIdx)
	XTest, yTest := loader.Take(X, y, testIdx)
	if err := m.Fit(XTrain, yTrain); err != nil {
		return 0, 0, err
	}
	predTrain, err := m.Predict(XTrain)
	if err != nil {
		return 0, 0, err
	}
	predTest, err := m.Predict(XTest)
	if err != nil {
		return 0, 0, err
	}
	return model.R2(yTrain, predTrain), model.R2(yTest, predTest), nil
}

func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	mean, std := stat.MeanStdDev(x, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}
