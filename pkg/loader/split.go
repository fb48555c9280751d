package loader

import (
	"errors"
	"math/rand"
)

// Fold holds the row indices of one train/test partition.
type Fold struct {
	Train []int
	Test  []int
}

// TrainTestSplit splits X, Y into train and test sets by ratio after
// shuffling with rnd.
func TrainTestSplit(X [][]float64, Y []float64, testRatio float64, rnd *rand.Rand) (XTrain, XTest [][]float64, YTrain, YTest []float64, err error) {
	if len(X) != len(Y) {
		return nil, nil, nil, nil, errors.New("loader: X and Y length mismatch")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, nil, nil, errors.New("loader: test ratio must be in (0, 1)")
	}
	n := len(X)
	indices := rnd.Perm(n)
	nTest := testSize(n, testRatio)
	XTest, YTest = Take(X, Y, indices[:nTest])
	XTrain, YTrain = Take(X, Y, indices[nTest:])
	return XTrain, XTest, YTrain, YTest, nil
}

// ShuffleSplit returns nSplits independent random partitions of n rows,
// each holding out testRatio of the rows.
func ShuffleSplit(n, nSplits int, testRatio float64, rnd *rand.Rand) ([]Fold, error) {
	if nSplits < 1 {
		return nil, errors.New("loader: need at least one split")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, errors.New("loader: test ratio must be in (0, 1)")
	}
	nTest := testSize(n, testRatio)
	if nTest == 0 || nTest == n {
		return nil, errors.New("loader: too few rows to split")
	}
	folds := make([]Fold, nSplits)
	for i := range folds {
		perm := rnd.Perm(n)
		folds[i] = Fold{Test: perm[:nTest], Train: perm[nTest:]}
	}
	return folds, nil
}

// KFold partitions n shuffled rows into k folds; each fold is tested once
// against the other k-1.
func KFold(n, k int, rnd *rand.Rand) ([]Fold, error) {
	if k < 2 || k > n {
		return nil, errors.New("loader: k must be in [2, n]")
	}
	indices := rnd.Perm(n)
	groups := make([][]int, k)
	for i := range n {
		groups[i%k] = append(groups[i%k], indices[i])
	}
	folds := make([]Fold, k)
	for i := range k {
		folds[i].Test = groups[i]
		for j := range k {
			if j != i {
				folds[i].Train = append(folds[i].Train, groups[j]...)
			}
		}
	}
	return folds, nil
}

// Take gathers the rows of X and Y at idx. Row slices are shared, not copied.
func Take(X [][]float64, Y []float64, idx []int) ([][]float64, []float64) {
	XOut := make([][]float64, len(idx))
	YOut := make([]float64, len(idx))
	for i, j := range idx {
		XOut[i] = X[j]
		YOut[i] = Y[j]
	}
	return XOut, YOut
}

// testSize rounds the held-out share up, as the usual splitters do.
func testSize(n int, ratio float64) int {
	t := int(float64(n)*ratio + 0.999999)
	return min(t, n)
}
