package model

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeRegressor is a CART-style regression tree using the squared
// error criterion. Leaves predict the mean target of their samples.
type DecisionTreeRegressor struct {
	// Hyperparameters / options
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	MaxFeatures         int     // 0 => use all features, >0 => number of features to sample per split
	MinImpurityDecrease float64 // minimal decrease of the node MSE to accept a split
	RandomState         int64   // seed for feature subsampling

	// internals
	root      *treeNode
	nFeatures int
}

// treeNode is exported field-wise so gob can encode it.
type treeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x <= Threshold => Left
	Value     float64 // mean target of the samples reaching this node
	N         int
	Left      *treeNode
	Right     *treeNode
}

// Option functional config
type Option func(*DecisionTreeRegressor)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) Option { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }
func WithMinImpurityDecrease(v float64) Option {
	return func(t *DecisionTreeRegressor) { t.MinImpurityDecrease = v }
}
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor returns a regressor with sensible defaults.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	d := &DecisionTreeRegressor{
		MaxDepth:            0,
		MinSamplesSplit:     2,
		MinSamplesLeaf:      1,
		MaxFeatures:         0,
		MinImpurityDecrease: 0.0,
		RandomState:         time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---------------------------
// Public API: Fit / Predict / Depth / Save/Load
// ---------------------------

// Fit grows the tree on X (n x p) and targets y.
func (t *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	rnd := rand.New(rand.NewSource(t.RandomState))

	t.nFeatures = p
	t.root = t.buildNode(X, y, idx, 0, p, rnd)
	return nil
}

// Predict returns the predicted target for each row of X.
func (t *DecisionTreeRegressor) Predict(X [][]float64) ([]float64, error) {
	if t.root == nil {
		return nil, ErrNotFitted
	}
	if err := checkRows(X, t.nFeatures); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i := range X {
		out[i] = t.predictSingle(X[i])
	}
	return out, nil
}

// Depth returns the depth of the fitted tree (a single leaf has depth 0).
func (t *DecisionTreeRegressor) Depth() int {
	return nodeDepth(t.root)
}

// Leaves returns the number of leaves of the fitted tree.
func (t *DecisionTreeRegressor) Leaves() int {
	return countLeaves(t.root)
}

type treeSnapshot struct {
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesLeaf      int
	MaxFeatures         int
	MinImpurityDecrease float64
	RandomState         int64
	NFeatures           int
	Root                *treeNode
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (t *DecisionTreeRegressor) MarshalBinary() ([]byte, error) {
	if t.root == nil {
		return nil, ErrNotFitted
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(treeSnapshot{
		MaxDepth:            t.MaxDepth,
		MinSamplesSplit:     t.MinSamplesSplit,
		MinSamplesLeaf:      t.MinSamplesLeaf,
		MaxFeatures:         t.MaxFeatures,
		MinImpurityDecrease: t.MinImpurityDecrease,
		RandomState:         t.RandomState,
		NFeatures:           t.nFeatures,
		Root:                t.root,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (t *DecisionTreeRegressor) UnmarshalBinary(data []byte) error {
	var s treeSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if s.Root == nil {
		return errors.New("dtree: encoded tree has no root")
	}
	if s.NFeatures < 1 {
		return fmt.Errorf("dtree: encoded tree has %d features", s.NFeatures)
	}
	if err := checkNode(s.Root, s.NFeatures, "root"); err != nil {
		return err
	}
	t.MaxDepth = s.MaxDepth
	t.MinSamplesSplit = s.MinSamplesSplit
	t.MinSamplesLeaf = s.MinSamplesLeaf
	t.MaxFeatures = s.MaxFeatures
	t.MinImpurityDecrease = s.MinImpurityDecrease
	t.RandomState = s.RandomState
	t.nFeatures = s.NFeatures
	t.root = s.Root
	return nil
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

// A struct to hold the results of a single feature's best split search.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	leftIdx   []int
	rightIdx  []int
}

// pair is a named type for a value and its original index.
type pair struct {
	v float64
	i int
}

func (t *DecisionTreeRegressor) buildNode(X [][]float64, y []float64, idx []int, depth, p int, rnd *rand.Rand) *treeNode {
	sum, sumSq := sums(y, idx)
	n := float64(len(idx))
	node := &treeNode{N: len(idx), Value: sum / n}
	parentSSE := sumSq - sum*sum/n

	// make leaf if pure, too few samples or depth reached
	if parentSSE <= 1e-12*max(1, sumSq) || (t.MinSamplesSplit > 0 && len(idx) < t.MinSamplesSplit) {
		node.Leaf = true
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		node.Leaf = true
		return node
	}

	// determine features to try
	featIndices := make([]int, p)
	for j := 0; j < p; j++ {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		for i := 0; i < p; i++ {
			j := i + rnd.Intn(p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:t.MaxFeatures]
	}

	// Parallel search for the best split of each feature.
	results := make(chan splitResult, len(featIndices))
	var wg sync.WaitGroup
	for _, f := range featIndices {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			results <- t.findBestSplitForFeature(X, y, idx, f, parentSSE)
		}(f)
	}
	wg.Wait()
	close(results)

	// Ties go to the lowest feature index so the tree does not depend on
	// goroutine scheduling.
	best := splitResult{feature: -1}
	for r := range results {
		if r.feature < 0 {
			continue
		}
		if best.feature < 0 || r.gain > best.gain || (r.gain == best.gain && r.feature < best.feature) {
			best = r
		}
	}

	if best.feature == -1 || best.gain <= t.MinImpurityDecrease {
		node.Leaf = true
		return node
	}

	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = t.buildNode(X, y, best.leftIdx, depth+1, p, rnd)
	node.Right = t.buildNode(X, y, best.rightIdx, depth+1, p, rnd)
	return node
}

// findBestSplitForFeature scans the thresholds between distinct sorted values
// of feature f with running sums. The gain is the drop in node MSE.
func (t *DecisionTreeRegressor) findBestSplitForFeature(X [][]float64, y []float64, idx []int, f int, parentSSE float64) splitResult {
	result := splitResult{feature: -1}

	valid := make([]pair, len(idx))
	for k, ii := range idx {
		valid[k] = pair{X[ii][f], ii}
	}
	sort.Slice(valid, func(a, b int) bool { return valid[a].v < valid[b].v })

	totalSum, totalSq := sums(y, idx)
	n := len(valid)
	leftSum, leftSq := 0.0, 0.0
	bestAt := -1

	for s := 1; s < n; s++ {
		yi := y[valid[s-1].i]
		leftSum += yi
		leftSq += yi * yi

		if valid[s].v == valid[s-1].v {
			continue
		}
		if s < t.MinSamplesLeaf || n-s < t.MinSamplesLeaf {
			continue
		}

		nl, nr := float64(s), float64(n-s)
		rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
		childSSE := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
		gain := (parentSSE - childSSE) / float64(n)
		if bestAt < 0 || gain > result.gain {
			bestAt = s
			result.gain = gain
			result.feature = f
			result.threshold = (valid[s-1].v + valid[s].v) / 2.0
		}
	}
	if bestAt < 0 {
		return result
	}
	result.leftIdx = indicesFromPairs(valid[:bestAt])
	result.rightIdx = indicesFromPairs(valid[bestAt:])
	return result
}

func sums(y []float64, idx []int) (sum, sumSq float64) {
	for _, ii := range idx {
		sum += y[ii]
		sumSq += y[ii] * y[ii]
	}
	return sum, sumSq
}

func indicesFromPairs(pairs []pair) []int {
	out := make([]int, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.i)
	}
	return out
}

// checkNode verifies every internal node can route a row of nFeatures values.
func checkNode(n *treeNode, nFeatures int, at string) error {
	if n.Leaf {
		return nil
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("dtree: encoded node %s is missing a child", at)
	}
	if n.Feature < 0 || n.Feature >= nFeatures {
		return fmt.Errorf("dtree: encoded node %s splits on feature %d of %d", at, n.Feature, nFeatures)
	}
	if err := checkNode(n.Left, nFeatures, at+".L"); err != nil {
		return err
	}
	return checkNode(n.Right, nFeatures, at+".R")
}

func (t *DecisionTreeRegressor) predictSingle(x []float64) float64 {
	node := t.root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func nodeDepth(n *treeNode) int {
	if n == nil || n.Leaf {
		return 0
	}
	return 1 + max(nodeDepth(n.Left), nodeDepth(n.Right))
}

func countLeaves(n *treeNode) int {
	if n == nil {
		return 0
	}
	if n.Leaf {
		return 1
	}
	return countLeaves(n.Left) + countLeaves(n.Right)
}
