package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// TreeParams holds the hyperparameters shared by regression and
// classification trees.
type TreeParams struct {
	MaxDepth        int   // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit int   // minimum samples to attempt a split
	MinSamplesLeaf  int   // minimum samples required in each leaf
	MaxFeatures     int   // 0 => consider all features at each split
	Seed            int64 // seed for feature subsampling
}

// DefaultTreeParams returns sensible defaults for a forest member.
func DefaultTreeParams() TreeParams {
	return TreeParams{
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
	}
}

// node is a CART node. Numeric splits send x <= threshold left;
// categorical splits send x == threshold (an encoded category) left.
type node struct {
	isLeaf    bool
	feature   int
	threshold float64
	isCat     bool
	left      *node
	right     *node

	value float64 // regression leaf: mean of targets
	class int     // classification leaf: majority label code
}

type split struct {
	feature   int
	threshold float64
	isCat     bool
	decrease  float64
	left      []int
	right     []int
}

// candidateFeatures returns the feature indices to evaluate at one node.
func candidateFeatures(p int, maxFeatures int, rnd *rand.Rand) []int {
	if maxFeatures <= 0 || maxFeatures >= p {
		all := make([]int, p)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := rnd.Perm(p)[:maxFeatures]
	sort.Ints(perm)
	return perm
}

// RegressionTree is a CART regressor with variance-reduction splits.
// Categorical predictors are passed as integer codes in X with the
// matching catFeature flag set.
type RegressionTree struct {
	Params TreeParams
	root   *node
}

// Fit trains the tree on the rows of X selected by idx.
func (t *RegressionTree) Fit(X [][]float64, catFeature []bool, y []float64, idx []int) error {
	if len(X) == 0 || len(idx) == 0 {
		return errors.New("tree: no training rows")
	}
	if len(y) != len(X) {
		return errors.New("tree: X and y length mismatch")
	}
	rnd := rand.New(rand.NewSource(t.Params.Seed))
	t.root = t.build(X, catFeature, y, idx, 0, rnd)
	return nil
}

// Predict returns the tree's estimate for one feature row.
func (t *RegressionTree) Predict(x []float64) float64 {
	n := t.root
	for n != nil && !n.isLeaf {
		if goesLeft(n, x) {
			n = n.left
		} else {
			n = n.right
		}
	}
	if n == nil {
		return 0
	}
	return n.value
}

func (t *RegressionTree) build(X [][]float64, catFeature []bool, y []float64, idx []int, depth int, rnd *rand.Rand) *node {
	mean, sse := meanSSE(y, idx)
	leaf := &node{isLeaf: true, value: mean}
	if len(idx) < t.Params.MinSamplesSplit || sse == 0 {
		return leaf
	}
	if t.Params.MaxDepth > 0 && depth >= t.Params.MaxDepth {
		return leaf
	}

	p := len(X[idx[0]])
	best := split{decrease: 0}
	for _, f := range candidateFeatures(p, t.Params.MaxFeatures, rnd) {
		var s split
		var ok bool
		if catFeature[f] {
			s, ok = bestCategoricalRegSplit(X, y, idx, f, t.Params.MinSamplesLeaf)
		} else {
			s, ok = bestNumericRegSplit(X, y, idx, f, t.Params.MinSamplesLeaf)
		}
		if ok && s.decrease > best.decrease {
			best = s
		}
	}
	if best.left == nil || best.right == nil {
		return leaf
	}

	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		isCat:     best.isCat,
		left:      t.build(X, catFeature, y, best.left, depth+1, rnd),
		right:     t.build(X, catFeature, y, best.right, depth+1, rnd),
	}
}

// ClassificationTree is a CART classifier with Gini-impurity splits over
// integer label codes.
type ClassificationTree struct {
	Params   TreeParams
	root     *node
	nClasses int
}

// Fit trains the tree on the rows of X selected by idx. Labels must be
// codes in [0, nClasses).
func (t *ClassificationTree) Fit(X [][]float64, catFeature []bool, y []int, idx []int) error {
	if len(X) == 0 || len(idx) == 0 {
		return errors.New("tree: no training rows")
	}
	if len(y) != len(X) {
		return errors.New("tree: X and y length mismatch")
	}
	t.nClasses = 0
	for _, i := range idx {
		if y[i] < 0 {
			return errors.New("tree: negative class code")
		}
		if y[i]+1 > t.nClasses {
			t.nClasses = y[i] + 1
		}
	}
	rnd := rand.New(rand.NewSource(t.Params.Seed))
	t.root = t.build(X, catFeature, y, idx, 0, rnd)
	return nil
}

// Predict returns the majority label code for one feature row.
func (t *ClassificationTree) Predict(x []float64) int {
	n := t.root
	for n != nil && !n.isLeaf {
		if goesLeft(n, x) {
			n = n.left
		} else {
			n = n.right
		}
	}
	if n == nil {
		return 0
	}
	return n.class
}

func (t *ClassificationTree) build(X [][]float64, catFeature []bool, y []int, idx []int, depth int, rnd *rand.Rand) *node {
	counts := classCounts(y, idx, t.nClasses)
	leaf := &node{isLeaf: true, class: argmax(counts)}
	parent := gini(counts, len(idx))
	if len(idx) < t.Params.MinSamplesSplit || parent == 0 {
		return leaf
	}
	if t.Params.MaxDepth > 0 && depth >= t.Params.MaxDepth {
		return leaf
	}

	p := len(X[idx[0]])
	best := split{decrease: 0}
	for _, f := range candidateFeatures(p, t.Params.MaxFeatures, rnd) {
		var s split
		var ok bool
		if catFeature[f] {
			s, ok = bestCategoricalClsSplit(X, y, idx, f, t.nClasses, parent, t.Params.MinSamplesLeaf)
		} else {
			s, ok = bestNumericClsSplit(X, y, idx, f, t.nClasses, parent, t.Params.MinSamplesLeaf)
		}
		if ok && s.decrease > best.decrease {
			best = s
		}
	}
	if best.left == nil || best.right == nil {
		return leaf
	}

	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		isCat:     best.isCat,
		left:      t.build(X, catFeature, y, best.left, depth+1, rnd),
		right:     t.build(X, catFeature, y, best.right, depth+1, rnd),
	}
}

func goesLeft(n *node, x []float64) bool {
	if n.isCat {
		return x[n.feature] == n.threshold
	}
	return x[n.feature] <= n.threshold
}

// ---------------------------
// Split search helpers
// ---------------------------

func meanSSE(y []float64, idx []int) (float64, float64) {
	n := float64(len(idx))
	if n == 0 {
		return 0, 0
	}
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	mean := sum / n
	sse := sumSq - sum*sum/n
	if sse < 0 {
		sse = 0 // guard against rounding
	}
	return mean, sse
}

// bestNumericRegSplit scans thresholds between consecutive distinct values
// of feature f, tracking left/right sums to score each split in O(1).
func bestNumericRegSplit(X [][]float64, y []float64, idx []int, f, minLeaf int) (split, bool) {
	order := append([]int(nil), idx...)
	sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

	n := float64(len(order))
	var totalSum, totalSq float64
	for _, i := range order {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	parentSSE := totalSq - totalSum*totalSum/n

	var leftSum, leftSq float64
	best := split{feature: f, decrease: -1}
	for k := 0; k < len(order)-1; k++ {
		i := order[k]
		leftSum += y[i]
		leftSq += y[i] * y[i]
		if X[order[k]][f] == X[order[k+1]][f] {
			continue
		}
		nl := float64(k + 1)
		nr := n - nl
		if int(nl) < minLeaf || int(nr) < minLeaf {
			continue
		}
		rightSum := totalSum - leftSum
		rightSq := totalSq - leftSq
		sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
		decrease := parentSSE - sse
		if decrease > best.decrease {
			best.decrease = decrease
			best.threshold = (X[order[k]][f] + X[order[k+1]][f]) / 2
			best.left = append([]int(nil), order[:k+1]...)
			best.right = append([]int(nil), order[k+1:]...)
		}
	}
	return best, best.decrease > 0
}

// bestCategoricalRegSplit tries an equality split on each distinct
// category code of feature f.
func bestCategoricalRegSplit(X [][]float64, y []float64, idx []int, f, minLeaf int) (split, bool) {
	type group struct {
		sum   float64
		sumSq float64
		rows  []int
	}
	groups := map[float64]*group{}
	var order []float64
	n := float64(len(idx))
	var totalSum, totalSq float64
	for _, i := range idx {
		v := X[i][f]
		g, ok := groups[v]
		if !ok {
			g = &group{}
			groups[v] = g
			order = append(order, v)
		}
		g.sum += y[i]
		g.sumSq += y[i] * y[i]
		g.rows = append(g.rows, i)
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	if len(groups) < 2 {
		return split{}, false
	}
	parentSSE := totalSq - totalSum*totalSum/n

	sort.Float64s(order) // deterministic scan order
	best := split{feature: f, isCat: true, decrease: -1}
	for _, v := range order {
		g := groups[v]
		nl := float64(len(g.rows))
		nr := n - nl
		if int(nl) < minLeaf || int(nr) < minLeaf {
			continue
		}
		rightSum := totalSum - g.sum
		rightSq := totalSq - g.sumSq
		sse := (g.sumSq - g.sum*g.sum/nl) + (rightSq - rightSum*rightSum/nr)
		decrease := parentSSE - sse
		if decrease > best.decrease {
			best.decrease = decrease
			best.threshold = v
			best.left = g.rows
			best.right = complementRows(idx, g.rows)
		}
	}
	return best, best.decrease > 0
}

func bestNumericClsSplit(X [][]float64, y []int, idx []int, f, nClasses int, parent float64, minLeaf int) (split, bool) {
	order := append([]int(nil), idx...)
	sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

	n := len(order)
	total := classCounts(y, order, nClasses)
	left := make([]int, nClasses)
	best := split{feature: f, decrease: -1}
	for k := 0; k < n-1; k++ {
		left[y[order[k]]]++
		if X[order[k]][f] == X[order[k+1]][f] {
			continue
		}
		nl := k + 1
		nr := n - nl
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		right := make([]int, nClasses)
		for c := range total {
			right[c] = total[c] - left[c]
		}
		weighted := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
		decrease := parent - weighted
		if decrease > best.decrease {
			best.decrease = decrease
			best.threshold = (X[order[k]][f] + X[order[k+1]][f]) / 2
			best.left = append([]int(nil), order[:k+1]...)
			best.right = append([]int(nil), order[k+1:]...)
		}
	}
	return best, best.decrease > 0
}

func bestCategoricalClsSplit(X [][]float64, y []int, idx []int, f, nClasses int, parent float64, minLeaf int) (split, bool) {
	groups := map[float64][]int{}
	var order []float64
	for _, i := range idx {
		v := X[i][f]
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], i)
	}
	if len(groups) < 2 {
		return split{}, false
	}
	sort.Float64s(order)

	n := len(idx)
	total := classCounts(y, idx, nClasses)
	best := split{feature: f, isCat: true, decrease: -1}
	for _, v := range order {
		rows := groups[v]
		nl := len(rows)
		nr := n - nl
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		left := classCounts(y, rows, nClasses)
		right := make([]int, nClasses)
		for c := range total {
			right[c] = total[c] - left[c]
		}
		weighted := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
		decrease := parent - weighted
		if decrease > best.decrease {
			best.decrease = decrease
			best.threshold = v
			best.left = rows
			best.right = complementRows(idx, rows)
		}
	}
	return best, best.decrease > 0
}

func classCounts(y []int, idx []int, nClasses int) []int {
	counts := make([]int, nClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	if g < 1e-12 {
		return 0
	}
	return g
}

func argmax(counts []int) int {
	best, bestCount := 0, math.MinInt
	for c, cnt := range counts {
		if cnt > bestCount {
			best, bestCount = c, cnt
		}
	}
	return best
}

func complementRows(all, taken []int) []int {
	in := make(map[int]struct{}, len(taken))
	for _, i := range taken {
		in[i] = struct{}{}
	}
	out := make([]int, 0, len(all)-len(taken))
	for _, i := range all {
		if _, ok := in[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}
