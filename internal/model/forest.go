package model

import (
	"errors"
	"math"
	"math/rand"
	"sync"
)

// ForestParams holds the shared hyperparameters of both forest variants.
type ForestParams struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => sqrt(p), chosen at fit time
	Bootstrap       bool
	Seed            int64
}

// ForestOption is a functional option for forest construction.
type ForestOption func(*ForestParams)

func WithTrees(n int) ForestOption        { return func(p *ForestParams) { p.Trees = n } }
func WithMaxDepth(d int) ForestOption     { return func(p *ForestParams) { p.MaxDepth = d } }
func WithMaxFeatures(k int) ForestOption  { return func(p *ForestParams) { p.MaxFeatures = k } }
func WithBootstrap(b bool) ForestOption   { return func(p *ForestParams) { p.Bootstrap = b } }
func WithSeed(seed int64) ForestOption    { return func(p *ForestParams) { p.Seed = seed } }
func WithMinSamplesSplit(n int) ForestOption {
	return func(p *ForestParams) { p.MinSamplesSplit = n }
}

func defaultForestParams() ForestParams {
	return ForestParams{
		Trees:           25,
		MaxDepth:        8,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Bootstrap:       true,
		Seed:            1,
	}
}

// RandomForestRegressor averages the predictions of bootstrap-trained
// regression trees. Results are deterministic for a fixed seed: tree i
// always draws from seed+i and predictions are averaged in tree order.
type RandomForestRegressor struct {
	Params ForestParams
	trees  []*RegressionTree
}

// NewRandomForestRegressor creates a regressor with sensible defaults.
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	p := defaultForestParams()
	for _, o := range opts {
		o(&p)
	}
	return &RandomForestRegressor{Params: p}
}

// Fit trains the forest on X (n rows) and y (n targets). Categorical
// predictors are integer codes in X with catFeature set for that column.
func (rf *RandomForestRegressor) Fit(X [][]float64, catFeature []bool, y []float64) error {
	if err := checkTrainingShape(len(X), len(y), len(catFeature), X); err != nil {
		return err
	}

	rf.trees = make([]*RegressionTree, rf.Params.Trees)
	var wg sync.WaitGroup
	errCh := make(chan error, rf.Params.Trees)
	for i := 0; i < rf.Params.Trees; i++ {
		wg.Add(1)
		go func(treeIdx int) {
			defer wg.Done()
			tree := &RegressionTree{Params: rf.treeParams(len(catFeature), treeIdx)}
			idx := sampleRows(len(X), rf.Params.Bootstrap, rf.Params.Seed+int64(treeIdx))
			if err := tree.Fit(X, catFeature, y, idx); err != nil {
				errCh <- err
				return
			}
			rf.trees[treeIdx] = tree
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// Predict returns the mean of all tree estimates for one feature row.
func (rf *RandomForestRegressor) Predict(x []float64) float64 {
	if len(rf.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range rf.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(rf.trees))
}

func (rf *RandomForestRegressor) treeParams(p, treeIdx int) TreeParams {
	return TreeParams{
		MaxDepth:        rf.Params.MaxDepth,
		MinSamplesSplit: rf.Params.MinSamplesSplit,
		MinSamplesLeaf:  rf.Params.MinSamplesLeaf,
		MaxFeatures:     resolveMaxFeatures(rf.Params.MaxFeatures, p),
		Seed:            rf.Params.Seed + int64(treeIdx),
	}
}

// RandomForestClassifier majority-votes bootstrap-trained classification
// trees over integer label codes. Vote ties break toward the lower code,
// which keeps predictions deterministic.
type RandomForestClassifier struct {
	Params ForestParams
	trees  []*ClassificationTree
}

// NewRandomForestClassifier creates a classifier with sensible defaults.
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	p := defaultForestParams()
	for _, o := range opts {
		o(&p)
	}
	return &RandomForestClassifier{Params: p}
}

// Fit trains the forest on X (n rows) and y (n label codes).
func (rf *RandomForestClassifier) Fit(X [][]float64, catFeature []bool, y []int) error {
	if err := checkTrainingShape(len(X), len(y), len(catFeature), X); err != nil {
		return err
	}

	rf.trees = make([]*ClassificationTree, rf.Params.Trees)
	var wg sync.WaitGroup
	errCh := make(chan error, rf.Params.Trees)
	for i := 0; i < rf.Params.Trees; i++ {
		wg.Add(1)
		go func(treeIdx int) {
			defer wg.Done()
			tree := &ClassificationTree{Params: TreeParams{
				MaxDepth:        rf.Params.MaxDepth,
				MinSamplesSplit: rf.Params.MinSamplesSplit,
				MinSamplesLeaf:  rf.Params.MinSamplesLeaf,
				MaxFeatures:     resolveMaxFeatures(rf.Params.MaxFeatures, len(catFeature)),
				Seed:            rf.Params.Seed + int64(treeIdx),
			}}
			idx := sampleRows(len(X), rf.Params.Bootstrap, rf.Params.Seed+int64(treeIdx))
			if err := tree.Fit(X, catFeature, y, idx); err != nil {
				errCh <- err
				return
			}
			rf.trees[treeIdx] = tree
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// Predict returns the majority label code for one feature row.
func (rf *RandomForestClassifier) Predict(x []float64) int {
	if len(rf.trees) == 0 {
		return 0
	}
	votes := map[int]int{}
	for _, t := range rf.trees {
		votes[t.Predict(x)]++
	}
	best, bestVotes := 0, -1
	for code, n := range votes {
		if n > bestVotes || (n == bestVotes && code < best) {
			best, bestVotes = code, n
		}
	}
	return best
}

func checkTrainingShape(n, ny, p int, X [][]float64) error {
	if n == 0 {
		return errors.New("forest: empty X")
	}
	if ny != n {
		return errors.New("forest: X and y length mismatch")
	}
	for _, row := range X {
		if len(row) != p {
			return errors.New("forest: inconsistent number of features in X rows")
		}
	}
	return nil
}

// sampleRows draws the bootstrap sample for one tree. Each tree gets its
// own rand source so fits can run concurrently without contention.
func sampleRows(n int, bootstrap bool, seed int64) []int {
	idx := make([]int, n)
	if !bootstrap {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	rnd := rand.New(rand.NewSource(seed))
	for i := range idx {
		idx[i] = rnd.Intn(n)
	}
	return idx
}

func resolveMaxFeatures(configured, p int) int {
	if configured > 0 {
		return configured
	}
	k := int(math.Sqrt(float64(p)))
	if k < 1 {
		k = 1
	}
	return k
}
