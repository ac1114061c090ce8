// internal/market/forecast/gbrt.go
package forecast

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BoostingParams controls the gradient-boosted tree ensemble.
type BoostingParams struct {
	Estimators   int
	MaxDepth     int
	LearningRate float64
	Subsample    float64
	Seed         uint64
}

// DefaultBoostingParams returns the production ensemble settings.
func DefaultBoostingParams() BoostingParams {
	return BoostingParams{
		Estimators:   150,
		MaxDepth:     4,
		LearningRate: 0.08,
		Subsample:    0.85,
		Seed:         42,
	}
}

var errEmptyCorpus = errors.New("empty training corpus")

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      int
	right     int
}

type regressionTree struct {
	nodes []treeNode
}

func (t *regressionTree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.leaf {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// ensemble is a least-squares boosted sum of regression trees. It is never
// mutated after fitEnsemble returns.
type ensemble struct {
	init  float64
	rate  float64
	trees []regressionTree
}

func (e *ensemble) predict(x []float64) float64 {
	out := e.init
	for i := range e.trees {
		out += e.rate * e.trees[i].predict(x)
	}
	return out
}

// binned holds, per feature, the sorted distinct values and each sample's
// position among them. Features here are low-cardinality so split search
// scans bins rather than sorting samples at every node.
type binned struct {
	values [][]float64
	bins   [][]int // bins[feature][sample]
}

func binFeatures(x [][]float64) binned {
	nf := len(x[0])
	b := binned{values: make([][]float64, nf), bins: make([][]int, nf)}
	col := make([]float64, len(x))
	for f := 0; f < nf; f++ {
		for i, row := range x {
			col[i] = row[f]
		}
		uniq := slices.Clone(col)
		slices.Sort(uniq)
		uniq = slices.Compact(uniq)
		b.values[f] = uniq

		idx := make([]int, len(x))
		for i, v := range col {
			idx[i], _ = slices.BinarySearch(uniq, v)
		}
		b.bins[f] = idx
	}
	return b
}

func fitEnsemble(x [][]float64, y []float64, p BoostingParams) (*ensemble, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errEmptyCorpus
	}
	if p.Estimators <= 0 || p.MaxDepth <= 0 || p.LearningRate <= 0 || p.Subsample <= 0 || p.Subsample > 1 {
		return nil, errors.New("invalid boosting parameters")
	}

	n := len(y)
	b := binFeatures(x)
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed))

	e := &ensemble{init: stat.Mean(y, nil), rate: p.LearningRate}
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = e.init
	}
	resid := make([]float64, n)
	sampleSize := max(1, int(p.Subsample*float64(n)))

	for m := 0; m < p.Estimators; m++ {
		floats.SubTo(resid, y, pred)

		var sample []int
		if sampleSize < n {
			sample = rng.Perm(n)[:sampleSize]
			slices.Sort(sample)
		} else {
			sample = make([]int, n)
			for i := range sample {
				sample[i] = i
			}
		}

		tb := &treeBuilder{b: &b, resid: resid, maxDepth: p.MaxDepth}
		tb.grow(sample, 0)
		tree := regressionTree{nodes: tb.nodes}

		for i, row := range x {
			pred[i] += e.rate * tree.predict(row)
		}
		e.trees = append(e.trees, tree)
	}

	if floats.HasNaN(pred) || math.IsInf(floats.Sum(pred), 0) {
		return nil, errors.New("non-finite ensemble output")
	}
	return e, nil
}

type treeBuilder struct {
	b        *binned
	resid    []float64
	maxDepth int
	nodes    []treeNode
}

type split struct {
	feature   int
	bin       int
	threshold float64
	gain      float64
}

// grow appends the subtree for samples and returns its node index.
func (tb *treeBuilder) grow(samples []int, depth int) int {
	id := len(tb.nodes)
	tb.nodes = append(tb.nodes, treeNode{leaf: true, value: tb.mean(samples)})

	if depth >= tb.maxDepth || len(samples) < 2 {
		return id
	}
	best, ok := tb.bestSplit(samples)
	if !ok {
		return id
	}

	var left, right []int
	bins := tb.b.bins[best.feature]
	for _, i := range samples {
		if bins[i] <= best.bin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := tb.grow(left, depth+1)
	r := tb.grow(right, depth+1)
	tb.nodes[id] = treeNode{feature: best.feature, threshold: best.threshold, left: l, right: r}
	return id
}

func (tb *treeBuilder) mean(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, i := range samples {
		sum += tb.resid[i]
	}
	return sum / float64(len(samples))
}

// bestSplit maximises the reduction in squared error. Ties keep the lowest
// feature and bin, so the result does not depend on iteration order.
func (tb *treeBuilder) bestSplit(samples []int) (split, bool) {
	var total float64
	for _, i := range samples {
		total += tb.resid[i]
	}
	n := float64(len(samples))
	parent := total * total / n

	best := split{gain: 1e-9}
	found := false
	for f, values := range tb.b.values {
		if len(values) < 2 {
			continue
		}
		sums := make([]float64, len(values))
		counts := make([]int, len(values))
		bins := tb.b.bins[f]
		for _, i := range samples {
			sums[bins[i]] += tb.resid[i]
			counts[bins[i]]++
		}

		var lsum float64
		lcount := 0
		for bin := 0; bin < len(values)-1; bin++ {
			lsum += sums[bin]
			lcount += counts[bin]
			if counts[bin] == 0 {
				continue
			}
			rcount := len(samples) - lcount
			if lcount == 0 || rcount == 0 {
				continue
			}
			next := bin + 1
			for next < len(values) && counts[next] == 0 {
				next++
			}
			if next == len(values) {
				break
			}
			rsum := total - lsum
			gain := lsum*lsum/float64(lcount) + rsum*rsum/float64(rcount) - parent
			if gain > best.gain {
				best = split{
					feature:   f,
					bin:       bin,
					threshold: (values[bin] + values[next]) / 2,
					gain:      gain,
				}
				found = true
			}
		}
	}
	return best, found
}
