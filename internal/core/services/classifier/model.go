// Package classifier implements the trainable spoof classifier: two model
// families (bagged decision forest and boosted stumps) trained from labeled
// observations, persisted as gob artifacts, and served behind the
// ports.Classifier contract.
package classifier

import (
	"math"
	"math/rand"
	"sort"
)

// predictor is the common contract both model families satisfy. PredictProba
// returns the probability of the positive (spoof) class.
type predictor interface {
	PredictProba(features []float64) float64
}

// treeNode is one CART node. Leaves carry the positive-class fraction of
// the training rows that reached them.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      *treeNode
	Right     *treeNode
	Leaf      bool
	Proba     float64
}

func (n *treeNode) predict(features []float64) float64 {
	node := n
	for !node.Leaf {
		if features[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Proba
}

// forestModel is a bagged ensemble of CART trees with per-split feature
// subsampling.
type forestModel struct {
	Trees []*treeNode
}

func (f *forestModel) PredictProba(features []float64) float64 {
	if len(f.Trees) == 0 {
		return 0.5
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(features)
	}
	return sum / float64(len(f.Trees))
}

// forestParams mirror the defaults the detector shipped with: 200 trees,
// depth cap 10, seeded for reproducible training runs.
type forestParams struct {
	NumTrees    int
	MaxDepth    int
	MinLeafSize int
	Seed        int64
}

func defaultForestParams() forestParams {
	return forestParams{NumTrees: 200, MaxDepth: 10, MinLeafSize: 2, Seed: 42}
}

func trainForest(matrix [][]float64, labels []int, p forestParams) *forestModel {
	rng := rand.New(rand.NewSource(p.Seed))
	n := len(matrix)
	numFeatures := len(matrix[0])
	subspace := int(math.Ceil(math.Sqrt(float64(numFeatures))))

	forest := &forestModel{Trees: make([]*treeNode, 0, p.NumTrees)}
	for t := 0; t < p.NumTrees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		tree := growTree(matrix, labels, idx, 0, p, subspace, rng)
		forest.Trees = append(forest.Trees, tree)
	}
	return forest
}

func growTree(matrix [][]float64, labels []int, idx []int, depth int, p forestParams, subspace int, rng *rand.Rand) *treeNode {
	pos := 0
	for _, i := range idx {
		pos += labels[i]
	}
	proba := float64(pos) / float64(len(idx))

	if depth >= p.MaxDepth || len(idx) < 2*p.MinLeafSize || pos == 0 || pos == len(idx) {
		return &treeNode{Leaf: true, Proba: proba}
	}

	feature, threshold, ok := bestSplit(matrix, labels, idx, subspace, rng)
	if !ok {
		return &treeNode{Leaf: true, Proba: proba}
	}

	var left, right []int
	for _, i := range idx {
		if matrix[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.MinLeafSize || len(right) < p.MinLeafSize {
		return &treeNode{Leaf: true, Proba: proba}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(matrix, labels, left, depth+1, p, subspace, rng),
		Right:     growTree(matrix, labels, right, depth+1, p, subspace, rng),
	}
}

// bestSplit scans a random feature subspace for the gini-optimal threshold.
func bestSplit(matrix [][]float64, labels []int, idx []int, subspace int, rng *rand.Rand) (int, float64, bool) {
	numFeatures := len(matrix[0])
	perm := rng.Perm(numFeatures)
	candidates := perm[:subspace]

	bestGini := math.Inf(1)
	bestFeature := -1
	var bestThreshold float64

	for _, f := range candidates {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, matrix[i][f])
		}
		sort.Float64s(values)

		for vi := 1; vi < len(values); vi++ {
			if values[vi] == values[vi-1] {
				continue
			}
			threshold := (values[vi] + values[vi-1]) / 2

			var lPos, lTot, rPos, rTot int
			for _, i := range idx {
				if matrix[i][f] <= threshold {
					lTot++
					lPos += labels[i]
				} else {
					rTot++
					rPos += labels[i]
				}
			}
			if lTot == 0 || rTot == 0 {
				continue
			}

			g := weightedGini(lPos, lTot, rPos, rTot)
			if g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func weightedGini(lPos, lTot, rPos, rTot int) float64 {
	total := float64(lTot + rTot)
	return float64(lTot)/total*gini(lPos, lTot) + float64(rTot)/total*gini(rPos, rTot)
}

func gini(pos, tot int) float64 {
	p := float64(pos) / float64(tot)
	return 2 * p * (1 - p)
}

// stump is one depth-1 weak learner in the boosted ensemble.
type stump struct {
	Feature   int
	Threshold float64
	LeftVal   float64
	RightVal  float64
}

// boostModel is gradient-boosted stumps over logistic loss.
type boostModel struct {
	Bias         float64
	LearningRate float64
	Stumps       []stump
}

func (b *boostModel) PredictProba(features []float64) float64 {
	score := b.Bias
	for _, s := range b.Stumps {
		if features[s.Feature] <= s.Threshold {
			score += b.LearningRate * s.LeftVal
		} else {
			score += b.LearningRate * s.RightVal
		}
	}
	return sigmoid(score)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

type boostParams struct {
	Rounds       int
	LearningRate float64
	Seed         int64
}

func defaultBoostParams() boostParams {
	return boostParams{Rounds: 100, LearningRate: 0.1, Seed: 42}
}

func trainBoost(matrix [][]float64, labels []int, p boostParams) *boostModel {
	n := len(matrix)
	pos := 0
	for _, y := range labels {
		pos += y
	}
	// Log-odds prior, clamped away from the degenerate all-one-class case.
	prior := math.Min(math.Max(float64(pos)/float64(n), 1e-3), 1-1e-3)
	model := &boostModel{
		Bias:         math.Log(prior / (1 - prior)),
		LearningRate: p.LearningRate,
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = model.Bias
	}

	rng := rand.New(rand.NewSource(p.Seed))
	numFeatures := len(matrix[0])

	for round := 0; round < p.Rounds; round++ {
		residuals := make([]float64, n)
		for i := range residuals {
			residuals[i] = float64(labels[i]) - sigmoid(scores[i])
		}

		s, ok := fitStump(matrix, residuals, rng.Intn(numFeatures))
		if !ok {
			continue
		}
		model.Stumps = append(model.Stumps, s)

		for i := range scores {
			if matrix[i][s.Feature] <= s.Threshold {
				scores[i] += p.LearningRate * s.LeftVal
			} else {
				scores[i] += p.LearningRate * s.RightVal
			}
		}
	}
	return model
}

// fitStump fits a single regression stump on one feature, minimizing squared
// residual error.
func fitStump(matrix [][]float64, residuals []float64, feature int) (stump, bool) {
	values := make([]float64, len(matrix))
	for i := range matrix {
		values[i] = matrix[i][feature]
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	bestErr := math.Inf(1)
	var best stump
	found := false

	for vi := 1; vi < len(sorted); vi++ {
		if sorted[vi] == sorted[vi-1] {
			continue
		}
		threshold := (sorted[vi] + sorted[vi-1]) / 2

		var lSum, rSum float64
		var lCnt, rCnt int
		for i, v := range values {
			if v <= threshold {
				lSum += residuals[i]
				lCnt++
			} else {
				rSum += residuals[i]
				rCnt++
			}
		}
		if lCnt == 0 || rCnt == 0 {
			continue
		}
		lMean := lSum / float64(lCnt)
		rMean := rSum / float64(rCnt)

		var sse float64
		for i, v := range values {
			var pred float64
			if v <= threshold {
				pred = lMean
			} else {
				pred = rMean
			}
			d := residuals[i] - pred
			sse += d * d
		}

		if sse < bestErr {
			bestErr = sse
			best = stump{Feature: feature, Threshold: threshold, LeftVal: lMean, RightVal: rMean}
			found = true
		}
	}

	return best, found
}
