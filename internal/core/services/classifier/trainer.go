package classifier

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/afraa786/wichain/internal/core/domain"
)

const (
	holdoutFraction = 0.2
	cvFolds         = 5
	selectionSeed   = 42
)

// Trainer runs model selection: both families are scored with k-fold
// cross-validated weighted F1 on the training split, the winner is refitted
// on the full split and measured once against the holdout.
type Trainer struct {
	forest forestParams
	boost  boostParams
}

func NewTrainer() *Trainer {
	return &Trainer{
		forest: defaultForestParams(),
		boost:  defaultBoostParams(),
	}
}

// Run executes the full selection protocol and returns the winning artifact.
func (t *Trainer) Run(ctx context.Context, matrix [][]float64, labels []int) (domain.TrainingReport, *modelArtifact, error) {
	if len(matrix) != len(labels) {
		return domain.TrainingReport{}, nil, fmt.Errorf("train: %d rows but %d labels", len(matrix), len(labels))
	}
	if len(matrix) < cvFolds*2 {
		return domain.TrainingReport{}, nil, fmt.Errorf("train: need at least %d samples, got %d", cvFolds*2, len(matrix))
	}
	if !hasBothClasses(labels) {
		return domain.TrainingReport{}, nil, fmt.Errorf("train: corpus must contain both classes")
	}

	trainIdx, holdIdx := stratifiedSplit(labels, holdoutFraction, selectionSeed)

	scores := map[string]float64{
		familyForest: t.crossValidate(ctx, matrix, labels, trainIdx, familyForest),
		familyBoost:  t.crossValidate(ctx, matrix, labels, trainIdx, familyBoost),
	}
	if err := ctx.Err(); err != nil {
		return domain.TrainingReport{}, nil, err
	}

	winner := familyForest
	if scores[familyBoost] > scores[familyForest] {
		winner = familyBoost
	}

	trainX, trainY := subset(matrix, labels, trainIdx)
	artifact := t.fit(winner, trainX, trainY)

	model, err := artifact.predictor()
	if err != nil {
		return domain.TrainingReport{}, nil, err
	}

	holdX, holdY := subset(matrix, labels, holdIdx)
	correct := 0
	for i, row := range holdX {
		label := 0
		if model.PredictProba(row) >= 0.5 {
			label = 1
		}
		if label == holdY[i] {
			correct++
		}
	}
	accuracy := 1.0
	if len(holdY) > 0 {
		accuracy = float64(correct) / float64(len(holdY))
	}

	report := domain.TrainingReport{
		Family:          winner,
		CVScores:        scores,
		HoldoutAccuracy: accuracy,
		Samples:         len(matrix),
		TrainedAt:       time.Now().UTC(),
	}
	return report, artifact, nil
}

func (t *Trainer) fit(family string, matrix [][]float64, labels []int) *modelArtifact {
	artifact := &modelArtifact{
		Family:       family,
		FeatureCount: len(matrix[0]),
		TrainedAt:    time.Now().UTC(),
	}
	switch family {
	case familyForest:
		artifact.Forest = trainForest(matrix, labels, t.forest)
	case familyBoost:
		artifact.Boost = trainBoost(matrix, labels, t.boost)
	}
	return artifact
}

// crossValidate returns the mean weighted F1 across k folds.
func (t *Trainer) crossValidate(ctx context.Context, matrix [][]float64, labels []int, idx []int, family string) float64 {
	folds := kFolds(idx, cvFolds, selectionSeed)

	var total float64
	counted := 0
	for fi := range folds {
		if ctx.Err() != nil {
			return 0
		}

		var trainIdx, valIdx []int
		for fj, fold := range folds {
			if fj == fi {
				valIdx = fold
			} else {
				trainIdx = append(trainIdx, fold...)
			}
		}
		trainX, trainY := subset(matrix, labels, trainIdx)
		if !hasBothClasses(trainY) {
			continue
		}

		artifact := t.fit(family, trainX, trainY)
		model, err := artifact.predictor()
		if err != nil {
			continue
		}

		valX, valY := subset(matrix, labels, valIdx)
		preds := make([]int, len(valX))
		for i, row := range valX {
			if model.PredictProba(row) >= 0.5 {
				preds[i] = 1
			}
		}
		total += weightedF1(valY, preds)
		counted++
	}

	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

// stratifiedSplit shuffles each class independently and reserves the given
// fraction of each for the holdout.
func stratifiedSplit(labels []int, fraction float64, seed int64) (train, holdout []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}

	for _, class := range []int{0, 1} {
		idx := byClass[class]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		cut := int(float64(len(idx)) * fraction)
		if cut == 0 && len(idx) > 1 {
			cut = 1
		}
		holdout = append(holdout, idx[:cut]...)
		train = append(train, idx[cut:]...)
	}
	return train, holdout
}

func kFolds(idx []int, k int, seed int64) [][]int {
	shuffled := append([]int(nil), idx...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	folds := make([][]int, k)
	for i, v := range shuffled {
		folds[i%k] = append(folds[i%k], v)
	}
	return folds
}

func subset(matrix [][]float64, labels []int, idx []int) ([][]float64, []int) {
	x := make([][]float64, len(idx))
	y := make([]int, len(idx))
	for i, j := range idx {
		x[i] = matrix[j]
		y[i] = labels[j]
	}
	return x, y
}

func hasBothClasses(labels []int) bool {
	seen := map[int]bool{}
	for _, y := range labels {
		seen[y] = true
	}
	return seen[0] && seen[1]
}

// weightedF1 averages per-class F1 weighted by class support.
func weightedF1(truth, preds []int) float64 {
	var total float64
	n := float64(len(truth))
	for _, class := range []int{0, 1} {
		var tp, fp, fn, support int
		for i := range truth {
			p := preds[i] == class
			a := truth[i] == class
			switch {
			case p && a:
				tp++
			case p && !a:
				fp++
			case !p && a:
				fn++
			}
			if a {
				support++
			}
		}
		if support == 0 {
			continue
		}
		var f1 float64
		if 2*tp+fp+fn > 0 {
			f1 = 2 * float64(tp) / float64(2*tp+fp+fn)
		}
		total += f1 * float64(support) / n
	}
	return total
}
