package classifier

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afraa786/wichain/internal/core/domain"
)

// syntheticCorpus builds a linearly separable dataset: spoofed rows carry
// high values in the risk columns, legitimate rows low values.
func syntheticCorpus(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	matrix := make([][]float64, n)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		row := make([]float64, domain.FeatureCount)
		if i%2 == 0 {
			// Legitimate: strong signal, secure encryption.
			row[0] = -50 + rng.Float64()*10
			row[8] = 0
			row[4] = 0
		} else {
			// Spoofed: weak signal, open encryption, rogue SSID pattern.
			row[0] = -90 + rng.Float64()*10
			row[8] = 2
			row[4] = 1
			labels[i] = 1
		}
		row[1] = float64(1 + rng.Intn(11))
		row[2] = 2.4
		row[3] = float64(5 + rng.Intn(20))
		matrix[i] = row
	}
	return matrix, labels
}

func TestTrainer_SelectsAndScores(t *testing.T) {
	matrix, labels := syntheticCorpus(60, 1)

	report, artifact, err := NewTrainer().Run(context.Background(), matrix, labels)
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.Contains(t, []string{"forest", "boost"}, report.Family)
	assert.Len(t, report.CVScores, 2)
	assert.Greater(t, report.HoldoutAccuracy, 0.8)
	assert.Equal(t, 60, report.Samples)

	model, err := artifact.predictor()
	require.NoError(t, err)

	// Separable rows should score confidently on both sides.
	assert.Less(t, model.PredictProba(matrix[0]), 0.5)
	assert.Greater(t, model.PredictProba(matrix[1]), 0.5)
}

func TestTrainer_RejectsDegenerateInput(t *testing.T) {
	tr := NewTrainer()
	ctx := context.Background()

	_, _, err := tr.Run(ctx, [][]float64{{1}}, []int{1, 0})
	assert.Error(t, err)

	matrix, _ := syntheticCorpus(20, 1)
	allSame := make([]int, 20)
	_, _, err = tr.Run(ctx, matrix, allSame)
	assert.Error(t, err)

	_, _, err = tr.Run(ctx, matrix[:4], []int{0, 1, 0, 1})
	assert.Error(t, err)
}

func TestTrainer_Deterministic(t *testing.T) {
	matrix, labels := syntheticCorpus(40, 7)

	r1, _, err := NewTrainer().Run(context.Background(), matrix, labels)
	require.NoError(t, err)
	r2, _, err := NewTrainer().Run(context.Background(), matrix, labels)
	require.NoError(t, err)

	assert.Equal(t, r1.Family, r2.Family)
	assert.Equal(t, r1.CVScores, r2.CVScores)
	assert.Equal(t, r1.HoldoutAccuracy, r2.HoldoutAccuracy)
}

func TestAdapter_PredictBeforeTraining(t *testing.T) {
	a := NewAdapter(filepath.Join(t.TempDir(), "model.gob"))
	_, _, err := a.Predict(context.Background(), make([]float64, domain.FeatureCount))
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestAdapter_TrainThenPredict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	a := NewAdapter(path)

	matrix, labels := syntheticCorpus(60, 3)
	report, err := a.Train(context.Background(), matrix, labels)
	require.NoError(t, err)
	assert.Greater(t, report.HoldoutAccuracy, 0.8)

	label, conf, err := a.Predict(context.Background(), matrix[1])
	require.NoError(t, err)
	assert.Equal(t, 1, label)
	assert.GreaterOrEqual(t, conf, 0.5)

	label, conf, err = a.Predict(context.Background(), matrix[0])
	require.NoError(t, err)
	assert.Equal(t, 0, label)
	assert.GreaterOrEqual(t, conf, 0.5)

	// A fresh adapter loads the persisted artifact.
	b := NewAdapter(path)
	label2, _, err := b.Predict(context.Background(), matrix[1])
	require.NoError(t, err)
	assert.Equal(t, label, 0, "sanity")
	assert.Equal(t, 1, label2)
}

func TestWeightedF1(t *testing.T) {
	assert.InDelta(t, 1.0, weightedF1([]int{0, 1, 0, 1}, []int{0, 1, 0, 1}), 1e-9)
	assert.InDelta(t, 0.0, weightedF1([]int{0, 0, 1, 1}, []int{1, 1, 0, 0}), 1e-9)
}

func TestStratifiedSplit_PreservesClasses(t *testing.T) {
	labels := []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1}
	train, hold := stratifiedSplit(labels, 0.25, 42)

	assert.Len(t, train, 9)
	assert.Len(t, hold, 3)

	var holdPos int
	for _, i := range hold {
		holdPos += labels[i]
	}
	assert.Equal(t, 1, holdPos)
}
