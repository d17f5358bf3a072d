package classifier

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

// modelArtifact is the on-disk representation of a fitted model. Exactly one
// of Forest/Boost is non-nil, selected by Family.
type modelArtifact struct {
	Family       string
	FeatureCount int
	TrainedAt    time.Time
	Forest       *forestModel
	Boost        *boostModel
}

func (a *modelArtifact) predictor() (predictor, error) {
	switch a.Family {
	case familyForest:
		if a.Forest == nil {
			return nil, fmt.Errorf("artifact family %q missing forest payload", a.Family)
		}
		return a.Forest, nil
	case familyBoost:
		if a.Boost == nil {
			return nil, fmt.Errorf("artifact family %q missing boost payload", a.Family)
		}
		return a.Boost, nil
	default:
		return nil, fmt.Errorf("unknown model family %q", a.Family)
	}
}

const (
	familyForest = "forest"
	familyBoost  = "boost"
)

// Adapter serves predictions from the persisted model artifact and retrains
// it on demand. Reads take the fast RLock path once a model is resident;
// the artifact is loaded lazily on first use.
type Adapter struct {
	modelPath string
	trainer   *Trainer

	mu    sync.RWMutex
	model predictor
}

// NewAdapter creates an adapter around the artifact at modelPath.
func NewAdapter(modelPath string) *Adapter {
	return &Adapter{
		modelPath: modelPath,
		trainer:   NewTrainer(),
	}
}

// Predict implements ports.Classifier. Returns domain.ErrModelUnavailable
// when no usable artifact exists.
func (a *Adapter) Predict(ctx context.Context, features []float64) (int, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	model, err := a.resident()
	if err != nil {
		return 0, 0, err
	}

	proba := model.PredictProba(features)
	label := 0
	confidence := 1 - proba
	if proba >= 0.5 {
		label = 1
		confidence = proba
	}
	return label, confidence, nil
}

// Train implements ports.Classifier: runs model selection over the design
// matrix, persists the winner atomically, and publishes it for Predict.
func (a *Adapter) Train(ctx context.Context, matrix [][]float64, labels []int) (domain.TrainingReport, error) {
	report, artifact, err := a.trainer.Run(ctx, matrix, labels)
	if err != nil {
		return domain.TrainingReport{}, err
	}

	if err := a.saveArtifact(artifact); err != nil {
		return domain.TrainingReport{}, err
	}

	model, err := artifact.predictor()
	if err != nil {
		return domain.TrainingReport{}, err
	}

	a.mu.Lock()
	a.model = model
	a.mu.Unlock()

	return report, nil
}

func (a *Adapter) resident() (predictor, error) {
	a.mu.RLock()
	if a.model != nil {
		m := a.model
		a.mu.RUnlock()
		return m, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.model != nil {
		return a.model, nil
	}

	artifact, err := a.loadArtifact()
	if err != nil {
		return nil, err
	}
	model, err := artifact.predictor()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	a.model = model
	return a.model, nil
}

func (a *Adapter) loadArtifact() (*modelArtifact, error) {
	f, err := os.Open(a.modelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrModelUnavailable
		}
		return nil, fmt.Errorf("%w: open artifact: %v", domain.ErrModelUnavailable, err)
	}
	defer f.Close()

	var artifact modelArtifact
	if err := gob.NewDecoder(f).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %v", domain.ErrModelUnavailable, err)
	}
	return &artifact, nil
}

func (a *Adapter) saveArtifact(artifact *modelArtifact) error {
	dir := filepath.Dir(a.modelPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "model-*.gob")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(artifact); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.modelPath); err != nil {
		return fmt.Errorf("replace model artifact: %w", err)
	}
	return nil
}

var _ ports.Classifier = (*Adapter)(nil)
