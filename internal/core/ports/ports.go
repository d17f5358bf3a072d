package ports

import (
	"context"

	"github.com/afraa786/wichain/internal/core/domain"
)

// VendorResolver maps a BSSID to a vendor name. Lookups never fail: an
// absent registry entry resolves to "Unknown".
type VendorResolver interface {
	ResolveVendor(ctx context.Context, bssid string) string
}

// Classifier wraps the frozen statistical model. Predict returns the label
// (0 legitimate, 1 spoof) and the predicted class's probability.
type Classifier interface {
	Predict(ctx context.Context, features []float64) (label int, confidence float64, err error)

	// Train fits candidate families on the design matrix, selects the best
	// by cross-validated weighted F1 and atomically replaces the persisted
	// artifact.
	Train(ctx context.Context, features [][]float64, labels []int) (domain.TrainingReport, error)
}

// LedgerService exposes the read side of the verdict chain.
type LedgerService interface {
	Chain(ctx context.Context) ([]domain.Block, error)
	Tail(ctx context.Context, n int) ([]domain.Block, error)
	Verify(ctx context.Context) (domain.ChainStatus, error)
}

// DetectionService is the orchestrator surface consumed by transport
// adapters (HTTP handlers, intake workers).
type DetectionService interface {
	Detect(ctx context.Context, obs domain.NetworkObservation) (domain.Verdict, error)
	DetectBatch(ctx context.Context, observations []domain.NetworkObservation) ([]domain.Verdict, error)
	Train(ctx context.Context, samples []domain.LabeledObservation) (domain.TrainingReport, error)
	RecentObservations(ctx context.Context, limit int) ([]domain.ObservationRecord, error)
	Stats(ctx context.Context) (domain.NetworkStats, error)
}

// VerdictNotifier receives every finalized verdict. Implementations must not
// block the detection path.
type VerdictNotifier interface {
	NotifyVerdict(v domain.Verdict)
}
