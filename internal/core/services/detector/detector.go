// Package detector orchestrates a detection pass: heuristics, feature
// extraction, classification, verdict combination, persistence and ledger
// anchoring.
package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
	"github.com/afraa786/wichain/internal/core/services/features"
	"github.com/afraa786/wichain/internal/core/services/rules"
	"github.com/afraa786/wichain/internal/telemetry"
)

// defaultBatchWorkers bounds the fan-out of DetectBatch.
const defaultBatchWorkers = 8

// ledgerAppender is the write side of the verdict chain.
type ledgerAppender interface {
	Append(ctx context.Context, payload any) (domain.Block, error)
}

// recordSink receives finished observation records for asynchronous
// persistence.
type recordSink interface {
	Enqueue(rec domain.ObservationRecord)
}

// Service implements ports.DetectionService.
type Service struct {
	rules      *rules.Engine
	extractor  *features.Extractor
	classifier ports.Classifier
	vendors    ports.VendorResolver
	ledger     ledgerAppender
	sink       recordSink
	store      ports.ObservationStore
	notifiers  []ports.VerdictNotifier
	metrics    *telemetry.Metrics
	logger     *slog.Logger
	policy     CombinerPolicy
	workers    int
	defaultLat float64
	defaultLng float64
}

// Options carries the optional knobs for NewService.
type Options struct {
	Policy       CombinerPolicy
	BatchWorkers int
	Notifiers    []ports.VerdictNotifier
	Logger       *slog.Logger

	// DefaultLatitude/DefaultLongitude fill observations submitted without
	// coordinates, for deployments pinned to one site.
	DefaultLatitude  float64
	DefaultLongitude float64
}

// NewService wires the detection pipeline.
func NewService(
	ruleEngine *rules.Engine,
	extractor *features.Extractor,
	classifier ports.Classifier,
	vendors ports.VendorResolver,
	ledger ledgerAppender,
	sink recordSink,
	store ports.ObservationStore,
	metrics *telemetry.Metrics,
	opts Options,
) *Service {
	if opts.BatchWorkers < 1 {
		opts.BatchWorkers = defaultBatchWorkers
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Policy.Threshold == 0 {
		opts.Policy = DefaultCombinerPolicy()
	}
	return &Service{
		rules:      ruleEngine,
		extractor:  extractor,
		classifier: classifier,
		vendors:    vendors,
		ledger:     ledger,
		sink:       sink,
		store:      store,
		notifiers:  opts.Notifiers,
		metrics:    metrics,
		logger:     opts.Logger,
		policy:     opts.Policy,
		workers:    opts.BatchWorkers,
		defaultLat: opts.DefaultLatitude,
		defaultLng: opts.DefaultLongitude,
	}
}

// Detect implements ports.DetectionService. A spoof verdict is anchored in
// the ledger; an anchoring failure is logged and counted but never blocks
// the verdict from being returned.
func (s *Service) Detect(ctx context.Context, obs domain.NetworkObservation) (domain.Verdict, error) {
	obs.Normalize()
	if err := obs.Validate(); err != nil {
		return domain.Verdict{}, err
	}

	if obs.Vendor == "" {
		obs.Vendor = s.vendors.ResolveVendor(ctx, obs.BSSID)
	}
	if obs.Latitude == 0 && obs.Longitude == 0 {
		obs.Latitude = s.defaultLat
		obs.Longitude = s.defaultLng
	}

	var (
		wg      sync.WaitGroup
		reasons []string
		fv      domain.FeatureVector
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reasons = s.rules.Evaluate(obs)
	}()
	go func() {
		defer wg.Done()
		fv = features.Extract(obs)
	}()
	wg.Wait()

	label, confidence := s.classify(ctx, fv)

	spoofed, score := s.policy.Combine(len(reasons), label, confidence)

	verdict := domain.Verdict{
		ID:           uuid.NewString(),
		SSID:         obs.SSID,
		BSSID:        obs.BSSID,
		IsSpoof:      spoofed,
		Vendor:       obs.Vendor,
		MLConfidence: confidence,
		MLPrediction: label,
		Timestamp:    time.Now().UTC(),
		Features:     fv,
		Reasons:      reasons,
	}

	s.metrics.DetectionsTotal.Inc()
	s.logger.Debug("detection complete",
		"bssid", obs.BSSID,
		"spoofed", spoofed,
		"score", score,
		"rule_hits", len(reasons),
		"ml_label", label,
		"ml_confidence", confidence,
	)

	if s.sink != nil {
		now := time.Now().UTC()
		s.sink.Enqueue(domain.ObservationRecord{
			NetworkObservation: obs,
			IsSpoof:            spoofed,
			Confidence:         confidence,
			Reasons:            reasons,
			Features:           fv,
			FirstSeen:          now,
			LastSeen:           now,
		})
	}

	if spoofed {
		s.metrics.SpoofVerdictsTotal.Inc()
		if _, err := s.ledger.Append(ctx, verdict); err != nil {
			s.metrics.LedgerAppendFailures.Inc()
			s.logger.Error("ledger append failed", "bssid", obs.BSSID, "error", err)
		} else {
			s.metrics.LedgerAppendsTotal.Inc()
		}
	}

	for _, n := range s.notifiers {
		n.NotifyVerdict(verdict)
	}

	return verdict, nil
}

// classify runs the model with graceful degradation: when no fitted model
// or encoder exists yet, detection continues on rules alone with a neutral
// confidence.
func (s *Service) classify(ctx context.Context, fv domain.FeatureVector) (int, float64) {
	scaled, err := s.extractor.Transform(fv.Slice())
	if err == nil {
		var label int
		var confidence float64
		label, confidence, err = s.classifier.Predict(ctx, scaled)
		if err == nil {
			return label, confidence
		}
	}

	if errors.Is(err, domain.ErrNotFitted) || errors.Is(err, domain.ErrModelUnavailable) {
		s.metrics.ModelFallbacksTotal.Inc()
		s.logger.Debug("no model available, rules-only detection")
	} else {
		s.logger.Warn("classifier error, rules-only detection", "error", err)
	}
	return 0, 0.5
}

// DetectBatch implements ports.DetectionService over a bounded worker pool.
// Output order matches input order; individual failures surface as zero
// verdicts plus a joined error.
func (s *Service) DetectBatch(ctx context.Context, observations []domain.NetworkObservation) ([]domain.Verdict, error) {
	if len(observations) == 0 {
		return nil, nil
	}

	verdicts := make([]domain.Verdict, len(observations))
	errs := make([]error, len(observations))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := s.workers
	if workers > len(observations) {
		workers = len(observations)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				verdicts[i], errs[i] = s.Detect(ctx, observations[i])
			}
		}()
	}

	for i := range observations {
		select {
		case jobs <- i:
		case <-ctx.Done():
			errs[i] = ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	var joined error
	for i, err := range errs {
		if err != nil {
			joined = errors.Join(joined, fmt.Errorf("observation %d (%s): %w", i, observations[i].BSSID, err))
		}
	}
	return verdicts, joined
}

// Train implements ports.DetectionService: refit the feature encoder, then
// retrain and hot-swap the classifier.
func (s *Service) Train(ctx context.Context, samples []domain.LabeledObservation) (domain.TrainingReport, error) {
	matrix, labels, err := s.extractor.Fit(samples)
	if err != nil {
		return domain.TrainingReport{}, fmt.Errorf("fit feature encoder: %w", err)
	}

	report, err := s.classifier.Train(ctx, matrix, labels)
	if err != nil {
		return domain.TrainingReport{}, fmt.Errorf("train classifier: %w", err)
	}

	s.logger.Info("model retrained",
		"family", report.Family,
		"samples", report.Samples,
		"holdout_accuracy", report.HoldoutAccuracy,
	)
	return report, nil
}

// RecentObservations implements ports.DetectionService.
func (s *Service) RecentObservations(ctx context.Context, limit int) ([]domain.ObservationRecord, error) {
	if limit < 1 {
		limit = 50
	}
	return s.store.ListRecent(ctx, limit)
}

// Stats implements ports.DetectionService.
func (s *Service) Stats(ctx context.Context) (domain.NetworkStats, error) {
	return s.store.Stats(ctx)
}

var _ ports.DetectionService = (*Service)(nil)
