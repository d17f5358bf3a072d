// Package app wires the adapters to the core services and owns the process
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/afraa786/wichain/internal/adapters/events"
	"github.com/afraa786/wichain/internal/adapters/fingerprint"
	"github.com/afraa786/wichain/internal/adapters/reporting"
	"github.com/afraa786/wichain/internal/adapters/storage"
	"github.com/afraa786/wichain/internal/adapters/web/server"
	"github.com/afraa786/wichain/internal/adapters/web/websocket"
	"github.com/afraa786/wichain/internal/config"
	"github.com/afraa786/wichain/internal/core/ports"
	"github.com/afraa786/wichain/internal/core/services/classifier"
	"github.com/afraa786/wichain/internal/core/services/detector"
	"github.com/afraa786/wichain/internal/core/services/features"
	"github.com/afraa786/wichain/internal/core/services/ledger"
	"github.com/afraa786/wichain/internal/core/services/persistence"
	"github.com/afraa786/wichain/internal/core/services/rules"
	"github.com/afraa786/wichain/internal/telemetry"
)

const vendorCacheSize = 4096

// App holds the assembled service graph.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	obsStore   *storage.ObservationStore
	blockStore *storage.BlockStore
	vendorRepo fingerprint.VendorRepository
	persist    *persistence.Manager
	ws         *websocket.Manager
	nats       *events.NATSPublisher
	server     *server.Server
}

// New assembles the application from config.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	metrics := telemetry.NewMetrics()

	obsStore, err := storage.NewObservationStore(cfg.DBPath, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("open observation store: %w", err)
	}
	blockStore, err := storage.NewBlockStore(cfg.ChainDBPath, cfg.Tracing)
	if err != nil {
		obsStore.Close()
		return nil, fmt.Errorf("open block store: %w", err)
	}

	staticRepo := fingerprint.NewStaticVendorRepository(fingerprint.CommonOUIs)
	var vendorRepo fingerprint.VendorRepository
	ouiDB, err := fingerprint.NewOUIDatabase(cfg.OUIDBPath, vendorCacheSize, staticRepo)
	if err != nil {
		logger.Warn("OUI registry unavailable, using built-in vendor table", "path", cfg.OUIDBPath, "error", err)
		vendorRepo = staticRepo
	} else {
		vendorRepo = ouiDB
	}

	extractor := features.NewExtractor(cfg.EncoderPath())
	model := classifier.NewAdapter(cfg.ModelPath())
	ledgerSvc := ledger.New(blockStore)
	persist := persistence.NewManager(obsStore, 0, logger)
	ws := websocket.NewManager(logger)

	ruleCfg := rules.DefaultConfig()
	ruleCfg.MinSignalStrength = cfg.MinSignal
	if len(cfg.RogueSSIDs) > 0 {
		ruleCfg.RogueSSIDs = cfg.RogueSSIDs
	}
	if len(cfg.RiskyVendors) > 0 {
		ruleCfg.RiskyVendors = cfg.RiskyVendors
	}

	notifiers := []ports.VerdictNotifier{ws}
	var nats *events.NATSPublisher
	if cfg.NATSUrl != "" {
		nats, err = events.NewNATSPublisher(cfg.NATSUrl, cfg.NATSSubject, logger)
		if err != nil {
			logger.Warn("NATS unavailable, verdict publishing disabled", "url", cfg.NATSUrl, "error", err)
		} else {
			notifiers = append(notifiers, nats)
		}
	}

	detection := detector.NewService(
		rules.NewEngine(ruleCfg),
		extractor,
		model,
		fingerprint.NewResolver(vendorRepo),
		ledgerSvc,
		persist,
		obsStore,
		metrics,
		detector.Options{
			Policy: detector.CombinerPolicy{
				Threshold:            cfg.DecisionThreshold,
				HighConfidenceCutoff: cfg.HighConfidenceCutoff,
			},
			Notifiers:        notifiers,
			Logger:           logger,
			DefaultLatitude:  cfg.DefaultLatitude,
			DefaultLongitude: cfg.DefaultLongitude,
		},
	)

	reporter := reporting.NewPDFExporter(ledgerSvc, detection.Stats)

	srv := server.New(server.Config{
		Addr:         cfg.Addr,
		APITokenHash: cfg.APITokenHash,
		Detection:    detection,
		Ledger:       ledgerSvc,
		Reporter:     reporter,
		WS:           ws,
		Logger:       logger,
	})

	return &App{
		cfg:        cfg,
		logger:     logger,
		obsStore:   obsStore,
		blockStore: blockStore,
		vendorRepo: vendorRepo,
		persist:    persist,
		ws:         ws,
		nats:       nats,
		server:     srv,
	}, nil
}

// Run starts the background workers and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.persist.Start(ctx)

	err := a.server.Run(ctx)

	a.persist.Stop()
	if a.nats != nil {
		a.nats.Close()
	}
	if cerr := a.vendorRepo.Close(); cerr != nil {
		a.logger.Warn("close vendor repository", "error", cerr)
	}
	if cerr := a.blockStore.Close(); cerr != nil {
		a.logger.Warn("close block store", "error", cerr)
	}
	if cerr := a.obsStore.Close(); cerr != nil {
		a.logger.Warn("close observation store", "error", cerr)
	}

	return err
}
