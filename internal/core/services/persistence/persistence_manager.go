// Package persistence batches observation records into the store so the
// detection path never waits on database writes.
package persistence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

const (
	defaultFlushInterval = 2 * time.Second
	defaultQueueSize     = 1024
)

// Manager collects records on a channel, deduplicates them by BSSID within
// a flush window (last write wins) and upserts them in batches.
type Manager struct {
	store    ports.ObservationStore
	interval time.Duration
	logger   *slog.Logger

	queue  chan domain.ObservationRecord
	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

// NewManager creates a manager flushing at the given interval. Zero values
// fall back to defaults.
func NewManager(store ports.ObservationStore, interval time.Duration, logger *slog.Logger) *Manager {
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		interval: interval,
		logger:   logger,
		queue:    make(chan domain.ObservationRecord, defaultQueueSize),
		done:     make(chan struct{}),
	}
}

// Start launches the flush loop. Call Stop to drain and shut down.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.run(ctx)
}

// Enqueue hands a record to the flush loop. A full queue drops the record
// with a warning rather than stalling the caller.
func (m *Manager) Enqueue(rec domain.ObservationRecord) {
	select {
	case m.queue <- rec:
	default:
		m.logger.Warn("persistence queue full, dropping record", "bssid", rec.BSSID)
	}
}

// Stop drains pending records and waits for the final flush.
func (m *Manager) Stop() {
	m.closed.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	pending := make(map[string]domain.ObservationRecord)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]domain.ObservationRecord, 0, len(pending))
		for _, rec := range pending {
			batch = append(batch, rec)
		}
		pending = make(map[string]domain.ObservationRecord)

		if err := m.store.SaveObservationsBatch(context.WithoutCancel(ctx), batch); err != nil {
			m.logger.Error("observation batch write failed", "records", len(batch), "error", err)
			return
		}
		m.logger.Debug("observation batch flushed", "records", len(batch))
	}

	for {
		select {
		case rec := <-m.queue:
			if prev, ok := pending[rec.BSSID]; ok {
				rec.FirstSeen = prev.FirstSeen
			}
			pending[rec.BSSID] = rec

		case <-ticker.C:
			flush()

		case <-m.done:
			for {
				select {
				case rec := <-m.queue:
					if prev, ok := pending[rec.BSSID]; ok {
						rec.FirstSeen = prev.FirstSeen
					}
					pending[rec.BSSID] = rec
					continue
				default:
				}
				break
			}
			flush()
			return

		case <-ctx.Done():
			flush()
			return
		}
	}
}
