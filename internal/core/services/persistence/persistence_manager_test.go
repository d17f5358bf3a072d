package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afraa786/wichain/internal/core/domain"
)

type captureStore struct {
	mu      sync.Mutex
	batches [][]domain.ObservationRecord
}

func (c *captureStore) SaveObservation(ctx context.Context, rec domain.ObservationRecord) error {
	return c.SaveObservationsBatch(ctx, []domain.ObservationRecord{rec})
}

func (c *captureStore) SaveObservationsBatch(ctx context.Context, recs []domain.ObservationRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, recs)
	return nil
}

func (c *captureStore) ListRecent(ctx context.Context, limit int) ([]domain.ObservationRecord, error) {
	return nil, nil
}

func (c *captureStore) Stats(ctx context.Context) (domain.NetworkStats, error) {
	return domain.NetworkStats{}, nil
}

func (c *captureStore) Close() error { return nil }

func (c *captureStore) all() []domain.ObservationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.ObservationRecord
	for _, b := range c.batches {
		out = append(out, b...)
	}
	return out
}

func rec(bssid string, spoof bool) domain.ObservationRecord {
	return domain.ObservationRecord{
		NetworkObservation: domain.NetworkObservation{BSSID: bssid, SSID: "X", SignalStrength: -50},
		IsSpoof:            spoof,
		FirstSeen:          time.Now().UTC(),
		LastSeen:           time.Now().UTC(),
	}
}

func TestManager_FlushOnStop(t *testing.T) {
	store := &captureStore{}
	m := NewManager(store, time.Hour, nil)
	m.Start(context.Background())

	m.Enqueue(rec("AA:AA:AA:00:00:01", false))
	m.Enqueue(rec("AA:AA:AA:00:00:02", true))
	m.Stop()

	records := store.all()
	require.Len(t, records, 2)
}

func TestManager_DeduplicatesByBSSID(t *testing.T) {
	store := &captureStore{}
	m := NewManager(store, time.Hour, nil)
	m.Start(context.Background())

	first := rec("AA:AA:AA:00:00:01", false)
	first.FirstSeen = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Enqueue(first)

	update := rec("AA:AA:AA:00:00:01", true)
	m.Enqueue(update)
	m.Stop()

	records := store.all()
	require.Len(t, records, 1)
	assert.True(t, records[0].IsSpoof)
	// The earliest FirstSeen survives the overwrite.
	assert.Equal(t, first.FirstSeen, records[0].FirstSeen)
}

func TestManager_PeriodicFlush(t *testing.T) {
	store := &captureStore{}
	m := NewManager(store, 20*time.Millisecond, nil)
	m.Start(context.Background())
	defer m.Stop()

	m.Enqueue(rec("AA:AA:AA:00:00:01", false))

	assert.Eventually(t, func() bool {
		return len(store.all()) == 1
	}, time.Second, 10*time.Millisecond)
}
