package ports

import (
	"context"

	"github.com/afraa786/wichain/internal/core/domain"
)

// ObservationStore persists the latest-known state per BSSID. Writes are
// upserts: a repeated BSSID updates the stored row, never duplicates it.
type ObservationStore interface {
	SaveObservation(ctx context.Context, rec domain.ObservationRecord) error
	SaveObservationsBatch(ctx context.Context, recs []domain.ObservationRecord) error

	// ListRecent returns up to limit records ordered by last_seen descending.
	ListRecent(ctx context.Context, limit int) ([]domain.ObservationRecord, error)

	Stats(ctx context.Context) (domain.NetworkStats, error)
	Close() error
}

// BlockStore is the append-only persistence behind the ledger. Serialization
// of concurrent appends is the ledger service's job, not the store's.
type BlockStore interface {
	// Tail returns the highest-index block, or nil on an empty chain.
	Tail(ctx context.Context) (*domain.Block, error)

	AppendBlock(ctx context.Context, block domain.Block) error

	// ListBlocks returns the full chain in ascending index order.
	ListBlocks(ctx context.Context) ([]domain.Block, error)

	// LatestBlocks returns the n most recent blocks, descending by index.
	LatestBlocks(ctx context.Context, n int) ([]domain.Block, error)

	Close() error
}
