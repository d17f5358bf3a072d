// Package ledger maintains the append-only, hash-chained record of positive
// spoof verdicts.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

// Service serializes appends onto the block store. The mutex makes the
// read-tail-then-write sequence atomic, so concurrent verdicts get
// contiguous indices and correct previous-hash links.
type Service struct {
	store ports.BlockStore
	mu    sync.Mutex
	now   func() time.Time
}

// New creates the ledger service over a block store.
func New(store ports.BlockStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Append canonicalizes the payload, links it to the current tail and writes
// the new block. Failures wrap domain.ErrLedgerAppend.
func (s *Service) Append(ctx context.Context, payload any) (domain.Block, error) {
	data, err := domain.CanonicalJSON(payload)
	if err != nil {
		return domain.Block{}, fmt.Errorf("%w: canonicalize payload: %v", domain.ErrLedgerAppend, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tail, err := s.store.Tail(ctx)
	if err != nil {
		return domain.Block{}, fmt.Errorf("%w: read tail: %v", domain.ErrLedgerAppend, err)
	}

	index := 0
	previousHash := domain.GenesisPreviousHash
	if tail != nil {
		index = tail.Index + 1
		previousHash = tail.Hash
	}

	ts := s.now().UTC()
	block := domain.Block{
		Index:        index,
		Timestamp:    ts,
		Data:         data,
		PreviousHash: previousHash,
		Hash:         domain.ComputeBlockHash(index, previousHash, data, ts),
	}

	if err := s.store.AppendBlock(ctx, block); err != nil {
		return domain.Block{}, fmt.Errorf("%w: persist block %d: %v", domain.ErrLedgerAppend, index, err)
	}
	return block, nil
}

// Chain implements ports.LedgerService.
func (s *Service) Chain(ctx context.Context) ([]domain.Block, error) {
	return s.store.ListBlocks(ctx)
}

// Tail implements ports.LedgerService: the n most recent blocks, newest
// first.
func (s *Service) Tail(ctx context.Context, n int) ([]domain.Block, error) {
	if n < 1 {
		n = 1
	}
	return s.store.LatestBlocks(ctx, n)
}

// Verify recomputes every hash and checks linkage and index contiguity,
// reporting the first block that fails.
func (s *Service) Verify(ctx context.Context) (domain.ChainStatus, error) {
	blocks, err := s.store.ListBlocks(ctx)
	if err != nil {
		return domain.ChainStatus{}, err
	}

	status := domain.ChainStatus{Valid: true, Blocks: len(blocks), FailedIndex: -1}

	prevHash := domain.GenesisPreviousHash
	for i, b := range blocks {
		switch {
		case b.Index != i:
			return failed(status, b.Index, fmt.Sprintf("expected index %d, found %d", i, b.Index)), nil
		case b.PreviousHash != prevHash:
			return failed(status, b.Index, "previous hash does not match prior block"), nil
		case b.Hash != domain.ComputeBlockHash(b.Index, b.PreviousHash, b.Data, b.Timestamp):
			return failed(status, b.Index, "stored hash does not match recomputed hash"), nil
		}
		prevHash = b.Hash
	}
	return status, nil
}

func failed(status domain.ChainStatus, index int, reason string) domain.ChainStatus {
	status.Valid = false
	status.FailedIndex = index
	status.Reason = reason
	return status
}

var _ ports.LedgerService = (*Service)(nil)
