package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

// BlockModel is the gorm row for one ledger block. The timestamp is stored
// as the exact RFC3339Nano string that went into the hash, so verification
// survives database round-trips regardless of driver time precision.
type BlockModel struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	BlockIndex   int    `gorm:"column:block_index;uniqueIndex"`
	Timestamp    string `gorm:"column:timestamp"`
	Data         string `gorm:"column:data"`
	PreviousHash string `gorm:"column:previous_hash"`
	Hash         string `gorm:"column:hash;uniqueIndex"`
}

// TableName implements gorm's table naming hook.
func (BlockModel) TableName() string { return "blocks" }

// BlockStore implements ports.BlockStore over its own sqlite database,
// kept separate from the observation database so the ledger file can be
// archived or shipped independently.
type BlockStore struct {
	db *gorm.DB
}

// NewBlockStore opens the chain database and migrates the schema.
func NewBlockStore(path string, traced bool) (*BlockStore, error) {
	db, err := openDB(path, traced)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&BlockModel{}); err != nil {
		return nil, fmt.Errorf("migrate blocks schema: %w", err)
	}
	return &BlockStore{db: db}, nil
}

// Tail implements ports.BlockStore.
func (s *BlockStore) Tail(ctx context.Context) (*domain.Block, error) {
	var m BlockModel
	err := s.db.WithContext(ctx).Order("block_index DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chain tail: %w", err)
	}

	block, err := fromBlockModel(m)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// AppendBlock implements ports.BlockStore. The unique index on block_index
// turns a lost append race into a constraint error instead of a fork.
func (s *BlockStore) AppendBlock(ctx context.Context, block domain.Block) error {
	m := BlockModel{
		BlockIndex:   block.Index,
		Timestamp:    block.TimestampString(),
		Data:         string(block.Data),
		PreviousHash: block.PreviousHash,
		Hash:         block.Hash,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("append block %d: %w", block.Index, err)
	}
	return nil
}

// ListBlocks implements ports.BlockStore.
func (s *BlockStore) ListBlocks(ctx context.Context) ([]domain.Block, error) {
	var models []BlockModel
	if err := s.db.WithContext(ctx).Order("block_index ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return fromBlockModels(models)
}

// LatestBlocks implements ports.BlockStore.
func (s *BlockStore) LatestBlocks(ctx context.Context, n int) ([]domain.Block, error) {
	var models []BlockModel
	if err := s.db.WithContext(ctx).Order("block_index DESC").Limit(n).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list latest blocks: %w", err)
	}
	return fromBlockModels(models)
}

// Close implements ports.BlockStore.
func (s *BlockStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fromBlockModels(models []BlockModel) ([]domain.Block, error) {
	blocks := make([]domain.Block, 0, len(models))
	for _, m := range models {
		b, err := fromBlockModel(m)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func fromBlockModel(m BlockModel) (domain.Block, error) {
	ts, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return domain.Block{}, fmt.Errorf("parse timestamp of block %d: %w", m.BlockIndex, err)
	}
	return domain.Block{
		Index:        m.BlockIndex,
		Timestamp:    ts,
		Data:         json.RawMessage(m.Data),
		PreviousHash: m.PreviousHash,
		Hash:         m.Hash,
	}, nil
}

var _ ports.BlockStore = (*BlockStore)(nil)
