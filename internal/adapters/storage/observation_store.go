package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

// ObservationModel is the gorm row holding the latest-known state per BSSID.
// Reasons and Features are stored as JSON text.
type ObservationModel struct {
	BSSID          string  `gorm:"primaryKey;column:bssid"`
	SSID           string  `gorm:"column:ssid;index"`
	SignalStrength int     `gorm:"column:signal_strength"`
	Frequency      float64 `gorm:"column:frequency"`
	Channel        int     `gorm:"column:channel"`
	Encryption     string  `gorm:"column:encryption"`
	Latitude       float64 `gorm:"column:latitude"`
	Longitude      float64 `gorm:"column:longitude"`
	Vendor         string  `gorm:"column:vendor"`
	IsSpoof        bool    `gorm:"column:is_spoof;index"`
	Confidence     float64 `gorm:"column:confidence"`
	Reasons        string  `gorm:"column:reasons"`
	Features       string  `gorm:"column:features"`

	FirstSeen time.Time `gorm:"column:first_seen"`
	LastSeen  time.Time `gorm:"column:last_seen;index"`
}

// TableName implements gorm's table naming hook.
func (ObservationModel) TableName() string { return "observations" }

// ObservationStore implements ports.ObservationStore over sqlite.
type ObservationStore struct {
	db *gorm.DB
}

// NewObservationStore opens the database and migrates the schema.
func NewObservationStore(path string, traced bool) (*ObservationStore, error) {
	db, err := openDB(path, traced)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ObservationModel{}); err != nil {
		return nil, fmt.Errorf("migrate observations schema: %w", err)
	}
	return &ObservationStore{db: db}, nil
}

// SaveObservation upserts one record, preserving the stored first_seen.
func (s *ObservationStore) SaveObservation(ctx context.Context, rec domain.ObservationRecord) error {
	return s.SaveObservationsBatch(ctx, []domain.ObservationRecord{rec})
}

// SaveObservationsBatch upserts the batch in one statement. Conflicting
// BSSIDs update every column except first_seen.
func (s *ObservationStore) SaveObservationsBatch(ctx context.Context, recs []domain.ObservationRecord) error {
	if len(recs) == 0 {
		return nil
	}

	models := make([]ObservationModel, 0, len(recs))
	for _, rec := range recs {
		m, err := toObservationModel(rec)
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bssid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"ssid", "signal_strength", "frequency", "channel", "encryption",
			"latitude", "longitude", "vendor", "is_spoof", "confidence",
			"reasons", "features", "last_seen",
		}),
	}).Create(&models).Error
	if err != nil {
		return fmt.Errorf("upsert %d observations: %w", len(models), err)
	}
	return nil
}

// ListRecent implements ports.ObservationStore.
func (s *ObservationStore) ListRecent(ctx context.Context, limit int) ([]domain.ObservationRecord, error) {
	var models []ObservationModel
	err := s.db.WithContext(ctx).
		Order("last_seen DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list recent observations: %w", err)
	}

	records := make([]domain.ObservationRecord, 0, len(models))
	for _, m := range models {
		rec, err := fromObservationModel(m)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Stats implements ports.ObservationStore.
func (s *ObservationStore) Stats(ctx context.Context) (domain.NetworkStats, error) {
	var total, spoofed int64
	if err := s.db.WithContext(ctx).Model(&ObservationModel{}).Count(&total).Error; err != nil {
		return domain.NetworkStats{}, fmt.Errorf("count observations: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&ObservationModel{}).Where("is_spoof = ?", true).Count(&spoofed).Error; err != nil {
		return domain.NetworkStats{}, fmt.Errorf("count spoofed observations: %w", err)
	}

	stats := domain.NetworkStats{
		TotalNetworks:      int(total),
		SpoofNetworks:      int(spoofed),
		LegitimateNetworks: int(total - spoofed),
	}
	if total > 0 {
		stats.SpoofPercentage = float64(spoofed) / float64(total) * 100
	}
	return stats, nil
}

// Close implements ports.ObservationStore.
func (s *ObservationStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toObservationModel(rec domain.ObservationRecord) (ObservationModel, error) {
	reasons, err := json.Marshal(rec.Reasons)
	if err != nil {
		return ObservationModel{}, fmt.Errorf("encode reasons: %w", err)
	}
	features, err := json.Marshal(rec.Features)
	if err != nil {
		return ObservationModel{}, fmt.Errorf("encode features: %w", err)
	}

	return ObservationModel{
		BSSID:          rec.BSSID,
		SSID:           rec.SSID,
		SignalStrength: rec.SignalStrength,
		Frequency:      rec.Frequency,
		Channel:        rec.Channel,
		Encryption:     string(rec.Encryption),
		Latitude:       rec.Latitude,
		Longitude:      rec.Longitude,
		Vendor:         rec.Vendor,
		IsSpoof:        rec.IsSpoof,
		Confidence:     rec.Confidence,
		Reasons:        string(reasons),
		Features:       string(features),
		FirstSeen:      rec.FirstSeen.UTC(),
		LastSeen:       rec.LastSeen.UTC(),
	}, nil
}

func fromObservationModel(m ObservationModel) (domain.ObservationRecord, error) {
	rec := domain.ObservationRecord{
		NetworkObservation: domain.NetworkObservation{
			SSID:           m.SSID,
			BSSID:          m.BSSID,
			SignalStrength: m.SignalStrength,
			Frequency:      m.Frequency,
			Channel:        m.Channel,
			Encryption:     domain.Encryption(m.Encryption),
			Latitude:       m.Latitude,
			Longitude:      m.Longitude,
			Vendor:         m.Vendor,
			ObservedAt:     m.LastSeen,
		},
		IsSpoof:    m.IsSpoof,
		Confidence: m.Confidence,
		FirstSeen:  m.FirstSeen,
		LastSeen:   m.LastSeen,
	}

	if m.Reasons != "" {
		if err := json.Unmarshal([]byte(m.Reasons), &rec.Reasons); err != nil {
			return domain.ObservationRecord{}, fmt.Errorf("decode reasons for %s: %w", m.BSSID, err)
		}
	}
	if m.Features != "" {
		if err := json.Unmarshal([]byte(m.Features), &rec.Features); err != nil {
			return domain.ObservationRecord{}, fmt.Errorf("decode features for %s: %w", m.BSSID, err)
		}
	}
	return rec, nil
}

var _ ports.ObservationStore = (*ObservationStore)(nil)
