// Package storage provides the sqlite-backed persistence adapters behind
// the core ports, via gorm.
package storage

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// openDB opens a sqlite database with the shared settings: silent gorm
// logging (the service logs through slog) and otel query tracing.
func openDB(path string, traced bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	if traced {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("install tracing plugin: %w", err)
		}
	}

	// sqlite tolerates one writer; cap the pool accordingly.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access underlying pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
