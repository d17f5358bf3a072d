package fingerprint

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// OUIDatabase serves vendor lookups from a sqlite copy of the IEEE OUI
// registry (populated by tools/oui/import_oui_csv). Lookups go through an
// LRU cache; misses fall through to an optional fallback repository.
type OUIDatabase struct {
	db       *sql.DB
	cache    *VendorCache
	mu       sync.RWMutex
	dbPath   string
	fallback VendorRepository
	closed   bool

	lookupStmt *sql.Stmt
}

// OUIEntry is one registry row.
type OUIEntry struct {
	Prefix      string // "XX:XX:XX"
	Vendor      string
	Address     string
	Country     string
	LastUpdated time.Time
}

// NewOUIDatabase opens (or creates) the registry database.
func NewOUIDatabase(dbPath string, cacheSize int, fallback VendorRepository) (*OUIDatabase, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &DatabaseError{Op: "ping", Err: err}
	}

	o := &OUIDatabase{
		db:       db,
		cache:    NewVendorCache(cacheSize),
		dbPath:   dbPath,
		fallback: fallback,
	}

	if err := o.initializeSchema(); err != nil {
		db.Close()
		return nil, &DatabaseError{Op: "initialize_schema", Err: err}
	}

	stmt, err := db.Prepare("SELECT vendor FROM oui_registry WHERE prefix = ?")
	if err != nil {
		db.Close()
		return nil, &DatabaseError{Op: "prepare_statement", Err: err}
	}
	o.lookupStmt = stmt

	return o, nil
}

func (o *OUIDatabase) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS oui_registry (
		prefix TEXT PRIMARY KEY,
		vendor TEXT NOT NULL,
		address TEXT,
		country TEXT,
		last_updated INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_oui_vendor ON oui_registry(vendor);
	`
	if _, err := o.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LookupVendor implements VendorRepository.
func (o *OUIDatabase) LookupVendor(ctx context.Context, mac MACAddress) (string, error) {
	o.mu.RLock()
	closed := o.closed
	o.mu.RUnlock()
	if closed {
		return "", ErrRepositoryClosed
	}

	if !mac.IsValid() {
		return "", ErrInvalidMAC
	}

	prefix := mac.OUI()

	if vendor, ok := o.cache.Get(prefix); ok {
		return vendor, nil
	}

	var vendor string
	err := o.lookupStmt.QueryRowContext(ctx, prefix).Scan(&vendor)
	if err == sql.ErrNoRows {
		if o.fallback != nil {
			v, ferr := o.fallback.LookupVendor(ctx, mac)
			if ferr == nil && v != "" && v != "Unknown" {
				o.cache.Set(prefix, v)
				return v, nil
			}
		}
		return "Unknown", ErrVendorNotFound
	}
	if err != nil {
		if o.fallback != nil {
			if v, ferr := o.fallback.LookupVendor(ctx, mac); ferr == nil {
				return v, nil
			}
		}
		return "", &DatabaseError{Op: "lookup", Err: err}
	}

	o.cache.Set(prefix, vendor)
	return vendor, nil
}

// InsertOUI implements VendorWriter.
func (o *OUIDatabase) InsertOUI(ctx context.Context, entry OUIEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrRepositoryClosed
	}

	_, err := o.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO oui_registry (prefix, vendor, address, country, last_updated)
		VALUES (?, ?, ?, ?, ?)`,
		entry.Prefix, entry.Vendor, entry.Address, entry.Country, entry.LastUpdated.Unix())
	if err != nil {
		return &DatabaseError{Op: "insert", Err: err}
	}
	return nil
}

// BulkInsertOUIs implements VendorWriter within a single transaction.
func (o *OUIDatabase) BulkInsertOUIs(ctx context.Context, entries []OUIEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrRepositoryClosed
	}

	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return &DatabaseError{Op: "begin_transaction", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO oui_registry (prefix, vendor, address, country, last_updated)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return &DatabaseError{Op: "prepare_bulk_insert", Err: err}
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx,
			entry.Prefix, entry.Vendor, entry.Address, entry.Country, entry.LastUpdated.Unix()); err != nil {
			return &DatabaseError{Op: "bulk_insert_entry", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &DatabaseError{Op: "commit_transaction", Err: err}
	}
	return nil
}

// CountEntries returns the number of registry rows.
func (o *OUIDatabase) CountEntries(ctx context.Context) (int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return 0, ErrRepositoryClosed
	}

	var count int
	if err := o.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM oui_registry").Scan(&count); err != nil {
		return 0, &DatabaseError{Op: "count", Err: err}
	}
	return count, nil
}

// Close implements VendorRepository.
func (o *OUIDatabase) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true

	if o.lookupStmt != nil {
		o.lookupStmt.Close()
	}
	if o.db != nil {
		return o.db.Close()
	}
	return nil
}
