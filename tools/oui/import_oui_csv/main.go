// Command import_oui_csv loads the IEEE OUI registry CSV (oui.csv from
// standards-oui.ieee.org) into the local vendor database.
//
// Usage:
//
//	import_oui_csv -csv oui.csv -db ~/.wichain/oui.db
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/afraa786/wichain/internal/adapters/fingerprint"
)

const batchSize = 1000

func main() {
	csvPath := flag.String("csv", "oui.csv", "path to the IEEE oui.csv export")
	dbPath := flag.String("db", "oui.db", "path to the vendor database to write")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(*csvPath, *dbPath, logger); err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(csvPath, dbPath string, logger *slog.Logger) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	db, err := fingerprint.NewOUIDatabase(dbPath, 1, nil)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// Header: Registry,Assignment,Organization Name,Organization Address
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	batch := make([]fingerprint.OUIEntry, 0, batchSize)
	total := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if len(row) < 3 {
			continue
		}

		entry, ok := parseRow(row, now)
		if !ok {
			continue
		}
		batch = append(batch, entry)

		if len(batch) == batchSize {
			if err := db.BulkInsertOUIs(ctx, batch); err != nil {
				return fmt.Errorf("insert batch: %w", err)
			}
			total += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := db.BulkInsertOUIs(ctx, batch); err != nil {
			return fmt.Errorf("insert final batch: %w", err)
		}
		total += len(batch)
	}

	count, err := db.CountEntries(ctx)
	if err != nil {
		return fmt.Errorf("count entries: %w", err)
	}
	logger.Info("import complete", "imported", total, "registry_size", count)
	return nil
}

// parseRow converts one CSV row. Assignment comes as bare hex ("28C68E");
// the registry keys prefixes as "XX:XX:XX".
func parseRow(row []string, now time.Time) (fingerprint.OUIEntry, bool) {
	assignment := strings.ToUpper(strings.TrimSpace(row[1]))
	if len(assignment) != 6 {
		return fingerprint.OUIEntry{}, false
	}

	entry := fingerprint.OUIEntry{
		Prefix:      assignment[0:2] + ":" + assignment[2:4] + ":" + assignment[4:6],
		Vendor:      strings.TrimSpace(row[2]),
		LastUpdated: now,
	}
	if entry.Vendor == "" {
		return fingerprint.OUIEntry{}, false
	}
	if len(row) > 3 {
		entry.Address = strings.TrimSpace(row[3])
	}
	return entry, true
}
