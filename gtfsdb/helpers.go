package gtfsdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"
	"marguerite.stanford.edu/internal/appconf"
	"marguerite.stanford.edu/internal/logging"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schema.sql
var ddl string

// createDB opens the SQLite database and applies the schema
func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && !config.inMemory() {
		return nil, fmt.Errorf("test database must use in-memory storage, got %q", config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if config.inMemory() {
		// Every connection to ":memory:" is a separate database, so pin the pool to one.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx := context.Background()
	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

func hashGTFSData(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// processAndStoreGTFSDataWithSource imports the zip in b unless the stored
// import already has the same content hash. A changed feed replaces the old rows
// in a single transaction.
func (c *Client) processAndStoreGTFSDataWithSource(ctx context.Context, b []byte, source string) error {
	startTime := time.Now()
	fileHash := hashGTFSData(b)

	existing, err := c.Queries.GetImportMetadata(ctx)
	switch {
	case err == nil && existing.FileHash == fileHash:
		logging.LogOperation(c.logger, "gtfs_import_skipped_unchanged",
			slog.String("source", source),
			slog.String("hash", fileHash))
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("error reading import metadata: %w", err)
	}

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return fmt.Errorf("error parsing GTFS data: %w", err)
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting import transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "gtfs_import")

	qtx := c.Queries.WithTx(tx)
	if err := qtx.ClearStaticData(ctx); err != nil {
		return fmt.Errorf("error clearing previous GTFS data: %w", err)
	}

	counts, err := insertStaticData(ctx, qtx, staticData)
	if err != nil {
		return err
	}

	err = qtx.UpsertImportMetadata(ctx, UpsertImportMetadataParams{
		FileHash:   fileHash,
		ImportTime: time.Now().Unix(),
		FileSource: source,
	})
	if err != nil {
		return fmt.Errorf("error storing import metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing GTFS import: %w", err)
	}

	c.importRuntime = time.Since(startTime)

	attrs := []slog.Attr{
		slog.String("source", source),
		slog.Int("warnings", len(staticData.Warnings)),
		slog.Duration("duration", c.importRuntime),
	}
	for table, n := range counts {
		attrs = append(attrs, slog.Int(table+"_count", n))
	}
	logging.LogOperation(c.logger, "gtfs_data_imported", attrs...)

	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func toNullInt64(i int64) sql.NullInt64 {
	if i != 0 {
		return sql.NullInt64{
			Int64: i,
			Valid: true,
		}
	}
	return sql.NullInt64{}
}

// toNullString converts a string to sql.NullString
func toNullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}

func pickFirstAvailable(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
