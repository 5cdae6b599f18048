// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

// Package database implements the scrobble store on embedded DuckDB.
//
// It owns the schema (artists, albums, tracks, scrobbles), the catalog
// version counter, and all SQL the statistics engine depends on. Bulk
// mutations run in a single transaction so readers observe either the
// pre-import or post-import state, never a partial one.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/audiolog/internal/config"
	"github.com/tomtom215/audiolog/internal/logging"
	"github.com/tomtom215/audiolog/internal/metrics"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// importMu serializes bulk imports. Reads are not blocked; they see
	// the snapshot DuckDB gives them.
	importMu sync.Mutex

	// onMutation callbacks fire after every committed bulk mutation.
	callbackMu sync.RWMutex
	onMutation []func()
}

// New opens (or creates) the database at cfg.Path and initializes the
// schema. The parent directory is created if missing.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn: conn,
		cfg:  cfg,
	}

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// OnBulkMutation registers a callback invoked after every committed
// bulk mutation (import, replace). Used to clear the result cache.
func (db *DB) OnBulkMutation(fn func()) {
	db.callbackMu.Lock()
	db.onMutation = append(db.onMutation, fn)
	db.callbackMu.Unlock()
}

func (db *DB) notifyBulkMutation() {
	db.callbackMu.RLock()
	callbacks := make([]func(), len(db.onMutation))
	copy(callbacks, db.onMutation)
	db.callbackMu.RUnlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}

	return db.conn.Close()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Checkpoint forces a WAL checkpoint.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Conn returns the underlying SQL connection for health checks.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// queryRows runs a read query and records its timing and outcome on the
// shared query metrics.
func (db *DB) queryRows(ctx context.Context, operation, table, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	return rows, err
}

// scanRow runs a single-row query, scans it into dest, and records the
// timing and outcome. A missing row is an answer, not a query failure,
// so ErrNoRows is not counted as an error.
func (db *DB) scanRow(ctx context.Context, operation, table, query string, args []interface{}, dest ...interface{}) error {
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(dest...)

	recorded := err
	if errors.Is(err, sql.ErrNoRows) {
		recorded = nil
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), recorded)

	return err
}

// ensureContext attaches a 30-second timeout when the caller's context
// has no deadline, so no query can hang indefinitely.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}

	return ctx, func() {}
}
