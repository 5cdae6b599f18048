// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

// Package importer parses CSV scrobble exports and loads them into the
// store. One import is one store transaction: either the whole file
// lands or none of it does. Individual malformed rows are skipped and
// counted, not fatal.
package importer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tomtom215/audiolog/internal/config"
	"github.com/tomtom215/audiolog/internal/logging"
	"github.com/tomtom215/audiolog/internal/metrics"
	"github.com/tomtom215/audiolog/internal/models"
)

// Store is the write surface the importer needs.
type Store interface {
	ImportScrobbles(ctx context.Context, mode string, rows []models.ScrobbleImport, rowsSkipped, batchSize int) (*models.ImportResult, error)
}

// Importer loads scrobble history files into the store.
type Importer struct {
	cfg   *config.ImportConfig
	store Store

	mu      sync.Mutex
	running bool
}

// New creates an importer.
func New(cfg *config.ImportConfig, store Store) *Importer {
	return &Importer{
		cfg:   cfg,
		store: store,
	}
}

// Run parses the CSV stream and commits it in the given mode. Only one
// import may run at a time; concurrent calls fail fast rather than
// queue.
func (i *Importer) Run(ctx context.Context, r io.Reader, mode string) (*models.ImportResult, error) {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil, fmt.Errorf("import already in progress")
	}
	i.running = true
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
	}()

	start := time.Now()

	rows, skipped, err := Parse(r)
	if err != nil {
		err = fmt.Errorf("failed to parse import file: %w", err)
		metrics.RecordImport(time.Since(start), skipped, skipped, 0, err)
		return nil, err
	}
	if len(rows) == 0 {
		err = fmt.Errorf("import file contains no usable rows (%d skipped)", skipped)
		metrics.RecordImport(time.Since(start), skipped, skipped, 0, err)
		return nil, err
	}

	logging.Info().
		Str("mode", mode).
		Int("rows", len(rows)).
		Int("skipped", skipped).
		Msg("Starting import")

	result, err := i.store.ImportScrobbles(ctx, mode, rows, skipped, i.cfg.BatchSize)
	if err != nil {
		err = fmt.Errorf("failed to import scrobbles: %w", err)
		metrics.RecordImport(time.Since(start), len(rows)+skipped, skipped, 0, err)
		return nil, err
	}

	metrics.RecordImport(time.Since(start), result.RowsRead, result.RowsSkipped, result.ScrobblesAdded, nil)
	metrics.SetCatalogVersion(result.CatalogVersion)
	return result, nil
}
