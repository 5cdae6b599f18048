// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/audiolog/internal/config"
	"github.com/tomtom215/audiolog/internal/database"
)

var _ Store = (*database.DB)(nil)

func newTestImporter(t *testing.T) (*Importer, *database.DB) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "256MB",
		Threads:   1,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	imp := New(&config.ImportConfig{BatchSize: 100}, db)
	return imp, db
}

func TestRunAppend(t *testing.T) {
	imp, db := newTestImporter(t)
	ctx := context.Background()

	input := `A,X,One,2022-01-01T00:00:00Z
A,X,Two,2022-01-02T00:00:00Z
bad row without timestamp
`
	result, err := imp.Run(ctx, strings.NewReader(input), database.ImportModeAppend)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.ScrobblesAdded != 2 {
		t.Errorf("ScrobblesAdded = %d, want 2", result.ScrobblesAdded)
	}
	if result.RowsRead != 3 || result.RowsSkipped != 1 {
		t.Errorf("RowsRead=%d RowsSkipped=%d, want 3/1", result.RowsRead, result.RowsSkipped)
	}

	count, err := db.CountScrobbles(ctx, database.EventFilter{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("stored scrobbles = %d, want 2", count)
	}
}

func TestRunReplace(t *testing.T) {
	imp, db := newTestImporter(t)
	ctx := context.Background()

	if _, err := imp.Run(ctx, strings.NewReader("A,X,One,2022-01-01T00:00:00Z\n"), database.ImportModeAppend); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	if _, err := imp.Run(ctx, strings.NewReader("B,Y,Two,2023-01-01T00:00:00Z\n"), database.ImportModeReplace); err != nil {
		t.Fatalf("replace import failed: %v", err)
	}

	count, err := db.CountScrobbles(ctx, database.EventFilter{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("scrobbles after replace = %d, want 1", count)
	}
}

func TestRunRejectsEmptyFile(t *testing.T) {
	imp, _ := newTestImporter(t)

	if _, err := imp.Run(context.Background(), strings.NewReader(""), database.ImportModeAppend); err == nil {
		t.Fatal("expected error for empty import file")
	}

	// All rows malformed is also unusable.
	if _, err := imp.Run(context.Background(), strings.NewReader("only,three,columns\n"), database.ImportModeAppend); err == nil {
		t.Fatal("expected error when every row is skipped")
	}
}

func TestRunFiresInvalidation(t *testing.T) {
	imp, db := newTestImporter(t)

	fired := 0
	db.OnBulkMutation(func() { fired++ })

	if _, err := imp.Run(context.Background(), strings.NewReader("A,X,One,2022-01-01T00:00:00Z\n"), database.ImportModeAppend); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if fired != 1 {
		t.Errorf("bulk mutation callback fired %d times, want 1", fired)
	}
}
