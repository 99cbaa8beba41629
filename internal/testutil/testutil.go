// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/releasedecider/internal/database"
	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library"
	"github.com/slipstream/releasedecider/internal/library/quality"
)

// TestDB wraps a migrated test database.
type TestDB struct {
	DB     *database.DB
	Conn   *sql.DB
	Path   string
	Logger zerolog.Logger
}

// NewTestDB creates a migrated database in a temp directory. The database is
// closed when the test finishes.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dir := t.TempDir()
	logger := NewTestLogger(t)

	db, err := database.New(filepath.Join(dir, "test.db"), logger)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDB{
		DB:     db,
		Conn:   db.Conn(),
		Path:   dir,
		Logger: logger,
	}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// IntPtr returns a pointer to an int.
func IntPtr(i int) *int {
	return &i
}

// TimePtr returns a pointer to a time.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// Model returns the quality model for a predefined quality ID.
func Model(t *testing.T, id int) quality.Model {
	t.Helper()
	q, ok := quality.GetQualityByID(id)
	if !ok {
		t.Fatalf("unknown quality %d", id)
	}
	return quality.Model{Quality: q, Revision: quality.DefaultRevision}
}

// Release builds a torrent release published an hour before now.
func Release(title string, now time.Time) types.ReleaseInfo {
	return types.ReleaseInfo{
		GUID:        "guid-" + title,
		Title:       title,
		Size:        1 << 30,
		PublishDate: now.Add(-time.Hour),
		IndexerName: "Test Indexer",
		Protocol:    types.ProtocolTorrent,
		Seeders:     IntPtr(25),
	}
}

// Library returns one monitored series, "Example Title", with a fully aired
// first season of three episodes.
func Library(now time.Time) ([]library.Series, []library.Episode) {
	aired := now.AddDate(0, 0, -14)
	series := []library.Series{{ID: 1, Title: "Example Title", Year: 2020, Monitored: true, QualityProfileID: 1}}
	episodes := make([]library.Episode, 0, 3)
	for i := 1; i <= 3; i++ {
		episodes = append(episodes, library.Episode{
			ID:            int64(10 + i),
			SeriesID:      1,
			SeasonNumber:  1,
			EpisodeNumber: i,
			AirDate:       TimePtr(aired),
			Monitored:     true,
		})
	}
	return series, episodes
}
