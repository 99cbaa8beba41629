package pending

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/slipstream/releasedecider/internal/decisioning"
)

var ErrNotFound = errors.New("pending release not found")

// Store persists pending releases keyed by GUID.
type Store interface {
	Upsert(ctx context.Context, r Release) error
	Get(ctx context.Context, guid string) (Release, error)
	List(ctx context.Context) ([]Release, error)
	Delete(ctx context.Context, guid string) error
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	releases map[string]Release
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{releases: make(map[string]Release)}
}

func (m *MemoryStore) Upsert(_ context.Context, r Release) error {
	if r.GUID() == "" {
		return errors.New("pending release needs a guid")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases[r.GUID()] = r.clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, guid string) (Release, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.releases[guid]
	if !ok {
		return Release{}, fmt.Errorf("%q: %w", guid, ErrNotFound)
	}
	return r.clone(), nil
}

// List returns every pending release, oldest first.
func (m *MemoryStore) List(_ context.Context) ([]Release, error) {
	m.mu.RLock()
	out := make([]Release, 0, len(m.releases))
	for _, r := range m.releases {
		out = append(out, r.clone())
	}
	m.mu.RUnlock()

	slices.SortFunc(out, compareAdded)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, guid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.releases[guid]; !ok {
		return fmt.Errorf("%q: %w", guid, ErrNotFound)
	}
	delete(m.releases, guid)
	return nil
}

func compareAdded(a, b Release) int {
	if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
		return c
	}
	switch {
	case a.GUID() < b.GUID():
		return -1
	case a.GUID() > b.GUID():
		return 1
	}
	return 0
}

// SQLStore is a Store backed by the pending_releases table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store over a migrated database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Upsert(ctx context.Context, r Release) error {
	if r.GUID() == "" {
		return errors.New("pending release needs a guid")
	}
	release, err := json.Marshal(r.Release)
	if err != nil {
		return fmt.Errorf("failed to serialize release: %w", err)
	}
	rejections, err := json.Marshal(nonNil(r.Rejections))
	if err != nil {
		return fmt.Errorf("failed to serialize rejections: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_releases (guid, id, title, series_id, release, rejections, attempts, added_at, evaluated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
			title = excluded.title,
			series_id = excluded.series_id,
			release = excluded.release,
			rejections = excluded.rejections,
			attempts = excluded.attempts,
			evaluated_at = excluded.evaluated_at`,
		r.GUID(), r.ID, r.Release.Title, r.SeriesID, string(release), string(rejections),
		r.Attempts, r.AddedAt.UTC(), r.EvaluatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save pending release %q: %w", r.Release.Title, err)
	}
	return nil
}

const pendingColumns = `id, series_id, release, rejections, attempts, added_at, evaluated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRelease(row scanner) (Release, error) {
	var (
		r          Release
		release    string
		rejections string
	)
	if err := row.Scan(&r.ID, &r.SeriesID, &release, &rejections, &r.Attempts, &r.AddedAt, &r.EvaluatedAt); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(release), &r.Release); err != nil {
		return r, fmt.Errorf("pending release %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(rejections), &r.Rejections); err != nil {
		return r, fmt.Errorf("pending release %s rejections: %w", r.ID, err)
	}
	return r, nil
}

func (s *SQLStore) Get(ctx context.Context, guid string) (Release, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pendingColumns+` FROM pending_releases WHERE guid = ?`, guid)
	r, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%q: %w", guid, ErrNotFound)
	}
	return r, err
}

// List returns every pending release, oldest first.
func (s *SQLStore) List(ctx context.Context) ([]Release, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pendingColumns+` FROM pending_releases ORDER BY added_at, guid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending releases: %w", err)
	}
	defer rows.Close()

	var out []Release
	for rows.Next() {
		r, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, guid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_releases WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("failed to delete pending release %q: %w", guid, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", guid, ErrNotFound)
	}
	return nil
}

func nonNil(r []decisioning.Rejection) []decisioning.Rejection {
	if r == nil {
		return []decisioning.Rejection{}
	}
	return r
}
