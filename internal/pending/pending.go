// Package pending holds temporarily rejected releases and re-evaluates them
// against fresh library state until they are approved or rejected for good.
package pending

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/indexer/types"
)

// Release is a release waiting for its temporary rejections to clear.
type Release struct {
	ID          string                  `json:"id"`
	Release     types.ReleaseInfo       `json:"release"`
	SeriesID    int64                   `json:"seriesId,omitempty"`
	Rejections  []decisioning.Rejection `json:"rejections"`
	Attempts    int                     `json:"attempts"`
	AddedAt     time.Time               `json:"addedAt"`
	EvaluatedAt time.Time               `json:"evaluatedAt"`
}

// GUID returns the release GUID, which keys the pending entry.
func (r *Release) GUID() string {
	return r.Release.GUID
}

func (r Release) clone() Release {
	r.Rejections = slices.Clone(r.Rejections)
	r.Release.Categories = slices.Clone(r.Release.Categories)
	return r
}

// Decider evaluates a batch of releases against a snapshot.
type Decider interface {
	Decide(ctx context.Context, releases []types.ReleaseInfo, snap decisioning.Snapshot) ([]decisioning.Decision, error)
}

// SnapshotFunc loads the current library state.
type SnapshotFunc func(ctx context.Context) (decisioning.Snapshot, error)

// Result summarizes one re-evaluation run.
type Result struct {
	// Approved holds the newly approved decisions, ranked.
	Approved []decisioning.Decision `json:"approved"`
	// Dropped holds releases that became permanently rejected.
	Dropped []decisioning.Decision `json:"dropped"`
	// Pending holds releases that are still temporarily rejected.
	Pending []Release `json:"pending"`
	// Skipped counts releases locked by a concurrent run.
	Skipped int `json:"skipped"`
}

// Service tracks pending releases.
type Service struct {
	store    Store
	decider  Decider
	snapshot SnapshotFunc
	lock     *GUIDLock
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a pending release service.
func NewService(store Store, decider Decider, snapshot SnapshotFunc, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		decider:  decider,
		snapshot: snapshot,
		lock:     NewGUIDLock(),
		logger:   logger.With().Str("component", "pending").Logger(),
		now:      time.Now,
	}
}

// SetClock replaces the clock used for timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Add stores every temporarily rejected decision. Releases already pending
// keep their ID and AddedAt. Returns the number of releases stored.
func (s *Service) Add(ctx context.Context, decisions []decisioning.Decision) (int, error) {
	now := s.now()
	added := 0
	for i := range decisions {
		d := &decisions[i]
		if !d.TemporarilyRejected() || d.Candidate.Release.GUID == "" {
			continue
		}

		entry := Release{
			ID:          uuid.NewString(),
			Release:     d.Candidate.Release,
			Rejections:  slices.Clone(d.Rejections),
			AddedAt:     now,
			EvaluatedAt: now,
		}
		if d.Candidate.Series != nil {
			entry.SeriesID = d.Candidate.Series.ID
		}

		existing, err := s.store.Get(ctx, entry.GUID())
		switch {
		case err == nil:
			entry.ID = existing.ID
			entry.AddedAt = existing.AddedAt
			entry.Attempts = existing.Attempts
		case !errors.Is(err, ErrNotFound):
			return added, err
		}

		if err := s.store.Upsert(ctx, entry); err != nil {
			return added, err
		}
		added++
	}

	if added > 0 {
		s.logger.Info().Int("count", added).Msg("Added pending releases")
	}
	return added, nil
}

// List returns every pending release, oldest first.
func (s *Service) List(ctx context.Context) ([]Release, error) {
	return s.store.List(ctx)
}

// Reevaluate runs every pending release through the decider against a fresh
// snapshot. Approved and permanently rejected releases leave the store;
// releases that are still temporarily rejected are updated in place.
// Releases locked by a concurrent run are skipped.
func (s *Service) Reevaluate(ctx context.Context) (*Result, error) {
	result := &Result{}

	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	byGUID := make(map[string]Release, len(entries))
	releases := make([]types.ReleaseInfo, 0, len(entries))
	for _, entry := range entries {
		if !s.lock.TryAcquire(entry.GUID()) {
			result.Skipped++
			continue
		}
		defer s.lock.Release(entry.GUID())
		byGUID[entry.GUID()] = entry
		releases = append(releases, entry.Release)
	}
	if len(releases) == 0 {
		return result, nil
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	decisions, decideErr := s.decider.Decide(ctx, releases, snap)
	if decideErr != nil && len(decisions) == 0 {
		return nil, decideErr
	}

	now := s.now()
	for _, d := range decisions {
		entry, ok := byGUID[d.Candidate.Release.GUID]
		if !ok {
			continue
		}

		switch d.Outcome {
		case decisioning.OutcomeTemporarilyRejected:
			entry.Rejections = slices.Clone(d.Rejections)
			entry.Attempts++
			entry.EvaluatedAt = now
			if err := s.store.Upsert(ctx, entry); err != nil {
				return result, err
			}
			result.Pending = append(result.Pending, entry)
		case decisioning.OutcomeApproved:
			if err := s.store.Delete(ctx, entry.GUID()); err != nil && !errors.Is(err, ErrNotFound) {
				return result, err
			}
			result.Approved = append(result.Approved, d)
		default:
			if err := s.store.Delete(ctx, entry.GUID()); err != nil && !errors.Is(err, ErrNotFound) {
				return result, err
			}
			result.Dropped = append(result.Dropped, d)
		}
	}

	s.logger.Info().
		Int("approved", len(result.Approved)).
		Int("dropped", len(result.Dropped)).
		Int("pending", len(result.Pending)).
		Int("skipped", result.Skipped).
		Msg("Re-evaluated pending releases")

	return result, decideErr
}

// Run re-evaluates pending releases. It matches the scheduler task signature.
func (s *Service) Run(ctx context.Context) error {
	_, err := s.Reevaluate(ctx)
	return err
}
