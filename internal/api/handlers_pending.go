package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/pending"
)

// PendingResource is the API view of a pending release.
type PendingResource struct {
	ID          string                  `json:"id"`
	GUID        string                  `json:"guid"`
	Title       string                  `json:"title"`
	SeriesID    int64                   `json:"seriesId,omitempty"`
	Rejections  []decisioning.Rejection `json:"rejections"`
	Attempts    int                     `json:"attempts"`
	AddedAt     time.Time               `json:"addedAt"`
	EvaluatedAt time.Time               `json:"evaluatedAt"`
}

// ReevaluateResponse summarizes a re-evaluation run.
type ReevaluateResponse struct {
	Approved []ReleaseResource `json:"approved"`
	Dropped  []ReleaseResource `json:"dropped"`
	Pending  []PendingResource `json:"pending"`
	Skipped  int               `json:"skipped"`
}

func newPendingResources(releases []pending.Release) []PendingResource {
	out := make([]PendingResource, 0, len(releases))
	for i := range releases {
		r := &releases[i]
		rejections := r.Rejections
		if rejections == nil {
			rejections = []decisioning.Rejection{}
		}
		out = append(out, PendingResource{
			ID:          r.ID,
			GUID:        r.GUID(),
			Title:       r.Release.Title,
			SeriesID:    r.SeriesID,
			Rejections:  rejections,
			Attempts:    r.Attempts,
			AddedAt:     r.AddedAt,
			EvaluatedAt: r.EvaluatedAt,
		})
	}
	return out
}

// listPending returns every pending release, oldest first.
// GET /api/v1/pending
func (s *Server) listPending(c echo.Context) error {
	releases, err := s.deps.Pending.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, newPendingResources(releases))
}

// reevaluatePending re-runs pending releases immediately.
// POST /api/v1/pending/reevaluate
func (s *Server) reevaluatePending(c echo.Context) error {
	result, err := s.deps.Pending.Reevaluate(c.Request().Context())
	if err != nil && result == nil {
		s.logger.Error().Err(err).Msg("Pending re-evaluation failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Pending re-evaluation incomplete")
	}

	now := time.Now()
	return c.JSON(http.StatusOK, ReevaluateResponse{
		Approved: newReleaseResources(result.Approved, now),
		Dropped:  newReleaseResources(result.Dropped, now),
		Pending:  newPendingResources(result.Pending),
		Skipped:  result.Skipped,
	})
}
