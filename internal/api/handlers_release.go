package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library"
	"github.com/slipstream/releasedecider/internal/matcher"
	"github.com/slipstream/releasedecider/internal/parser"
)

// DecideRequest is the body of POST /api/v1/release/decide.
type DecideRequest struct {
	Releases []types.ReleaseInfo `json:"releases"`
	// AddPending stores temporarily rejected releases for re-evaluation.
	AddPending bool `json:"addPending"`
}

// DecideResponse lists the ranked decisions.
type DecideResponse struct {
	Releases            []ReleaseResource `json:"releases"`
	Approved            int               `json:"approved"`
	TemporarilyRejected int               `json:"temporarilyRejected"`
	Rejected            int               `json:"rejected"`
	PendingAdded        int               `json:"pendingAdded"`
}

// ParseResponse is the result of GET /api/v1/release/parse.
type ParseResponse struct {
	Title    string            `json:"title"`
	Parsed   parser.ParsedInfo `json:"parsedEpisodeInfo"`
	Status   string            `json:"status,omitempty"`
	Series   *library.Series   `json:"series,omitempty"`
	Episodes []library.Episode `json:"episodes"`
}

// parseRelease parses a title and, when a library is available, resolves
// it to a series and episodes.
// GET /api/v1/release/parse?title=
func (s *Server) parseRelease(c echo.Context) error {
	title := strings.TrimSpace(c.QueryParam("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title is required"})
	}

	resp := ParseResponse{
		Title:    title,
		Parsed:   parser.Parse(title),
		Episodes: []library.Episode{},
	}

	if s.deps.Snapshots != nil {
		snap, err := s.deps.Snapshots.LoadSnapshot(c.Request().Context())
		if err != nil {
			s.logger.Warn().Err(err).Msg("Library unavailable, returning parse result only")
		} else {
			candidate := matcher.Match(types.ReleaseInfo{Title: title}, resp.Parsed, snap.Library)
			resp.Status = candidate.Status.String()
			resp.Series = candidate.Series
			if candidate.Episodes != nil {
				resp.Episodes = candidate.Episodes
			}
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// decideReleases evaluates a release batch against the current library.
// POST /api/v1/release/decide
func (s *Server) decideReleases(c echo.Context) error {
	var req DecideRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(req.Releases) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "releases are required"})
	}
	if s.deps.Decider == nil || s.deps.Snapshots == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "decision engine not configured"})
	}

	ctx := c.Request().Context()
	snap, err := s.deps.Snapshots.LoadSnapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load library snapshot")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "library snapshot unavailable: " + err.Error()})
	}
	if snap.Now.IsZero() {
		snap.Now = time.Now()
	}

	decisions, err := s.deps.Decider.Decide(ctx, req.Releases, snap)
	switch {
	case errors.Is(err, decisioning.ErrConfigInvalid):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "evaluation cancelled"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := DecideResponse{Releases: newReleaseResources(decisions, snap.Now)}
	for i := range decisions {
		switch decisions[i].Outcome {
		case decisioning.OutcomeApproved:
			resp.Approved++
		case decisioning.OutcomeTemporarilyRejected:
			resp.TemporarilyRejected++
		default:
			resp.Rejected++
		}
	}

	if req.AddPending && s.deps.Pending != nil {
		added, err := s.deps.Pending.Add(ctx, decisions)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to store pending releases")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		resp.PendingAdded = added
	}

	return c.JSON(http.StatusOK, resp)
}
