package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/releasedecider/internal/config"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	response := map[string]any{
		"version":       config.VersionString(),
		"startTime":     s.started.Format(time.RFC3339),
		"uptimeSeconds": int(time.Since(s.started).Seconds()),
	}

	if s.deps.Snapshots != nil {
		snap, err := s.deps.Snapshots.LoadSnapshot(c.Request().Context())
		if err == nil {
			response["seriesCount"] = len(snap.Library.AllSeries())
			response["customFormatCount"] = len(snap.Formats)
			response["queueCount"] = len(snap.Queue)
			response["blocklistCount"] = len(snap.Blocklist)
		} else {
			response["libraryError"] = err.Error()
		}
	}
	if s.deps.Pending != nil {
		if releases, err := s.deps.Pending.List(c.Request().Context()); err == nil {
			response["pendingCount"] = len(releases)
		}
	}

	return c.JSON(http.StatusOK, response)
}
