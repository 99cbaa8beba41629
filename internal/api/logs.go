package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/releasedecider/internal/logger"
)

// LogsProvider provides access to log data.
type LogsProvider interface {
	RecentEntries() []logger.Entry
	FilePath() string
}

// LogsHandlers handles log-related HTTP endpoints.
type LogsHandlers struct {
	provider LogsProvider
}

// NewLogsHandlers creates a new logs handlers instance.
func NewLogsHandlers(provider LogsProvider) *LogsHandlers {
	return &LogsHandlers{provider: provider}
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns buffered log entries, newest last. The optional
// level query parameter drops entries below that level and limit keeps the
// newest n.
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	entries := h.provider.RecentEntries()

	if level := c.QueryParam("level"); level != "" {
		minLevel := logger.ParseLevel(level)
		kept := entries[:0:0]
		for _, e := range entries {
			if logger.ParseLevel(e.Level) >= minLevel {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
		}
		if limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}

	if entries == nil {
		entries = []logger.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// DownloadLogFile serves the current log file for download.
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	logPath := h.provider.FilePath()
	if logPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(logPath, logger.FileName)
}
