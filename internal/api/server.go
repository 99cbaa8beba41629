package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/slipstream/releasedecider/internal/config"
	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/library/store"
	"github.com/slipstream/releasedecider/internal/pending"
	"github.com/slipstream/releasedecider/internal/scheduler"
)

// SnapshotSource loads the current library state.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (decisioning.Snapshot, error)
}

// MissingSource lists aired episodes that have no file.
type MissingSource interface {
	ListMissingEpisodes(ctx context.Context, opts store.MissingOptions) (*store.MissingPage, error)
}

// Deps are the services the API exposes. Pending, Wanted, Scheduler and Logs
// are optional; their routes are not registered when nil.
type Deps struct {
	Decider   pending.Decider
	Snapshots SnapshotSource
	Pending   *pending.Service
	Wanted    MissingSource
	Scheduler *scheduler.Scheduler
	Logs      LogsProvider
}

// Server handles HTTP requests for the release decision API.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	cfg     *config.Config
	logger  zerolog.Logger
	started time.Time
}

// NewServer creates a new API server instance.
func NewServer(deps Deps, cfg *config.Config, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		deps:    deps,
		cfg:     cfg,
		logger:  logger.With().Str("component", "api").Logger(),
		started: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
