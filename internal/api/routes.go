package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/slipstream/releasedecider/internal/api/handlers"
	apimw "github.com/slipstream/releasedecider/internal/api/middleware"
)

const apiPrefix = "/api/v1"

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	// Security headers
	s.echo.Use(apimw.SecurityHeaders(apiPrefix))

	// Release batches can be large
	bodyLimit := "4M"
	if s.cfg != nil && s.cfg.Server.BodyLimit != "" {
		bodyLimit = s.cfg.Server.BodyLimit
	}
	s.echo.Use(middleware.BodyLimit(bodyLimit))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group(apiPrefix)
	api.Use(apimw.RequireJSON())
	api.GET("/status", s.getStatus)

	release := api.Group("/release")
	release.GET("/parse", s.parseRelease)
	release.POST("/decide", s.decideReleases)

	if s.deps.Pending != nil {
		pendingGroup := api.Group("/pending")
		pendingGroup.GET("", s.listPending)
		pendingGroup.POST("/reevaluate", s.reevaluatePending)
	}

	if s.deps.Wanted != nil {
		api.GET("/wanted/missing", s.listMissing)
	}

	system := api.Group("/system")
	if s.deps.Scheduler != nil {
		handlers.NewSchedulerHandler(s.deps.Scheduler).RegisterRoutes(system.Group("/tasks"))
	}
	if s.deps.Logs != nil {
		NewLogsHandlers(s.deps.Logs).RegisterRoutes(system.Group("/logs"))
	}
}
