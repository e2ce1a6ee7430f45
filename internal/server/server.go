// Package server exposes the HTTP surface: the webhook ingestion endpoint,
// liveness probes, and metrics.
package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/harrison001/NexusBot/internal/config"
	apperrors "github.com/harrison001/NexusBot/internal/errors"
)

type Server struct {
	echo   *echo.Echo
	config *config.Config
	pool   *DispatchPool
}

// NewServer creates the HTTP server. pool may be nil while the bot is not
// yet initialized; the webhook endpoint then refuses traffic with 503.
func NewServer(cfg *config.Config, pool *DispatchPool) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:   e,
		config: cfg,
		pool:   pool,
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
