// Package admin serves the backbone's operational HTTP surface: a health
// check for orchestration probes and an authorizer hook other handlers can
// be registered behind. The CRUD and auth surface for projects, stations,
// and devices is explicitly out of scope and is not implemented here.
package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Authorizer validates a bearer token extracted from a request and reports
// whether it grants access.
type Authorizer interface {
	Authorize(token string) bool
}

// Server is the admin HTTP surface. It satisfies the engine.Component shape
// (Run/Stop) so it can be registered alongside the other long-running
// pieces of the backbone.
type Server struct {
	echo *echo.Echo
	host string
	log  zerolog.Logger
}

// New builds the echo server with the health route registered. auth may be
// nil; routes that need it should check for nil and fail closed.
func New(log zerolog.Logger, host string, auth Authorizer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())

	s := &Server{echo: e, host: host, log: log.With().Str("component", "admin").Logger()}

	e.GET("/healthz", s.health)
	if auth != nil {
		e.Use(bearerAuth(auth))
	}

	return s
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// bearerAuth rejects requests whose Authorization header does not carry a
// token the given Authorizer accepts. Requests to /healthz are always let
// through so orchestration probes never depend on a credential.
func bearerAuth(auth Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/healthz" {
				return next(c)
			}
			token := c.Request().Header.Get("Authorization")
			if !auth.Authorize(token) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
			}
			return next(c)
		}
	}
}

// Run starts the HTTP server and blocks until it is shut down.
func (s *Server) Run() error {
	err := s.echo.Start(s.host)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
