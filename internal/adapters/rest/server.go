package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"item-service/internal/adapters/ws"
	"item-service/internal/config"
	"item-service/internal/ports/inbound"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Server is the HTTP front of the service
type Server struct {
	echo    *echo.Echo
	feed    *ws.FeedHandler
	address string
	logger  zerolog.Logger
}

type ServerParams struct {
	Config        config.ServerConfig
	ItemService   inbound.ItemService
	HealthService inbound.HealthService
	// Feed serves /ws/items; nil answers 503 there
	Feed   *ws.FeedHandler
	Logger zerolog.Logger
}

// NewServer wires middleware and routes onto a fresh echo instance
func NewServer(params ServerParams) *Server {
	logger := params.Logger.With().Str("component", "http_server").Logger()

	feed := params.Feed
	if feed == nil {
		feed = ws.NewFeedHandler(ws.FeedHandlerParams{Logger: params.Logger})
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = params.Config.Debug
	e.HTTPErrorHandler = errorHandler(logger)
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     params.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))

	health := &HealthHandler{service: params.HealthService}
	e.GET("/health", health.Health)
	e.GET("/ready", health.Ready)

	items := &ItemHandler{service: params.ItemService}
	g := e.Group("/items")
	g.GET("", items.ListItems)
	g.POST("", items.CreateItem)
	g.GET("/:id", items.GetItem)
	g.PUT("/:id", items.UpdateItem)
	g.DELETE("/:id", items.DeleteItem)

	e.GET("/ws/items", echo.WrapHandler(http.HandlerFunc(feed.HandleFeed)))

	return &Server{
		echo:    e,
		feed:    feed,
		address: params.Config.Address(),
		logger:  logger,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves HTTP until Stop is called
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.address).Msg("Starting HTTP server")

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP server...")

	// hijacked feed connections are not tracked by Shutdown
	s.feed.Shutdown()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
