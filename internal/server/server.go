// Package server exposes the REST API: registration, authentication and
// CRUD over categories, transactions and statistics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kassa-bot/kassa/internal/service"
)

// Config holds the HTTP server settings.
type Config struct {
	Host      string
	Port      int
	JWTSecret string
	TokenTTL  time.Duration
}

// Server wires the echo instance to the storage layer.
type Server struct {
	echo     *echo.Echo
	store    service.Storage
	secret   []byte
	addr     string
	tokenTTL time.Duration
}

// New creates the API server and registers all routes.
func New(cfg Config, store service.Storage) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status)
			return nil
		},
	}))

	s := &Server{
		echo:     e,
		store:    store,
		secret:   []byte(cfg.JWTSecret),
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		tokenTTL: tokenTTL,
	}
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)

	api := s.echo.Group("/api")
	api.POST("/users", s.handleRegister)
	api.POST("/auth/token", s.handleLogin)

	authed := api.Group("", s.requireAuth)
	authed.GET("/users/me", s.handleMe)
	authed.POST("/telegram/link-code", s.handleCreateLinkCode)

	authed.GET("/categories", s.handleListCategories)
	authed.POST("/categories", s.handleCreateCategory)
	authed.GET("/categories/:id", s.handleGetCategory)
	authed.PUT("/categories/:id", s.handleUpdateCategory)
	authed.DELETE("/categories/:id", s.handleDeleteCategory)

	authed.GET("/transactions", s.handleListTransactions)
	authed.POST("/transactions", s.handleCreateTransaction)
	authed.GET("/transactions/:id", s.handleGetTransaction)
	authed.PUT("/transactions/:id", s.handleUpdateTransaction)
	authed.DELETE("/transactions/:id", s.handleDeleteTransaction)

	authed.GET("/stats", s.handleStats)

	admin := authed.Group("/users", s.requireAdmin)
	admin.GET("", s.handleListUsers)
	admin.GET("/:id", s.handleGetUser)
	admin.DELETE("/:id", s.handleDeleteUser)
}

// Start runs the HTTP listener until it fails or is shut down.
func (s *Server) Start() error {
	slog.Info("starting http listener", "addr", s.addr)

	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
