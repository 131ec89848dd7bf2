// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/harvestapp/harvest/internal/outreach/person"
	"github.com/harvestapp/harvest/internal/outreach/report"
	"github.com/harvestapp/harvest/internal/platform/config"
	"github.com/harvestapp/harvest/internal/platform/constants"
	"github.com/harvestapp/harvest/internal/platform/middleware"
	"github.com/harvestapp/harvest/internal/users/admin"
	"github.com/harvestapp/harvest/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Health is the /health handler — liveness plus storage reachability.
	Health http.HandlerFunc

	// Auth handles the authentication lifecycle (register, login, rotation,
	// password recovery).
	Auth *auth.Handler

	// AdminUsers handles administrator-only user management.
	AdminUsers *admin.Handler

	// Report handles outreach report CRUD.
	Report *report.Handler

	// Person handles records of individuals reached during outreach.
	Person *person.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, loader middleware.PrincipalLoader, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier, loader))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probe for container orchestration.
	r.Get("/health", h.Health)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/admin/users", func(adminRouter chi.Router) {
			adminRouter.Use(middleware.RequireAuth)
			adminRouter.Use(middleware.RequireAdmin)
			h.AdminUsers.RegisterRoutes(adminRouter)
		})

		api.Route("/reports", func(reportRouter chi.Router) {
			reportRouter.Use(middleware.RequireAuth)
			h.Report.RegisterRoutes(reportRouter)
		})

		api.Route("/people", func(personRouter chi.Router) {
			personRouter.Use(middleware.RequireAuth)
			h.Person.RegisterRoutes(personRouter)
		})

		// Auth owns the remaining top-level verbs (/register, /login, ...).
		h.Auth.RegisterRoutes(api)
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
