// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

// Package api contains the health check handler exposed to orchestration.
package api

import (
	"log/slog"
	"net/http"

	"github.com/harvestapp/harvest/internal/platform/respond"
)

// HealthDependencies holds the injectable dependency checkers for /health.
type HealthDependencies struct {
	// CheckDatabase pings the PostgreSQL pool.
	CheckDatabase func() error

	// CheckCache pings the Redis client.
	CheckCache func() error
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// NewHealthHandler creates the /health http.HandlerFunc.
//
// The probe reports process liveness plus storage reachability; any failing
// dependency degrades the response to 503 so orchestration stops routing
// traffic here.
func NewHealthHandler(deps HealthDependencies, logger *slog.Logger) http.HandlerFunc {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.health
}

// health handles GET /health.
func (handler *healthHandler) health(writer http.ResponseWriter, request *http.Request) {
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	results := make([]checkResult, 0, 2)
	isSystemHealthy := true

	// Check PostgreSQL
	if handler.dependencies.CheckDatabase != nil {
		result := checkResult{Name: "postgres", IsOK: true}
		if err := handler.dependencies.CheckDatabase(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemHealthy = false
			handler.logger.Error("health_check_failed", slog.String("dependency", "postgres"), slog.Any("error", err))
		}
		results = append(results, result)
	}

	// Check Redis
	if handler.dependencies.CheckCache != nil {
		result := checkResult{Name: "redis", IsOK: true}
		if err := handler.dependencies.CheckCache(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemHealthy = false
			handler.logger.Error("health_check_failed", slog.String("dependency", "redis"), slog.Any("error", err))
		}
		results = append(results, result)
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !isSystemHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, map[string]any{
		"status": status,
		"checks": results,
	})
}
