// Package api provides HTTP handlers for the supervisor.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homefleet/supervisor/supervisor"
)

// Handler handles HTTP requests.
type Handler struct {
	sup *supervisor.Supervisor
}

// NewHandler creates a new handler.
func NewHandler(sup *supervisor.Supervisor) *Handler {
	return &Handler{sup: sup}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Fleet API (for agents to call)
	e.POST("/register", h.Register)
	e.POST("/heartbeat", h.Heartbeat)

	// Task API
	e.POST("/task", h.SubmitTask)

	// Introspection
	e.GET("/agents", h.ListAgents)
	e.GET("/agents/:agent_id", h.GetAgent)
	e.GET("/status", h.Status)
	e.GET("/events", h.Events)

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
