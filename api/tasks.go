package api

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homefleet/supervisor/domain"
)

// TaskSubmitRequest is the request to submit a task.
type TaskSubmitRequest struct {
	Query        string              `json:"query"`
	Location     string              `json:"location,omitempty"`
	Priority     domain.TaskPriority `json:"priority,omitempty"`
	MaxLatencyMs int                 `json:"max_latency_ms,omitempty"`
}

// SubmitTask submits a task for allocation. An immediately allocatable
// task is executed synchronously and the result returned; otherwise the
// response says whether the task was offloaded or queued.
// POST /task
func (h *Handler) SubmitTask(c echo.Context) error {
	var req TaskSubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	task := domain.NewTask(req.Query, req.Location, req.Priority,
		time.Duration(req.MaxLatencyMs)*time.Millisecond, time.Now())

	outcome := h.sup.Submit(c.Request().Context(), task)
	switch outcome.Status {
	case domain.TaskStatusCompleted:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "completed",
			"result": outcome.Result,
			"agent":  outcome.Result.AgentID,
		})
	case domain.TaskStatusOffloaded:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "completed",
			"result": outcome.Result,
			"agent":  "cloud",
		})
	case domain.TaskStatusFailed:
		log.Printf("ERROR: dispatch failed for task %s: %v", outcome.TaskID, outcome.Err)
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"status":  "dispatch_failed",
			"task_id": outcome.TaskID,
			"detail":  "task re-queued for allocation",
		})
	default:
		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"status":  "queued",
			"task_id": outcome.TaskID,
		})
	}
}

// Status returns aggregate system state.
// GET /status
func (h *Handler) Status(c echo.Context) error {
	report, err := h.sup.Status(c.Request().Context())
	if err != nil {
		log.Printf("ERROR: failed to build status report: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sample system metrics"})
	}
	return c.JSON(http.StatusOK, report)
}

// Events returns recent diagnostic events.
// GET /events?limit=
func (h *Handler) Events(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := parseLimit(raw); err == nil {
			limit = parsed
		}
	}

	events, err := h.sup.Events(c.Request().Context(), limit)
	if err != nil {
		log.Printf("ERROR: failed to list events: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list events"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}
