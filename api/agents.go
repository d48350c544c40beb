package api

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homefleet/supervisor/domain"
)

// Register registers a new agent or overwrites an existing record.
// POST /register
func (h *Handler) Register(c echo.Context) error {
	var req domain.Registration
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.ID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id is required"})
	}
	if req.Location == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "location is required"})
	}
	if req.Endpoint == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "endpoint is required"})
	}

	agent := h.sup.Register(c.Request().Context(), req)
	log.Printf("Registered agent: %s at %s", agent.ID, agent.Location)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "registered",
		"agent_id": agent.ID,
	})
}

// Heartbeat records a liveness report. Unknown agents are accepted as a
// no-op so an agent that lags registration never sees an error.
// POST /heartbeat
func (h *Handler) Heartbeat(c echo.Context) error {
	var hb domain.Heartbeat
	if err := c.Bind(&hb); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if hb.AgentID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "agent_id is required"})
	}

	known := h.sup.Heartbeat(hb)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"known":  known,
	})
}

// ListAgents lists all registered agents.
// GET /agents
func (h *Handler) ListAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents": h.sup.Agents(),
	})
}

// GetAgent gets a specific agent by ID.
// GET /agents/:agent_id
func (h *Handler) GetAgent(c echo.Context) error {
	agentID := c.Param("agent_id")

	agent, ok := h.sup.GetAgent(agentID)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "agent not found"})
	}
	return c.JSON(http.StatusOK, agent)
}
