package domain

import "time"

// Agent represents a registered location agent.
type Agent struct {
	ID           string      `json:"id"`
	Location     string      `json:"location"`
	Endpoint     string      `json:"endpoint"`
	Status       AgentStatus `json:"status"`
	Load         float64     `json:"load"`
	LastSeen     time.Time   `json:"last_seen"`
	Capabilities []string    `json:"capabilities,omitempty"`
	RegisteredAt time.Time   `json:"registered_at"`
}

// Live reports whether the agent has heartbeated within the given window.
func (a *Agent) Live(now time.Time, window time.Duration) bool {
	return now.Sub(a.LastSeen) < window
}

// Registration is the payload an agent sends to join the fleet.
type Registration struct {
	ID           string   `json:"id"`
	Location     string   `json:"location"`
	Endpoint     string   `json:"endpoint"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Heartbeat is the periodic liveness report from an agent. Load and
// status are the agent's own estimate and overwrite the registry entry.
type Heartbeat struct {
	AgentID   string      `json:"agent_id"`
	Status    AgentStatus `json:"status,omitempty"`
	Load      float64     `json:"load"`
	Timestamp float64     `json:"timestamp,omitempty"`
}
