package domain

import "time"

// Event is a diagnostic record of a supervisor decision or state change.
type Event struct {
	EventID string    `json:"event_id"`
	Ts      time.Time `json:"ts"`
	Type    EventType `json:"type"`
	AgentID string    `json:"agent_id,omitempty"`
	TaskID  string    `json:"task_id,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}
