// Package domain defines the core domain models for the supervisor.
package domain

// AgentStatus represents the liveness status of an agent.
type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
	AgentStatusError    AgentStatus = "error"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusOffloaded TaskStatus = "offloaded"
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusExpired   TaskStatus = "expired"
)

// TaskPriority is an ordinal task priority. Informational only — queue
// order stays FIFO regardless of priority.
type TaskPriority int

const (
	PriorityLow      TaskPriority = 1
	PriorityMedium   TaskPriority = 2
	PriorityHigh     TaskPriority = 3
	PriorityCritical TaskPriority = 4
)

// EventType represents the type of a diagnostic event.
type EventType string

const (
	EventTypeAgentRegistered EventType = "agent_registered"
	EventTypeAgentInactive   EventType = "agent_inactive"
	EventTypeAgentError      EventType = "agent_error"
	EventTypeLeaderElected   EventType = "leader_elected"
	EventTypeTaskDispatched  EventType = "task_dispatched"
	EventTypeTaskOffloaded   EventType = "task_offloaded"
	EventTypeTaskQueued      EventType = "task_queued"
	EventTypeTaskExpired     EventType = "task_expired"
	EventTypeDispatchFailed  EventType = "dispatch_failed"
)
