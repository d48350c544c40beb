// Package store defines the diagnostic history interface and its
// SQLite implementation. The default DSN keeps the database in process
// memory; nothing outlives the supervisor.
package store

import (
	"context"

	"github.com/homefleet/supervisor/domain"
)

// Store records supervisor decisions for the /events and /status
// surfaces. Writes are best-effort: callers log failures and move on,
// the control path never blocks on history.
type Store interface {
	// Event operations
	RecordEvent(ctx context.Context, event *domain.Event) error
	ListEvents(ctx context.Context, limit int) ([]domain.Event, error)
	CountEvents(ctx context.Context, evtType domain.EventType) (int, error)

	// Task history operations
	RecordTask(ctx context.Context, task *domain.Task, status domain.TaskStatus, agentID string) error
	UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus, agentID string) error
	GetTask(ctx context.Context, taskID string) (*TaskRecord, error)

	// Lifecycle
	Close() error
}

// TaskRecord is a task's row in the history log.
type TaskRecord struct {
	TaskID    string              `json:"task_id"`
	Query     string              `json:"query"`
	Location  string              `json:"location,omitempty"`
	Priority  domain.TaskPriority `json:"priority"`
	Status    domain.TaskStatus   `json:"status"`
	AgentID   string              `json:"agent_id,omitempty"`
	CreatedAt string              `json:"created_at"`
}
