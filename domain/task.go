package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work routed to an agent or the offload path.
// Query is an opaque payload; the supervisor never interprets it.
type Task struct {
	ID         string        `json:"id"`
	Query      string        `json:"query"`
	Location   string        `json:"location,omitempty"`
	Priority   TaskPriority  `json:"priority"`
	MaxLatency time.Duration `json:"max_latency"`
	CreatedAt  time.Time     `json:"created_at"`
}

// DefaultMaxLatency bounds a dispatch attempt when the submitter did not
// specify a budget.
const DefaultMaxLatency = 5 * time.Second

// NewTask builds a task from a submission, stamping id and created_at.
// The id embeds the submission time in unix milliseconds so ids sort
// roughly by arrival; the uuid suffix keeps them unique under bursts.
func NewTask(query, location string, priority TaskPriority, maxLatency time.Duration, now time.Time) Task {
	if priority == 0 {
		priority = PriorityMedium
	}
	if maxLatency <= 0 {
		maxLatency = DefaultMaxLatency
	}
	return Task{
		ID:         fmt.Sprintf("task_%d_%s", now.UnixMilli(), uuid.New().String()[:8]),
		Query:      query,
		Location:   location,
		Priority:   priority,
		MaxLatency: maxLatency,
		CreatedAt:  now,
	}
}

// Expired reports whether the task has been waiting longer than horizon.
func (t *Task) Expired(now time.Time, horizon time.Duration) bool {
	return now.Sub(t.CreatedAt) > horizon
}

// TaskResult is the opaque outcome relayed to the submitter.
type TaskResult struct {
	TaskID   string `json:"task_id"`
	AgentID  string `json:"agent,omitempty"`
	Source   string `json:"source"`
	Response string `json:"response,omitempty"`
}
