package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/homefleet/supervisor/domain"
)

// CloudExecutor is the external execution path used when offload is
// chosen over queueing.
type CloudExecutor interface {
	Execute(ctx context.Context, task domain.Task) (*domain.TaskResult, error)
}

// SimulatedCloud stands in for a real cloud backend. It answers after a
// fixed artificial latency.
type SimulatedCloud struct {
	Latency time.Duration
}

// NewSimulatedCloud creates a simulated cloud executor.
func NewSimulatedCloud() *SimulatedCloud {
	return &SimulatedCloud{Latency: 500 * time.Millisecond}
}

// Execute simulates remote processing, honoring context cancellation.
func (s *SimulatedCloud) Execute(ctx context.Context, task domain.Task) (*domain.TaskResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.Latency):
	}

	return &domain.TaskResult{
		TaskID:   task.ID,
		Source:   "cloud",
		Response: fmt.Sprintf("Cloud processing complete for: %s", task.Query),
	}, nil
}
