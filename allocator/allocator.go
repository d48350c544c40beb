// Package allocator implements the task allocation policy: filter to
// agents with capacity, prefer the task's location, pick least loaded.
package allocator

import "github.com/homefleet/supervisor/domain"

// DefaultResourceThreshold is the load above which an agent is not
// considered for new work.
const DefaultResourceThreshold = 0.7

// Allocator picks a target agent for a task from a registry snapshot.
type Allocator struct {
	threshold float64
}

// New creates an allocator with the given resource threshold. A
// threshold <= 0 falls back to the default.
func New(threshold float64) *Allocator {
	if threshold <= 0 {
		threshold = DefaultResourceThreshold
	}
	return &Allocator{threshold: threshold}
}

// Allocate returns the id of the chosen agent, or domain.ErrNoCapacity
// when no active agent is under the threshold.
//
// Two-tier policy: among active agents with load < threshold, narrow to
// the task's location when one is set; if the narrowed set is non-empty
// pick its least-loaded member, otherwise fall through to the
// least-loaded member of the full filtered set. Ties break toward the
// smallest id so allocation is deterministic.
func (al *Allocator) Allocate(task domain.Task, agents []domain.Agent) (string, error) {
	available := make([]domain.Agent, 0, len(agents))
	for _, agent := range agents {
		if agent.Status != domain.AgentStatusActive {
			continue
		}
		if agent.Load >= al.threshold {
			continue
		}
		available = append(available, agent)
	}
	if len(available) == 0 {
		return "", domain.ErrNoCapacity
	}

	if task.Location != "" {
		var local []domain.Agent
		for _, agent := range available {
			if agent.Location == task.Location {
				local = append(local, agent)
			}
		}
		if len(local) > 0 {
			return leastLoaded(local), nil
		}
	}

	return leastLoaded(available), nil
}

func leastLoaded(agents []domain.Agent) string {
	best := agents[0]
	for _, agent := range agents[1:] {
		if agent.Load < best.Load || (agent.Load == best.Load && agent.ID < best.ID) {
			best = agent
		}
	}
	return best.ID
}
