// Package registry tracks the agent fleet: identities, capabilities,
// load estimates and liveness, plus the background processes that keep
// them honest (heartbeat monitor, leader elector).
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/homefleet/supervisor/domain"
)

// Registry is the in-memory agent registry. All access goes through the
// mutex; Snapshot hands out copies so allocation reads never race with
// concurrent registrations or heartbeats. Agents are never removed, only
// marked inactive — the registry holds them for the life of the process.
type Registry struct {
	mu     sync.Mutex
	agents map[string]*domain.Agent

	now func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		agents: make(map[string]*domain.Agent),
		now:    time.Now,
	}
}

// SetNowFunc overrides the clock. Tests only.
func (r *Registry) SetNowFunc(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Register inserts or overwrites an agent record. A fresh registration
// always starts active with zero load and a current last-seen stamp.
func (r *Registry) Register(reg domain.Registration) domain.Agent {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	agent := &domain.Agent{
		ID:           reg.ID,
		Location:     reg.Location,
		Endpoint:     reg.Endpoint,
		Status:       domain.AgentStatusActive,
		Load:         0.0,
		LastSeen:     now,
		Capabilities: append([]string(nil), reg.Capabilities...),
		RegisteredAt: now,
	}
	if prev, ok := r.agents[reg.ID]; ok {
		agent.RegisteredAt = prev.RegisteredAt
	}
	r.agents[reg.ID] = agent
	return *agent
}

// Heartbeat refreshes an agent's last-seen stamp and takes the agent's
// own load/status estimate. A heartbeat from an inactive or errored
// agent reactivates it immediately; only the monitor demotes. Unknown
// ids are a no-op returning false — an agent that lags registration must
// not crash the monitor path.
func (r *Registry) Heartbeat(hb domain.Heartbeat) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[hb.AgentID]
	if !ok {
		return false
	}
	agent.LastSeen = r.now()
	agent.Load = clampLoad(hb.Load)
	agent.Status = domain.AgentStatusActive
	return true
}

// AdjustLoad shifts an agent's load by delta, clamped to [0,1]. Unknown
// ids are a no-op.
func (r *Registry) AdjustLoad(id string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[id]
	if !ok {
		return
	}
	agent.Load = clampLoad(agent.Load + delta)
}

// SetStatus sets an agent's status. Unknown ids are a no-op returning
// false.
func (r *Registry) SetStatus(id string, status domain.AgentStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[id]
	if !ok {
		return false
	}
	agent.Status = status
	return true
}

// Get returns a copy of the agent record, if present.
func (r *Registry) Get(id string) (domain.Agent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[id]
	if !ok {
		return domain.Agent{}, false
	}
	return *agent, true
}

// Snapshot returns a copy of all current agents, sorted by id for
// deterministic iteration.
func (r *Registry) Snapshot() []domain.Agent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		a := *agent
		a.Capabilities = append([]string(nil), agent.Capabilities...)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveCount returns the number of agents with status active.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, agent := range r.agents {
		if agent.Status == domain.AgentStatusActive {
			n++
		}
	}
	return n
}

// Now returns the registry's current time. The elector shares the
// registry clock so liveness judgments stay consistent under test.
func (r *Registry) Now() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now()
}

// sweep applies one monitor pass: demote agents whose last heartbeat is
// older than timeout, and decay every agent's load toward zero by step.
// Returns the ids demoted on this pass.
func (r *Registry) sweep(timeout time.Duration, step float64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var demoted []string
	for id, agent := range r.agents {
		if agent.Status == domain.AgentStatusActive && now.Sub(agent.LastSeen) > timeout {
			agent.Status = domain.AgentStatusInactive
			demoted = append(demoted, id)
		}
		agent.Load = clampLoad(agent.Load - step)
	}
	sort.Strings(demoted)
	return demoted
}

func clampLoad(load float64) float64 {
	if load < 0 {
		return 0
	}
	if load > 1 {
		return 1
	}
	return load
}
