package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/homefleet/supervisor/domain"
)

// Elector deterministically picks a coordinating agent: the
// lexicographically smallest id among agents heartbeated within the
// liveness window. The leader value is cached and reflects the last
// successful election, not live status — it can go stale between
// elections by design.
type Elector struct {
	registry *Registry
	window   time.Duration
	onEvent  EventSink

	mu     sync.Mutex
	leader string
}

// NewElector creates a leader elector over the given registry.
func NewElector(reg *Registry, window time.Duration, onEvent EventSink) *Elector {
	return &Elector{
		registry: reg,
		window:   window,
		onEvent:  onEvent,
	}
}

// Elect recomputes the leader from a registry snapshot. Returns
// domain.ErrNoQuorum when zero agents are live; the cached leader is
// left untouched in that case so Leader() still reports the last winner.
func (e *Elector) Elect() (string, error) {
	snapshot := e.registry.Snapshot()
	now := e.registry.Now()

	leader := ""
	for _, agent := range snapshot {
		if !agent.Live(now, e.window) {
			continue
		}
		if leader == "" || agent.ID < leader {
			leader = agent.ID
		}
	}
	if leader == "" {
		return "", domain.ErrNoQuorum
	}

	e.mu.Lock()
	changed := leader != e.leader
	e.leader = leader
	e.mu.Unlock()

	if changed {
		slog.Info("leader elected", "leader", leader)
		if e.onEvent != nil {
			e.onEvent(domain.Event{
				Type:    domain.EventTypeLeaderElected,
				AgentID: leader,
			})
		}
	}
	return leader, nil
}

// Leader returns the cached leader from the last successful election.
// Empty until the first election succeeds.
func (e *Elector) Leader() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leader
}

// Observe lets registration nudge the cached leader without a full
// election: a newly registered agent with a smaller id takes over, as
// does the first registration when no leader is set.
func (e *Elector) Observe(agentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.leader == "" || agentID < e.leader {
		e.leader = agentID
	}
}

// Run refreshes the election on a fixed cadence until the context is
// cancelled. A NoQuorum result is logged and retried next tick.
func (e *Elector) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.Elect(); err != nil {
				slog.Debug("election skipped", "error", err)
			}
		}
	}
}
