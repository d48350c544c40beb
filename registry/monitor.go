package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/homefleet/supervisor/domain"
)

// EventSink receives diagnostic events from the background services.
type EventSink func(evt domain.Event)

// Monitor is the heartbeat monitor. On a fixed tick it demotes agents
// whose heartbeat is stale and decays every agent's load estimate, so
// stale load self-corrects without explicit completion signals. This is
// the only path that marks an agent inactive.
type Monitor struct {
	registry *Registry
	interval time.Duration
	timeout  time.Duration
	decay    float64
	onEvent  EventSink
}

// NewMonitor creates a heartbeat monitor over the given registry.
func NewMonitor(reg *Registry, interval, timeout time.Duration, decay float64, onEvent EventSink) *Monitor {
	return &Monitor{
		registry: reg,
		interval: interval,
		timeout:  timeout,
		decay:    decay,
		onEvent:  onEvent,
	}
}

// Run ticks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick runs a single sweep. Exposed so tests can drive virtual time.
func (m *Monitor) Tick() {
	demoted := m.registry.sweep(m.timeout, m.decay)
	for _, id := range demoted {
		slog.Warn("agent marked inactive", "agent", id, "timeout", m.timeout)
		if m.onEvent != nil {
			m.onEvent(domain.Event{
				Type:    domain.EventTypeAgentInactive,
				AgentID: id,
				Detail:  "heartbeat timeout",
			})
		}
	}
}
