package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/homefleet/supervisor/domain"
)

func TestRegisterStampsDefaults(t *testing.T) {
	r := New()
	agent := r.Register(domain.Registration{
		ID:       "office-1",
		Location: "office",
		Endpoint: "http://office:8081",
	})

	assert.Equal(t, domain.AgentStatusActive, agent.Status)
	assert.Equal(t, 0.0, agent.Load)
	assert.False(t, agent.LastSeen.IsZero())
}

func TestRegisterOverwritesButKeepsRegisteredAt(t *testing.T) {
	r := New()
	first := r.Register(domain.Registration{ID: "a", Location: "office", Endpoint: "http://old"})
	second := r.Register(domain.Registration{ID: "a", Location: "kitchen", Endpoint: "http://new"})

	assert.Equal(t, "http://new", second.Endpoint)
	assert.Equal(t, "kitchen", second.Location)
	assert.Equal(t, first.RegisteredAt, second.RegisteredAt)

	snapshot := r.Snapshot()
	assert.Len(t, snapshot, 1, "re-registration must not duplicate the id")
}

func TestHeartbeatUnknownAgentIsNoop(t *testing.T) {
	r := New()
	ok := r.Heartbeat(domain.Heartbeat{AgentID: "ghost", Load: 0.5})
	assert.False(t, ok)
	assert.Empty(t, r.Snapshot())
}

func TestHeartbeatReactivatesImmediately(t *testing.T) {
	r := New()
	r.Register(domain.Registration{ID: "a", Location: "office", Endpoint: "http://a"})
	r.SetStatus("a", domain.AgentStatusInactive)

	ok := r.Heartbeat(domain.Heartbeat{AgentID: "a", Load: 0.3})
	assert.True(t, ok)

	agent, _ := r.Get("a")
	assert.Equal(t, domain.AgentStatusActive, agent.Status)
	assert.Equal(t, 0.3, agent.Load)
}

func TestHeartbeatClampsReportedLoad(t *testing.T) {
	r := New()
	r.Register(domain.Registration{ID: "a", Location: "office", Endpoint: "http://a"})

	r.Heartbeat(domain.Heartbeat{AgentID: "a", Load: 7.5})
	agent, _ := r.Get("a")
	assert.Equal(t, 1.0, agent.Load)

	r.Heartbeat(domain.Heartbeat{AgentID: "a", Load: -3})
	agent, _ = r.Get("a")
	assert.Equal(t, 0.0, agent.Load)
}

func TestAdjustLoadClamps(t *testing.T) {
	r := New()
	r.Register(domain.Registration{ID: "a", Location: "office", Endpoint: "http://a"})

	for i := 0; i < 50; i++ {
		r.AdjustLoad("a", 0.3)
	}
	agent, _ := r.Get("a")
	assert.Equal(t, 1.0, agent.Load)

	for i := 0; i < 50; i++ {
		r.AdjustLoad("a", -0.9)
	}
	agent, _ = r.Get("a")
	assert.Equal(t, 0.0, agent.Load)

	// Unknown id must not panic or create a record.
	r.AdjustLoad("ghost", 0.5)
	assert.Len(t, r.Snapshot(), 1)
}

func TestSnapshotIsIsolated(t *testing.T) {
	r := New()
	r.Register(domain.Registration{ID: "a", Location: "office", Endpoint: "http://a", Capabilities: []string{"chat"}})

	snapshot := r.Snapshot()
	snapshot[0].Load = 0.9
	snapshot[0].Capabilities[0] = "mutated"

	agent, _ := r.Get("a")
	assert.Equal(t, 0.0, agent.Load)
	assert.Equal(t, "chat", agent.Capabilities[0])
}

func TestSnapshotSortedByID(t *testing.T) {
	r := New()
	for _, id := range []string{"c", "a", "b"} {
		r.Register(domain.Registration{ID: id, Location: "office", Endpoint: "http://" + id})
	}

	snapshot := r.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, []string{snapshot[0].ID, snapshot[1].ID, snapshot[2].ID})
}

func TestActiveCount(t *testing.T) {
	r := New()
	r.Register(domain.Registration{ID: "a", Location: "office", Endpoint: "http://a"})
	r.Register(domain.Registration{ID: "b", Location: "kitchen", Endpoint: "http://b"})
	r.SetStatus("b", domain.AgentStatusInactive)

	assert.Equal(t, 1, r.ActiveCount())
}

func TestSweepUsesInjectedClock(t *testing.T) {
	r := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	r.SetNowFunc(func() time.Time { return now })

	r.Register(domain.Registration{ID: "a", Location: "office", Endpoint: "http://a"})

	now = base.Add(31 * time.Second)
	demoted := r.sweep(30*time.Second, 0.01)
	assert.Equal(t, []string{"a"}, demoted)

	agent, _ := r.Get("a")
	assert.Equal(t, domain.AgentStatusInactive, agent.Status)
}
