package allocator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/homefleet/supervisor/domain"
)

func agent(id, location string, status domain.AgentStatus, load float64) domain.Agent {
	return domain.Agent{ID: id, Location: location, Status: status, Load: load}
}

func TestAllocatePrefersTaskLocation(t *testing.T) {
	al := New(0.7)
	agents := []domain.Agent{
		agent("office-1", "office", domain.AgentStatusActive, 0.1),
		agent("kitchen-1", "kitchen", domain.AgentStatusActive, 0.5),
		agent("kitchen-2", "kitchen", domain.AgentStatusActive, 0.3),
	}

	task := domain.Task{ID: "t1", Location: "kitchen"}
	id, err := al.Allocate(task, agents)
	assert.NoError(t, err)
	assert.Equal(t, "kitchen-2", id, "least-loaded kitchen agent wins even though office is idler")
}

func TestAllocateFallsThroughWhenLocationBusy(t *testing.T) {
	// The only kitchen agent is above threshold; selection falls through
	// to the general pool.
	al := New(0.7)
	agents := []domain.Agent{
		agent("kitchen-1", "kitchen", domain.AgentStatusActive, 0.9),
		agent("office-1", "office", domain.AgentStatusActive, 0.2),
	}

	task := domain.Task{ID: "t1", Location: "kitchen"}
	id, err := al.Allocate(task, agents)
	assert.NoError(t, err)
	assert.Equal(t, "office-1", id)
}

func TestAllocateNoLocationPicksLeastLoaded(t *testing.T) {
	al := New(0.7)
	agents := []domain.Agent{
		agent("hallway-1", "hallway", domain.AgentStatusActive, 0.4),
		agent("office-1", "office", domain.AgentStatusActive, 0.2),
	}

	id, err := al.Allocate(domain.Task{ID: "t1"}, agents)
	assert.NoError(t, err)
	assert.Equal(t, "office-1", id)
}

func TestAllocateTieBreaksOnSmallestID(t *testing.T) {
	al := New(0.7)
	agents := []domain.Agent{
		agent("b", "office", domain.AgentStatusActive, 0.2),
		agent("a", "office", domain.AgentStatusActive, 0.2),
		agent("c", "office", domain.AgentStatusActive, 0.2),
	}

	id, err := al.Allocate(domain.Task{ID: "t1"}, agents)
	assert.NoError(t, err)
	assert.Equal(t, "a", id)
}

func TestAllocateSkipsInactiveAndErrored(t *testing.T) {
	al := New(0.7)
	agents := []domain.Agent{
		agent("a", "office", domain.AgentStatusInactive, 0.0),
		agent("b", "office", domain.AgentStatusError, 0.0),
		agent("c", "office", domain.AgentStatusActive, 0.5),
	}

	id, err := al.Allocate(domain.Task{ID: "t1"}, agents)
	assert.NoError(t, err)
	assert.Equal(t, "c", id)
}

func TestAllocateNoCapacity(t *testing.T) {
	al := New(0.7)

	cases := map[string][]domain.Agent{
		"empty registry": nil,
		"all inactive": {
			agent("a", "office", domain.AgentStatusInactive, 0.0),
		},
		"all above threshold": {
			agent("a", "office", domain.AgentStatusActive, 0.7),
			agent("b", "kitchen", domain.AgentStatusActive, 0.95),
		},
	}

	for name, agents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := al.Allocate(domain.Task{ID: "t1"}, agents)
			if !errors.Is(err, domain.ErrNoCapacity) {
				t.Fatalf("expected ErrNoCapacity, got %v", err)
			}
		})
	}
}

func TestAllocateThresholdIsExclusive(t *testing.T) {
	al := New(0.7)
	agents := []domain.Agent{
		agent("a", "office", domain.AgentStatusActive, 0.7),
	}
	_, err := al.Allocate(domain.Task{ID: "t1"}, agents)
	assert.ErrorIs(t, err, domain.ErrNoCapacity, "load exactly at threshold is not eligible")

	agents[0].Load = 0.699
	id, err := al.Allocate(domain.Task{ID: "t1"}, agents)
	assert.NoError(t, err)
	assert.Equal(t, "a", id)
}
