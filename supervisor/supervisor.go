// Package supervisor wires the registry, allocator, offload policy,
// queue and dispatch client into the task-routing engine, and runs the
// background loops that keep the fleet state honest.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/homefleet/supervisor/allocator"
	"github.com/homefleet/supervisor/dispatch"
	"github.com/homefleet/supervisor/domain"
	"github.com/homefleet/supervisor/metrics"
	"github.com/homefleet/supervisor/offload"
	"github.com/homefleet/supervisor/queue"
	"github.com/homefleet/supervisor/registry"
	"github.com/homefleet/supervisor/store"
)

// loadBump is added to an agent's load when a task is dispatched to it,
// and rolled back if the dispatch fails.
const loadBump = 0.1

// Dispatcher hands a task to an agent endpoint. Satisfied by
// *dispatch.Client; tests substitute stubs.
type Dispatcher interface {
	Execute(ctx context.Context, endpoint string, task domain.Task) (*dispatch.ExecuteResponse, error)
}

// Options collects the supervisor's construction parameters.
type Options struct {
	Registry      *registry.Registry
	Allocator     *allocator.Allocator
	Offload       *offload.Engine
	Sampler       offload.Sampler
	Queue         *queue.Queue
	Dispatcher    Dispatcher
	Cloud         dispatch.CloudExecutor
	Store         store.Store
	Metrics       *metrics.Metrics
	MonitorEvery  time.Duration
	HeartbeatTTL  time.Duration
	LoadDecayStep float64
	LivenessWin   time.Duration
	ElectEvery    time.Duration
	ReconcileEvry time.Duration
	ExpiryHorizon time.Duration
	SampleEvery   time.Duration
}

// Supervisor coordinates task allocation across the agent fleet.
type Supervisor struct {
	registry   *registry.Registry
	alloc      *allocator.Allocator
	offload    *offload.Engine
	sampler    offload.Sampler
	queue      *queue.Queue
	dispatcher Dispatcher
	cloud      dispatch.CloudExecutor
	store      store.Store
	metrics    *metrics.Metrics

	monitor    *registry.Monitor
	elector    *registry.Elector
	reconciler *queue.Reconciler

	electEvery  time.Duration
	sampleEvery time.Duration

	mu        sync.Mutex
	startedAt time.Time
}

// New assembles a supervisor from its parts.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		registry:    opts.Registry,
		alloc:       opts.Allocator,
		offload:     opts.Offload,
		sampler:     opts.Sampler,
		queue:       opts.Queue,
		dispatcher:  opts.Dispatcher,
		cloud:       opts.Cloud,
		store:       opts.Store,
		metrics:     opts.Metrics,
		electEvery:  opts.ElectEvery,
		sampleEvery: opts.SampleEvery,
		startedAt:   time.Now(),
	}

	s.monitor = registry.NewMonitor(opts.Registry, opts.MonitorEvery, opts.HeartbeatTTL, opts.LoadDecayStep, s.recordEvent)
	s.elector = registry.NewElector(opts.Registry, opts.LivenessWin, s.recordEvent)
	s.reconciler = queue.NewReconciler(opts.Queue, opts.ReconcileEvry, opts.ExpiryHorizon, s.retryTask, s.recordEvent)
	return s
}

// Monitor exposes the heartbeat monitor (tests drive ticks directly).
func (s *Supervisor) Monitor() *registry.Monitor { return s.monitor }

// Elector exposes the leader elector.
func (s *Supervisor) Elector() *registry.Elector { return s.elector }

// Reconciler exposes the queue reconciler (tests drive ticks directly).
func (s *Supervisor) Reconciler() *queue.Reconciler { return s.reconciler }

// Run starts the periodic activities — heartbeat sweep, election
// refresh, queue reconciliation, gauge sampling — and blocks until the
// context is cancelled. In-flight dispatches finish or time out on
// their own budgets; nothing is torn down mid-write.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.monitor.Run(ctx) })
	g.Go(func() error { return s.elector.Run(ctx, s.electEvery) })
	g.Go(func() error { return s.reconciler.Run(ctx) })
	g.Go(func() error { return s.sampleLoop(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// sampleLoop refreshes the fleet gauges on a fixed cadence.
func (s *Supervisor) sampleLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.sampleEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.updateGauges()
		}
	}
}

func (s *Supervisor) updateGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.QueueDepth.Set(float64(s.queue.Len()))
	s.metrics.ActiveAgents.Set(float64(s.registry.ActiveCount()))
}

// Register adds an agent to the fleet and lets it contend for the
// cached leadership immediately.
func (s *Supervisor) Register(ctx context.Context, reg domain.Registration) domain.Agent {
	agent := s.registry.Register(reg)
	s.elector.Observe(agent.ID)
	s.recordEvent(domain.Event{
		Type:    domain.EventTypeAgentRegistered,
		AgentID: agent.ID,
		Detail:  fmt.Sprintf("location=%s", agent.Location),
	})
	s.updateGauges()
	return agent
}

// Heartbeat forwards a liveness report to the registry. Unknown agents
// are a no-op, not an error.
func (s *Supervisor) Heartbeat(hb domain.Heartbeat) bool {
	return s.registry.Heartbeat(hb)
}

// Agents returns a snapshot of the fleet.
func (s *Supervisor) Agents() []domain.Agent {
	return s.registry.Snapshot()
}

// GetAgent returns one agent record.
func (s *Supervisor) GetAgent(id string) (domain.Agent, bool) {
	return s.registry.Get(id)
}

// SubmitOutcome describes what happened to a submitted task.
type SubmitOutcome struct {
	Status domain.TaskStatus
	TaskID string
	Result *domain.TaskResult
	Err    error
}

// Submit routes a task: immediate dispatch when an agent has capacity,
// otherwise offload or queue. The immediate path is synchronous — the
// caller gets the execution result. Queued tasks complete asynchronously
// and surface through /events and the task history only.
func (s *Supervisor) Submit(ctx context.Context, task domain.Task) SubmitOutcome {
	s.recordTask(ctx, task, domain.TaskStatusQueued, "")

	result, err := s.tryDispatch(ctx, task)
	if err == nil {
		s.recordTaskStatus(ctx, task.ID, domain.TaskStatusCompleted, result.AgentID)
		return SubmitOutcome{Status: domain.TaskStatusCompleted, TaskID: task.ID, Result: result}
	}

	if errors.Is(err, domain.ErrNoCapacity) {
		return s.routeUnallocatable(ctx, task)
	}

	// Allocated but the dispatch failed. The agent is already demoted;
	// the task re-enters allocation through the queue while the caller
	// gets the failure signal.
	s.enqueue(task)
	return SubmitOutcome{Status: domain.TaskStatusFailed, TaskID: task.ID, Err: err}
}

// routeUnallocatable handles the no-capacity path: offload when global
// pressure says local capacity will not recover soon, queue otherwise.
func (s *Supervisor) routeUnallocatable(ctx context.Context, task domain.Task) SubmitOutcome {
	cpuPct, memPct, err := s.sampler.Sample(ctx)
	if err != nil {
		slog.Warn("metrics sample failed, queueing task", "task", task.ID, "error", err)
		s.enqueue(task)
		return SubmitOutcome{Status: domain.TaskStatusQueued, TaskID: task.ID}
	}

	shouldOffload, err := s.offload.ShouldOffload(ctx, cpuPct, memPct, s.registry.ActiveCount())
	if err != nil {
		slog.Warn("offload policy evaluation failed, queueing task", "task", task.ID, "error", err)
		s.enqueue(task)
		return SubmitOutcome{Status: domain.TaskStatusQueued, TaskID: task.ID}
	}

	if shouldOffload {
		result, err := s.cloud.Execute(ctx, task)
		if err != nil {
			slog.Warn("cloud execution failed, queueing task", "task", task.ID, "error", err)
			s.enqueue(task)
			return SubmitOutcome{Status: domain.TaskStatusQueued, TaskID: task.ID}
		}
		if s.metrics != nil {
			s.metrics.TasksOffloaded.Inc()
		}
		s.recordEvent(domain.Event{Type: domain.EventTypeTaskOffloaded, TaskID: task.ID})
		s.recordTaskStatus(ctx, task.ID, domain.TaskStatusOffloaded, "cloud")
		return SubmitOutcome{Status: domain.TaskStatusOffloaded, TaskID: task.ID, Result: result}
	}

	s.enqueue(task)
	return SubmitOutcome{Status: domain.TaskStatusQueued, TaskID: task.ID}
}

func (s *Supervisor) enqueue(task domain.Task) {
	s.queue.Push(task)
	if s.metrics != nil {
		s.metrics.TasksQueued.Inc()
	}
	s.recordEvent(domain.Event{Type: domain.EventTypeTaskQueued, TaskID: task.ID})
	s.updateGauges()
}

// tryDispatch allocates against a fresh registry snapshot and hands the
// task to the chosen agent. The agent's load is bumped before the call
// and rolled back on failure, so an abandoned dispatch never leaves
// load permanently incremented.
func (s *Supervisor) tryDispatch(ctx context.Context, task domain.Task) (*domain.TaskResult, error) {
	snapshot := s.registry.Snapshot()
	agentID, err := s.alloc.Allocate(task, snapshot)
	if err != nil {
		return nil, err
	}

	agent, ok := s.registry.Get(agentID)
	if !ok {
		return nil, domain.ErrUnknownAgent
	}

	s.registry.AdjustLoad(agentID, loadBump)

	started := time.Now()
	resp, err := s.dispatcher.Execute(ctx, agent.Endpoint, task)
	if s.metrics != nil {
		s.metrics.DispatchDuration.Observe(time.Since(started).Seconds())
	}
	if err != nil {
		s.registry.AdjustLoad(agentID, -loadBump)
		s.registry.SetStatus(agentID, domain.AgentStatusError)

		reason := "transport"
		var timeoutErr *dispatch.TimeoutError
		if errors.As(err, &timeoutErr) {
			reason = "timeout"
		}
		if s.metrics != nil {
			s.metrics.DispatchFailures.WithLabelValues(reason).Inc()
		}
		slog.Error("dispatch failed", "task", task.ID, "agent", agentID, "reason", reason, "error", err)
		s.recordEvent(domain.Event{
			Type:    domain.EventTypeDispatchFailed,
			AgentID: agentID,
			TaskID:  task.ID,
			Detail:  reason,
		})
		s.recordEvent(domain.Event{
			Type:    domain.EventTypeAgentError,
			AgentID: agentID,
			Detail:  "dispatch " + reason,
		})
		return nil, fmt.Errorf("dispatch to agent %s failed: %w", agentID, err)
	}

	if s.metrics != nil {
		s.metrics.TasksAllocated.Inc()
	}
	s.recordEvent(domain.Event{Type: domain.EventTypeTaskDispatched, AgentID: agentID, TaskID: task.ID})

	result := &domain.TaskResult{
		TaskID:   task.ID,
		AgentID:  agentID,
		Source:   "agent",
		Response: string(resp.Result),
	}
	return result, nil
}

// retryTask is the reconciler's allocation attempt for queued tasks.
func (s *Supervisor) retryTask(ctx context.Context, task domain.Task) error {
	result, err := s.tryDispatch(ctx, task)
	if err != nil {
		return err
	}
	s.recordTaskStatus(ctx, task.ID, domain.TaskStatusCompleted, result.AgentID)
	s.updateGauges()
	return nil
}

// StatusReport is the aggregate view served at /status.
type StatusReport struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	ActiveAgents  int     `json:"active_agents"`
	QueuedTasks   int     `json:"queued_tasks"`
	Leader        string  `json:"leader,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Status samples system metrics and summarizes fleet state.
func (s *Supervisor) Status(ctx context.Context) (StatusReport, error) {
	cpuPct, memPct, err := s.sampler.Sample(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("failed to sample system metrics: %w", err)
	}

	s.mu.Lock()
	uptime := time.Since(s.startedAt).Seconds()
	s.mu.Unlock()

	return StatusReport{
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
		ActiveAgents:  s.registry.ActiveCount(),
		QueuedTasks:   s.queue.Len(),
		Leader:        s.elector.Leader(),
		UptimeSeconds: uptime,
	}, nil
}

// Events returns recent diagnostic events from the history store.
func (s *Supervisor) Events(ctx context.Context, limit int) ([]domain.Event, error) {
	return s.store.ListEvents(ctx, limit)
}

// recordEvent writes a diagnostic event, best-effort. Also bumps the
// expiry counter for expired-task events so the metric stays in step
// with the reconciler.
func (s *Supervisor) recordEvent(evt domain.Event) {
	if evt.Type == domain.EventTypeTaskExpired && s.metrics != nil {
		s.metrics.TasksExpired.Inc()
	}
	if s.store == nil {
		return
	}
	if err := s.store.RecordEvent(context.Background(), &evt); err != nil {
		slog.Warn("failed to record event", "type", evt.Type, "error", err)
	}
}

func (s *Supervisor) recordTask(ctx context.Context, task domain.Task, status domain.TaskStatus, agentID string) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordTask(ctx, &task, status, agentID); err != nil {
		slog.Warn("failed to record task", "task", task.ID, "error", err)
	}
}

func (s *Supervisor) recordTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus, agentID string) {
	if s.store == nil {
		return
	}
	if err := s.store.UpdateTaskStatus(ctx, taskID, status, agentID); err != nil {
		slog.Warn("failed to update task status", "task", taskID, "error", err)
	}
}
