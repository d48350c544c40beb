package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/homefleet/supervisor/domain"
)

// AttemptFunc tries to allocate and dispatch a queued task. Returning
// domain.ErrNoCapacity means nothing changed since the last try; any
// other error is a dispatch failure for a task that was allocatable.
type AttemptFunc func(ctx context.Context, task domain.Task) error

// Reconciler drains the queue head-by-head on a fixed tick. A tick
// never processes more tasks than were queued when it started, and
// stops at the first no-capacity result — every queued task then gets
// identical treatment next cycle, and the reconciler cannot starve the
// monitor or election loops under a large backlog.
type Reconciler struct {
	queue    *Queue
	interval time.Duration
	horizon  time.Duration
	attempt  AttemptFunc
	onEvent  func(evt domain.Event)

	now func() time.Time
}

// NewReconciler creates a reconciler over the given queue.
func NewReconciler(q *Queue, interval, horizon time.Duration, attempt AttemptFunc, onEvent func(evt domain.Event)) *Reconciler {
	return &Reconciler{
		queue:    q,
		interval: interval,
		horizon:  horizon,
		attempt:  attempt,
		onEvent:  onEvent,
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock. Tests only.
func (r *Reconciler) SetNowFunc(now func() time.Time) {
	r.now = now
}

// Run ticks until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick processes at most one pass over the tasks queued at tick start.
// Expired tasks are dropped with a single diagnostic event. The first
// no-capacity result re-queues the task to the tail and ends the tick.
func (r *Reconciler) Tick(ctx context.Context) {
	budget := r.queue.Len()

	for i := 0; i < budget; i++ {
		task, ok := r.queue.Pop()
		if !ok {
			return
		}

		if task.Expired(r.now(), r.horizon) {
			slog.Warn("queued task expired", "task", task.ID, "age", r.now().Sub(task.CreatedAt))
			if r.onEvent != nil {
				r.onEvent(domain.Event{
					Type:   domain.EventTypeTaskExpired,
					TaskID: task.ID,
					Detail: "exceeded queue expiry horizon",
				})
			}
			continue
		}

		err := r.attempt(ctx, task)
		if err == nil {
			slog.Info("queued task dispatched", "task", task.ID)
			continue
		}
		if errors.Is(err, domain.ErrNoCapacity) {
			// Back of the line; stop until next tick.
			r.queue.Push(task)
			return
		}

		// Allocated but dispatch failed; the failing agent is already
		// demoted. Retry from the tail.
		slog.Warn("queued task dispatch failed", "task", task.ID, "error", err)
		r.queue.Push(task)
	}
}
