// Package queue buffers tasks that found no capacity and retries them
// on a cadence until they dispatch or expire.
package queue

import (
	"sync"

	"github.com/homefleet/supervisor/domain"
)

// Queue is a FIFO task buffer. Re-queued tasks go to the back, not the
// front, so a persistently unroutable task cannot block the head.
type Queue struct {
	mu    sync.Mutex
	tasks []domain.Task
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Push appends a task to the tail.
func (q *Queue) Push(task domain.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

// Pop removes and returns the head task. ok is false when empty.
func (q *Queue) Pop() (domain.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return domain.Task{}, false
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task, true
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Contains reports whether a task with the given id is queued.
func (q *Queue) Contains(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.ID == taskID {
			return true
		}
	}
	return false
}
