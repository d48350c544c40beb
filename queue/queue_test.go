package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/homefleet/supervisor/domain"
)

func TestQueueFIFO(t *testing.T) {
	q := New()
	q.Push(domain.Task{ID: "t1"})
	q.Push(domain.Task{ID: "t2"})
	q.Push(domain.Task{ID: "t3"})

	assert.Equal(t, 3, q.Len())

	first, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "t1", first.ID)

	second, _ := q.Pop()
	assert.Equal(t, "t2", second.ID)
}

func TestQueueRequeueGoesToTail(t *testing.T) {
	q := New()
	q.Push(domain.Task{ID: "t1"})
	q.Push(domain.Task{ID: "t2"})

	head, _ := q.Pop()
	q.Push(head) // re-queue

	next, _ := q.Pop()
	assert.Equal(t, "t2", next.ID, "re-queued task must not block the head")

	last, _ := q.Pop()
	assert.Equal(t, "t1", last.ID)
}

func TestQueuePopEmpty(t *testing.T) {
	q := New()
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueContains(t *testing.T) {
	q := New()
	q.Push(domain.Task{ID: "t1"})

	assert.True(t, q.Contains("t1"))
	assert.False(t, q.Contains("t2"))
}
