package bus

import (
	"context"
	"sync"

	"github.com/sipeed/redisbot/pkg/message"
)

const DefaultQueueSize = 100

// Queue is a bounded FIFO of messages between one producer goroutine and one
// consumer.
type Queue struct {
	items  chan message.Message
	closed bool
	mu     sync.RWMutex
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{items: make(chan message.Message, size)}
}

// Publish blocks while the queue is full. It returns false when ctx ends
// first or the queue is closed.
func (q *Queue) Publish(ctx context.Context, msg message.Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.items <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Consume returns the next message and whether the read succeeded.
// The bool is false when the context is cancelled or the queue is closed
// and drained.
func (q *Queue) Consume(ctx context.Context) (message.Message, bool) {
	select {
	case msg, ok := <-q.items:
		return msg, ok
	case <-ctx.Done():
		return nil, false
	}
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Close stops further publishes. Messages already queued can still be consumed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.items)
}
