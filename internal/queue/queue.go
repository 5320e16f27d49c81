package queue

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("queue is closed")

// Queue is an unbounded FIFO of outbound messages with a single consumer. Push never blocks.
type Queue struct {
	mu     sync.Mutex
	items  [][]byte
	closed bool
	notify chan struct{}
}

func New() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
	}
}

// Push - appends msg, fails once the queue is closed.
func (that *Queue) Push(msg []byte) error {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return ErrClosed
	}
	that.items = append(that.items, msg)
	that.mu.Unlock()

	that.wake()

	return nil
}

// Pop - waits for the next message. Remaining messages are still delivered after Close,
// ErrClosed is returned once the queue is drained.
func (that *Queue) Pop(ctx context.Context) ([]byte, error) {
	for {
		that.mu.Lock()
		if len(that.items) > 0 {
			msg := that.items[0]
			that.items[0] = nil
			that.items = that.items[1:]
			that.mu.Unlock()

			return msg, nil
		}
		closed := that.closed
		that.mu.Unlock()

		if closed {
			return nil, ErrClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-that.notify:
		}
	}
}

// Close - stops accepting messages. Safe to call more than once.
func (that *Queue) Close() {
	that.mu.Lock()
	that.closed = true
	that.mu.Unlock()

	that.wake()
}

func (that *Queue) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.items)
}

func (that *Queue) wake() {
	select {
	case that.notify <- struct{}{}:
	default:
	}
}
