package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull       = errors.New("event queue is full")
	ErrPublisherClosed = errors.New("event publisher is closed")
)

const DefaultQueueSize = 256

// AsyncPublisher queues events and hands them to the wrapped publisher on a
// single worker goroutine. Publish never waits on the broker.
type AsyncPublisher struct {
	next   Publisher
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent
	done   chan struct{}
}

type queuedEvent struct {
	ctx   context.Context
	event Event
}

func NewAsyncPublisher(next Publisher, size int, logger *slog.Logger) *AsyncPublisher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &AsyncPublisher{
		next:   next,
		logger: logger,
		queue:  make(chan queuedEvent, size),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues event. It fails fast when the queue is full or closed.
func (p *AsyncPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)

	for item := range p.queue {
		if err := p.next.Publish(item.ctx, item.event); err != nil {
			p.logger.WarnContext(item.ctx, "ledger event delivery failed",
				"event_type", item.event.Type,
				"entity_id", item.event.EntityID,
				"error", err)
		}
	}
}

// Close stops accepting events, delivers what is queued and closes the
// wrapped publisher.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.next.Close()
}

// Pending is the number of queued, undelivered events.
func (p *AsyncPublisher) Pending() int {
	return len(p.queue)
}
