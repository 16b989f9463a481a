package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrBreakerOpen = errors.New("event publisher circuit is open")

// Publisher sends ledger events somewhere and owns the connection.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type BreakerConfig struct {
	MaxFailures     int
	ResetTimeout    time.Duration
	HalfOpenMaxSucc int
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:     5,
		ResetTimeout:    30 * time.Second,
		HalfOpenMaxSucc: 3,
	}
}

// BreakerPublisher stops calling a failing broker for ResetTimeout after
// MaxFailures consecutive errors, then lets a few trial calls through.
type BreakerPublisher struct {
	next   Publisher
	config BreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu                sync.Mutex
	state             BreakerState
	failures          int
	halfOpenSuccesses int
	openedAt          time.Time
}

func NewBreakerPublisher(next Publisher, config BreakerConfig, logger *slog.Logger) *BreakerPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerPublisher{
		next:   next,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

func (b *BreakerPublisher) Publish(ctx context.Context, event Event) error {
	if !b.allow() {
		return ErrBreakerOpen
	}

	if err := b.next.Publish(ctx, event); err != nil {
		b.recordFailure(ctx)
		return err
	}
	b.recordSuccess(ctx)
	return nil
}

func (b *BreakerPublisher) Close() error {
	return b.next.Close()
}

func (b *BreakerPublisher) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BreakerPublisher) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen && b.now().Sub(b.openedAt) > b.config.ResetTimeout {
		b.state = BreakerHalfOpen
		b.halfOpenSuccesses = 0
	}
	return b.state != BreakerOpen
}

func (b *BreakerPublisher) recordSuccess(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.config.HalfOpenMaxSucc {
			b.state = BreakerClosed
			b.failures = 0
			b.halfOpenSuccesses = 0
			b.logger.InfoContext(ctx, "event publisher recovered")
		}
	case BreakerClosed:
		b.failures = 0
	}
}

func (b *BreakerPublisher) recordFailure(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.trip(ctx)
	case BreakerClosed:
		b.failures++
		if b.failures >= b.config.MaxFailures {
			b.trip(ctx)
		}
	}
}

// trip must be called with mu held.
func (b *BreakerPublisher) trip(ctx context.Context) {
	b.state = BreakerOpen
	b.halfOpenSuccesses = 0
	b.openedAt = b.now()
	b.logger.WarnContext(ctx, "event publisher circuit opened",
		"failures", b.failures,
		"retry_after", b.config.ResetTimeout)
}
