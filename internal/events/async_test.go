package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedPublisher holds every delivery until release is closed.
type gatedPublisher struct {
	release chan struct{}
	err     error

	mu        sync.Mutex
	delivered []Event
	closed    bool
}

func newGatedPublisher() *gatedPublisher {
	return &gatedPublisher{release: make(chan struct{})}
}

func (g *gatedPublisher) Publish(ctx context.Context, event Event) error {
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delivered = append(g.delivered, event)
	return g.err
}

func (g *gatedPublisher) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *gatedPublisher) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.delivered)
}

func TestAsyncPublisher_PublishDoesNotWaitForBroker(t *testing.T) {
	next := newGatedPublisher()
	p := NewAsyncPublisher(next, 4, nil)

	start := time.Now()
	require.NoError(t, p.Publish(context.Background(), New(TypeSettlementCreated, uuid.New(), uuid.New())))
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, next.count())

	close(next.release)
	require.NoError(t, p.Close())
	assert.Equal(t, 1, next.count())
	assert.True(t, next.closed)
}

func TestAsyncPublisher_QueueFull(t *testing.T) {
	next := newGatedPublisher()
	p := NewAsyncPublisher(next, 1, nil)
	ctx := context.Background()

	// the worker takes the first event and blocks on it; the second fills the buffer
	require.NoError(t, p.Publish(ctx, New(TypeCashCountRecorded, uuid.New(), uuid.New())))
	require.Eventually(t, func() bool { return p.Pending() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, p.Publish(ctx, New(TypeCashCountRecorded, uuid.New(), uuid.New())))

	assert.ErrorIs(t, p.Publish(ctx, New(TypeCashCountRecorded, uuid.New(), uuid.New())), ErrQueueFull)

	close(next.release)
	require.NoError(t, p.Close())
	assert.Equal(t, 2, next.count())
}

func TestAsyncPublisher_CloseDrainsAndRejectsLaterEvents(t *testing.T) {
	next := newGatedPublisher()
	next.err = errors.New("broker down")
	close(next.release)
	p := NewAsyncPublisher(next, 8, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Publish(ctx, New(TypeTransactionApproved, uuid.New(), uuid.New())))
	}
	require.NoError(t, p.Close())
	assert.Equal(t, 5, next.count())

	assert.ErrorIs(t, p.Publish(ctx, New(TypeTransactionApproved, uuid.New(), uuid.New())), ErrPublisherClosed)
	assert.NoError(t, p.Close())
}

func TestAsyncPublisher_DeliveryOutlivesRequestContext(t *testing.T) {
	next := newGatedPublisher()
	p := NewAsyncPublisher(next, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Publish(ctx, New(TypeTransactionRejected, uuid.New(), uuid.New())))
	cancel()

	close(next.release)
	require.NoError(t, p.Close())
	assert.Equal(t, 1, next.count())
}
