package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webradio/internal/models"
	"golang.org/x/time/rate"
)

// Caller performs one service call. [HassService] satisfies it.
type Caller interface {
	CallService(ctx context.Context, call models.ServiceCall) error
}

// CommandQueue delivers service calls in order without blocking the caller.
//
// Calls are paced by a token bucket and sent by a single worker. Failures are logged and never retried; a full queue
// drops the call.
type CommandQueue struct {
	caller  Caller
	limiter *rate.Limiter
	calls   chan models.ServiceCall
	timeout time.Duration
	logger  *log.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewCommandQueue creates a queue holding at most size calls. ratePerSecond <= 0 disables pacing.
func NewCommandQueue(caller Caller, ratePerSecond float64, burst, size int, timeout time.Duration, logger *log.Logger) *CommandQueue {
	if size <= 0 {
		size = 32
	}
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(ratePerSecond)
	if ratePerSecond <= 0 {
		limit = rate.Inf
	}
	if logger == nil {
		logger = log.Default()
	}

	return &CommandQueue{
		caller:  caller,
		limiter: rate.NewLimiter(limit, burst),
		calls:   make(chan models.ServiceCall, size),
		timeout: timeout,
		logger:  logger.With("component", "dispatch"),
		done:    make(chan struct{}),
	}
}

// Dispatch enqueues call. It never blocks.
func (q *CommandQueue) Dispatch(call models.ServiceCall) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.logger.Warn("queue closed, dropping call", "call", call.String())
		return
	}

	select {
	case q.calls <- call:
	default:
		q.logger.Warn("queue full, dropping call", "call", call.String(), "size", cap(q.calls))
	}
}

// Run sends queued calls until ctx is cancelled or Close is called. Calls still queued at Close are sent first.
func (q *CommandQueue) Run(ctx context.Context) error {
	defer close(q.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case call, ok := <-q.calls:
			if !ok {
				return nil
			}
			if err := q.limiter.Wait(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
					return nil
				}
				q.logger.Warn("rate limiter rejected call", "call", call.String(), "error", err)
				continue
			}
			q.send(ctx, call)
		}
	}
}

func (q *CommandQueue) send(ctx context.Context, call models.ServiceCall) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	if err := q.caller.CallService(ctx, call); err != nil {
		q.logger.Error("service call failed", "call", call.String(), "error", err)
		return
	}
	q.logger.Debug("service call sent", "call", call.String())
}

// Close stops accepting calls. Run drains what is queued and returns.
func (q *CommandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.calls)
}

// Done is closed when Run returns.
func (q *CommandQueue) Done() <-chan struct{} { return q.done }

// Pending reports how many calls are waiting.
func (q *CommandQueue) Pending() int { return len(q.calls) }
