package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrorClassification tells the executor whether a failed call may be
// retried and whether it counts against the circuit breaker.
type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

var (
	// Transient failures are retried and counted by the breaker.
	Transient = ErrorClassification{Retryable: true, RecordFailure: true}
	// Permanent failures are returned at once but still counted.
	Permanent = ErrorClassification{Retryable: false, RecordFailure: true}
	// Ignored failures say nothing about the dependency's health, such as
	// a cancelled caller or a rejected request.
	Ignored = ErrorClassification{}
)

type ErrorClassifier func(err error) ErrorClassification

// Observer receives retry and breaker events, typically to export metrics.
type Observer interface {
	Retry(operation string)
	BreakerStateChanged(operation, to string)
}

type noopObserver struct{}

func (noopObserver) Retry(string)                       {}
func (noopObserver) BreakerStateChanged(string, string) {}

// Executor guards calls to the vision model and the reprocess queue with
// exponential-backoff retries and one circuit breaker per operation name.
type Executor struct {
	cfg      Config
	observer Observer

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		observer: noopObserver{},
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// WithObserver attaches o and returns e.
func (e *Executor) WithObserver(o Observer) *Executor {
	if o == nil {
		o = noopObserver{}
	}
	e.observer = o
	return e
}

// Execute runs fn under operation's breaker, retrying failures the
// classifier marks as retryable. An open breaker fails fast with
// gobreaker.ErrOpenState.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, classify ErrorClassifier) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil call for %q", operation)
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classify == nil {
		classify = func(error) ErrorClassification { return Permanent }
	}

	run := func() error { return e.retry(ctx, op, fn, classify) }
	if !e.cfg.BreakerEnabled {
		return run()
	}
	_, err := e.breaker(op, classify).Execute(func() (struct{}, error) {
		return struct{}{}, run()
	})
	return err
}

func (e *Executor) retry(ctx context.Context, op string, fn func(context.Context) error, classify ErrorClassifier) error {
	delays := newBackoff(e.cfg)
	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= e.cfg.RetryMaxAttempts || !classify(err).Retryable {
			return err
		}

		wait := delays.next()
		slog.Warn("retry_attempt",
			"operation", op,
			"attempt", attempt,
			"max_attempts", e.cfg.RetryMaxAttempts,
			"backoff_ms", wait.Milliseconds(),
			"error", err,
		)
		e.observer.Retry(op)
		if !sleep(ctx, wait) {
			return err
		}
	}
}

func (e *Executor) breaker(op string, classify ErrorClassifier) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cb, ok := e.breakers[op]; ok {
		return cb
	}

	cfg := e.cfg
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        op,
		MaxRequests: cfg.BreakerHalfOpenMaxCalls,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.BreakerMinRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
			e.observer.BreakerStateChanged(name, to.String())
		},
	})
	e.breakers[op] = cb
	return cb
}

// IsCircuitOpen reports whether err came from a breaker refusing the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

type backoff struct {
	current    time.Duration
	max        time.Duration
	multiplier float64
}

func newBackoff(cfg Config) *backoff {
	return &backoff{current: cfg.RetryInitialBackoff, max: cfg.RetryMaxBackoff, multiplier: cfg.RetryMultiplier}
}

func (b *backoff) next() time.Duration {
	wait := min(b.current, b.max)
	b.current = min(time.Duration(float64(b.current)*b.multiplier), b.max)
	return wait
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
