package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credsearch/internal/search/metrics"
	"credsearch/internal/search/models"
	"credsearch/pkg/platform/circuit"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// Fetcher performs a single provider request.
type Fetcher interface {
	Fetch(ctx context.Context, key models.SearchKey) ([]string, error)
}

// Result is the outcome of a retried fetch. Records is never nil.
type Result struct {
	Records   *models.ResultSet
	Attempts  int
	Succeeded bool
	Cancelled bool
}

// Retrier runs a Fetcher with a bounded number of attempts and a fixed
// delay between them. It never returns an error: exhaustion yields an
// empty Result, cancellation stops the loop and sets Cancelled.
type Retrier struct {
	fetcher  Fetcher
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
	metrics  *metrics.Metrics
	breaker  *circuit.Breaker
}

type RetryOption func(*Retrier)

func WithAttempts(n int) RetryOption {
	return func(r *Retrier) { r.attempts = n }
}

func WithDelay(d time.Duration) RetryOption {
	return func(r *Retrier) { r.delay = d }
}

// WithSleep replaces the delay function. Tests use it to skip real waits.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *Retrier) { r.sleep = fn }
}

func WithLogger(logger *slog.Logger) RetryOption {
	return func(r *Retrier) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) RetryOption {
	return func(r *Retrier) { r.metrics = m }
}

// WithBreaker counts each exhausted fetch as one failure. While the circuit
// is open every fetch makes a single probing attempt without delays.
func WithBreaker(b *circuit.Breaker) RetryOption {
	return func(r *Retrier) { r.breaker = b }
}

func NewRetrier(f Fetcher, opts ...RetryOption) (*Retrier, error) {
	if f == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	r := &Retrier{
		fetcher:  f,
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
		sleep:    sleepContext,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.attempts <= 0 {
		return nil, fmt.Errorf("attempts must be positive, got %d", r.attempts)
	}
	if r.delay < 0 {
		return nil, fmt.Errorf("delay must not be negative, got %s", r.delay)
	}
	return r, nil
}

// Fetch calls the provider until one attempt succeeds, the attempts run
// out, or ctx is done. Every failure category is retried.
func (r *Retrier) Fetch(ctx context.Context, key models.SearchKey) Result {
	res := Result{Records: models.NewResultSet()}

	maxAttempts := r.attempts
	if r.breaker != nil && r.breaker.IsOpen() {
		maxAttempts = 1
		r.logger.DebugContext(ctx, "provider circuit open, probing once", "key", key)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			res.Cancelled = true
			r.record("cancelled")
			return res
		}

		res.Attempts = attempt
		lines, err := r.fetcher.Fetch(ctx, key)
		if err == nil {
			res.Records = models.NewResultSet(lines...)
			res.Succeeded = true
			r.record("success")
			r.logger.DebugContext(ctx, "provider fetch succeeded",
				"key", key, "attempt", attempt, "results", res.Records.Len())
			r.recordBreaker(ctx, true)
			return res
		}
		if ctx.Err() != nil {
			res.Cancelled = true
			r.record("cancelled")
			return res
		}

		r.record(string(GetCategory(err)))
		r.logger.WarnContext(ctx, "provider attempt failed",
			"key", key,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"category", GetCategory(err),
			"transient", IsRetryable(err),
			"error", err,
		)
		if attempt < maxAttempts {
			if err := r.sleep(ctx, r.delay); err != nil {
				res.Cancelled = true
				r.record("cancelled")
				return res
			}
		}
	}

	r.logger.WarnContext(ctx, "provider gave up", "key", key, "attempts", res.Attempts)
	r.recordBreaker(ctx, false)
	return res
}

func (r *Retrier) recordBreaker(ctx context.Context, ok bool) {
	if r.breaker == nil {
		return
	}
	var change circuit.StateChange
	if ok {
		_, change = r.breaker.RecordSuccess()
	} else {
		_, change = r.breaker.RecordFailure()
	}
	switch {
	case change.Opened:
		r.logger.WarnContext(ctx, "provider circuit opened", "breaker", r.breaker.Name())
	case change.Closed:
		r.logger.InfoContext(ctx, "provider circuit closed", "breaker", r.breaker.Name())
	}
}

func (r *Retrier) record(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordProviderAttempt(outcome)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
