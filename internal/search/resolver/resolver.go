// Package resolver turns a raw query into a merged credential result set:
// normalize, consult the cache, fan out to the local store, ask the external
// provider, and cache what was found.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"credsearch/internal/search/metrics"
	"credsearch/internal/search/models"
	"credsearch/internal/search/provider"
	"credsearch/pkg/platform/sentinel"
)

// ErrNoActionableKey is returned when the query does not normalize to a key.
// It is distinct from a resolution that found nothing.
var ErrNoActionableKey = fmt.Errorf("no actionable key: %w", sentinel.ErrInvalidInput)

const tracerName = "credsearch/resolver"

type Normalizer interface {
	Normalize(raw string) (models.SearchKey, bool)
}

type Cache interface {
	Get(key models.SearchKey) (*models.ResultSet, bool)
	Set(ctx context.Context, key models.SearchKey, results *models.ResultSet, completed bool) bool
}

// LocalStore never fails; a degraded store yields fewer results.
type LocalStore interface {
	Query(ctx context.Context, key models.SearchKey) *models.ResultSet
}

// ExternalProvider never fails; exhaustion yields an empty result.
type ExternalProvider interface {
	Fetch(ctx context.Context, key models.SearchKey) provider.Result
}

// Service is the resolver. It holds no state of its own beyond the
// in-flight table that collapses concurrent misses for the same key.
type Service struct {
	normalizer Normalizer
	cache      Cache
	store      LocalStore
	provider   ExternalProvider

	inflight singleflight.Group
	tracer   trace.Tracer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

// WithProvider enables the external phase. Without it the resolver only
// consults the local store.
func WithProvider(p ExternalProvider) Option {
	return func(s *Service) { s.provider = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func New(normalizer Normalizer, cache Cache, store LocalStore, opts ...Option) (*Service, error) {
	if normalizer == nil {
		return nil, errors.New("normalizer is required")
	}
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	if store == nil {
		return nil, errors.New("local store is required")
	}

	s := &Service{
		normalizer: normalizer,
		cache:      cache,
		store:      store,
		tracer:     otel.Tracer(tracerName),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolve runs one query through the pipeline. The only error is
// ErrNoActionableKey. When ctx is cancelled the call stops issuing work and
// returns what was merged so far with Complete set to false.
func (s *Service) Resolve(ctx context.Context, raw string) (*models.Outcome, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "resolver.Resolve")
	defer span.End()

	key, ok := s.normalizer.Normalize(raw)
	if !ok {
		s.record("rejected")
		span.SetAttributes(attribute.Bool("search.rejected", true))
		s.logger.InfoContext(ctx, "query has no actionable key", "length", len(raw))
		return nil, ErrNoActionableKey
	}
	span.SetAttributes(attribute.String("search.key", key.String()))

	if ctx.Err() != nil {
		return s.finish(ctx, span, incomplete(key, nil, nil), start), nil
	}

	if hit, found := s.cache.Get(key); found {
		out := &models.Outcome{Key: key, Results: hit, FromCache: true, Complete: true}
		return s.finish(ctx, span, out, start), nil
	}

	out := s.resolveShared(ctx, key)
	return s.finish(ctx, span, out, start), nil
}

// resolveShared collapses concurrent misses for key onto one backend run.
// A caller whose own context ends stops waiting; a caller handed an
// incomplete result from a cancelled leader runs the backend itself.
func (s *Service) resolveShared(ctx context.Context, key models.SearchKey) *models.Outcome {
	var leader atomic.Bool
	ch := s.inflight.DoChan(key.String(), func() (any, error) {
		leader.Store(true)
		return s.resolveMiss(ctx, key), nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		if !leader.Load() {
			return incomplete(key, nil, nil)
		}
		// The backend shares this context and settles promptly.
		res = <-ch
	}

	out := res.Val.(*models.Outcome)
	if !res.Shared {
		return out
	}
	if !out.Complete && ctx.Err() == nil {
		return s.resolveMiss(ctx, key)
	}
	return cloneOutcome(out)
}

func (s *Service) resolveMiss(ctx context.Context, key models.SearchKey) *models.Outcome {
	out := &models.Outcome{Key: key, Complete: true}

	if ctx.Err() != nil {
		return incomplete(key, nil, nil)
	}
	local := s.queryLocal(ctx, key)
	merged := local.Clone()
	out.Local = local

	if ctx.Err() != nil {
		return incomplete(key, merged, local)
	}
	if s.provider != nil {
		res := s.fetchExternal(ctx, key)
		out.ExternalAttempts = res.Attempts
		out.External = res.Records.Difference(merged)
		merged.Merge(res.Records)
		if res.Cancelled {
			out.Complete = false
		}
	}
	if ctx.Err() != nil {
		out.Complete = false
	}
	out.Results = merged

	// Empty or incomplete results are refused by the cache.
	s.cache.Set(ctx, key, merged, out.Complete)
	return out
}

func (s *Service) queryLocal(ctx context.Context, key models.SearchKey) *models.ResultSet {
	ctx, span := s.tracer.Start(ctx, "resolver.local_fanout")
	defer span.End()

	local := s.store.Query(ctx, key)
	if local == nil {
		local = models.NewResultSet()
	}
	span.SetAttributes(attribute.Int("search.local_results", local.Len()))
	return local
}

func (s *Service) fetchExternal(ctx context.Context, key models.SearchKey) provider.Result {
	ctx, span := s.tracer.Start(ctx, "resolver.external_fetch")
	defer span.End()

	res := s.provider.Fetch(ctx, key)
	if res.Records == nil {
		res.Records = models.NewResultSet()
	}
	span.SetAttributes(
		attribute.Int("search.external_attempts", res.Attempts),
		attribute.Int("search.external_results", res.Records.Len()),
		attribute.Bool("search.external_succeeded", res.Succeeded),
	)
	return res
}

func (s *Service) finish(ctx context.Context, span trace.Span, out *models.Outcome, start time.Time) *models.Outcome {
	out.Duration = time.Since(start)
	if out.Results == nil {
		out.Results = models.NewResultSet()
	}

	outcome := "backend"
	switch {
	case !out.Complete:
		outcome = "cancelled"
	case out.FromCache:
		outcome = "cache"
	}
	s.record(outcome)

	span.SetAttributes(
		attribute.Int("search.results", out.Results.Len()),
		attribute.Bool("search.from_cache", out.FromCache),
		attribute.Bool("search.complete", out.Complete),
	)
	s.logger.InfoContext(ctx, "search resolved",
		"key", out.Key,
		"results", out.Results.Len(),
		"local", out.LocalCount(),
		"external", out.ExternalCount(),
		"from_cache", out.FromCache,
		"complete", out.Complete,
		"duration", out.Duration,
	)
	return out
}

func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordResolution(outcome)
	}
}

func incomplete(key models.SearchKey, merged, local *models.ResultSet) *models.Outcome {
	if merged == nil {
		merged = models.NewResultSet()
	}
	return &models.Outcome{Key: key, Results: merged, Local: local, Complete: false}
}

func cloneOutcome(o *models.Outcome) *models.Outcome {
	c := *o
	c.Results = o.Results.Clone()
	if o.Local != nil {
		c.Local = o.Local.Clone()
	}
	if o.External != nil {
		c.External = o.External.Clone()
	}
	return &c
}
