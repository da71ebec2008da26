package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credsearch/internal/search/metrics"
	"credsearch/internal/search/models"
)

func TestMemoryQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("literal key unions exact and subdomain rows", func(t *testing.T) {
		s := NewMemory([]Record{
			{Domain: "a.abc.com", Line: "u1:p1"},
			{Domain: "abc.com", Line: "u2:p2"},
			{Domain: "b.abc.org", Line: "u3:p3"},
		})

		got := s.Query(ctx, "abc.com")
		assert.ElementsMatch(t, []string{"u1:p1", "u2:p2"}, got.Records())
		assert.False(t, got.Contains("u3:p3"))
	})

	t.Run("label branch broadens a long label across extensions", func(t *testing.T) {
		s := NewMemory([]Record{
			{Domain: "a.example.com", Line: "u1:p1"},
			{Domain: "example.com", Line: "u2:p2"},
			{Domain: "b.example.org", Line: "u3:p3"},
		})

		got := s.Query(ctx, "example.com")
		assert.True(t, got.Contains("u1:p1"))
		assert.True(t, got.Contains("u2:p2"))
		assert.True(t, got.Contains("u3:p3"), "example is long enough to match as a label")
	})

	t.Run("wildcard matches the exact suffix only", func(t *testing.T) {
		s := NewMemory([]Record{
			{Domain: "portal.gov.br", Line: "br:1"},
			{Domain: "nasa.gov", Line: "us:1"},
			{Domain: "GSA.GOV", Line: "us:2"},
		})

		got := s.Query(ctx, "*.gov")
		assert.Equal(t, []string{"us:2", "us:1"}, got.Records(), "ordered by lower-cased domain")
	})

	t.Run("duplicate lines across branches collapse", func(t *testing.T) {
		s := NewMemory([]Record{
			{Domain: "netflix.com", Line: "same:pw"},
			{Domain: "www.netflix.com", Line: "same:pw"},
			{Domain: "netflix.com.br", Line: "other:pw"},
		})

		got := s.Query(ctx, "netflix.com")
		assert.Equal(t, 2, got.Len())
		assert.Equal(t, "same:pw", got.Records()[0])
	})

	t.Run("row limit caps a branch", func(t *testing.T) {
		s := NewMemory([]Record{
			{Domain: "c.gov", Line: "c"},
			{Domain: "a.gov", Line: "a"},
			{Domain: "b.gov", Line: "b"},
		}, WithMemoryLimits(Limits{Rows: 2, Prefix: 2, Gov: 2}))

		assert.Equal(t, []string{"a", "b"}, s.Query(ctx, "*.gov").Records())
	})

	t.Run("empty store yields an empty set", func(t *testing.T) {
		got := NewMemory(nil).Query(ctx, "nothing.com")
		require.NotNil(t, got)
		assert.True(t, got.IsEmpty())
	})
}

func TestMemoryCount(t *testing.T) {
	s := NewMemory([]Record{
		{Domain: "netflix.com", Line: "a"},
		{Domain: "NETFLIX.com", Line: "b"},
		{Domain: "gmail.com", Line: "c"},
	})

	counts, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StoreCounts{Records: 3, Domains: 2}, counts)
}

func TestFanout(t *testing.T) {
	ctx := context.Background()
	plan := []Branch{{Name: "one"}, {Name: "two"}, {Name: "three"}}

	t.Run("failed branch contributes nothing", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.NewWithRegistry(reg)
		f := fanout{logger: discard(), metrics: m}

		got := f.run(ctx, "k.com", plan, func(_ context.Context, b Branch) ([]string, error) {
			if b.Name == "two" {
				return []string{"never"}, errors.New("connection reset")
			}
			return []string{b.Name + ":row"}, nil
		})

		assert.Equal(t, []string{"one:row", "three:row"}, got.Records())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.BranchFailures.WithLabelValues("two")))
	})

	t.Run("join waits for the slowest branch", func(t *testing.T) {
		var finished atomic.Int32
		f := fanout{logger: discard()}

		got := f.run(ctx, "k.com", plan, func(_ context.Context, b Branch) ([]string, error) {
			if b.Name == "one" {
				time.Sleep(30 * time.Millisecond)
			}
			finished.Add(1)
			return []string{b.Name}, nil
		})

		assert.Equal(t, int32(3), finished.Load())
		assert.Equal(t, []string{"one", "two", "three"}, got.Records(), "merged in plan order")
	})

	t.Run("timeout cuts off a stuck branch", func(t *testing.T) {
		f := fanout{timeout: 20 * time.Millisecond, logger: discard()}

		got := f.run(ctx, "k.com", plan, func(ctx context.Context, b Branch) ([]string, error) {
			if b.Name == "three" {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return []string{b.Name}, nil
		})

		assert.Equal(t, []string{"one", "two"}, got.Records())
	})
}
