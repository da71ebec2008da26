package store

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"credsearch/internal/search/metrics"
	"credsearch/internal/search/models"
)

// Record is one (domain, credential line) row of the local store.
type Record struct {
	Domain string
	Line   string
}

// Memory is an in-process LocalStore that evaluates the same query plan
// as the Postgres store. It backs the service when no database is
// configured, and the tests.
type Memory struct {
	mu      sync.RWMutex
	records []Record

	limits Limits
	fanout fanout
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

func WithMemoryLimits(l Limits) MemoryOption {
	return func(m *Memory) { m.limits = l }
}

func WithMemoryLogger(logger *slog.Logger) MemoryOption {
	return func(m *Memory) {
		if logger != nil {
			m.fanout.logger = logger
		}
	}
}

func WithMemoryMetrics(mt *metrics.Metrics) MemoryOption {
	return func(m *Memory) { m.fanout.metrics = mt }
}

func WithMemoryTimeout(d time.Duration) MemoryOption {
	return func(m *Memory) { m.fanout.timeout = d }
}

// NewMemory creates a store seeded with records.
func NewMemory(records []Record, opts ...MemoryOption) *Memory {
	m := &Memory{
		limits: DefaultLimits,
		fanout: fanout{timeout: DefaultFanoutTimeout, logger: slog.New(slog.DiscardHandler)},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Add(records...)
	return m
}

// Add appends records to the store.
func (m *Memory) Add(records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
}

// Query runs the fan-out plan for key against the in-memory rows.
func (m *Memory) Query(ctx context.Context, key models.SearchKey) *models.ResultSet {
	return m.fanout.run(ctx, key, Plan(key, m.limits), m.execBranch)
}

// Count returns the number of records and distinct domains.
func (m *Memory) Count(_ context.Context) (models.StoreCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	domains := make(map[string]struct{}, len(m.records))
	for _, r := range m.records {
		domains[strings.ToLower(r.Domain)] = struct{}{}
	}
	return models.StoreCounts{Records: int64(len(m.records)), Domains: int64(len(domains))}, nil
}

func (m *Memory) execBranch(ctx context.Context, b Branch) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	matched := make([]Record, 0)
	for _, r := range m.records {
		if matchesAny(b.Matches, strings.ToLower(r.Domain)) {
			matched = append(matched, r)
		}
	}
	m.mu.RUnlock()

	if b.OrderByDomain {
		slices.SortStableFunc(matched, func(a, c Record) int {
			return strings.Compare(strings.ToLower(a.Domain), strings.ToLower(c.Domain))
		})
	}
	if b.Limit > 0 && len(matched) > b.Limit {
		matched = matched[:b.Limit]
	}

	lines := make([]string, len(matched))
	for i, r := range matched {
		lines[i] = r.Line
	}
	return lines, nil
}

func matchesAny(matches []Match, domain string) bool {
	for _, mt := range matches {
		switch mt.Kind {
		case MatchEqual:
			if domain == mt.Pattern {
				return true
			}
		case MatchLike:
			if likeMatch(mt.Pattern, domain) {
				return true
			}
		}
	}
	return false
}
