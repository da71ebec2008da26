package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"credsearch/internal/search/metrics"
	"credsearch/internal/search/models"
)

// DefaultTable is the records table created by the bundled migration.
const DefaultTable = "logins"

const domainExpr = "LOWER(domain)"

// Querier is the subset of *pgxpool.Pool the store reads through.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the LocalStore backed by a (domain, login_data) table.
// It never writes.
type Postgres struct {
	db     Querier
	table  string
	limits Limits
	fanout fanout
}

type PostgresOption func(*Postgres)

func WithLimits(l Limits) PostgresOption {
	return func(p *Postgres) { p.limits = l }
}

// WithTimeout bounds the whole fan-out. Zero disables the bound.
func WithTimeout(d time.Duration) PostgresOption {
	return func(p *Postgres) { p.fanout.timeout = d }
}

func WithLogger(logger *slog.Logger) PostgresOption {
	return func(p *Postgres) {
		if logger != nil {
			p.fanout.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) PostgresOption {
	return func(p *Postgres) { p.fanout.metrics = m }
}

// NewPostgres builds a store over table. An empty table name selects DefaultTable.
func NewPostgres(db Querier, table string, opts ...PostgresOption) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("querier is required")
	}
	if table == "" {
		table = DefaultTable
	}
	p := &Postgres{
		db:     db,
		table:  pq.QuoteIdentifier(table),
		limits: DefaultLimits,
		fanout: fanout{timeout: DefaultFanoutTimeout, logger: slog.New(slog.DiscardHandler)},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Postgres) qb() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Query runs the fan-out plan for key. Failed sub-queries are logged and
// contribute nothing; the result is never nil.
func (p *Postgres) Query(ctx context.Context, key models.SearchKey) *models.ResultSet {
	return p.fanout.run(ctx, key, Plan(key, p.limits), p.execBranch)
}

// Count returns the number of records and distinct domains in the table.
func (p *Postgres) Count(ctx context.Context) (models.StoreCounts, error) {
	sqlStr, args, err := p.qb().
		Select("COUNT(*)", "COUNT(DISTINCT domain)").
		From(p.table).
		ToSql()
	if err != nil {
		return models.StoreCounts{}, fmt.Errorf("build count query: %w", err)
	}

	var counts models.StoreCounts
	if err := p.db.QueryRow(ctx, sqlStr, args...).Scan(&counts.Records, &counts.Domains); err != nil {
		return models.StoreCounts{}, fmt.Errorf("count records: %w", err)
	}
	return counts, nil
}

func (p *Postgres) branchQuery(b Branch) (string, []any, error) {
	preds := make(sq.Or, 0, len(b.Matches))
	for _, m := range b.Matches {
		switch m.Kind {
		case MatchEqual:
			preds = append(preds, sq.Eq{domainExpr: m.Pattern})
		case MatchLike:
			preds = append(preds, sq.Like{domainExpr: m.Pattern})
		}
	}

	sb := p.qb().Select("login_data").From(p.table)
	if len(preds) == 1 {
		sb = sb.Where(preds[0])
	} else {
		sb = sb.Where(preds)
	}
	if b.OrderByDomain {
		sb = sb.OrderBy("domain")
	}
	if b.Limit > 0 {
		sb = sb.Limit(uint64(b.Limit))
	}
	return sb.ToSql()
}

func (p *Postgres) execBranch(ctx context.Context, b Branch) ([]string, error) {
	sqlStr, args, err := p.branchQuery(b)
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", b.Name, err)
	}

	rows, err := p.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", b.Name, err)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", b.Name, err)
	}
	return lines, nil
}
