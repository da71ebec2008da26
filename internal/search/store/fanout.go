package store

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"credsearch/internal/search/metrics"
	"credsearch/internal/search/models"
)

// DefaultFanoutTimeout bounds a whole fan-out when no timeout is configured.
const DefaultFanoutTimeout = 30 * time.Second

// branchFunc executes one branch and returns the matching credential lines.
type branchFunc func(ctx context.Context, b Branch) ([]string, error)

// fanout runs every branch concurrently and joins on all of them before
// merging, so callers never observe a partial union. A failed branch is
// logged and contributes nothing. Results are merged in plan order.
type fanout struct {
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func (f fanout) run(ctx context.Context, key models.SearchKey, plan []Branch, exec branchFunc) *models.ResultSet {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	rows := make([][]string, len(plan))
	var g errgroup.Group
	for i, b := range plan {
		g.Go(func() error {
			start := time.Now()
			lines, err := exec(ctx, b)
			elapsed := time.Since(start)
			if f.metrics != nil {
				f.metrics.ObserveBranch(b.Name, elapsed.Seconds())
			}
			if err != nil {
				f.logger.WarnContext(ctx, "store branch failed",
					"key", key,
					"branch", b.Name,
					"elapsed", elapsed,
					"error", err,
				)
				if f.metrics != nil {
					f.metrics.RecordBranchFailure(b.Name)
				}
				return nil
			}
			rows[i] = lines
			return nil
		})
	}
	_ = g.Wait()

	merged := models.NewResultSet()
	for i, lines := range rows {
		before := merged.Len()
		for _, line := range lines {
			merged.Add(line)
		}
		f.logger.DebugContext(ctx, "store branch merged",
			"key", key,
			"branch", plan[i].Name,
			"rows", len(lines),
			"new", merged.Len()-before,
		)
	}
	return merged
}
