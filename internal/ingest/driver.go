package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/Mainfreight/integration-jira-cloud/internal/finding"
	"github.com/Mainfreight/integration-jira-cloud/internal/reconcile"
	"github.com/Mainfreight/integration-jira-cloud/internal/report"
)

// RowSource yields raw scan rows until io.EOF.
type RowSource interface {
	Next() (finding.Row, error)
}

// reconciler is the engine surface the driver needs.
type reconciler interface {
	Reconcile(ctx context.Context, f finding.Finding) []reconcile.Result
	CloseStale(ctx context.Context) ([]reconcile.Result, error)
}

// Driver runs one ingestion pass over a row source.
type Driver struct {
	engine  reconciler
	log     *zap.Logger
	allowed map[finding.Severity]bool
}

// NewDriver creates a Driver that processes only the given severities.
func NewDriver(engine reconciler, log *zap.Logger, severities []finding.Severity) *Driver {
	allowed := make(map[finding.Severity]bool, len(severities))
	for _, s := range severities {
		allowed[s] = true
	}
	return &Driver{engine: engine, log: log, allowed: allowed}
}

// Run ingests every row from src and reconciles the resulting findings
// sequentially. It always returns a summary, including on error, so callers
// can report partial progress. The error is non-nil for source failures,
// context cancellation, and fatal tracker failures; per-finding retryable
// failures only increment the summary's errored count.
func (d *Driver) Run(ctx context.Context, src RowSource) (*report.Summary, error) {
	start := time.Now()
	sum := report.NewSummary()

	// The whole batch is collected up front: duplicate keys collapse across
	// the entire input, and close detection needs the complete set of seen
	// (plugin, asset) pairs before the sweep.
	var order []string
	byKey := make(map[string]finding.Finding)
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sum.Finish(time.Since(start))
			return sum, fmt.Errorf("reading scan rows: %w", err)
		}

		// Severity filter applies to the raw label, before normalization.
		sev, ok := finding.ParseSeverity(row[finding.FieldRisk])
		if !ok || !d.allowed[sev] {
			sum.FilteredRows++
			continue
		}

		f, err := finding.Normalize(row)
		if err != nil {
			sum.InvalidRows++
			d.log.Warn("skipping malformed row", zap.Error(err))
			continue
		}

		// Last value wins for display fields; first appearance fixes the
		// processing order.
		if _, dup := byKey[f.Key()]; !dup {
			order = append(order, f.Key())
		}
		byKey[f.Key()] = f
	}

	d.log.Info("batch collected",
		zap.Int("findings", len(order)),
		zap.Int("filtered", sum.FilteredRows),
		zap.Int("invalid", sum.InvalidRows))

	for _, key := range order {
		if err := ctx.Err(); err != nil {
			sum.Finish(time.Since(start))
			return sum, err
		}
		var fatal error
		for _, res := range d.engine.Reconcile(ctx, byKey[key]) {
			sum.Record(res)
			if res.Outcome == reconcile.OutcomeErroredFatal {
				fatal = res.Err
			}
		}
		if fatal != nil {
			sum.Finish(time.Since(start))
			return sum, fmt.Errorf("reconciling %s: %w", key, fatal)
		}
	}

	closed, err := d.engine.CloseStale(ctx)
	for _, res := range closed {
		sum.Record(res)
	}
	sum.Finish(time.Since(start))
	if err != nil {
		return sum, fmt.Errorf("closing stale issues: %w", err)
	}
	return sum, nil
}
