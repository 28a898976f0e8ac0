package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"metcompare/internal/analysis"
	"metcompare/internal/store"
	"metcompare/internal/tabular"
)

// ActiService converts ActiGraph epoch counts into METs with the VM3
// equation.
type ActiService struct {
	loc    *time.Location
	logger *slog.Logger
}

// NewActiService creates an ActiGraph service reading clock times in loc.
func NewActiService(loc *time.Location, logger *slog.Logger) *ActiService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActiService{loc: loc, logger: logger}
}

// Process returns one estimate per epoch row.
func (s *ActiService) Process(ctx context.Context, table *tabular.Table) (*Result, error) {
	rows, err := s.epochs(ctx, table)
	if err != nil {
		return nil, err
	}

	estimates := make([]store.Estimate, len(rows))
	for i, r := range rows {
		estimates[i] = store.Estimate{
			Timestamp: r.Time,
			MET:       store.Float(analysis.VM3MET(r.Axis1, r.Axis2, r.Axis3)),
		}
	}
	return s.result(estimates), nil
}

// ProcessMinutes returns one estimate per requested minute from the first
// epoch inside it. Minutes without an epoch get an empty estimate.
func (s *ActiService) ProcessMinutes(ctx context.Context, table *tabular.Table, minutes []time.Time) (*Result, error) {
	rows, err := s.epochs(ctx, table)
	if err != nil {
		return nil, err
	}

	estimates := make([]store.Estimate, len(minutes))
	for i, m := range minutes {
		estimates[i] = store.Estimate{Timestamp: m}
		if met, ok := analysis.VM3ForMinute(rows, m); ok {
			estimates[i].MET = store.Float(met)
		}
	}
	return s.result(estimates), nil
}

func (s *ActiService) epochs(ctx context.Context, table *tabular.Table) ([]analysis.EpochCounts, error) {
	if missing := table.Missing(tabular.ActiGraphColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s lacks %v", ErrMissingColumns, table.Name, missing)
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no epochs", ErrEmptyChannel, table.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := tabular.EpochCounts(table, s.loc)
	if err != nil {
		return nil, fmt.Errorf("reading epochs: %w", err)
	}
	return rows, nil
}

func (s *ActiService) result(estimates []store.Estimate) *Result {
	res := &Result{Source: store.SourceActigraph, Estimates: estimates}
	res.Summary = summarize(estimates, nil)
	s.logger.Info("actigraph processing complete",
		"epochs", res.Summary.Windows,
		"empty", res.Summary.Empty,
		"start", res.Summary.Start,
		"end", res.Summary.End,
	)
	return res
}
