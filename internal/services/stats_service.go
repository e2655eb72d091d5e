package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finpulse/internal/core"
)

// StatsStore is the storage surface the stats service needs.
type StatsStore interface {
	ListExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error)
	MonthTotal(ctx context.Context, year, month int) (core.Money, error)
}

// StatsService runs the pure aggregation engines over repository data.
// Each call computes fresh from storage; nothing here is persisted.
type StatsService struct {
	store StatsStore
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) Summary(ctx context.Context, from, to core.Date) (core.Summary, error) {
	expenses, err := s.store.ListExpenses(ctx, core.Filter{From: from, To: to})
	if err != nil {
		return core.Summary{}, fmt.Errorf("list expenses for summary: %w", err)
	}
	return core.Summarize(expenses), nil
}

// Daily returns the zero-filled day series over the inclusive window.
func (s *StatsService) Daily(ctx context.Context, start, end core.Date) ([]core.DailyPoint, error) {
	expenses, err := s.store.ListExpenses(ctx, core.Filter{From: start, To: end})
	if err != nil {
		return nil, fmt.Errorf("list expenses for daily series: %w", err)
	}
	return core.DailySeries(expenses, start, end), nil
}

func (s *StatsService) Breakdown(ctx context.Context, from, to core.Date) ([]core.BreakdownEntry, error) {
	expenses, err := s.store.ListExpenses(ctx, core.Filter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list expenses for breakdown: %w", err)
	}
	return core.Breakdown(expenses), nil
}

// MonthComparison compares the given month's total against the prior
// month's. The two totals are independent fetches and run concurrently.
func (s *StatsService) MonthComparison(ctx context.Context, year, month int) (core.MonthComparison, error) {
	priorYear, priorMonth := year, month-1
	if priorMonth < 1 {
		priorYear, priorMonth = year-1, 12
	}

	var this, prior core.Money
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		this, err = s.store.MonthTotal(gctx, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		prior, err = s.store.MonthTotal(gctx, priorYear, priorMonth)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthComparison{}, fmt.Errorf("fetch month totals: %w", err)
	}

	return core.CompareMonths(this, prior), nil
}
