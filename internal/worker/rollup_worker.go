package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/events"
)

// RollupStore is the storage surface the worker needs.
type RollupStore interface {
	GetExpense(ctx context.Context, id int64) (*core.Expense, error)
	RefreshMonthlySpent(ctx context.Context, year, month int) error
}

// ExpenseMirror mirrors created expenses to an external sheet.
type ExpenseMirror interface {
	Append(ctx context.Context, e core.Expense) (string, error)
}

// RollupWorker keeps the per-category monthly-spent rollups current by
// reacting to mutation events, and optionally mirrors new expenses to
// Google Sheets.
type RollupWorker struct {
	store  RollupStore
	mirror ExpenseMirror
}

func NewRollupWorker(store RollupStore, mirror ExpenseMirror) *RollupWorker {
	return &RollupWorker{store: store, mirror: mirror}
}

// HandleChange processes one mutation event. A rollup failure is returned
// so the message is requeued; mirror failures are logged only, the mirror
// is best-effort.
//
// The rollup column holds current-month spend, so every stats-staling
// event refreshes the current month. The event's month is informational:
// a backdated mutation must not overwrite the figure with an old month's
// totals, and an update can move an expense out of the current month, so
// recomputing the current month is the only write that is always right.
func (w *RollupWorker) HandleChange(ctx context.Context, msg *events.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"entity", msg.Entity,
		"op", msg.Op,
		"id", msg.ID,
		"month", msg.Month,
		"stale_views", msg.StaleViews)

	if staleAny(msg, events.ViewStats, events.ViewCategories) {
		if err := w.RefreshCurrent(ctx); err != nil {
			return err
		}
	}

	if msg.Entity == events.EntityExpense && msg.Op == events.OpCreate {
		w.mirrorExpense(ctx, msg.ID)
	}

	return nil
}

// RefreshCurrent recomputes the current month's rollup. Run periodically
// as a backup for lost messages.
func (w *RollupWorker) RefreshCurrent(ctx context.Context) error {
	now := time.Now().UTC()
	if err := w.store.RefreshMonthlySpent(ctx, now.Year(), int(now.Month())); err != nil {
		return fmt.Errorf("refresh current month rollup: %w", err)
	}
	return nil
}

// RunPeriodic refreshes the current month's rollup on the given interval
// until ctx is cancelled.
func (w *RollupWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic rollup refresh", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := w.RefreshCurrent(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic rollup refresh failed", "error", err)
			}
		}
	}
}

func (w *RollupWorker) mirrorExpense(ctx context.Context, id int64) {
	if w.mirror == nil {
		return
	}

	e, err := w.store.GetExpense(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load expense for mirroring", "id", id, "error", err)
		return
	}

	ref, err := w.mirror.Append(ctx, *e)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to mirror expense", "id", id, "error", err)
		return
	}

	slog.InfoContext(ctx, "Expense mirrored", "id", id, "ref", ref)
}

func staleAny(msg *events.ChangeMessage, views ...string) bool {
	for _, stale := range msg.StaleViews {
		for _, v := range views {
			if stale == v {
				return true
			}
		}
	}
	return false
}
