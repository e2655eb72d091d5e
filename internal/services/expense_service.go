package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/events"
)

// ExpenseStore is the storage surface the expense service needs.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *core.Expense) (*core.Expense, error)
	GetExpense(ctx context.Context, id int64) (*core.Expense, error)
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error)
}

// ChangePublisher emits mutation notifications. A nil publisher disables
// events without failing mutations.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *events.ChangeMessage) error
}

// Views an expense mutation makes stale: the expense list itself, every
// aggregate, and the per-category monthly spent shown on categories.
var expenseStaleViews = []string{events.ViewExpenses, events.ViewStats, events.ViewCategories}

// ExpenseService orchestrates expense mutations across storage and the
// mutation event stream.
type ExpenseService struct {
	store     ExpenseStore
	publisher ChangePublisher
}

func NewExpenseService(store ExpenseStore, publisher ChangePublisher) *ExpenseService {
	return &ExpenseService{store: store, publisher: publisher}
}

// Create validates and saves an expense, then reports which derived views
// the mutation made stale.
func (s *ExpenseService) Create(ctx context.Context, e *core.Expense) (*core.Expense, []string, error) {
	if err := e.Validate(); err != nil {
		return nil, nil, err
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return nil, nil, fmt.Errorf("save expense: %w", err)
	}

	s.publishChange(ctx, events.EntityExpense, events.OpCreate, created.ID, created.Date)
	return created, expenseStaleViews, nil
}

func (s *ExpenseService) Update(ctx context.Context, e *core.Expense) (*core.Expense, []string, error) {
	if err := e.Validate(); err != nil {
		return nil, nil, err
	}

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return nil, nil, fmt.Errorf("update expense: %w", err)
	}
	updated, err := s.store.GetExpense(ctx, e.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("reload expense: %w", err)
	}

	s.publishChange(ctx, events.EntityExpense, events.OpUpdate, updated.ID, updated.Date)
	return updated, expenseStaleViews, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) ([]string, error) {
	// Fetch first so the event can carry the affected month.
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load expense: %w", err)
	}

	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return nil, fmt.Errorf("delete expense: %w", err)
	}

	s.publishChange(ctx, events.EntityExpense, events.OpDelete, id, e.Date)
	return expenseStaleViews, nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (*core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *ExpenseService) List(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return nil, err
	}
	if f.Search == "" {
		return expenses, nil
	}
	matched := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// Grouped returns the day-bucketed view of the filtered collection.
func (s *ExpenseService) Grouped(ctx context.Context, f core.Filter) ([]core.DayGroup, error) {
	expenses, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return nil, err
	}
	return core.GroupByDay(expenses, f, core.Today()), nil
}

// ExportCSV encodes the filtered collection as a CSV document and returns
// it with the download filename for the current month. An empty result is
// core.ErrNothingToExport.
func (s *ExpenseService) ExportCSV(ctx context.Context, f core.Filter) ([]byte, string, error) {
	expenses, err := s.List(ctx, f)
	if err != nil {
		return nil, "", err
	}
	doc, err := core.EncodeCSV(expenses)
	if err != nil {
		return nil, "", err
	}
	return doc, core.ExportFilename(time.Now().UTC()), nil
}

// publishChange never fails the originating mutation: the write is already
// committed, the event only drives recomputation.
func (s *ExpenseService) publishChange(ctx context.Context, entity events.Entity, op events.Op, id int64, date core.Date) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Change publisher not available, skipping event",
			"entity", entity, "op", op, "id", id)
		return
	}

	msg := events.NewChangeMessage(entity, op, id, date.Format("2006-01"), expenseStaleViews)
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"entity", entity, "op", op, "id", id, "error", err)
	}
}
