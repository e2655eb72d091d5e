package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/events"
)

type fakeRollupStore struct {
	refreshed  []string
	expenses   map[int64]*core.Expense
	refreshErr error
}

func (s *fakeRollupStore) GetExpense(_ context.Context, id int64) (*core.Expense, error) {
	e, ok := s.expenses[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return e, nil
}

func (s *fakeRollupStore) RefreshMonthlySpent(_ context.Context, year, month int) error {
	if s.refreshErr != nil {
		return s.refreshErr
	}
	s.refreshed = append(s.refreshed, fmt.Sprintf("%04d-%02d", year, month))
	return nil
}

type fakeMirror struct {
	appended []core.Expense
	failWith error
}

func (m *fakeMirror) Append(_ context.Context, e core.Expense) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}
	m.appended = append(m.appended, e)
	return "Expenses!A2:E2", nil
}

func expenseChange(op events.Op, id int64, month string) *events.ChangeMessage {
	return events.NewChangeMessage(events.EntityExpense, op, id, month,
		[]string{events.ViewExpenses, events.ViewStats, events.ViewCategories})
}

func currentMonthKey() string {
	now := time.Now().UTC()
	return fmt.Sprintf("%04d-%02d", now.Year(), now.Month())
}

func TestHandleChangeRefreshesCurrentMonth(t *testing.T) {
	store := &fakeRollupStore{expenses: map[int64]*core.Expense{}}
	w := NewRollupWorker(store, nil)

	if err := w.HandleChange(context.Background(), expenseChange(events.OpDelete, 7, "2024-03")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.refreshed) != 1 || store.refreshed[0] != currentMonthKey() {
		t.Fatalf("refreshed = %v, want [%s]", store.refreshed, currentMonthKey())
	}
}

// A mutation touching an old expense must not overwrite the current-month
// rollup with that month's totals.
func TestHandleChangeBackdatedEventKeepsCurrentMonthRollup(t *testing.T) {
	store := &fakeRollupStore{expenses: map[int64]*core.Expense{}}
	w := NewRollupWorker(store, nil)

	if err := w.HandleChange(context.Background(), expenseChange(events.OpUpdate, 7, "2020-01")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	for _, month := range store.refreshed {
		if month == "2020-01" {
			t.Fatalf("rollup recomputed for the event's month, refreshed = %v", store.refreshed)
		}
	}
	if len(store.refreshed) != 1 || store.refreshed[0] != currentMonthKey() {
		t.Fatalf("refreshed = %v, want [%s]", store.refreshed, currentMonthKey())
	}
}

func TestHandleChangeRollupFailureRequeues(t *testing.T) {
	store := &fakeRollupStore{refreshErr: errors.New("db locked")}
	w := NewRollupWorker(store, nil)

	if err := w.HandleChange(context.Background(), expenseChange(events.OpUpdate, 7, "2024-03")); err == nil {
		t.Fatal("rollup failure should propagate so the message is requeued")
	}
}

func TestHandleChangeToleratesMalformedMonth(t *testing.T) {
	store := &fakeRollupStore{}
	w := NewRollupWorker(store, nil)

	if err := w.HandleChange(context.Background(), expenseChange(events.OpCreate, 7, "not-a-month")); err != nil {
		t.Fatalf("month field is informational, handle should not fail: %v", err)
	}
	if len(store.refreshed) != 1 || store.refreshed[0] != currentMonthKey() {
		t.Fatalf("refreshed = %v, want [%s]", store.refreshed, currentMonthKey())
	}
}

func TestHandleChangeMirrorsCreatedExpense(t *testing.T) {
	e := &core.Expense{
		ID:          7,
		Date:        core.NewDate(2024, 3, 1),
		Description: "Coffee",
		Amount:      core.Money{Cents: 500},
	}
	store := &fakeRollupStore{expenses: map[int64]*core.Expense{7: e}}
	m := &fakeMirror{}
	w := NewRollupWorker(store, m)

	if err := w.HandleChange(context.Background(), expenseChange(events.OpCreate, 7, "2024-03")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(m.appended) != 1 || m.appended[0].Description != "Coffee" {
		t.Fatalf("mirrored = %+v", m.appended)
	}
}

func TestHandleChangeMirrorFailureIsBestEffort(t *testing.T) {
	e := &core.Expense{ID: 7, Date: core.NewDate(2024, 3, 1), Description: "Coffee", Amount: core.Money{Cents: 500}}
	store := &fakeRollupStore{expenses: map[int64]*core.Expense{7: e}}
	m := &fakeMirror{failWith: errors.New("quota exceeded")}
	w := NewRollupWorker(store, m)

	if err := w.HandleChange(context.Background(), expenseChange(events.OpCreate, 7, "2024-03")); err != nil {
		t.Fatalf("mirror failure must not fail the message: %v", err)
	}
}

func TestHandleChangeUpdatesDoNotMirror(t *testing.T) {
	e := &core.Expense{ID: 7, Date: core.NewDate(2024, 3, 1), Description: "Coffee", Amount: core.Money{Cents: 500}}
	store := &fakeRollupStore{expenses: map[int64]*core.Expense{7: e}}
	m := &fakeMirror{}
	w := NewRollupWorker(store, m)

	if err := w.HandleChange(context.Background(), expenseChange(events.OpUpdate, 7, "2024-03")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(m.appended) != 0 {
		t.Fatalf("updates must not be mirrored, got %+v", m.appended)
	}
}

func TestHandleChangeCategoryEventUsesCurrentMonth(t *testing.T) {
	store := &fakeRollupStore{}
	w := NewRollupWorker(store, nil)

	msg := events.NewChangeMessage(events.EntityCategory, events.OpDelete, 3, "",
		[]string{events.ViewExpenses, events.ViewCategories, events.ViewStats})
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.refreshed) != 1 {
		t.Fatalf("refreshed = %v", store.refreshed)
	}
}
