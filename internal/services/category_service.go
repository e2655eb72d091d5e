package services

import (
	"context"
	"fmt"
	"log/slog"

	"finpulse/internal/core"
	"finpulse/internal/events"
)

// CategoryStore is the storage surface the category service needs.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (*core.Category, error)
	CreateCategory(ctx context.Context, c *core.Category) (*core.Category, error)
	UpdateCategory(ctx context.Context, c *core.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	SetBudget(ctx context.Context, categoryID int64, budget *core.Money) error
}

// Category name and color feed the breakdown, so category mutations stale
// stats as well as the category list. Budget changes only touch the list.
var (
	categoryStaleViews = []string{events.ViewCategories, events.ViewStats}
	budgetStaleViews   = []string{events.ViewCategories}
)

type CategoryService struct {
	store     CategoryStore
	publisher ChangePublisher
}

func NewCategoryService(store CategoryStore, publisher ChangePublisher) *CategoryService {
	return &CategoryService{store: store, publisher: publisher}
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, c *core.Category) (*core.Category, []string, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return nil, nil, fmt.Errorf("save category: %w", err)
	}

	s.publishChange(ctx, events.EntityCategory, events.OpCreate, created.ID, categoryStaleViews)
	return created, categoryStaleViews, nil
}

func (s *CategoryService) Update(ctx context.Context, c *core.Category) (*core.Category, []string, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, nil, fmt.Errorf("update category: %w", err)
	}
	updated, err := s.store.GetCategory(ctx, c.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("reload category: %w", err)
	}

	s.publishChange(ctx, events.EntityCategory, events.OpUpdate, updated.ID, categoryStaleViews)
	return updated, categoryStaleViews, nil
}

// Delete removes a category. Expenses referencing it become uncategorized,
// so the expense list is stale too.
func (s *CategoryService) Delete(ctx context.Context, id int64) ([]string, error) {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return nil, fmt.Errorf("delete category: %w", err)
	}

	stale := append([]string{events.ViewExpenses}, categoryStaleViews...)
	s.publishChange(ctx, events.EntityCategory, events.OpDelete, id, stale)
	return stale, nil
}

// SetBudget sets a category's monthly ceiling; a nil budget clears it.
func (s *CategoryService) SetBudget(ctx context.Context, categoryID int64, budget *core.Money) (*core.Category, []string, error) {
	if budget != nil && budget.Cents <= 0 {
		return nil, nil, core.ErrInvalidBudget
	}

	if err := s.store.SetBudget(ctx, categoryID, budget); err != nil {
		return nil, nil, fmt.Errorf("set budget: %w", err)
	}
	updated, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("reload category: %w", err)
	}

	s.publishChange(ctx, events.EntityBudget, events.OpUpdate, categoryID, budgetStaleViews)
	return updated, budgetStaleViews, nil
}

func (s *CategoryService) publishChange(ctx context.Context, entity events.Entity, op events.Op, id int64, staleViews []string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Change publisher not available, skipping event",
			"entity", entity, "op", op, "id", id)
		return
	}

	msg := events.NewChangeMessage(entity, op, id, "", staleViews)
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"entity", entity, "op", op, "id", id, "error", err)
	}
}
