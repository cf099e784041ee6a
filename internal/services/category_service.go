package services

import (
	"context"
	"fmt"
	"strings"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
)

// CategoryService manages categories and their monthly limits. Any change to
// a limit triggers a budget check.
type CategoryService struct {
	store   CategoryStore
	checker BudgetChecker
	logger  *log.Logger
}

func NewCategoryService(store CategoryStore, checker BudgetChecker, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.Default(log.ComponentCategory)
	}
	return &CategoryService{
		store:   store,
		checker: checker,
		logger:  logger.WithComponent(log.ComponentCategory),
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string, limit *core.Money) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name), MonthlyLimit: limit}
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validation failed: %w", err)
	}

	saved, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category created", log.NewFields().
		WithOperation(log.OpCreate).
		WithCategory(saved.ID, saved.Name).ToSlice()...)

	if saved.Budgeted() {
		triggerCheck(ctx, s.checker, s.logger, "category created")
	}
	return saved, nil
}

// UpdateCategory renames the category and replaces its limit. Names stay
// unique regardless of case.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, name string, limit *core.Money) (core.Category, error) {
	c := core.Category{ID: id, Name: strings.TrimSpace(name), MonthlyLimit: limit}
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validation failed: %w", err)
	}

	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithCategory(updated.ID, updated.Name).ToSlice()...)

	triggerCheck(ctx, s.checker, s.logger, "category updated")
	return updated, nil
}

// SetLimit sets the monthly limit, or clears it when limit is nil.
func (s *CategoryService) SetLimit(ctx context.Context, id int64, limit *core.Money) (core.Category, error) {
	if limit != nil && limit.Cents <= 0 {
		return core.Category{}, fmt.Errorf("validation failed: %w", core.ErrInvalidLimit)
	}

	updated, err := s.store.SetCategoryLimit(ctx, id, limit)
	if err != nil {
		return core.Category{}, fmt.Errorf("set limit: %w", err)
	}

	fields := log.NewFields().WithOperation(log.OpUpdate).WithCategory(updated.ID, updated.Name)
	if limit != nil {
		fields[log.FieldLimit] = limit.String()
	}
	s.logger.InfoContext(ctx, "Category limit updated", fields.ToSlice()...)

	triggerCheck(ctx, s.checker, s.logger, "limit changed")
	return updated, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category deleted", log.FieldOperation, log.OpDelete, log.FieldCategoryID, id)
	return nil
}
