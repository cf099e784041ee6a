package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

var (
	ErrEmptyQuery   = errors.New("search keyword is empty")
	ErrInvalidRange = errors.New("invalid date range")
)

// ExpenseService validates and stores expenses and triggers a budget check
// after every new or edited expense.
type ExpenseService struct {
	expenses   ExpenseStore
	categories CategoryStore
	checker    BudgetChecker
	now        func() time.Time
	logger     *log.Logger
}

func NewExpenseService(expenses ExpenseStore, categories CategoryStore, checker BudgetChecker, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Default(log.ComponentExpense)
	}
	return &ExpenseService{
		expenses:   expenses,
		categories: categories,
		checker:    checker,
		now:        time.Now,
		logger:     logger.WithComponent(log.ComponentExpense),
	}
}

// AddExpense saves e and then requests a budget check for the new spend.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e, err := s.prepare(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}

	saved, err := s.expenses.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense added",
		log.FieldOperation, log.OpCreate,
		"id", saved.ID,
		log.FieldCategoryID, saved.CategoryID,
		log.FieldAmountCents, saved.Amount.Cents)

	triggerCheck(ctx, s.checker, s.logger, "expense added")
	return saved, nil
}

// UpdateExpense replaces the expense with e.ID. Amount, date and category all
// move month-to-date spend, so a budget check follows.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e, err := s.prepare(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}

	saved, err := s.expenses.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense updated",
		log.FieldOperation, log.OpUpdate,
		"id", saved.ID,
		log.FieldCategoryID, saved.CategoryID,
		log.FieldAmountCents, saved.Amount.Cents)

	triggerCheck(ctx, s.checker, s.logger, "expense updated")
	return saved, nil
}

// prepare normalises e and checks it against the clock and the category store.
func (s *ExpenseService) prepare(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Description = strings.TrimSpace(e.Description)
	pm, err := core.ParsePaymentMethod(string(e.PaymentMethod))
	if err != nil {
		return core.Expense{}, err
	}
	e.PaymentMethod = pm

	if err := e.Validate(s.now()); err != nil {
		return core.Expense{}, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := s.categories.GetCategory(ctx, e.CategoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Expense{}, fmt.Errorf("validation failed: %w", core.ErrMissingCategory)
		}
		return core.Expense{}, fmt.Errorf("load category: %w", err)
	}
	return e, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.expenses.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldOperation, log.OpDelete, "id", id)
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.expenses.GetExpense(ctx, id)
}

// ListByRange lists expenses dated within [start, end].
func (s *ExpenseService) ListByRange(ctx context.Context, start, end core.Date) ([]core.Expense, error) {
	if end.Before(start.Time) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, end, start)
	}
	return s.expenses.ListExpensesByRange(ctx, start, end)
}

// ListCurrentMonth lists expenses of the calendar month containing now.
func (s *ExpenseService) ListCurrentMonth(ctx context.Context) ([]core.Expense, error) {
	w := core.MonthWindow(s.now())
	return s.expenses.ListExpensesByRange(ctx, w.Start, w.End)
}

func (s *ExpenseService) ListByCategory(ctx context.Context, categoryID int64) ([]core.Expense, error) {
	return s.expenses.ListExpensesByCategory(ctx, categoryID)
}

// ListRecent returns the newest expenses. A non-positive limit means 10 and
// the limit is capped at 100.
func (s *ExpenseService) ListRecent(ctx context.Context, limit int) ([]core.Expense, error) {
	switch {
	case limit <= 0:
		limit = defaultRecentLimit
	case limit > maxRecentLimit:
		limit = maxRecentLimit
	}
	return s.expenses.ListRecentExpenses(ctx, limit)
}

func (s *ExpenseService) Search(ctx context.Context, keyword string) ([]core.Expense, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyQuery
	}
	return s.expenses.SearchExpenses(ctx, keyword)
}
