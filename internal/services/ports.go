package services

import (
	"context"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
	"budgetwatch/internal/scheduler"
)

type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	SetCategoryLimit(ctx context.Context, id int64, limit *core.Money) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListExpensesByRange(ctx context.Context, start, end core.Date) ([]core.Expense, error)
	ListExpensesByCategory(ctx context.Context, categoryID int64) ([]core.Expense, error)
	ListRecentExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	SearchExpenses(ctx context.Context, keyword string) ([]core.Expense, error)
}

// BudgetChecker runs an extra budget evaluation outside the regular schedule.
// *monitor.Monitor implements it.
type BudgetChecker interface {
	CheckNow() (*scheduler.Handle, error)
}

// triggerCheck asks for a budget evaluation after a write. A failure is
// logged; the write itself already succeeded.
func triggerCheck(ctx context.Context, checker BudgetChecker, logger *log.Logger, reason string) {
	if checker == nil {
		return
	}
	if _, err := checker.CheckNow(); err != nil {
		logger.WarnContext(ctx, "Failed to trigger budget check", "reason", reason, "error", err)
	}
}
