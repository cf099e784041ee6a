package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
	"budgetwatch/internal/scheduler"
	"budgetwatch/internal/storage/memory"
)

type countingChecker struct {
	calls atomic.Int32
	err   error
}

func (c *countingChecker) CheckNow() (*scheduler.Handle, error) {
	c.calls.Add(1)
	return nil, c.err
}

func money(cents int64) *core.Money { return &core.Money{Cents: cents} }

func newServices(t *testing.T, checker BudgetChecker) (*CategoryService, *ExpenseService) {
	t.Helper()
	store := memory.New()
	cats := NewCategoryService(store, checker, log.Discard())
	exps := NewExpenseService(store, store, checker, log.Discard())
	exps.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	return cats, exps
}

func TestCreateCategory(t *testing.T) {
	checker := &countingChecker{}
	cats, _ := newServices(t, checker)
	ctx := context.Background()

	food, err := cats.CreateCategory(ctx, "  Food ", money(40000))
	require.NoError(t, err)
	assert.Equal(t, "Food", food.Name)
	assert.EqualValues(t, 1, checker.calls.Load(), "budgeted category triggers a check")

	_, err = cats.CreateCategory(ctx, "Misc", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, checker.calls.Load(), "unbudgeted category does not")

	_, err = cats.CreateCategory(ctx, "food", nil)
	assert.ErrorIs(t, err, core.ErrDuplicateName)

	_, err = cats.CreateCategory(ctx, " ", nil)
	assert.ErrorIs(t, err, core.ErrEmptyName)

	_, err = cats.CreateCategory(ctx, "Rent", money(0))
	assert.ErrorIs(t, err, core.ErrInvalidLimit)
}

func TestSetLimit(t *testing.T) {
	checker := &countingChecker{}
	cats, _ := newServices(t, checker)
	ctx := context.Background()

	c, err := cats.CreateCategory(ctx, "Fun", nil)
	require.NoError(t, err)

	updated, err := cats.SetLimit(ctx, c.ID, money(5000))
	require.NoError(t, err)
	require.NotNil(t, updated.MonthlyLimit)
	assert.EqualValues(t, 5000, updated.MonthlyLimit.Cents)

	cleared, err := cats.SetLimit(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.MonthlyLimit)
	assert.EqualValues(t, 2, checker.calls.Load())

	_, err = cats.SetLimit(ctx, c.ID, money(-1))
	assert.ErrorIs(t, err, core.ErrInvalidLimit)

	_, err = cats.SetLimit(ctx, 999, money(100))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateCategoryRenamesAndTriggersCheck(t *testing.T) {
	checker := &countingChecker{}
	cats, _ := newServices(t, checker)
	ctx := context.Background()

	food, err := cats.CreateCategory(ctx, "Food", nil)
	require.NoError(t, err)
	_, err = cats.CreateCategory(ctx, "Rent", nil)
	require.NoError(t, err)

	updated, err := cats.UpdateCategory(ctx, food.ID, " Groceries ", money(30000))
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Name)
	require.NotNil(t, updated.MonthlyLimit)
	assert.EqualValues(t, 30000, updated.MonthlyLimit.Cents)
	assert.EqualValues(t, 1, checker.calls.Load())

	same, err := cats.UpdateCategory(ctx, food.ID, "GROCERIES", nil)
	require.NoError(t, err, "a category may change the case of its own name")
	assert.Equal(t, "GROCERIES", same.Name)
	assert.Nil(t, same.MonthlyLimit)

	_, err = cats.UpdateCategory(ctx, food.ID, "rent", nil)
	assert.ErrorIs(t, err, core.ErrDuplicateName)
	_, err = cats.UpdateCategory(ctx, food.ID, "  ", nil)
	assert.ErrorIs(t, err, core.ErrEmptyName)
	_, err = cats.UpdateCategory(ctx, food.ID, "Food", money(0))
	assert.ErrorIs(t, err, core.ErrInvalidLimit)
	_, err = cats.UpdateCategory(ctx, 404, "Other", nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.EqualValues(t, 2, checker.calls.Load(), "failed updates do not trigger a check")
}

func TestDeleteCategoryInUse(t *testing.T) {
	cats, exps := newServices(t, nil)
	ctx := context.Background()

	c, err := cats.CreateCategory(ctx, "Food", nil)
	require.NoError(t, err)
	_, err = exps.AddExpense(ctx, core.Expense{CategoryID: c.ID, Date: core.NewDate(2025, 3, 1), Amount: core.Money{Cents: 100}})
	require.NoError(t, err)

	assert.ErrorIs(t, cats.DeleteCategory(ctx, c.ID), core.ErrCategoryInUse)
}

func TestAddExpenseTriggersCheck(t *testing.T) {
	checker := &countingChecker{}
	cats, exps := newServices(t, checker)
	ctx := context.Background()

	c, err := cats.CreateCategory(ctx, "Food", nil)
	require.NoError(t, err)

	saved, err := exps.AddExpense(ctx, core.Expense{
		CategoryID:  c.ID,
		Date:        core.NewDate(2025, 3, 10),
		Amount:      core.Money{Cents: 1250},
		Description: "  groceries ",
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "groceries", saved.Description)
	assert.Equal(t, core.PaymentOther, saved.PaymentMethod)
	assert.EqualValues(t, 1, checker.calls.Load())
}

func TestUpdateExpenseTriggersCheck(t *testing.T) {
	checker := &countingChecker{}
	cats, exps := newServices(t, checker)
	ctx := context.Background()

	food, err := cats.CreateCategory(ctx, "Food", nil)
	require.NoError(t, err)
	rent, err := cats.CreateCategory(ctx, "Rent", nil)
	require.NoError(t, err)

	saved, err := exps.AddExpense(ctx, core.Expense{CategoryID: food.ID, Date: core.NewDate(2025, 3, 10), Amount: core.Money{Cents: 1250}})
	require.NoError(t, err)
	require.EqualValues(t, 1, checker.calls.Load())

	edited := saved
	edited.CategoryID = rent.ID
	edited.Amount = core.Money{Cents: 90000}
	edited.Date = core.NewDate(2025, 3, 1)
	edited.Description = " March rent "
	edited.PaymentMethod = "card"

	updated, err := exps.UpdateExpense(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, rent.ID, updated.CategoryID)
	assert.EqualValues(t, 90000, updated.Amount.Cents)
	assert.Equal(t, "March rent", updated.Description)
	assert.Equal(t, core.PaymentCard, updated.PaymentMethod)
	assert.EqualValues(t, 2, checker.calls.Load(), "update triggers CheckNow")

	moved, err := exps.ListByCategory(ctx, food.ID)
	require.NoError(t, err)
	assert.Empty(t, moved)

	edited.Date = core.NewDate(2025, 3, 20)
	_, err = exps.UpdateExpense(ctx, edited)
	assert.ErrorIs(t, err, core.ErrFutureDate)

	edited.Date = core.NewDate(2025, 3, 1)
	edited.CategoryID = 99
	_, err = exps.UpdateExpense(ctx, edited)
	assert.ErrorIs(t, err, core.ErrMissingCategory)

	edited.CategoryID = food.ID
	edited.ID = 12345
	_, err = exps.UpdateExpense(ctx, edited)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.EqualValues(t, 2, checker.calls.Load())
}

func TestAddExpenseSurvivesCheckFailure(t *testing.T) {
	checker := &countingChecker{err: &scheduler.ClosedError{Op: "submit"}}
	cats, exps := newServices(t, checker)
	ctx := context.Background()

	c, err := cats.CreateCategory(ctx, "Food", nil)
	require.NoError(t, err)

	_, err = exps.AddExpense(ctx, core.Expense{CategoryID: c.ID, Date: core.NewDate(2025, 3, 10), Amount: core.Money{Cents: 1}})
	require.NoError(t, err)

	list, err := exps.ListCurrentMonth(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddExpenseValidation(t *testing.T) {
	checker := &countingChecker{}
	cats, exps := newServices(t, checker)
	ctx := context.Background()

	c, err := cats.CreateCategory(ctx, "Food", nil)
	require.NoError(t, err)

	cases := []struct {
		name string
		e    core.Expense
		want error
	}{
		{"unknown category", core.Expense{CategoryID: 42, Date: core.NewDate(2025, 3, 1), Amount: core.Money{Cents: 1}}, core.ErrMissingCategory},
		{"future date", core.Expense{CategoryID: c.ID, Date: core.NewDate(2025, 3, 16), Amount: core.Money{Cents: 1}}, core.ErrFutureDate},
		{"zero amount", core.Expense{CategoryID: c.ID, Date: core.NewDate(2025, 3, 1)}, core.ErrInvalidAmount},
		{"bad payment", core.Expense{CategoryID: c.ID, Date: core.NewDate(2025, 3, 1), Amount: core.Money{Cents: 1}, PaymentMethod: "BARTER"}, core.ErrInvalidPayment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := exps.AddExpense(ctx, tc.e)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
	assert.Zero(t, checker.calls.Load())
}

func TestExpenseQueries(t *testing.T) {
	cats, exps := newServices(t, nil)
	ctx := context.Background()

	food, err := cats.CreateCategory(ctx, "Food", nil)
	require.NoError(t, err)
	rent, err := cats.CreateCategory(ctx, "Rent", nil)
	require.NoError(t, err)

	add := func(cat int64, day int, cents int64, desc string) {
		_, err := exps.AddExpense(ctx, core.Expense{CategoryID: cat, Date: core.NewDate(2025, 3, day), Amount: core.Money{Cents: cents}, Description: desc})
		require.NoError(t, err)
	}
	add(food.ID, 1, 500, "Bakery")
	add(food.ID, 5, 700, "Market")
	add(rent.ID, 2, 90000, "March rent")

	byCat, err := exps.ListByCategory(ctx, food.ID)
	require.NoError(t, err)
	assert.Len(t, byCat, 2)

	ranged, err := exps.ListByRange(ctx, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 2))
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	_, err = exps.ListByRange(ctx, core.NewDate(2025, 3, 5), core.NewDate(2025, 3, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	recent, err := exps.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	found, err := exps.Search(ctx, "rent")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, rent.ID, found[0].CategoryID)

	_, err = exps.Search(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	require.NoError(t, exps.DeleteExpense(ctx, found[0].ID))
	_, err = exps.GetExpense(ctx, found[0].ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
