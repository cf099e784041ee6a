package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"), log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func limit(cents int64) *core.Money {
	return &core.Money{Cents: cents}
}

func TestCategoryLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	food, err := repo.CreateCategory(ctx, core.Category{Name: " Food ", MonthlyLimit: limit(10000)})
	require.NoError(t, err)
	assert.Positive(t, food.ID)
	assert.Equal(t, "Food", food.Name)

	_, err = repo.CreateCategory(ctx, core.Category{Name: "food"})
	assert.ErrorIs(t, err, core.ErrDuplicateName, "names are unique regardless of case")

	misc, err := repo.CreateCategory(ctx, core.Category{Name: "Misc"})
	require.NoError(t, err)

	got, err := repo.GetCategory(ctx, food.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MonthlyLimit)
	assert.Equal(t, int64(10000), got.MonthlyLimit.Cents)
	assert.False(t, got.CreatedAt.IsZero())

	all, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	budgeted, err := repo.ListBudgeted(ctx)
	require.NoError(t, err)
	require.Len(t, budgeted, 1)
	assert.Equal(t, food.ID, budgeted[0].ID)

	updated, err := repo.SetCategoryLimit(ctx, misc.ID, limit(5000))
	require.NoError(t, err)
	assert.True(t, updated.Budgeted())

	cleared, err := repo.SetCategoryLimit(ctx, food.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.MonthlyLimit)

	budgeted, err = repo.ListBudgeted(ctx)
	require.NoError(t, err)
	require.Len(t, budgeted, 1)
	assert.Equal(t, misc.ID, budgeted[0].ID)

	_, err = repo.GetCategory(ctx, 9999)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.SetCategoryLimit(ctx, 9999, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestExpensesAndSums(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	food, err := repo.CreateCategory(ctx, core.Category{Name: "Food", MonthlyLimit: limit(10000)})
	require.NoError(t, err)
	rent, err := repo.CreateCategory(ctx, core.Category{Name: "Rent", MonthlyLimit: limit(20000)})
	require.NoError(t, err)

	add := func(cat int64, date core.Date, cents int64, desc string) core.Expense {
		e, err := repo.CreateExpense(ctx, core.Expense{CategoryID: cat, Date: date, Amount: core.Money{Cents: cents}, Description: desc})
		require.NoError(t, err)
		return e
	}
	add(food.ID, core.NewDate(2025, 2, 28), 9999, "last month groceries")
	add(food.ID, core.NewDate(2025, 3, 1), 5000, "Groceries")
	add(food.ID, core.NewDate(2025, 3, 31), 3500, "pizza night")
	add(food.ID, core.NewDate(2025, 4, 1), 7777, "next month")
	rentExp := add(rent.ID, core.NewDate(2025, 3, 5), 21000, "March rent 100%")

	assert.Equal(t, core.PaymentOther, rentExp.PaymentMethod)

	w := core.MonthWindow(core.NewDate(2025, 3, 15).Time)
	sum, err := repo.SumByCategoryAndWindow(ctx, food.ID, w.Start, w.End)
	require.NoError(t, err)
	assert.Equal(t, int64(8500), sum.Cents, "window bounds are inclusive and neighbours excluded")

	sum, err = repo.SumByCategoryAndWindow(ctx, 4242, w.Start, w.End)
	require.NoError(t, err)
	assert.Zero(t, sum.Cents)

	inMarch, err := repo.ListExpensesByRange(ctx, w.Start, w.End)
	require.NoError(t, err)
	require.Len(t, inMarch, 3)
	assert.Equal(t, core.NewDate(2025, 3, 31).String(), inMarch[0].Date.String())

	byCat, err := repo.ListExpensesByCategory(ctx, rent.ID)
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, int64(21000), byCat[0].Amount.Cents)

	recent, err := repo.ListRecentExpenses(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "next month", recent[0].Description)

	found, err := repo.SearchExpenses(ctx, "GROCERIES")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	literal, err := repo.SearchExpenses(ctx, "100%")
	require.NoError(t, err)
	assert.Len(t, literal, 1)

	got, err := repo.GetExpense(ctx, rentExp.ID)
	require.NoError(t, err)
	assert.Equal(t, rentExp.Description, got.Description)

	err = repo.DeleteCategory(ctx, rent.ID)
	assert.ErrorIs(t, err, core.ErrCategoryInUse)

	require.NoError(t, repo.DeleteExpense(ctx, rentExp.ID))
	assert.ErrorIs(t, repo.DeleteExpense(ctx, rentExp.ID), core.ErrNotFound)
	require.NoError(t, repo.DeleteCategory(ctx, rent.ID))
	assert.ErrorIs(t, repo.DeleteCategory(ctx, rent.ID), core.ErrNotFound)
}

func TestUpdateCategoryAndExpense(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	food, err := repo.CreateCategory(ctx, core.Category{Name: "Food"})
	require.NoError(t, err)
	travel, err := repo.CreateCategory(ctx, core.Category{Name: "Travel", MonthlyLimit: limit(5000)})
	require.NoError(t, err)

	renamed, err := repo.UpdateCategory(ctx, core.Category{ID: food.ID, Name: " Groceries ", MonthlyLimit: limit(30000)})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", renamed.Name)
	require.NotNil(t, renamed.MonthlyLimit)
	assert.Equal(t, int64(30000), renamed.MonthlyLimit.Cents)
	assert.Equal(t, food.CreatedAt.Unix(), renamed.CreatedAt.Unix())

	_, err = repo.UpdateCategory(ctx, core.Category{ID: food.ID, Name: "TRAVEL"})
	assert.ErrorIs(t, err, core.ErrDuplicateName)
	_, err = repo.UpdateCategory(ctx, core.Category{ID: 9999, Name: "Ghost"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	e, err := repo.CreateExpense(ctx, core.Expense{CategoryID: food.ID, Date: core.NewDate(2025, 3, 3), Amount: core.Money{Cents: 1200}})
	require.NoError(t, err)

	e.CategoryID = travel.ID
	e.Amount = core.Money{Cents: 4500}
	e.Date = core.NewDate(2025, 3, 4)
	e.Description = "Train"
	e.PaymentMethod = core.PaymentCard
	updated, err := repo.UpdateExpense(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, travel.ID, updated.CategoryID)
	assert.Equal(t, "2025-03-04", updated.Date.String())
	assert.Equal(t, core.PaymentCard, updated.PaymentMethod)

	w := core.MonthWindow(core.NewDate(2025, 3, 15).Time)
	sum, err := repo.SumByCategoryAndWindow(ctx, food.ID, w.Start, w.End)
	require.NoError(t, err)
	assert.Zero(t, sum.Cents, "spend moves with the expense")
	sum, err = repo.SumByCategoryAndWindow(ctx, travel.ID, w.Start, w.End)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), sum.Cents)

	e.CategoryID = 777
	_, err = repo.UpdateExpense(ctx, e)
	assert.ErrorIs(t, err, core.ErrMissingCategory)

	e.CategoryID = food.ID
	e.ID = 9999
	_, err = repo.UpdateExpense(ctx, e)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestExpenseForUnknownCategory(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.CreateExpense(context.Background(), core.Expense{
		CategoryID: 77,
		Date:       core.NewDate(2025, 3, 1),
		Amount:     core.Money{Cents: 100},
	})
	assert.ErrorIs(t, err, core.ErrMissingCategory)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	repo, err := NewSQLiteRepository(path, log.Discard())
	require.NoError(t, err)
	_, err = repo.CreateCategory(context.Background(), core.Category{Name: "Travel"})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path, log.Discard())
	require.NoError(t, err)
	defer repo.Close()

	cats, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Travel", cats[0].Name)
}

func TestDataAccessErrorMatchesSentinel(t *testing.T) {
	err := wrapErr("sum expenses", errors.New("disk I/O error"))

	var dae *DataAccessError
	require.ErrorAs(t, err, &dae)
	assert.Equal(t, "sum expenses", dae.Op)
	assert.ErrorIs(t, err, core.ErrDataAccess)
	assert.Nil(t, wrapErr("noop", nil))
}

func TestDataAccessErrorOnClosedDatabase(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Close())

	_, err := repo.ListBudgeted(context.Background())
	assert.ErrorIs(t, err, core.ErrDataAccess)
}
