package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"budgetwatch/internal/core"
)

func TestStoreCategoriesAndSums(t *testing.T) {
	s := New()
	ctx := context.Background()

	limit := core.Money{Cents: 10000}
	food, err := s.CreateCategory(ctx, core.Category{Name: "Food", MonthlyLimit: &limit})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	limit.Cents = 1 // stored limit must not alias the caller's value
	if _, err := s.CreateCategory(ctx, core.Category{Name: "FOOD"}); err != core.ErrDuplicateName {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	misc, _ := s.CreateCategory(ctx, core.Category{Name: "Misc"})

	budgeted, _ := s.ListBudgeted(ctx)
	if len(budgeted) != 1 || budgeted[0].ID != food.ID || budgeted[0].MonthlyLimit.Cents != 10000 {
		t.Fatalf("unexpected budgeted list: %+v", budgeted)
	}

	for _, e := range []core.Expense{
		{CategoryID: food.ID, Date: core.NewDate(2025, 2, 28), Amount: core.Money{Cents: 999}},
		{CategoryID: food.ID, Date: core.NewDate(2025, 3, 1), Amount: core.Money{Cents: 5000}, Description: "Groceries"},
		{CategoryID: food.ID, Date: core.NewDate(2025, 3, 31), Amount: core.Money{Cents: 3500}},
		{CategoryID: misc.ID, Date: core.NewDate(2025, 3, 10), Amount: core.Money{Cents: 100}, Description: "groceries bag"},
	} {
		if _, err := s.CreateExpense(ctx, e); err != nil {
			t.Fatalf("add expense: %v", err)
		}
	}
	if _, err := s.CreateExpense(ctx, core.Expense{CategoryID: 99, Amount: core.Money{Cents: 1}}); err != core.ErrMissingCategory {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}

	w := core.MonthWindow(core.NewDate(2025, 3, 15).Time)
	sum, _ := s.SumByCategoryAndWindow(ctx, food.ID, w.Start, w.End)
	if sum.Cents != 8500 {
		t.Fatalf("expected 8500, got %d", sum.Cents)
	}

	found, _ := s.SearchExpenses(ctx, "GROCER")
	if len(found) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(found))
	}
	recent, _ := s.ListRecentExpenses(ctx, 1)
	if len(recent) != 1 || recent[0].Date.Day() != 31 {
		t.Fatalf("unexpected recent: %+v", recent)
	}

	if err := s.DeleteCategory(ctx, misc.ID); err != core.ErrCategoryInUse {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if _, err := s.SetCategoryLimit(ctx, food.ID, nil); err != nil {
		t.Fatalf("clear limit: %v", err)
	}
	if budgeted, _ := s.ListBudgeted(ctx); len(budgeted) != 0 {
		t.Fatalf("expected no budgeted categories, got %d", len(budgeted))
	}
}

func TestStoreUpdates(t *testing.T) {
	s := New()
	ctx := context.Background()

	food, _ := s.CreateCategory(ctx, core.Category{Name: "Food"})
	rent, _ := s.CreateCategory(ctx, core.Category{Name: "Rent"})

	if _, err := s.UpdateCategory(ctx, core.Category{ID: food.ID, Name: "rent"}); err != core.ErrDuplicateName {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	limit := core.Money{Cents: 2500}
	renamed, err := s.UpdateCategory(ctx, core.Category{ID: food.ID, Name: "FOOD", MonthlyLimit: &limit})
	if err != nil {
		t.Fatalf("rename to own name in other case: %v", err)
	}
	limit.Cents = 1
	if renamed.Name != "FOOD" || renamed.MonthlyLimit.Cents != 2500 || !renamed.CreatedAt.Equal(food.CreatedAt) {
		t.Fatalf("unexpected category after update: %+v", renamed)
	}
	if _, err := s.UpdateCategory(ctx, core.Category{ID: 42, Name: "Ghost"}); err != core.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	e, _ := s.CreateExpense(ctx, core.Expense{CategoryID: food.ID, Date: core.NewDate(2025, 3, 2), Amount: core.Money{Cents: 700}})
	e.CategoryID = rent.ID
	e.Amount = core.Money{Cents: 900}
	updated, err := s.UpdateExpense(ctx, e)
	if err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if !updated.CreatedAt.Equal(e.CreatedAt) || updated.PaymentMethod != core.PaymentOther {
		t.Fatalf("unexpected expense after update: %+v", updated)
	}

	w := core.MonthWindow(core.NewDate(2025, 3, 15).Time)
	if sum, _ := s.SumByCategoryAndWindow(ctx, food.ID, w.Start, w.End); sum.Cents != 0 {
		t.Fatalf("expected food spend to move away, got %d", sum.Cents)
	}
	if sum, _ := s.SumByCategoryAndWindow(ctx, rent.ID, w.Start, w.End); sum.Cents != 900 {
		t.Fatalf("expected 900 on rent, got %d", sum.Cents)
	}

	e.CategoryID = 99
	if _, err := s.UpdateExpense(ctx, e); err != core.ErrMissingCategory {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
	e.ID = 99
	if _, err := s.UpdateExpense(ctx, e); err != core.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewFromFilesSeedsLimits(t *testing.T) {
	dir := t.TempDir()
	seed := "# seeds\nFood=400.00\nRent = 1200\nMisc\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(cats))
	}
	budgeted, _ := s.ListBudgeted(context.Background())
	if len(budgeted) != 2 {
		t.Fatalf("expected 2 budgeted categories, got %d", len(budgeted))
	}
	if budgeted[0].Name != "Food" || budgeted[0].MonthlyLimit.Cents != 40000 {
		t.Fatalf("unexpected first budgeted category: %+v", budgeted[0])
	}
}

func TestNewFromFilesMissingFile(t *testing.T) {
	s, err := NewFromFiles(t.TempDir())
	if err != nil {
		t.Fatalf("missing seed file should not fail: %v", err)
	}
	if cats, _ := s.ListCategories(context.Background()); len(cats) != 0 {
		t.Fatalf("expected empty store, got %d", len(cats))
	}
}

func TestBadSeedLimit(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("Food=abc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatal("expected error for invalid seed limit")
	}
}
