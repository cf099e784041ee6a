// Package memory is an in-process store for DATA_BACKEND=memory and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"budgetwatch/internal/core"
)

type Store struct {
	mu         sync.RWMutex
	nextCatID  int64
	nextExpID  int64
	categories map[int64]core.Category
	expenses   map[int64]core.Expense
}

func New() *Store {
	return &Store{
		categories: map[int64]core.Category{},
		expenses:   map[int64]core.Expense{},
	}
}

// NewFromFiles seeds categories from base/seed_categories.txt. Each line is
// "Name" or "Name=limit" with the limit in decimal units, e.g. "Food=400.00".
func NewFromFiles(base string) (*Store, error) {
	s := New()
	for _, line := range readLines(filepath.Join(base, "seed_categories.txt")) {
		name, rawLimit, hasLimit := strings.Cut(line, "=")
		c := core.Category{Name: strings.TrimSpace(name)}
		if hasLimit {
			cents, err := core.ParseDecimalToCents(rawLimit)
			if err != nil {
				return nil, fmt.Errorf("seed category %q: %w", c.Name, err)
			}
			c.MonthlyLimit = &core.Money{Cents: cents}
		}
		if _, err := s.CreateCategory(context.Background(), c); err != nil {
			return nil, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	return s, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return core.Category{}, core.ErrDuplicateName
		}
	}
	s.nextCatID++
	c.ID = s.nextCatID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.MonthlyLimit = copyLimit(c.MonthlyLimit)
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return cloneCategory(c), nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	return s.filterCategories(func(core.Category) bool { return true }), nil
}

func (s *Store) ListBudgeted(_ context.Context) ([]core.Category, error) {
	return s.filterCategories(core.Category.Budgeted), nil
}

func (s *Store) filterCategories(keep func(core.Category) bool) []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.categories {
		if keep(c) {
			out = append(out, cloneCategory(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out
}

func (s *Store) SetCategoryLimit(_ context.Context, id int64, limit *core.Money) (core.Category, error) {
	if limit != nil && limit.Cents <= 0 {
		return core.Category{}, core.ErrInvalidLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	c.MonthlyLimit = copyLimit(limit)
	s.categories[id] = c
	return cloneCategory(c), nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[c.ID]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	for id, other := range s.categories {
		if id != c.ID && strings.EqualFold(other.Name, c.Name) {
			return core.Category{}, core.ErrDuplicateName
		}
	}
	existing.Name = c.Name
	existing.MonthlyLimit = copyLimit(c.MonthlyLimit)
	s.categories[c.ID] = existing
	return cloneCategory(existing), nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return core.ErrNotFound
	}
	for _, e := range s.expenses {
		if e.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if e.PaymentMethod == "" {
		e.PaymentMethod = core.PaymentOther
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[e.CategoryID]; !ok {
		return core.Expense{}, core.ErrMissingCategory
	}
	s.nextExpID++
	e.ID = s.nextExpID
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if e.PaymentMethod == "" {
		e.PaymentMethod = core.PaymentOther
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.expenses[e.ID]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	if _, ok := s.categories[e.CategoryID]; !ok {
		return core.Expense{}, core.ErrMissingCategory
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpensesByRange(_ context.Context, start, end core.Date) ([]core.Expense, error) {
	w := core.PeriodWindow{Start: start, End: end}
	return s.filterExpenses(func(e core.Expense) bool { return w.Contains(e.Date) }, 0), nil
}

func (s *Store) ListExpensesByCategory(_ context.Context, categoryID int64) ([]core.Expense, error) {
	return s.filterExpenses(func(e core.Expense) bool { return e.CategoryID == categoryID }, 0), nil
}

func (s *Store) ListRecentExpenses(_ context.Context, limit int) ([]core.Expense, error) {
	return s.filterExpenses(func(core.Expense) bool { return true }, limit), nil
}

func (s *Store) SearchExpenses(_ context.Context, keyword string) ([]core.Expense, error) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	return s.filterExpenses(func(e core.Expense) bool {
		return strings.Contains(strings.ToLower(e.Description), kw)
	}, 0), nil
}

// filterExpenses returns matches newest first, at most limit when limit > 0.
func (s *Store) filterExpenses(keep func(core.Expense) bool, limit int) []core.Expense {
	s.mu.RLock()
	var out []core.Expense
	for _, e := range s.expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) SumByCategoryAndWindow(_ context.Context, categoryID int64, start, end core.Date) (core.Money, error) {
	w := core.PeriodWindow{Start: start, End: end}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total core.Money
	for _, e := range s.expenses {
		if e.CategoryID == categoryID && w.Contains(e.Date) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func copyLimit(m *core.Money) *core.Money {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}

func cloneCategory(c core.Category) core.Category {
	c.MonthlyLimit = copyLimit(c.MonthlyLimit)
	return c
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
