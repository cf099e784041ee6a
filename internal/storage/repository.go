package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
)

const timestampLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// DSN returns the connection string for dbPath with foreign keys enforced.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return wrapErr("ping", r.db.PingContext(ctx))
}

const categoryColumns = `id, name, monthly_limit_cents, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c       core.Category
		limit   sql.NullInt64
		created string
	)
	if err := row.Scan(&c.ID, &c.Name, &limit, &created); err != nil {
		return core.Category{}, err
	}
	if limit.Valid {
		c.MonthlyLimit = &core.Money{Cents: limit.Int64}
	}
	c.CreatedAt, _ = time.Parse(timestampLayout, created)
	return c, nil
}

func limitArg(limit *core.Money) any {
	if limit == nil {
		return nil
	}
	return limit.Cents
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, monthly_limit_cents, created_at) VALUES (?, ?, ?)`,
		c.Name, limitArg(c.MonthlyLimit), c.CreatedAt.Format(timestampLayout))
	if err != nil {
		return core.Category{}, wrapErr("create category", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, wrapErr("create category", err)
	}

	r.logger.InfoContext(ctx, "Category created", log.NewFields().
		WithOperation(log.OpCreate).
		WithCategory(c.ID, c.Name).ToSlice()...)
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, wrapErr("get category", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return r.queryCategories(ctx, "list categories",
		`SELECT `+categoryColumns+` FROM categories ORDER BY name`)
}

// ListBudgeted returns categories with a positive monthly limit.
func (r *SQLiteRepository) ListBudgeted(ctx context.Context) ([]core.Category, error) {
	return r.queryCategories(ctx, "list budgeted categories",
		`SELECT `+categoryColumns+` FROM categories
		 WHERE monthly_limit_cents IS NOT NULL AND monthly_limit_cents > 0
		 ORDER BY name`)
}

func (r *SQLiteRepository) queryCategories(ctx context.Context, op, query string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

// SetCategoryLimit sets or, with a nil limit, clears the monthly limit.
func (r *SQLiteRepository) SetCategoryLimit(ctx context.Context, id int64, limit *core.Money) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET monthly_limit_cents = ? WHERE id = ?`, limitArg(limit), id)
	if err != nil {
		return core.Category{}, wrapErr("set category limit", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Category{}, fmt.Errorf("set category limit: %w", core.ErrNotFound)
	}
	return r.GetCategory(ctx, id)
}

// UpdateCategory replaces the name and monthly limit of an existing category.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, monthly_limit_cents = ? WHERE id = ?`,
		c.Name, limitArg(c.MonthlyLimit), c.ID)
	if err != nil {
		return core.Category{}, wrapErr("update category", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Category{}, fmt.Errorf("update category: %w", core.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "Category updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithCategory(c.ID, c.Name).ToSlice()...)
	return r.GetCategory(ctx, c.ID)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if isForeignKeyErr(err) {
		return fmt.Errorf("delete category: %w", core.ErrCategoryInUse)
	}
	if err != nil {
		return wrapErr("delete category", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete category: %w", core.ErrNotFound)
	}
	return nil
}

const expenseColumns = `id, category_id, expense_date, amount_cents, payment_method, description, created_at, updated_at`

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                      core.Expense
		date, method           string
		createdRaw, updatedRaw string
	)
	if err := row.Scan(&e.ID, &e.CategoryID, &date, &e.Amount.Cents, &method, &e.Description, &createdRaw, &updatedRaw); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.Date = d
	e.PaymentMethod = core.PaymentMethod(method)
	e.CreatedAt, _ = time.Parse(timestampLayout, createdRaw)
	e.UpdatedAt, _ = time.Parse(timestampLayout, updatedRaw)
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.PaymentMethod == "" {
		e.PaymentMethod = core.PaymentOther
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (category_id, expense_date, amount_cents, payment_method, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.CategoryID, e.Date.String(), e.Amount.Cents, string(e.PaymentMethod), e.Description,
		now.Format(timestampLayout), now.Format(timestampLayout))
	if err != nil {
		return core.Expense{}, wrapErr("create expense", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return core.Expense{}, wrapErr("create expense", err)
	}

	r.logger.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		log.FieldCategoryID, e.CategoryID,
		log.FieldAmountCents, e.Amount.Cents,
		"date", e.Date.String())
	return e, nil
}

// UpdateExpense rewrites every editable field of an existing expense.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.PaymentMethod == "" {
		e.PaymentMethod = core.PaymentOther
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET category_id = ?, expense_date = ?, amount_cents = ?, payment_method = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		e.CategoryID, e.Date.String(), e.Amount.Cents, string(e.PaymentMethod), e.Description,
		time.Now().UTC().Format(timestampLayout), e.ID)
	if err != nil {
		return core.Expense{}, wrapErr("update expense", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Expense{}, fmt.Errorf("update expense: %w", core.ErrNotFound)
	}
	return r.GetExpense(ctx, e.ID)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, wrapErr("get expense", err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return wrapErr("delete expense", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete expense: %w", core.ErrNotFound)
	}
	return nil
}

// ListExpensesByRange returns expenses dated within [start, end], newest first.
func (r *SQLiteRepository) ListExpensesByRange(ctx context.Context, start, end core.Date) ([]core.Expense, error) {
	return r.queryExpenses(ctx, "list expenses by range",
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE expense_date BETWEEN ? AND ?
		 ORDER BY expense_date DESC, id DESC`,
		start.String(), end.String())
}

func (r *SQLiteRepository) ListExpensesByCategory(ctx context.Context, categoryID int64) ([]core.Expense, error) {
	return r.queryExpenses(ctx, "list expenses by category",
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE category_id = ?
		 ORDER BY expense_date DESC, id DESC`,
		categoryID)
}

func (r *SQLiteRepository) ListRecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	return r.queryExpenses(ctx, "list recent expenses",
		`SELECT `+expenseColumns+` FROM expenses
		 ORDER BY expense_date DESC, id DESC
		 LIMIT ?`,
		limit)
}

// SearchExpenses matches keyword case-insensitively against descriptions.
func (r *SQLiteRepository) SearchExpenses(ctx context.Context, keyword string) ([]core.Expense, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(keyword)) + "%"
	return r.queryExpenses(ctx, "search expenses",
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE description LIKE ? ESCAPE '\'
		 ORDER BY expense_date DESC, id DESC`,
		pattern)
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, op, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

// SumByCategoryAndWindow totals one category's expenses dated within [start, end].
func (r *SQLiteRepository) SumByCategoryAndWindow(ctx context.Context, categoryID int64, start, end core.Date) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		 WHERE category_id = ? AND expense_date BETWEEN ? AND ?`,
		categoryID, start.String(), end.String()).Scan(&total)
	if err != nil {
		return core.Money{}, wrapErr("sum expenses", err)
	}
	return core.Money{Cents: total}, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
