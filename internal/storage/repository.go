package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finpulse/internal/core"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Foreign keys must be on for ON DELETE SET NULL to clear category
	// references when a category is removed.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = `e.id, e.date, e.description, e.amount_cents, e.notes,
	c.id, c.name, c.icon, c.color, c.budget_cents, c.monthly_spent_cents, c.is_default`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e          core.Expense
		date       string
		catID      sql.NullInt64
		catName    sql.NullString
		catIcon    sql.NullString
		catColor   sql.NullString
		catBudget  sql.NullInt64
		catSpent   sql.NullInt64
		catDefault sql.NullBool
	)
	err := row.Scan(&e.ID, &date, &e.Description, &e.Amount.Cents, &e.Notes,
		&catID, &catName, &catIcon, &catColor, &catBudget, &catSpent, &catDefault)
	if err != nil {
		return core.Expense{}, err
	}

	e.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored date %q: %w", date, err)
	}

	if catID.Valid {
		cat := core.Category{
			ID:           catID.Int64,
			Name:         catName.String,
			Icon:         catIcon.String,
			Color:        catColor.String,
			MonthlySpent: core.Money{Cents: catSpent.Int64},
			IsDefault:    catDefault.Bool,
		}
		if catBudget.Valid {
			cat.Budget = &core.Money{Cents: catBudget.Int64}
		}
		e.Category = &cat
	}
	return e, nil
}

func categoryIDOf(e *core.Expense) sql.NullInt64 {
	if e.Category == nil || e.Category.ID == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: e.Category.ID, Valid: true}
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e *core.Expense) (*core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, description, amount_cents, notes, category_id)
		 VALUES (?, ?, ?, ?, ?)`,
		e.Date.Key(), e.Description, e.Amount.Cents, e.Notes, categoryIDOf(e))
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.Key())

	return r.GetExpense(ctx, id)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+`
		 FROM expenses e LEFT JOIN categories c ON c.id = e.category_id
		 WHERE e.id = ?`, id)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET date = ?, description = ?, amount_cents = ?, notes = ?, category_id = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.Date.Key(), e.Description, e.Amount.Cents, e.Notes, categoryIDOf(e), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res)
}

// ListExpenses applies the category and date-range parts of the filter in
// SQL; free-text search stays in the grouping engine. Rows come back newest
// day first, insertion order within a day.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + `
		 FROM expenses e LEFT JOIN categories c ON c.id = e.category_id`
	var (
		conds []string
		args  []any
	)
	if f.CategoryID != 0 {
		conds = append(conds, "e.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		conds = append(conds, "e.date >= ?")
		args = append(args, f.From.Key())
	}
	if !f.To.IsZero() {
		conds = append(conds, "e.date <= ?")
		args = append(args, f.To.Key())
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY e.date DESC, e.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// MonthTotal sums amounts for one calendar month.
func (r *SQLiteRepository) MonthTotal(ctx context.Context, year, month int) (core.Money, error) {
	first, last := monthBounds(year, month)
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE date BETWEEN ? AND ?`,
		first, last).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("month total: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// RefreshMonthlySpent recomputes every category's monthly_spent_cents for
// the given month. The worker calls this after each mutation event.
func (r *SQLiteRepository) RefreshMonthlySpent(ctx context.Context, year, month int) error {
	first, last := monthBounds(year, month)
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories
		 SET monthly_spent_cents = COALESCE(
		     (SELECT SUM(amount_cents) FROM expenses
		      WHERE category_id = categories.id AND date BETWEEN ? AND ?), 0),
		     updated_at = CURRENT_TIMESTAMP`,
		first, last)
	if err != nil {
		return fmt.Errorf("refresh monthly spent: %w", err)
	}

	slog.InfoContext(ctx, "Monthly spent rollup refreshed", "year", year, "month", month)
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, color, budget_cents, monthly_spent_cents, is_default
		 FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c      core.Category
		budget sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &budget, &c.MonthlySpent.Cents, &c.IsDefault)
	if err != nil {
		return core.Category{}, err
	}
	if budget.Valid {
		c.Budget = &core.Money{Cents: budget.Int64}
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, icon, color, budget_cents, monthly_spent_cents, is_default
		 FROM categories WHERE id = ?`, id)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c *core.Category) (*core.Category, error) {
	icon := c.Icon
	if icon == "" {
		icon = core.DefaultIcon
	}
	color := c.Color
	if color == "" {
		color = core.DefaultColor
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, icon, color, budget_cents) VALUES (?, ?, ?, ?)`,
		c.Name, icon, color, budgetCentsOf(c))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name)
	return r.GetCategory(ctx, id)
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c *core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories
		 SET name = ?, icon = ?, color = ?, budget_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		c.Name, c.Icon, c.Color, budgetCentsOf(c), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(res)
}

// DeleteCategory removes a category. The expenses foreign key is declared
// ON DELETE SET NULL, so referencing expenses become uncategorized.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted, expenses left uncategorized", "id", id)
	return nil
}

// SetBudget sets or clears (nil) a category's monthly budget.
func (r *SQLiteRepository) SetBudget(ctx context.Context, categoryID int64, budget *core.Money) error {
	var cents sql.NullInt64
	if budget != nil {
		cents = sql.NullInt64{Int64: budget.Cents, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET budget_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		cents, categoryID)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return requireAffected(res)
}

func budgetCentsOf(c *core.Category) sql.NullInt64 {
	if c.Budget == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: c.Budget.Cents, Valid: true}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func monthBounds(year, month int) (first, last string) {
	start := core.NewDate(year, month, 1)
	end := core.Date{Time: start.AddDate(0, 1, -1)}
	return start.Key(), end.Key()
}
