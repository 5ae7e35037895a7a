package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

// Repository is a SQL record store for sqlite and postgres.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	newID   func() string
}

var _ store.Store = (*Repository)(nil)

func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

func NewPostgresRepository(dsn string) (*Repository, error) {
	return open(Postgres, dsn)
}

func open(dialect Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if dialect == SQLite {
		// One writer at a time avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	return &Repository{db: db, dialect: dialect, newID: uuid.NewString}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) id(current string) string {
	if current != "" {
		return current
	}
	return r.newID()
}

func orderBy(column string, q store.Query, defaultDesc bool) string {
	desc := defaultDesc
	switch q.Order {
	case store.Ascending:
		desc = false
	case store.Descending:
		desc = true
	}
	if desc {
		return " ORDER BY " + column + " DESC, id"
	}
	return " ORDER BY " + column + " ASC, id"
}

// Categories

const categoryColumns = `id, owner_id, name, type, budget_limit, color, icon, is_active`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	var typ string
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &typ, &c.BudgetLimit, &c.Color, &c.Icon, &c.Active)
	c.Type = core.CategoryType(typ)
	return c, err
}

func (r *Repository) ListCategories(ctx context.Context, ownerID string, q store.Query) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE owner_id = ?`
	args := []any{ownerID}
	if q.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(q.Type))
	}
	if q.ActiveOnly {
		query += ` AND is_active = ?`
		args = append(args, true)
	}
	query += orderBy("LOWER(name)", q, false)

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? AND id = ?`), ownerID, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, store.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *Repository) SaveCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = r.id(c.ID)
	n, err := r.exec(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			budget_limit = excluded.budget_limit,
			color = excluded.color,
			icon = excluded.icon,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP
		WHERE categories.owner_id = excluded.owner_id`,
		c.ID, c.OwnerID, c.Name, string(c.Type), c.BudgetLimit, c.Color, c.Icon, c.Active)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	if n == 0 {
		return core.Category{}, store.ErrNotFound
	}
	slog.DebugContext(ctx, "Category saved", "id", c.ID, "owner_id", c.OwnerID, "dialect", r.dialect)
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, ownerID, id string) error {
	return r.delete(ctx, "categories", ownerID, id)
}

func (r *Repository) delete(ctx context.Context, table, ownerID, id string) error {
	n, err := r.exec(ctx, `DELETE FROM `+table+` WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Transactions

const transactionColumns = `id, owner_id, category_id, amount, date, description, notes`

func scanTransaction(t *core.Transaction, extra ...any) []any {
	return append([]any{&t.ID, &t.OwnerID, &t.CategoryID, &t.Amount, &t.Date, &t.Description, &t.Notes}, extra...)
}

func (r *Repository) transactionQuery(table, columns, ownerID string, q store.Query) (string, []any) {
	query := `SELECT ` + columns + ` FROM ` + table + ` WHERE owner_id = ?`
	args := []any{ownerID}
	if q.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *q.CategoryID)
	}
	return query + orderBy("date", q, true), args
}

func (r *Repository) ListIncome(ctx context.Context, ownerID string, q store.Query) ([]core.Income, error) {
	query, args := r.transactionQuery("income", transactionColumns, ownerID, q)
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	out := []core.Income{}
	for rows.Next() {
		var in core.Income
		if err := rows.Scan(scanTransaction(&in.Transaction)...); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *Repository) GetIncome(ctx context.Context, ownerID, id string) (core.Income, error) {
	var in core.Income
	err := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT `+transactionColumns+` FROM income WHERE owner_id = ? AND id = ?`), ownerID, id).
		Scan(scanTransaction(&in.Transaction)...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, store.ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %s: %w", id, err)
	}
	return in, nil
}

func (r *Repository) SaveIncome(ctx context.Context, in core.Income) (core.Income, error) {
	in.ID = r.id(in.ID)
	n, err := r.exec(ctx, `
		INSERT INTO income (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			category_id = excluded.category_id,
			amount = excluded.amount,
			date = excluded.date,
			description = excluded.description,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP
		WHERE income.owner_id = excluded.owner_id`,
		in.ID, in.OwnerID, in.CategoryID, in.Amount, in.Date, in.Description, in.Notes)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	if n == 0 {
		return core.Income{}, store.ErrNotFound
	}
	slog.DebugContext(ctx, "Income saved", "id", in.ID, "owner_id", in.OwnerID, "amount", in.Amount.String())
	return in, nil
}

func (r *Repository) DeleteIncome(ctx context.Context, ownerID, id string) error {
	return r.delete(ctx, "income", ownerID, id)
}

func (r *Repository) ListExpenses(ctx context.Context, ownerID string, q store.Query) ([]core.Expense, error) {
	query, args := r.transactionQuery("expenses", transactionColumns+`, is_recurring`, ownerID, q)
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(scanTransaction(&e.Transaction, &e.Recurring)...); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	var e core.Expense
	err := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT `+transactionColumns+`, is_recurring FROM expenses WHERE owner_id = ? AND id = ?`), ownerID, id).
		Scan(scanTransaction(&e.Transaction, &e.Recurring)...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

func (r *Repository) SaveExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = r.id(e.ID)
	n, err := r.exec(ctx, `
		INSERT INTO expenses (`+transactionColumns+`, is_recurring)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			category_id = excluded.category_id,
			amount = excluded.amount,
			date = excluded.date,
			description = excluded.description,
			notes = excluded.notes,
			is_recurring = excluded.is_recurring,
			updated_at = CURRENT_TIMESTAMP
		WHERE expenses.owner_id = excluded.owner_id`,
		e.ID, e.OwnerID, e.CategoryID, e.Amount, e.Date, e.Description, e.Notes, e.Recurring)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	if n == 0 {
		return core.Expense{}, store.ErrNotFound
	}
	slog.DebugContext(ctx, "Expense saved", "id", e.ID, "owner_id", e.OwnerID, "amount", e.Amount.String())
	return e, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	return r.delete(ctx, "expenses", ownerID, id)
}

// Settings

const settingsColumns = `id, owner_id, currency, monthly_income_target, monthly_expense_limit,
	weekly_expense_limit, daily_budget_mode, fixed_daily_budget, risk_threshold_low,
	risk_threshold_medium, risk_threshold_high, start_of_month, start_of_week`

func (r *Repository) GetSettings(ctx context.Context, ownerID string) (core.Settings, error) {
	var (
		s     core.Settings
		mode  string
		fixed core.Money
	)
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+settingsColumns+` FROM user_settings WHERE owner_id = ?`), ownerID).
		Scan(&s.ID, &s.OwnerID, &s.Currency, &s.MonthlyIncomeTarget, &s.MonthlyExpenseLimit,
			&s.WeeklyExpenseLimit, &mode, &fixed, &s.Risk.Low,
			&s.Risk.Medium, &s.Risk.High, &s.StartOfMonth, &s.StartOfWeek)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, store.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if s.DailyBudget, err = core.ParseDailyBudgetPolicy(mode, fixed); err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *Repository) SaveSettings(ctx context.Context, s core.Settings) (core.Settings, error) {
	_, err := r.exec(ctx, `
		INSERT INTO user_settings (`+settingsColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			currency = excluded.currency,
			monthly_income_target = excluded.monthly_income_target,
			monthly_expense_limit = excluded.monthly_expense_limit,
			weekly_expense_limit = excluded.weekly_expense_limit,
			daily_budget_mode = excluded.daily_budget_mode,
			fixed_daily_budget = excluded.fixed_daily_budget,
			risk_threshold_low = excluded.risk_threshold_low,
			risk_threshold_medium = excluded.risk_threshold_medium,
			risk_threshold_high = excluded.risk_threshold_high,
			start_of_month = excluded.start_of_month,
			start_of_week = excluded.start_of_week,
			updated_at = CURRENT_TIMESTAMP`,
		r.id(s.ID), s.OwnerID, s.Currency, s.MonthlyIncomeTarget, s.MonthlyExpenseLimit,
		s.WeeklyExpenseLimit, string(s.DailyBudget.Mode()), s.DailyBudget.FixedAmountOrZero(), s.Risk.Low,
		s.Risk.Medium, s.Risk.High, s.StartOfMonth, s.StartOfWeek)
	if err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	// The row keeps its original id on update.
	return r.GetSettings(ctx, s.OwnerID)
}
