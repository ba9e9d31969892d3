// Package storage is the relational store. SQLite keeps the canonical
// rows; everything the cache layer serves is rebuilt from here.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"centime/internal/core"
)

// Repository wraps the SQLite pool. Write methods that must share a
// transaction with cache invalidation live on Tx instead.
type Repository struct {
	db *sql.DB
}

// Open creates the database file if needed, applies migrations and
// returns a ready pool. Foreign keys are enforced per connection.
func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports store reachability for health checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUser inserts an account row. A taken email surfaces as
// core.ErrDuplicateEmail.
func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at FROM users
		WHERE email = ?`, email))
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at FROM users
		WHERE id = ?`, id))
}

func (r *Repository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// CreateCategory inserts a category row. Names are unique per user;
// a duplicate surfaces as core.ErrCategoryNameExists.
func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	return createCategory(ctx, r.db, c)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func createCategory(ctx context.Context, db execer, c core.Category) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO category (id, name, user_id, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.UserID, nullString(c.Description), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return core.ErrCategoryNameExists
		case isForeignKeyViolation(err):
			return core.ErrUserNotFound
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// ListCategories returns one page of the user's categories, most
// recently touched first.
func (r *Repository) ListCategories(ctx context.Context, userID uuid.UUID, limit, offset int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, user_id, description, created_at, updated_at FROM category
		WHERE user_id = ?
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var (
			c    core.Category
			desc sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if desc.Valid {
			c.Description = &desc.String
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const expenseColumns = `id, amount_cents, description, user_id, category_id, date,
		payment_method, is_recurring, tags`

// GetExpense returns one expense owned by the user.
func (r *Repository) GetExpense(ctx context.Context, id, userID uuid.UUID) (core.Expense, error) {
	return scanExpense(r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expense
		WHERE id = ? AND user_id = ?`, id, userID))
}

// ListExpenses returns one page of the user's expenses, most recently
// touched first.
func (r *Repository) ListExpenses(ctx context.Context, userID uuid.UUID, limit, offset int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expense
		WHERE user_id = ?
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return collectExpenses(rows)
}

// ListExpensesByCategory is ListExpenses narrowed to one category.
func (r *Repository) ListExpensesByCategory(ctx context.Context, userID, categoryID uuid.UUID, limit, offset int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expense
		WHERE user_id = ? AND category_id = ?
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?`, userID, categoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list expenses by category: %w", err)
	}
	return collectExpenses(rows)
}

// SumExpenses returns the user's running total across all expenses.
func (r *Repository) SumExpenses(ctx context.Context, userID uuid.UUID) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expense
		WHERE user_id = ?`, userID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// SumExpensesByCategory is SumExpenses narrowed to one category.
func (r *Repository) SumExpensesByCategory(ctx context.Context, userID, categoryID uuid.UUID) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expense
		WHERE user_id = ? AND category_id = ?`, userID, categoryID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses by category: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// Tx is an open write transaction. Callers commit only after their
// cache invalidation batch succeeds, so a failed invalidation leaves
// the rows untouched.
type Tx struct {
	tx *sql.Tx
}

func (r *Repository) Begin(ctx context.Context) (*Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// CreateCategory is Repository.CreateCategory inside the transaction.
func (t *Tx) CreateCategory(ctx context.Context, c core.Category) error {
	return createCategory(ctx, t.tx, c)
}

// CreateExpense inserts an expense row. An unknown category surfaces
// as core.ErrCategoryNotFound.
func (t *Tx) CreateExpense(ctx context.Context, e core.Expense) error {
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO expense (id, amount_cents, description, user_id, category_id,
			date, payment_method, is_recurring, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount.Cents, e.Description, e.UserID, e.CategoryID,
		e.Date.String(), nullString(e.PaymentMethod), e.IsRecurring, tags, now, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.ErrCategoryNotFound
		}
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// GetExpense reads one expense inside the transaction, letting update
// and delete flows see the pre-mutation row.
func (t *Tx) GetExpense(ctx context.Context, id, userID uuid.UUID) (core.Expense, error) {
	return scanExpense(t.tx.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expense
		WHERE id = ? AND user_id = ?`, id, userID))
}

// UpdateExpense replaces the mutable fields of an expense the user
// owns and refreshes its position in the recency ordering.
func (t *Tx) UpdateExpense(ctx context.Context, e core.Expense) error {
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE expense
		SET amount_cents = ?, description = ?, category_id = ?, date = ?,
			payment_method = ?, is_recurring = ?, tags = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.Amount.Cents, e.Description, e.CategoryID, e.Date.String(),
		nullString(e.PaymentMethod), e.IsRecurring, tags, time.Now().UTC(),
		e.ID, e.UserID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.ErrCategoryNotFound
		}
		return fmt.Errorf("update expense: %w", err)
	}
	return checkAffected(res, "update expense")
}

// DeleteExpense removes an expense the user owns.
func (t *Tx) DeleteExpense(ctx context.Context, id, userID uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM expense
		WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return checkAffected(res, "delete expense")
}

func checkAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		date    string
		payment sql.NullString
		tags    sql.NullString
	)
	err := row.Scan(&e.ID, &e.Amount.Cents, &e.Description, &e.UserID,
		&e.CategoryID, &date, &payment, &e.IsRecurring, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}

	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	if payment.Valid {
		e.PaymentMethod = &payment.String
	}
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &e.Tags); err != nil {
			return core.Expense{}, fmt.Errorf("decode expense tags: %w", err)
		}
	}
	return e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func encodeTags(tags []string) (sql.NullString, error) {
	if tags == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode expense tags: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	return sqliteCode(err) == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}

func isForeignKeyViolation(err error) bool {
	return sqliteCode(err) == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
}

func sqliteCode(err error) int {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}
