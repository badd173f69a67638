package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
	"gastos/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent requests.
	db.SetMaxOpenConns(1)

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

func dsn(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_id FROM categories
		UNION SELECT owner_id FROM fixed_expenses
		UNION SELECT owner_id FROM general_expenses
		UNION SELECT owner_id FROM salaries
		ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// Categories

func (r *SQLiteRepository) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories WHERE owner_id = ? ORDER BY seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, owner string, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories (owner_id, name) VALUES (?, ?)`, owner, c.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", core.ErrDuplicateCategory, c.Name)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOwner, owner,
		"name", c.Name)
	return nil
}

func (r *SQLiteRepository) RenameCategory(ctx context.Context, owner, from, to string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE owner_id = ? AND name = ?`, to, owner, from)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", core.ErrDuplicateCategory, to)
		}
		return fmt.Errorf("rename category: %w", err)
	}
	return expectOne(res, "category", from)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, owner, name string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var exists, total int
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(name = ?), 0), COUNT(*)
			FROM categories WHERE owner_id = ?`, name, owner).Scan(&exists, &total)
		if err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("%w: category %q", core.ErrNotFound, name)
		}
		if total <= 1 {
			return core.ErrLastCategory
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE owner_id = ? AND name = ?`, owner, name); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

// Fixed expenses

const fixedColumns = `id, service, category, account, price, frequency, renewal_date,
	biweekly_cost, monthly_cost, annual_cost, next_renewal, days_remaining`

func (r *SQLiteRepository) ListFixedExpenses(ctx context.Context, owner string) ([]core.FixedExpense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fixedColumns+` FROM fixed_expenses WHERE owner_id = ? ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	defer rows.Close()

	var out []core.FixedExpense
	for rows.Next() {
		e, err := scanFixed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetFixedExpense(ctx context.Context, owner, id string) (core.FixedExpense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fixedColumns+` FROM fixed_expenses WHERE owner_id = ? AND id = ?`, owner, id)
	e, err := scanFixed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FixedExpense{}, fmt.Errorf("%w: fixed expense %s", core.ErrNotFound, id)
	}
	return e, err
}

func (r *SQLiteRepository) AddFixedExpense(ctx context.Context, owner string, e core.FixedExpense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fixed_expenses (owner_id, `+fixedColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		owner, e.ID, e.Service, e.Category, e.Account, e.Price, string(e.Frequency), e.RenewalDate.String(),
		e.BiweeklyCost, e.MonthlyCost, e.AnnualCost, e.NextRenewal.String(), e.DaysRemaining)
	if err != nil {
		return fmt.Errorf("insert fixed expense: %w", err)
	}
	slog.InfoContext(ctx, "Fixed expense saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOwner, owner,
		log.FieldEntityID, e.ID,
		"service", e.Service,
		"monthly_cost", e.MonthlyCost.String())
	return nil
}

func (r *SQLiteRepository) UpdateFixedExpense(ctx context.Context, owner string, e core.FixedExpense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fixed_expenses SET
			service = ?, category = ?, account = ?, price = ?, frequency = ?, renewal_date = ?,
			biweekly_cost = ?, monthly_cost = ?, annual_cost = ?, next_renewal = ?, days_remaining = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE owner_id = ? AND id = ?`,
		e.Service, e.Category, e.Account, e.Price, string(e.Frequency), e.RenewalDate.String(),
		e.BiweeklyCost, e.MonthlyCost, e.AnnualCost, e.NextRenewal.String(), e.DaysRemaining,
		owner, e.ID)
	if err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	return expectOne(res, "fixed expense", e.ID)
}

func (r *SQLiteRepository) DeleteFixedExpense(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fixed_expenses WHERE owner_id = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	return expectOne(res, "fixed expense", id)
}

// General expenses

const generalColumns = `id, description, price, date, month, year`

func (r *SQLiteRepository) ListGeneralExpenses(ctx context.Context, owner string) ([]core.GeneralExpense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+generalColumns+` FROM general_expenses WHERE owner_id = ? ORDER BY date DESC, rowid DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list general expenses: %w", err)
	}
	defer rows.Close()

	var out []core.GeneralExpense
	for rows.Next() {
		e, err := scanGeneral(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetGeneralExpense(ctx context.Context, owner, id string) (core.GeneralExpense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+generalColumns+` FROM general_expenses WHERE owner_id = ? AND id = ?`, owner, id)
	e, err := scanGeneral(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.GeneralExpense{}, fmt.Errorf("%w: general expense %s", core.ErrNotFound, id)
	}
	return e, err
}

func (r *SQLiteRepository) AddGeneralExpense(ctx context.Context, owner string, e core.GeneralExpense) error {
	e.Sync()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO general_expenses (owner_id, `+generalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		owner, e.ID, e.Description, e.Price, e.Date.String(), e.Month, e.Year)
	if err != nil {
		return fmt.Errorf("insert general expense: %w", err)
	}
	slog.InfoContext(ctx, "General expense saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOwner, owner,
		log.FieldEntityID, e.ID,
		"description", e.Description,
		"price", e.Price.String())
	return nil
}

func (r *SQLiteRepository) UpdateGeneralExpense(ctx context.Context, owner string, e core.GeneralExpense) error {
	e.Sync()
	res, err := r.db.ExecContext(ctx, `
		UPDATE general_expenses SET
			description = ?, price = ?, date = ?, month = ?, year = ?, updated_at = CURRENT_TIMESTAMP
		WHERE owner_id = ? AND id = ?`,
		e.Description, e.Price, e.Date.String(), e.Month, e.Year, owner, e.ID)
	if err != nil {
		return fmt.Errorf("update general expense: %w", err)
	}
	return expectOne(res, "general expense", e.ID)
}

func (r *SQLiteRepository) DeleteGeneralExpense(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM general_expenses WHERE owner_id = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete general expense: %w", err)
	}
	return expectOne(res, "general expense", id)
}

// Salaries

func (r *SQLiteRepository) ListSalaries(ctx context.Context, owner string) ([]core.SalaryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, frequency, pay_date FROM salaries
		WHERE owner_id = ? ORDER BY pay_date DESC, rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("list salaries: %w", err)
	}
	defer rows.Close()

	var out []core.SalaryRecord
	for rows.Next() {
		var (
			s       core.SalaryRecord
			freq    string
			payDate string
		)
		if err := rows.Scan(&s.ID, &s.Amount, &freq, &payDate); err != nil {
			return nil, fmt.Errorf("scan salary: %w", err)
		}
		s.Frequency = core.Frequency(freq)
		if s.PayDate, err = core.ParseDate(payDate); err != nil {
			return nil, fmt.Errorf("salary %s pay date: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddSalary(ctx context.Context, owner string, s core.SalaryRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO salaries (owner_id, id, amount, frequency, pay_date) VALUES (?, ?, ?, ?, ?)`,
		owner, s.ID, s.Amount, string(s.Frequency), s.PayDate.String())
	if err != nil {
		return fmt.Errorf("insert salary: %w", err)
	}
	slog.InfoContext(ctx, "Salary saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOwner, owner,
		log.FieldEntityID, s.ID,
		"pay_date", s.PayDate.String())
	return nil
}

func (r *SQLiteRepository) UpdateSalary(ctx context.Context, owner string, s core.SalaryRecord) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE salaries SET amount = ?, frequency = ?, pay_date = ? WHERE owner_id = ? AND id = ?`,
		s.Amount, string(s.Frequency), s.PayDate.String(), owner, s.ID)
	if err != nil {
		return fmt.Errorf("update salary: %w", err)
	}
	return expectOne(res, "salary", s.ID)
}

func (r *SQLiteRepository) DeleteSalary(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM salaries WHERE owner_id = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete salary: %w", err)
	}
	return expectOne(res, "salary", id)
}

// helpers

type scanner interface {
	Scan(dest ...any) error
}

func scanFixed(s scanner) (core.FixedExpense, error) {
	var (
		e                    core.FixedExpense
		freq, renewal, next  string
		price, bi, mon, year decimal.Decimal
	)
	err := s.Scan(&e.ID, &e.Service, &e.Category, &e.Account, &price, &freq, &renewal,
		&bi, &mon, &year, &next, &e.DaysRemaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan fixed expense: %w", err)
	}
	e.Price, e.BiweeklyCost, e.MonthlyCost, e.AnnualCost = price, bi, mon, year
	e.Frequency = core.Frequency(freq)
	if e.RenewalDate, err = core.ParseDate(renewal); err != nil {
		return e, fmt.Errorf("fixed expense %s renewal date: %w", e.ID, err)
	}
	if e.NextRenewal, err = core.ParseDate(next); err != nil {
		return e, fmt.Errorf("fixed expense %s next renewal: %w", e.ID, err)
	}
	return e, nil
}

func scanGeneral(s scanner) (core.GeneralExpense, error) {
	var (
		e    core.GeneralExpense
		date string
	)
	err := s.Scan(&e.ID, &e.Description, &e.Price, &date, &e.Month, &e.Year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan general expense: %w", err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return e, fmt.Errorf("general expense %s date: %w", e.ID, err)
	}
	return e, nil
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", core.ErrNotFound, kind, id)
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
