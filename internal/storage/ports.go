package storage

import (
	"context"

	"gastos/internal/core"
)

// Ports implemented by every ledger backend. All records are scoped by an
// opaque owner id; ids are unique per owner. Lookups and writes on a missing
// id fail with core.ErrNotFound.
type (
	CategoryStore interface {
		// ListCategories returns the owner's categories in insertion order.
		ListCategories(ctx context.Context, owner string) ([]core.Category, error)
		// AddCategory fails with core.ErrDuplicateCategory when the name exists.
		AddCategory(ctx context.Context, owner string, c core.Category) error
		RenameCategory(ctx context.Context, owner, from, to string) error
		// DeleteCategory fails with core.ErrLastCategory when name is the
		// owner's only category and leaves the set unchanged.
		DeleteCategory(ctx context.Context, owner, name string) error
	}

	FixedExpenseStore interface {
		ListFixedExpenses(ctx context.Context, owner string) ([]core.FixedExpense, error)
		GetFixedExpense(ctx context.Context, owner, id string) (core.FixedExpense, error)
		AddFixedExpense(ctx context.Context, owner string, e core.FixedExpense) error
		UpdateFixedExpense(ctx context.Context, owner string, e core.FixedExpense) error
		DeleteFixedExpense(ctx context.Context, owner, id string) error
	}

	GeneralExpenseStore interface {
		// ListGeneralExpenses returns newest first.
		ListGeneralExpenses(ctx context.Context, owner string) ([]core.GeneralExpense, error)
		GetGeneralExpense(ctx context.Context, owner, id string) (core.GeneralExpense, error)
		AddGeneralExpense(ctx context.Context, owner string, e core.GeneralExpense) error
		UpdateGeneralExpense(ctx context.Context, owner string, e core.GeneralExpense) error
		DeleteGeneralExpense(ctx context.Context, owner, id string) error
	}

	SalaryStore interface {
		// ListSalaries returns salaries sorted by pay date, most recent first.
		ListSalaries(ctx context.Context, owner string) ([]core.SalaryRecord, error)
		AddSalary(ctx context.Context, owner string, s core.SalaryRecord) error
		UpdateSalary(ctx context.Context, owner string, s core.SalaryRecord) error
		DeleteSalary(ctx context.Context, owner, id string) error
	}

	Repository interface {
		CategoryStore
		FixedExpenseStore
		GeneralExpenseStore
		SalaryStore
		// ListOwners returns every owner with at least one stored record.
		ListOwners(ctx context.Context) ([]string, error)
		Close() error
	}
)
