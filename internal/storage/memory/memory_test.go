package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

func TestDeleteLastCategoryLeavesSetUnchanged(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.AddCategory(ctx, "u1", core.Category{Name: "Otros"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := s.DeleteCategory(ctx, "u1", "Otros")
	if !errors.Is(err, core.ErrConstraint) {
		t.Fatalf("expected constraint error, got %v", err)
	}
	cats, _ := s.ListCategories(ctx, "u1")
	if len(cats) != 1 || cats[0].Name != "Otros" {
		t.Fatalf("category set changed: %v", cats)
	}
}

func TestCategoriesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, c := range core.DefaultCategories() {
		if err := s.AddCategory(ctx, "u1", c); err != nil {
			t.Fatalf("add %s: %v", c.Name, err)
		}
	}
	if err := s.AddCategory(ctx, "u1", core.Category{Name: "Salud"}); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := s.RenameCategory(ctx, "u1", "Otros", "Salud"); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Fatalf("expected duplicate on rename, got %v", err)
	}
	if err := s.DeleteCategory(ctx, "u1", "Vivienda"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cats, _ := s.ListCategories(ctx, "u1")
	if cats[0].Name != "Transporte" || cats[1].Name != "Alimentación" || len(cats) != 7 {
		t.Fatalf("unexpected order %v", cats)
	}
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.AddFixedExpense(ctx, "u1", core.FixedExpense{ID: "f1", Service: "a"})
	list, _ := s.ListFixedExpenses(ctx, "u1")
	list[0].Service = "mutated"
	got, err := s.GetFixedExpense(ctx, "u1", "f1")
	if err != nil || got.Service != "a" {
		t.Fatalf("store was mutated through a listed slice: %+v", got)
	}
}

func TestSalariesSortedAndGeneralNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.AddSalary(ctx, "u1", core.SalaryRecord{ID: "old", Amount: decimal.NewFromInt(1), Frequency: core.Monthly, PayDate: core.NewDate(2025, 1, 1)})
	_ = s.AddSalary(ctx, "u1", core.SalaryRecord{ID: "new", Amount: decimal.NewFromInt(1), Frequency: core.Monthly, PayDate: core.NewDate(2025, 2, 1)})
	sal, _ := s.ListSalaries(ctx, "u1")
	if sal[0].ID != "new" {
		t.Fatalf("expected newest salary first, got %v", sal)
	}

	_ = s.AddGeneralExpense(ctx, "u1", core.GeneralExpense{ID: "a", Date: core.NewDate(2025, 1, 1)})
	_ = s.AddGeneralExpense(ctx, "u1", core.GeneralExpense{ID: "b", Date: core.NewDate(2025, 3, 1)})
	_ = s.AddGeneralExpense(ctx, "u1", core.GeneralExpense{ID: "c", Date: core.NewDate(2025, 1, 1)})
	gen, _ := s.ListGeneralExpenses(ctx, "u1")
	if gen[0].ID != "b" || gen[1].ID != "c" || gen[2].ID != "a" {
		t.Fatalf("unexpected order %v", gen)
	}
	if gen[0].Month != "marzo" {
		t.Fatalf("expected derived month on add, got %q", gen[0].Month)
	}

	if err := s.DeleteGeneralExpense(ctx, "u1", "zzz"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.AddCategory(ctx, "u1", core.Category{Name: string(rune('A' + i%26))})
		}(i)
	}
	wg.Wait()
	cats, _ := s.ListCategories(ctx, "u1")
	if len(cats) != 26 {
		t.Fatalf("expected 26 unique categories, got %d", len(cats))
	}
	owners, _ := s.ListOwners(ctx)
	if len(owners) != 1 || owners[0] != "u1" {
		t.Fatalf("unexpected owners %v", owners)
	}
}
