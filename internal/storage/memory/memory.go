// Package memory is an in-process ledger backend for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gastos/internal/core"
	"gastos/internal/storage"
)

type ledger struct {
	categories []core.Category
	fixed      []core.FixedExpense
	general    []core.GeneralExpense
	salaries   []core.SalaryRecord
}

type Store struct {
	mu     sync.Mutex
	owners map[string]*ledger
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{owners: make(map[string]*ledger)}
}

// ledgerFor returns the owner's ledger, creating it when missing. Callers
// hold s.mu.
func (s *Store) ledgerFor(owner string) *ledger {
	l, ok := s.owners[owner]
	if !ok {
		l = &ledger{}
		s.owners[owner] = l
	}
	return l
}

func (s *Store) Close() error { return nil }

func (s *Store) ListOwners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.owners))
	for o, l := range s.owners {
		if len(l.categories)+len(l.fixed)+len(l.general)+len(l.salaries) > 0 {
			out = append(out, o)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Categories

func (s *Store) ListCategories(_ context.Context, owner string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.ledgerFor(owner).categories...), nil
}

func (s *Store) AddCategory(_ context.Context, owner string, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	if categoryIndex(l.categories, c.Name) >= 0 {
		return fmt.Errorf("%w: %q", core.ErrDuplicateCategory, c.Name)
	}
	l.categories = append(l.categories, c)
	return nil
}

func (s *Store) RenameCategory(_ context.Context, owner, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := categoryIndex(l.categories, from)
	if i < 0 {
		return fmt.Errorf("%w: category %q", core.ErrNotFound, from)
	}
	if from != to && categoryIndex(l.categories, to) >= 0 {
		return fmt.Errorf("%w: %q", core.ErrDuplicateCategory, to)
	}
	l.categories[i].Name = to
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, owner, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := categoryIndex(l.categories, name)
	if i < 0 {
		return fmt.Errorf("%w: category %q", core.ErrNotFound, name)
	}
	if len(l.categories) <= 1 {
		return core.ErrLastCategory
	}
	l.categories = append(l.categories[:i:i], l.categories[i+1:]...)
	return nil
}

func categoryIndex(cats []core.Category, name string) int {
	for i, c := range cats {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Fixed expenses

func (s *Store) ListFixedExpenses(_ context.Context, owner string) ([]core.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.FixedExpense(nil), s.ledgerFor(owner).fixed...), nil
}

func (s *Store) GetFixedExpense(_ context.Context, owner, id string) (core.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := indexOf(len(l.fixed), func(i int) string { return l.fixed[i].ID }, id)
	if i < 0 {
		return core.FixedExpense{}, notFound("fixed expense", id)
	}
	return l.fixed[i], nil
}

func (s *Store) AddFixedExpense(_ context.Context, owner string, e core.FixedExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	l.fixed = append(l.fixed, e)
	return nil
}

func (s *Store) UpdateFixedExpense(_ context.Context, owner string, e core.FixedExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := indexOf(len(l.fixed), func(i int) string { return l.fixed[i].ID }, e.ID)
	if i < 0 {
		return notFound("fixed expense", e.ID)
	}
	l.fixed[i] = e
	return nil
}

func (s *Store) DeleteFixedExpense(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := indexOf(len(l.fixed), func(i int) string { return l.fixed[i].ID }, id)
	if i < 0 {
		return notFound("fixed expense", id)
	}
	l.fixed = append(l.fixed[:i:i], l.fixed[i+1:]...)
	return nil
}

// General expenses

func (s *Store) ListGeneralExpenses(_ context.Context, owner string) ([]core.GeneralExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.GeneralExpense(nil), s.ledgerFor(owner).general...)
	// newest first; among equal dates the last added first
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *Store) GetGeneralExpense(_ context.Context, owner, id string) (core.GeneralExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := indexOf(len(l.general), func(i int) string { return l.general[i].ID }, id)
	if i < 0 {
		return core.GeneralExpense{}, notFound("general expense", id)
	}
	return l.general[i], nil
}

func (s *Store) AddGeneralExpense(_ context.Context, owner string, e core.GeneralExpense) error {
	e.Sync()
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	// prepend so the stable sort in List keeps later additions first
	l.general = append([]core.GeneralExpense{e}, l.general...)
	return nil
}

func (s *Store) UpdateGeneralExpense(_ context.Context, owner string, e core.GeneralExpense) error {
	e.Sync()
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := indexOf(len(l.general), func(i int) string { return l.general[i].ID }, e.ID)
	if i < 0 {
		return notFound("general expense", e.ID)
	}
	l.general[i] = e
	return nil
}

func (s *Store) DeleteGeneralExpense(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := indexOf(len(l.general), func(i int) string { return l.general[i].ID }, id)
	if i < 0 {
		return notFound("general expense", id)
	}
	l.general = append(l.general[:i:i], l.general[i+1:]...)
	return nil
}

// Salaries

func (s *Store) ListSalaries(_ context.Context, owner string) ([]core.SalaryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.SalaryRecord(nil), s.ledgerFor(owner).salaries...), nil
}

func (s *Store) AddSalary(_ context.Context, owner string, rec core.SalaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	l.salaries = append(l.salaries, rec)
	core.SortSalaries(l.salaries)
	return nil
}

func (s *Store) UpdateSalary(_ context.Context, owner string, rec core.SalaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := indexOf(len(l.salaries), func(i int) string { return l.salaries[i].ID }, rec.ID)
	if i < 0 {
		return notFound("salary", rec.ID)
	}
	l.salaries[i] = rec
	core.SortSalaries(l.salaries)
	return nil
}

func (s *Store) DeleteSalary(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgerFor(owner)
	i := indexOf(len(l.salaries), func(i int) string { return l.salaries[i].ID }, id)
	if i < 0 {
		return notFound("salary", id)
	}
	l.salaries = append(l.salaries[:i:i], l.salaries[i+1:]...)
	return nil
}

func indexOf(n int, idAt func(int) string, id string) int {
	for i := 0; i < n; i++ {
		if idAt(i) == id {
			return i
		}
	}
	return -1
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", core.ErrNotFound, kind, id)
}
