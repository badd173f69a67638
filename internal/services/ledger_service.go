// Package services orchestrates the ledger: it validates input, persists
// through a storage.Repository, builds reports from consistent snapshots and
// fans out change notifications.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/cache"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/report"
	"gastos/internal/storage"
)

// EventPublisher delivers ledger change notifications. *amqp.Client
// satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEvent) error
}

// Clock returns the current calendar date.
type Clock func() core.Date

// SystemClock reads the wall clock.
func SystemClock() core.Date {
	return core.DateOf(time.Now())
}

// Snapshot is a consistent copy of one owner's ledger. Fixed expenses carry
// derived fields computed against Today.
type Snapshot struct {
	Today      core.Date
	Categories []core.Category
	Fixed      []core.FixedExpense
	General    []core.GeneralExpense
	Salaries   []core.SalaryRecord
}

// LedgerService is the single entry point for ledger reads and writes.
type LedgerService struct {
	repo      storage.Repository
	cache     cache.Store
	publisher EventPublisher
	today     Clock
	logger    *log.StructuredLogger
}

type Option func(*LedgerService)

// WithCache enables read-through caching of reports.
func WithCache(store cache.Store) Option {
	return func(s *LedgerService) { s.cache = store }
}

// WithPublisher enables change notifications.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *LedgerService) { s.today = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = log.NewStructuredLogger(l) }
}

func NewLedgerService(repo storage.Repository, opts ...Option) *LedgerService {
	s := &LedgerService{
		repo:   repo,
		today:  SystemClock,
		logger: log.NewStructuredLogger(log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentLedger})),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the date the service evaluates against.
func (s *LedgerService) Today() core.Date {
	return s.today()
}

// Snapshot loads the four collections of owner concurrently.
func (s *LedgerService) Snapshot(ctx context.Context, owner string) (Snapshot, error) {
	snap := Snapshot{Today: s.today()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cats, err := s.repo.ListCategories(gctx, owner)
		snap.Categories = cats
		return err
	})
	g.Go(func() error {
		fixed, err := s.repo.ListFixedExpenses(gctx, owner)
		for i := range fixed {
			fixed[i] = core.Renormalize(fixed[i], snap.Today)
		}
		snap.Fixed = fixed
		return err
	})
	g.Go(func() error {
		general, err := s.repo.ListGeneralExpenses(gctx, owner)
		snap.General = general
		return err
	})
	g.Go(func() error {
		salaries, err := s.repo.ListSalaries(gctx, owner)
		snap.Salaries = salaries
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("load ledger snapshot: %w", err)
	}
	return snap, nil
}

// Categories

// EnsureCategories seeds the default categories when owner has none.
func (s *LedgerService) EnsureCategories(ctx context.Context, owner string) ([]core.Category, error) {
	cats, err := s.repo.ListCategories(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(cats) > 0 {
		return cats, nil
	}
	defaults := core.DefaultCategories()
	for _, c := range defaults {
		if err := s.repo.AddCategory(ctx, owner, c); err != nil {
			return nil, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	slog.InfoContext(ctx, "Seeded default categories", log.FieldOwner, owner, "count", len(defaults))
	return defaults, nil
}

func (s *LedgerService) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	return s.EnsureCategories(ctx, owner)
}

func (s *LedgerService) AddCategory(ctx context.Context, owner, name string) (core.Category, error) {
	c, err := core.NewCategory(name)
	if err != nil {
		return core.Category{}, err
	}
	if _, err := s.EnsureCategories(ctx, owner); err != nil {
		return core.Category{}, err
	}
	if err := s.repo.AddCategory(ctx, owner, c); err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	s.changed(ctx, owner, log.OpCreate, amqp.CategoryCreated, c.Name)
	return c, nil
}

// RenameCategory renames a category. Expenses keep the old name.
func (s *LedgerService) RenameCategory(ctx context.Context, owner, from, to string) (core.Category, error) {
	c, err := core.NewCategory(to)
	if err != nil {
		return core.Category{}, err
	}
	if err := s.repo.RenameCategory(ctx, owner, strings.TrimSpace(from), c.Name); err != nil {
		return core.Category{}, fmt.Errorf("rename category: %w", err)
	}
	s.changed(ctx, owner, log.OpUpdate, amqp.CategoryRenamed, c.Name)
	return c, nil
}

// DeleteCategory removes a category. Deleting the last one fails with
// core.ErrLastCategory and leaves the set unchanged. Expenses that reference
// the category keep their value.
func (s *LedgerService) DeleteCategory(ctx context.Context, owner, name string) error {
	name = strings.TrimSpace(name)
	if err := s.repo.DeleteCategory(ctx, owner, name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.changed(ctx, owner, log.OpDelete, amqp.CategoryDeleted, name)
	return nil
}

// CategoryUsage counts the fixed expenses that reference name.
func (s *LedgerService) CategoryUsage(ctx context.Context, owner, name string) (int, error) {
	fixed, err := s.repo.ListFixedExpenses(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("list fixed expenses: %w", err)
	}
	n := 0
	for _, e := range fixed {
		if e.Category == name {
			n++
		}
	}
	return n, nil
}

// Fixed expenses

func (s *LedgerService) ListFixedExpenses(ctx context.Context, owner string) ([]core.FixedExpense, error) {
	fixed, err := s.repo.ListFixedExpenses(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	today := s.today()
	for i := range fixed {
		fixed[i] = core.Renormalize(fixed[i], today)
	}
	return fixed, nil
}

func (s *LedgerService) GetFixedExpense(ctx context.Context, owner, id string) (core.FixedExpense, error) {
	e, err := s.repo.GetFixedExpense(ctx, owner, id)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("get fixed expense: %w", err)
	}
	return core.Renormalize(e, s.today()), nil
}

// AddFixedExpense normalizes raw and stores it under a fresh id.
func (s *LedgerService) AddFixedExpense(ctx context.Context, owner string, raw core.RawFixedExpense) (core.FixedExpense, error) {
	raw.ID = uuid.NewString()
	e, err := core.Normalize(raw, s.today())
	if err != nil {
		return core.FixedExpense{}, err
	}
	if err := s.repo.AddFixedExpense(ctx, owner, e); err != nil {
		return core.FixedExpense{}, fmt.Errorf("add fixed expense: %w", err)
	}
	s.changed(ctx, owner, log.OpCreate, amqp.FixedExpenseCreated, e.ID)
	return e, nil
}

func (s *LedgerService) UpdateFixedExpense(ctx context.Context, owner, id string, raw core.RawFixedExpense) (core.FixedExpense, error) {
	raw.ID = id
	e, err := core.Normalize(raw, s.today())
	if err != nil {
		return core.FixedExpense{}, err
	}
	if err := s.repo.UpdateFixedExpense(ctx, owner, e); err != nil {
		return core.FixedExpense{}, fmt.Errorf("update fixed expense: %w", err)
	}
	s.changed(ctx, owner, log.OpUpdate, amqp.FixedExpenseUpdated, e.ID)
	return e, nil
}

func (s *LedgerService) DeleteFixedExpense(ctx context.Context, owner, id string) error {
	if err := s.repo.DeleteFixedExpense(ctx, owner, id); err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	s.changed(ctx, owner, log.OpDelete, amqp.FixedExpenseDeleted, id)
	return nil
}

// General expenses

// GeneralFilter restricts a general expense listing. Zero values match
// everything.
type GeneralFilter struct {
	Month string // Spanish month name or 1..12
	Year  int
}

func (s *LedgerService) ListGeneralExpenses(ctx context.Context, owner string, f GeneralFilter) ([]core.GeneralExpense, error) {
	month := ""
	if strings.TrimSpace(f.Month) != "" {
		m, err := core.MonthNumber(f.Month)
		if err != nil {
			return nil, err
		}
		month = core.MonthName(m)
	}
	all, err := s.repo.ListGeneralExpenses(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list general expenses: %w", err)
	}
	out := make([]core.GeneralExpense, 0, len(all))
	for _, e := range all {
		if month != "" && e.Month != month {
			continue
		}
		if f.Year != 0 && e.Year != f.Year {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *LedgerService) AddGeneralExpense(ctx context.Context, owner string, raw core.RawGeneralExpense) (core.GeneralExpense, error) {
	raw.ID = uuid.NewString()
	e, err := core.NewGeneralExpense(raw)
	if err != nil {
		return core.GeneralExpense{}, err
	}
	if err := s.repo.AddGeneralExpense(ctx, owner, e); err != nil {
		return core.GeneralExpense{}, fmt.Errorf("add general expense: %w", err)
	}
	s.changed(ctx, owner, log.OpCreate, amqp.GeneralExpenseCreated, e.ID)
	return e, nil
}

func (s *LedgerService) UpdateGeneralExpense(ctx context.Context, owner, id string, raw core.RawGeneralExpense) (core.GeneralExpense, error) {
	raw.ID = id
	e, err := core.NewGeneralExpense(raw)
	if err != nil {
		return core.GeneralExpense{}, err
	}
	if err := s.repo.UpdateGeneralExpense(ctx, owner, e); err != nil {
		return core.GeneralExpense{}, fmt.Errorf("update general expense: %w", err)
	}
	s.changed(ctx, owner, log.OpUpdate, amqp.GeneralExpenseUpdated, e.ID)
	return e, nil
}

func (s *LedgerService) DeleteGeneralExpense(ctx context.Context, owner, id string) error {
	if err := s.repo.DeleteGeneralExpense(ctx, owner, id); err != nil {
		return fmt.Errorf("delete general expense: %w", err)
	}
	s.changed(ctx, owner, log.OpDelete, amqp.GeneralExpenseDeleted, id)
	return nil
}

// Salaries

// ListSalaries returns salaries most recent first.
func (s *LedgerService) ListSalaries(ctx context.Context, owner string) ([]core.SalaryRecord, error) {
	salaries, err := s.repo.ListSalaries(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list salaries: %w", err)
	}
	return salaries, nil
}

func (s *LedgerService) AddSalary(ctx context.Context, owner string, raw core.RawSalaryRecord) (core.SalaryRecord, error) {
	raw.ID = uuid.NewString()
	rec, err := core.NewSalaryRecord(raw)
	if err != nil {
		return core.SalaryRecord{}, err
	}
	if err := s.repo.AddSalary(ctx, owner, rec); err != nil {
		return core.SalaryRecord{}, fmt.Errorf("add salary: %w", err)
	}
	s.changed(ctx, owner, log.OpCreate, amqp.SalaryCreated, rec.ID)
	return rec, nil
}

func (s *LedgerService) UpdateSalary(ctx context.Context, owner, id string, raw core.RawSalaryRecord) (core.SalaryRecord, error) {
	raw.ID = id
	rec, err := core.NewSalaryRecord(raw)
	if err != nil {
		return core.SalaryRecord{}, err
	}
	if err := s.repo.UpdateSalary(ctx, owner, rec); err != nil {
		return core.SalaryRecord{}, fmt.Errorf("update salary: %w", err)
	}
	s.changed(ctx, owner, log.OpUpdate, amqp.SalaryUpdated, rec.ID)
	return rec, nil
}

func (s *LedgerService) DeleteSalary(ctx context.Context, owner, id string) error {
	if err := s.repo.DeleteSalary(ctx, owner, id); err != nil {
		return fmt.Errorf("delete salary: %w", err)
	}
	s.changed(ctx, owner, log.OpDelete, amqp.SalaryDeleted, id)
	return nil
}

// Reports

// Health evaluates the current month against the latest salary. It returns
// nil without error when the owner has no salary.
func (s *LedgerService) Health(ctx context.Context, owner string) (*report.HealthReport, error) {
	return cachedReport(ctx, s, owner, "health", func(snap Snapshot) (*report.HealthReport, error) {
		return report.EvaluateHealth(core.Latest(snap.Salaries), snap.Fixed, snap.General, snap.Today)
	})
}

// Periods returns one report per salary, most recent first.
func (s *LedgerService) Periods(ctx context.Context, owner string) ([]report.PeriodReport, error) {
	return cachedReport(ctx, s, owner, "periods", func(snap Snapshot) ([]report.PeriodReport, error) {
		return report.SalaryPeriods(snap.Salaries, snap.Fixed, snap.General), nil
	})
}

func (s *LedgerService) Statistics(ctx context.Context, owner string) (report.Statistics, error) {
	return cachedReport(ctx, s, owner, "statistics", func(snap Snapshot) (report.Statistics, error) {
		return report.Summarize(report.SalaryPeriods(snap.Salaries, snap.Fixed, snap.General)), nil
	})
}

// Categories returns spending per category sorted by name.
func (s *LedgerService) Categories(ctx context.Context, owner string) ([]report.CategoryTotal, error) {
	return cachedReport(ctx, s, owner, "categories", func(snap Snapshot) ([]report.CategoryTotal, error) {
		return report.SortedCategories(report.ByCategory(snap.Fixed, snap.General)), nil
	})
}

func (s *LedgerService) Months(ctx context.Context, owner string) ([]report.MonthGroup, error) {
	return cachedReport(ctx, s, owner, "months", func(snap Snapshot) ([]report.MonthGroup, error) {
		return report.ByMonth(snap.General), nil
	})
}

func (s *LedgerService) FixedTotals(ctx context.Context, owner string) (report.FixedTotals, error) {
	return cachedReport(ctx, s, owner, "fixed_totals", func(snap Snapshot) (report.FixedTotals, error) {
		return report.SumFixed(snap.Fixed), nil
	})
}

// cachedReport builds a report from a fresh snapshot, going through the
// cache when one is configured. Keys include the owner's cache generation
// and the date: a fill racing a write lands under a generation nobody reads
// again, and derived fields never outlive the day they were computed for.
func cachedReport[T any](ctx context.Context, s *LedgerService, owner, name string, build func(Snapshot) (T, error)) (T, error) {
	var zero T
	gen, cacheable := s.generation(ctx, owner)
	key := reportPrefix(owner) + gen + ":" + name + ":" + s.today().String()

	if cacheable {
		if data, ok, err := s.cache.Get(ctx, key); err != nil {
			slog.WarnContext(ctx, "Report cache read failed", log.FieldReport, name, log.FieldError, err)
		} else if ok {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				slog.DebugContext(ctx, "Report served", log.FieldOwner, owner, log.FieldReport, name, log.FieldCacheHit, true)
				return v, nil
			}
		}
	}

	snap, err := s.Snapshot(ctx, owner)
	if err != nil {
		return zero, err
	}
	v, err := build(snap)
	if err != nil {
		return zero, fmt.Errorf("build %s report: %w", name, err)
	}

	if cacheable {
		if data, err := json.Marshal(v); err == nil {
			if err := s.cache.Set(ctx, key, data); err != nil {
				slog.WarnContext(ctx, "Report cache write failed", log.FieldReport, name, log.FieldError, err)
			}
		}
	}
	return v, nil
}

func reportPrefix(owner string) string {
	return "report:" + owner + ":"
}

func generationKey(owner string) string {
	return "report-gen:" + owner
}

// generation returns the owner's current cache generation, starting a new
// one when none is stored. Reports are not cached when it cannot be read.
func (s *LedgerService) generation(ctx context.Context, owner string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	data, ok, err := s.cache.Get(ctx, generationKey(owner))
	if err != nil {
		slog.WarnContext(ctx, "Report generation read failed", log.FieldOwner, owner, log.FieldError, err)
		return "", false
	}
	if ok {
		return string(data), true
	}
	return s.bumpGeneration(ctx, owner)
}

// bumpGeneration retires every report cached for owner so far.
func (s *LedgerService) bumpGeneration(ctx context.Context, owner string) (string, bool) {
	gen := uuid.NewString()
	if err := s.cache.Set(ctx, generationKey(owner), []byte(gen)); err != nil {
		slog.WarnContext(ctx, "Report generation write failed", log.FieldOwner, owner, log.FieldError, err)
		return "", false
	}
	return gen, true
}

// changed runs the side effects of a successful write. Failures are logged
// and never surface to the caller.
func (s *LedgerService) changed(ctx context.Context, owner, op string, kind amqp.EventKind, id string) {
	entity, _, _ := strings.Cut(string(kind), ".")
	s.logger.LogLedgerChange(ctx, owner, op, entity, id)

	if s.cache != nil {
		s.bumpGeneration(ctx, owner)
		if err := s.cache.DeletePrefix(ctx, reportPrefix(owner)); err != nil {
			s.logger.LogError(ctx, "Report cache invalidation failed", err, log.ComponentCache, op, log.NewFields().WithOwner(owner))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(owner, kind, id)); err != nil {
			s.logger.LogError(ctx, "Failed to publish ledger event", err, log.ComponentAMQP, op, log.NewFields().WithOwner(owner).WithEntity(entity, id))
		}
	}
}
