package services

import (
	"context"
	"fmt"
	"log/slog"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"
)

// RenewalNotifier is told about fixed expenses that renew soon.
type RenewalNotifier interface {
	NotifyRenewals(ctx context.Context, owner string, due []core.FixedExpense) error
}

// RenewalResult summarizes one processing run.
type RenewalResult struct {
	Owners    int
	Refreshed int
	Reminded  int
}

// RenewalProcessor keeps the stored derived fields of fixed expenses in step
// with the calendar and reminds owners of upcoming renewals.
type RenewalProcessor struct {
	repo       storage.Repository
	notifier   RenewalNotifier
	remindDays int
	today      Clock
}

// NewRenewalProcessor creates a processor. A nil notifier disables
// reminders; a nil clock uses the wall clock.
func NewRenewalProcessor(repo storage.Repository, notifier RenewalNotifier, remindDays int, today Clock) *RenewalProcessor {
	if today == nil {
		today = SystemClock
	}
	return &RenewalProcessor{
		repo:       repo,
		notifier:   notifier,
		remindDays: remindDays,
		today:      today,
	}
}

// ProcessRenewals walks every owner once. A failing owner is logged and
// skipped so the others still get processed.
func (p *RenewalProcessor) ProcessRenewals(ctx context.Context) (RenewalResult, error) {
	if p.repo == nil {
		return RenewalResult{}, fmt.Errorf("processor not properly initialized")
	}

	owners, err := p.repo.ListOwners(ctx)
	if err != nil {
		return RenewalResult{}, fmt.Errorf("list owners: %w", err)
	}

	today := p.today()
	slog.InfoContext(ctx, "Processing fixed expense renewals",
		log.FieldComponent, log.ComponentRenewal,
		"owners", len(owners),
		"processing_date", today.String())

	var res RenewalResult
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		refreshed, reminded, err := p.processOwner(ctx, owner, today)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process renewals",
				log.FieldComponent, log.ComponentRenewal,
				log.FieldOwner, owner,
				log.FieldError, err)
			continue
		}
		res.Owners++
		res.Refreshed += refreshed
		res.Reminded += reminded
	}

	slog.InfoContext(ctx, "Renewal processing complete",
		log.FieldComponent, log.ComponentRenewal,
		"owners", res.Owners,
		"refreshed", res.Refreshed,
		"reminded", res.Reminded)
	return res, nil
}

func (p *RenewalProcessor) processOwner(ctx context.Context, owner string, today core.Date) (refreshed, reminded int, err error) {
	fixed, err := p.repo.ListFixedExpenses(ctx, owner)
	if err != nil {
		return 0, 0, fmt.Errorf("list fixed expenses: %w", err)
	}

	var due []core.FixedExpense
	for _, stored := range fixed {
		current := core.Renormalize(stored, today)
		if !current.DerivedEqual(stored) {
			if err := p.repo.UpdateFixedExpense(ctx, owner, current); err != nil {
				slog.ErrorContext(ctx, "Failed to refresh fixed expense",
					log.FieldOwner, owner,
					log.FieldEntityID, stored.ID,
					log.FieldError, err)
			} else {
				refreshed++
			}
		}
		if p.isDue(current) {
			due = append(due, current)
		}
	}

	if len(due) == 0 || p.notifier == nil {
		return refreshed, 0, nil
	}
	if err := p.notifier.NotifyRenewals(ctx, owner, due); err != nil {
		return refreshed, 0, fmt.Errorf("notify renewals: %w", err)
	}
	for _, e := range due {
		slog.InfoContext(ctx, "Renewal reminder sent",
			log.FieldOwner, owner,
			log.FieldService, e.Service,
			log.FieldDaysRemaining, e.DaysRemaining)
	}
	return refreshed, len(due), nil
}

// isDue reports whether the next renewal falls within the reminder window.
// Overdue renewals are not reminded again.
func (p *RenewalProcessor) isDue(e core.FixedExpense) bool {
	return e.DaysRemaining >= 0 && e.DaysRemaining <= p.remindDays
}
