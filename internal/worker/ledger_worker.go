// Package worker reacts to ledger change events: it alerts when spending
// passes the latest salary and refreshes the spreadsheet export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/report"
)

// Reports is the subset of the ledger service the worker reads.
type Reports interface {
	Health(ctx context.Context, owner string) (*report.HealthReport, error)
	Periods(ctx context.Context, owner string) ([]report.PeriodReport, error)
}

// OwnerLister enumerates the owners with data.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

type OverBudgetNotifier interface {
	NotifyOverBudget(ctx context.Context, owner string, h *report.HealthReport) error
}

type PeriodExporter interface {
	ExportPeriods(ctx context.Context, owner string, periods []report.PeriodReport) error
}

// LedgerWorker handles ledger events. Notifier and exporter are optional.
type LedgerWorker struct {
	reports  Reports
	owners   OwnerLister
	notifier OverBudgetNotifier
	exporter PeriodExporter

	mu      sync.Mutex
	alerted map[string]bool
}

func NewLedgerWorker(reports Reports, owners OwnerLister, notifier OverBudgetNotifier, exporter PeriodExporter) *LedgerWorker {
	return &LedgerWorker{
		reports:  reports,
		owners:   owners,
		notifier: notifier,
		exporter: exporter,
		alerted:  make(map[string]bool),
	}
}

// HandleLedgerEvent processes one event. Returned errors are transient and
// make the broker redeliver the event.
func (w *LedgerWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOwner, ev.Owner,
		"kind", ev.Kind,
		log.FieldEntityID, ev.EntityID)

	// category changes never move totals
	if strings.HasPrefix(string(ev.Kind), "category.") {
		return nil
	}

	if err := w.checkBudget(ctx, ev.Owner); err != nil {
		return err
	}
	return w.export(ctx, ev.Owner)
}

// StartupExport refreshes every owner's export, covering events missed
// while the worker was down. Per-owner failures are logged and skipped.
func (w *LedgerWorker) StartupExport(ctx context.Context) error {
	if w.exporter == nil {
		return nil
	}
	owners, err := w.owners.ListOwners(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}
	for _, owner := range owners {
		if err := w.export(ctx, owner); err != nil {
			slog.ErrorContext(ctx, "Startup export failed",
				log.FieldComponent, log.ComponentWorker,
				log.FieldOperation, log.OpExport,
				log.FieldOwner, owner,
				log.FieldError, err)
		}
	}
	slog.InfoContext(ctx, "Startup export complete",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOperation, log.OpStartup,
		"owners", len(owners))
	return nil
}

// checkBudget sends one alert each time an owner crosses into overspending.
func (w *LedgerWorker) checkBudget(ctx context.Context, owner string) error {
	if w.notifier == nil {
		return nil
	}
	h, err := w.reports.Health(ctx, owner)
	if errors.Is(err, core.ErrDivision) {
		slog.WarnContext(ctx, "Skipping budget check", log.FieldOwner, owner, log.FieldError, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("evaluate health: %w", err)
	}

	over := h != nil && h.OverBudget
	w.mu.Lock()
	already := w.alerted[owner]
	w.alerted[owner] = over
	w.mu.Unlock()

	if !over || already {
		return nil
	}
	if err := w.notifier.NotifyOverBudget(ctx, owner, h); err != nil {
		w.mu.Lock()
		w.alerted[owner] = false
		w.mu.Unlock()
		return fmt.Errorf("notify over budget: %w", err)
	}
	return nil
}

func (w *LedgerWorker) export(ctx context.Context, owner string) error {
	if w.exporter == nil {
		return nil
	}
	periods, err := w.reports.Periods(ctx, owner)
	if err != nil {
		return fmt.Errorf("build periods: %w", err)
	}
	if err := w.exporter.ExportPeriods(ctx, owner, periods); err != nil {
		return fmt.Errorf("export periods: %w", err)
	}
	return nil
}
