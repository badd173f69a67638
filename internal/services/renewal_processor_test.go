package services

import (
	"context"
	"errors"
	"testing"

	"gastos/internal/core"
	"gastos/internal/storage/memory"
)

type recordingNotifier struct {
	calls map[string][]core.FixedExpense
	err   error
}

func (n *recordingNotifier) NotifyRenewals(_ context.Context, owner string, due []core.FixedExpense) error {
	if n.calls == nil {
		n.calls = make(map[string][]core.FixedExpense)
	}
	n.calls[owner] = append(n.calls[owner], due...)
	return n.err
}

func seedFixed(t *testing.T, store *memory.Store, owner string, stored core.Date, raws ...core.RawFixedExpense) {
	t.Helper()
	for _, raw := range raws {
		e, err := core.Normalize(raw, stored)
		if err != nil {
			t.Fatalf("normalize %s: %v", raw.Service, err)
		}
		if err := store.AddFixedExpense(context.Background(), owner, e); err != nil {
			t.Fatalf("add %s: %v", raw.Service, err)
		}
	}
}

func TestProcessRenewals(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedFixed(t, store, "u1", core.NewDate(2025, 2, 1),
		core.RawFixedExpense{ID: "f1", Service: "Internet", Price: "90000", Frequency: "monthly", RenewalDate: "2025-03-01"},
		core.RawFixedExpense{ID: "f2", Service: "Gimnasio", Price: "70000", Frequency: "monthly", RenewalDate: "2025-01-01"},
	)
	seedFixed(t, store, "u2", core.NewDate(2025, 3, 30),
		core.RawFixedExpense{ID: "f3", Service: "Seguro", Price: "150000", Frequency: "monthly", RenewalDate: "2025-02-15"},
	)

	notifier := &recordingNotifier{}
	today := core.NewDate(2025, 3, 30)
	p := NewRenewalProcessor(store, notifier, 3, fixedClock(&today))

	res, err := p.ProcessRenewals(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Owners != 2 || res.Refreshed != 2 || res.Reminded != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	due := notifier.calls["u1"]
	if len(due) != 1 || due[0].ID != "f1" || due[0].DaysRemaining != 2 {
		t.Fatalf("unexpected reminders %+v", due)
	}
	if _, ok := notifier.calls["u2"]; ok {
		t.Fatalf("overdue renewal must not be reminded")
	}

	stored, err := store.GetFixedExpense(ctx, "u1", "f2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.DaysRemaining != -57 {
		t.Fatalf("expected refreshed days remaining -57, got %d", stored.DaysRemaining)
	}

	res, err = p.ProcessRenewals(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Refreshed != 0 {
		t.Fatalf("second run on the same day must not rewrite anything, got %+v", res)
	}
}

func TestProcessRenewalsNotifierFailureSkipsOwner(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedFixed(t, store, "u1", core.NewDate(2025, 3, 30),
		core.RawFixedExpense{ID: "f1", Service: "Internet", Price: "90000", Frequency: "biweekly", RenewalDate: "2025-03-16"},
	)

	today := core.NewDate(2025, 3, 30)
	p := NewRenewalProcessor(store, &recordingNotifier{err: errors.New("smtp down")}, 3, fixedClock(&today))
	res, err := p.ProcessRenewals(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Owners != 0 || res.Reminded != 0 {
		t.Fatalf("expected failing owner to be skipped, got %+v", res)
	}
}

func TestProcessRenewalsWithoutNotifier(t *testing.T) {
	store := memory.New()
	seedFixed(t, store, "u1", core.NewDate(2025, 3, 30),
		core.RawFixedExpense{ID: "f1", Service: "Internet", Price: "90000", Frequency: "monthly", RenewalDate: "2025-03-01"},
	)
	today := core.NewDate(2025, 3, 30)
	res, err := NewRenewalProcessor(store, nil, 3, fixedClock(&today)).ProcessRenewals(context.Background())
	if err != nil || res.Reminded != 0 || res.Owners != 1 {
		t.Fatalf("unexpected result %+v (%v)", res, err)
	}
}

func TestNewRenewalProcessorRequiresRepository(t *testing.T) {
	if _, err := NewRenewalProcessor(nil, nil, 3, nil).ProcessRenewals(context.Background()); err == nil {
		t.Fatal("expected error without repository")
	}
}
