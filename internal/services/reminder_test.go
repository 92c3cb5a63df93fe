package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

type capturingNotifier struct {
	delivered []core.PlannedExpense
}

func (n *capturingNotifier) Notify(_ context.Context, plan core.PlannedExpense) error {
	n.delivered = append(n.delivered, plan)
	return nil
}

func newTestPlannedRepo(t *testing.T) *storage.PlannedExpenseRepository {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return storage.NewPlannedExpenseRepository(context.Background(), store)
}

func TestProcessDueReminders(t *testing.T) {
	repo := newTestPlannedRepo(t)
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.Local)

	due := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	repo.Add(ctx, core.PlannedExpense{
		Title: "Due", Amount: core.AmountFromInt(50), Category: core.CategoryOther,
		IsRecurring: true, IsReminderSet: true, ReminderDateTime: &due,
	})
	repo.Add(ctx, core.PlannedExpense{
		Title: "Future", Amount: core.AmountFromInt(50), Category: core.CategoryOther,
		IsRecurring: true, IsReminderSet: true, ReminderDateTime: &future,
	})

	notifier := &capturingNotifier{}
	svc := NewReminderService(repo, notifier)
	svc.now = func() time.Time { return now }

	if fired := svc.ProcessDueReminders(ctx); fired != 1 {
		t.Fatalf("ProcessDueReminders() = %d, want 1", fired)
	}
	if len(notifier.delivered) != 1 || notifier.delivered[0].Title != "Due" {
		t.Errorf("delivered = %v, want only the due plan", notifier.delivered)
	}

	// The shown flag persisted, so another tick delivers nothing.
	if fired := svc.ProcessDueReminders(ctx); fired != 0 {
		t.Errorf("second ProcessDueReminders() = %d, want 0", fired)
	}
}

func TestSweepExpiredAtStartup(t *testing.T) {
	repo := newTestPlannedRepo(t)
	ctx := context.Background()

	past := core.YearMonth{Year: 2024, Month: time.January}
	repo.Add(ctx, core.PlannedExpense{
		Title: "Past", Amount: core.AmountFromInt(10), Category: core.CategoryOther,
		TargetMonth: &past,
	})
	repo.Add(ctx, core.PlannedExpense{
		Title: "Recurring", Amount: core.AmountFromInt(10), Category: core.CategoryOther,
		IsRecurring: true,
	})

	svc := NewReminderService(repo, nil)
	svc.now = func() time.Time {
		return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.Local)
	}

	if swept := svc.SweepExpired(ctx); swept != 1 {
		t.Fatalf("SweepExpired() = %d, want 1", swept)
	}
	got := repo.List(ctx)
	if len(got) != 1 || got[0].Title != "Recurring" {
		t.Errorf("List() after sweep = %v, want only the recurring plan", got)
	}
}
