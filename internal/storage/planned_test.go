package storage

import (
	"context"
	"testing"
	"time"

	"tally/internal/core"
)

func samplePlan(id, title string, month *core.YearMonth, recurring bool) core.PlannedExpense {
	return core.PlannedExpense{
		ID:          id,
		Title:       title,
		Amount:      core.AmountFromInt(100),
		Category:    core.CategoryHousing,
		IsRecurring: recurring,
		TargetMonth: month,
	}
}

func ym(year int, month time.Month) *core.YearMonth {
	return &core.YearMonth{Year: year, Month: month}
}

func TestPlannedRepositoryAddAndPersist(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := NewPlannedExpenseRepository(ctx, s)

	added, err := repo.Add(ctx, samplePlan("", "Rent", ym(2024, time.June), false))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if added.ID == "" {
		t.Error("Add() did not assign an id")
	}

	repo2 := NewPlannedExpenseRepository(ctx, s)
	if got := repo2.List(ctx); len(got) != 1 || got[0].Title != "Rent" {
		t.Errorf("reloaded List() = %v, want the added plan", got)
	}
}

func TestPlannedRepositoryAddValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := NewPlannedExpenseRepository(ctx, s)

	tests := []struct {
		name string
		plan core.PlannedExpense
	}{
		{"empty title", samplePlan("a", "  ", ym(2024, time.June), false)},
		{"non-recurring without month", samplePlan("b", "Gym", nil, false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.Add(ctx, tt.plan); err == nil {
				t.Errorf("Add(%s) accepted an invalid plan", tt.name)
			}
		})
	}
}

func TestPlannedRepositorySortByReminder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := NewPlannedExpenseRepository(ctx, s)

	at := func(h int) *time.Time {
		ts := time.Date(2024, time.June, 1, h, 0, 0, 0, time.Local)
		return &ts
	}

	late := samplePlan("late", "Late", nil, true)
	late.IsReminderSet = true
	late.ReminderDateTime = at(18)
	early := samplePlan("early", "Early", nil, true)
	early.IsReminderSet = true
	early.ReminderDateTime = at(9)
	none := samplePlan("none", "No reminder", nil, true)

	repo.Add(ctx, none)
	repo.Add(ctx, late)
	repo.Add(ctx, early)

	got := repo.List(ctx)
	if got[0].ID != "early" || got[1].ID != "late" || got[2].ID != "none" {
		t.Errorf("List() order = %s,%s,%s, want early,late,none", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestPlannedRepositoryAddManySanitizes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := NewPlannedExpenseRepository(ctx, s)

	odd := samplePlan("odd", "Odd category", ym(2024, time.July), false)
	odd.Category = core.Category("moon-rent")
	broken := samplePlan("broken", "Bad amount", ym(2024, time.July), false)
	broken.Amount = core.Amount{}

	if added := repo.AddMany(ctx, []core.PlannedExpense{odd, broken}); added != 1 {
		t.Fatalf("AddMany() = %d, want 1 (broken record dropped)", added)
	}

	got := repo.List(ctx)
	if len(got) != 1 || got[0].Category != core.CategoryOther {
		t.Errorf("List() = %v, want one plan with category degraded to other", got)
	}

	// Re-importing the same id is a no-op.
	if added := repo.AddMany(ctx, []core.PlannedExpense{odd}); added != 0 {
		t.Errorf("AddMany() with duplicate id = %d, want 0", added)
	}
}

func TestPlannedRepositorySweepExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := NewPlannedExpenseRepository(ctx, s)

	repo.Add(ctx, samplePlan("past", "Past", ym(2024, time.February), false))
	repo.Add(ctx, samplePlan("current", "Current", ym(2024, time.March), false))
	repo.Add(ctx, samplePlan("recurring", "Recurring", nil, true))

	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.Local)
	removed := repo.SweepExpired(ctx, now)
	if len(removed) != 1 || removed[0].ID != "past" {
		t.Fatalf("SweepExpired() removed %v, want only the past plan", removed)
	}
	if got := repo.List(ctx); len(got) != 2 {
		t.Errorf("List() after sweep = %d items, want 2", len(got))
	}
}

func TestPlannedRepositoryMarkDueRemindersFired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := NewPlannedExpenseRepository(ctx, s)

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.Local)
	due := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	a := samplePlan("due", "Due", nil, true)
	a.IsReminderSet = true
	a.ReminderDateTime = &due
	b := samplePlan("future", "Future", nil, true)
	b.IsReminderSet = true
	b.ReminderDateTime = &future
	repo.Add(ctx, a)
	repo.Add(ctx, b)

	fired := repo.MarkDueRemindersFired(ctx, now)
	if len(fired) != 1 || fired[0].ID != "due" {
		t.Fatalf("MarkDueRemindersFired() = %v, want only the due plan", fired)
	}

	// The flag persists, so a second pass fires nothing.
	if again := repo.MarkDueRemindersFired(ctx, now); len(again) != 0 {
		t.Errorf("second MarkDueRemindersFired() = %v, want none", again)
	}

	repo2 := NewPlannedExpenseRepository(ctx, s)
	for _, p := range repo2.List(ctx) {
		if p.ID == "due" && !p.NotificationShown {
			t.Error("NotificationShown flag was not persisted")
		}
	}
}
