package storage

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
)

// KeyPlannedExpenses is the store key holding all planned expenses.
const KeyPlannedExpenses = "plannedExpenses"

// PlannedExpenseRepository owns the planned expense list. Same contract as
// TransactionRepository: in-memory mirror, whole-list write per mutation.
type PlannedExpenseRepository struct {
	mu    sync.Mutex
	store *Store
	items []core.PlannedExpense
}

func NewPlannedExpenseRepository(ctx context.Context, store *Store) *PlannedExpenseRepository {
	r := &PlannedExpenseRepository{store: store}
	r.items = GetOr(ctx, store, KeyPlannedExpenses, []core.PlannedExpense{})
	sortPlanned(r.items)
	return r
}

// List returns a copy of all planned expenses, reminder-bearing ones first
// in chronological order.
func (r *PlannedExpenseRepository) List(ctx context.Context) []core.PlannedExpense {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.PlannedExpense, len(r.items))
	copy(out, r.items)
	return out
}

// Add validates and stores a single planned expense. A missing id gets a
// fresh one.
func (r *PlannedExpenseRepository) Add(ctx context.Context, p core.PlannedExpense) (core.PlannedExpense, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := p.Validate(); err != nil {
		return core.PlannedExpense{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, p)
	sortPlanned(r.items)
	r.store.Set(ctx, KeyPlannedExpenses, r.items)
	return p, nil
}

// AddMany merges imported planned expenses, sanitizing each record the way
// the import path expects: an unknown category degrades to "other", while a
// bad amount, empty title or missing target month drops the record. Records
// whose id is already present are skipped. Returns how many were added.
func (r *PlannedExpenseRepository) AddMany(ctx context.Context, plans []core.PlannedExpense) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(r.items))
	for _, p := range r.items {
		seen[p.ID] = struct{}{}
	}

	added := 0
	for _, p := range plans {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		if !p.Category.IsExpense() {
			p.Category = core.CategoryOther
		}
		if err := p.Validate(); err != nil {
			slog.WarnContext(ctx, "Dropping invalid planned expense from import", "id", p.ID, "error", err)
			continue
		}
		seen[p.ID] = struct{}{}
		r.items = append(r.items, p)
		added++
	}

	if added > 0 {
		sortPlanned(r.items)
		r.store.Set(ctx, KeyPlannedExpenses, r.items)
	}
	return added
}

// Delete removes the planned expense with the given id.
func (r *PlannedExpenseRepository) Delete(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.items {
		if p.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			r.store.Set(ctx, KeyPlannedExpenses, r.items)
			return true
		}
	}
	return false
}

// SweepExpired drops non-recurring plans whose target month has passed and
// returns the removed plans. A single write covers the whole sweep.
func (r *PlannedExpenseRepository) SweepExpired(ctx context.Context, now time.Time) []core.PlannedExpense {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []core.PlannedExpense
	kept := r.items[:0]
	for _, p := range r.items {
		if p.Expired(now) {
			removed = append(removed, p)
			continue
		}
		kept = append(kept, p)
	}
	r.items = kept

	if len(removed) > 0 {
		r.store.Set(ctx, KeyPlannedExpenses, r.items)
		slog.InfoContext(ctx, "Swept expired planned expenses", "removed", len(removed))
	}
	return removed
}

// MarkDueRemindersFired flags every due reminder as shown and returns the
// plans whose reminders fired, batching all flag flips into one write.
func (r *PlannedExpenseRepository) MarkDueRemindersFired(ctx context.Context, now time.Time) []core.PlannedExpense {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fired []core.PlannedExpense
	for i := range r.items {
		if r.items[i].ReminderDue(now) {
			r.items[i].NotificationShown = true
			fired = append(fired, r.items[i])
		}
	}

	if len(fired) > 0 {
		r.store.Set(ctx, KeyPlannedExpenses, r.items)
	}
	return fired
}

// Reload discards the in-memory mirror and re-reads the store.
func (r *PlannedExpenseRepository) Reload(ctx context.Context) {
	fresh := GetOr(ctx, r.store, KeyPlannedExpenses, []core.PlannedExpense{})
	sortPlanned(fresh)

	r.mu.Lock()
	r.items = fresh
	r.mu.Unlock()
}

// sortPlanned orders by reminder time ascending; plans without a reminder
// keep their relative order at the end.
func sortPlanned(plans []core.PlannedExpense) {
	sort.SliceStable(plans, func(i, j int) bool {
		a, b := plans[i].ReminderDateTime, plans[j].ReminderDateTime
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.Before(*b)
	})
}
