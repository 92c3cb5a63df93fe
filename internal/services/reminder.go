package services

import (
	"context"
	"log/slog"
	"time"

	"tally/internal/bus"
	"tally/internal/core"
	"tally/internal/storage"
)

// Notifier delivers a fired reminder to the user. Delivery failures do not
// unfire the reminder: the shown flag is already persisted.
type Notifier interface {
	Notify(ctx context.Context, plan core.PlannedExpense) error
}

// LogNotifier is the fallback delivery channel when no broker is
// configured: the reminder lands in the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, plan core.PlannedExpense) error {
	slog.InfoContext(ctx, "Reminder due",
		"plan_id", plan.ID,
		"title", plan.Title,
		"body", "Category: "+string(plan.Category))
	return nil
}

// BusNotifier publishes fired reminders on the event bus.
type BusNotifier struct {
	Client *bus.Client
}

func (n BusNotifier) Notify(ctx context.Context, plan core.PlannedExpense) error {
	return n.Client.PublishReminder(ctx, plan)
}

// ReminderService periodically fires due reminders and prunes expired
// plans.
type ReminderService struct {
	planned  *storage.PlannedExpenseRepository
	notifier Notifier
	now      func() time.Time
}

func NewReminderService(planned *storage.PlannedExpenseRepository, notifier Notifier) *ReminderService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ReminderService{
		planned:  planned,
		notifier: notifier,
		now:      time.Now,
	}
}

// ProcessDueReminders flips and delivers every due reminder. The flag flip
// is batched into a single persist before any delivery happens, so a
// delivery failure never causes a duplicate notification on the next tick.
func (s *ReminderService) ProcessDueReminders(ctx context.Context) int {
	fired := s.planned.MarkDueRemindersFired(ctx, s.now())
	for _, plan := range fired {
		if err := s.notifier.Notify(ctx, plan); err != nil {
			slog.ErrorContext(ctx, "Failed to deliver reminder",
				"plan_id", plan.ID, "error", err)
		}
	}
	return len(fired)
}

// SweepExpired prunes non-recurring plans whose target month has passed.
func (s *ReminderService) SweepExpired(ctx context.Context) int {
	return len(s.planned.SweepExpired(ctx, s.now()))
}

// Run sweeps once at startup, then checks reminders on every tick until
// ctx is done.
func (s *ReminderService) Run(ctx context.Context, interval time.Duration) error {
	s.SweepExpired(ctx)
	s.ProcessDueReminders(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reminder loop stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			s.ProcessDueReminders(ctx)
		}
	}
}
