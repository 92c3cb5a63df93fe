package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Transaction is a single recorded income or expense event. Immutable
	// once created except by full replacement; identity is ID.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Category    Category        `json:"category"`
		Amount      Amount          `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
	}

	// PlannedExpense is a budgeted future expense, optionally recurring,
	// optionally reminder-bearing. Non-recurring plans carry a target month
	// and expire once it has passed.
	PlannedExpense struct {
		ID                string     `json:"id"`
		Title             string     `json:"title"`
		Description       string     `json:"description,omitempty"`
		Amount            Amount     `json:"amount"`
		Category          Category   `json:"category"`
		IsRecurring       bool       `json:"isRecurring"`
		TargetMonth       *YearMonth `json:"targetMonth,omitempty"`
		IsReminderSet     bool       `json:"isReminderSet"`
		ReminderDateTime  *time.Time `json:"reminderDateTime,omitempty"`
		NotificationShown bool       `json:"notificationShown"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyTitle      = errors.New("empty title")
	ErrMissingMonth    = errors.New("missing target month")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Category.AllowedFor(t.Type) {
		return ErrInvalidCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// Signed returns the transaction's contribution to a running balance:
// positive for income, negative for expense.
func (t Transaction) Signed() Amount {
	if t.Type == Expense {
		return Amount{}.Sub(t.Amount)
	}
	return t.Amount
}

func (p PlannedExpense) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if !p.Category.IsExpense() {
		return ErrInvalidCategory
	}
	if !p.IsRecurring && p.TargetMonth == nil {
		return ErrMissingMonth
	}
	return nil
}

// ReminderDue reports whether a set, not-yet-shown reminder has come due.
func (p PlannedExpense) ReminderDue(now time.Time) bool {
	if !p.IsReminderSet || p.NotificationShown || p.ReminderDateTime == nil {
		return false
	}
	return !p.ReminderDateTime.After(now)
}

// Expired reports whether a non-recurring plan's target month lies strictly
// before the month containing now. Recurring plans never expire.
func (p PlannedExpense) Expired(now time.Time) bool {
	if p.IsRecurring || p.TargetMonth == nil {
		return false
	}
	return p.TargetMonth.Before(YearMonthOf(now))
}
