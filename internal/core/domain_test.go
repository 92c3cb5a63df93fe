package core

import (
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		ID:          "t1",
		Type:        Expense,
		Category:    CategoryFood,
		Amount:      AmountFromInt(12),
		Description: "groceries",
		Date:        NewDate(2024, time.March, 5),
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"bad type", func(tr *Transaction) { tr.Type = "transfer" }, ErrInvalidType},
		{"income category on expense", func(tr *Transaction) { tr.Category = CategorySalary }, ErrInvalidCategory},
		{"zero amount", func(tr *Transaction) { tr.Amount = Amount{} }, ErrInvalidAmount},
		{"negative amount", func(tr *Transaction) { tr.Amount = AmountFromInt(-3) }, ErrInvalidAmount},
		{"zero date", func(tr *Transaction) { tr.Date = Date{} }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTransaction()
			tt.mutate(&tr)
			if err := tr.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionSigned(t *testing.T) {
	tr := validTransaction()
	if got := tr.Signed(); !got.Equal(AmountFromInt(-12)) {
		t.Errorf("expense Signed() = %s, want -12", got)
	}
	tr.Type = Income
	tr.Category = CategorySalary
	if got := tr.Signed(); !got.Equal(AmountFromInt(12)) {
		t.Errorf("income Signed() = %s, want 12", got)
	}
}

func TestPlannedExpenseValidate(t *testing.T) {
	month := YearMonth{Year: 2025, Month: time.June}
	plan := PlannedExpense{
		ID:          "p1",
		Title:       "insurance",
		Amount:      AmountFromInt(300),
		Category:    CategoryHealth,
		TargetMonth: &month,
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("valid plan rejected: %v", err)
	}

	noTitle := plan
	noTitle.Title = "  "
	if err := noTitle.Validate(); err != ErrEmptyTitle {
		t.Errorf("empty title: got %v, want %v", err, ErrEmptyTitle)
	}

	noMonth := plan
	noMonth.TargetMonth = nil
	if err := noMonth.Validate(); err != ErrMissingMonth {
		t.Errorf("non-recurring without target month: got %v, want %v", err, ErrMissingMonth)
	}

	recurring := plan
	recurring.TargetMonth = nil
	recurring.IsRecurring = true
	if err := recurring.Validate(); err != nil {
		t.Errorf("recurring without target month should be valid, got %v", err)
	}

	incomeCat := plan
	incomeCat.Category = CategorySalary
	if err := incomeCat.Validate(); err != ErrInvalidCategory {
		t.Errorf("income category: got %v, want %v", err, ErrInvalidCategory)
	}
}

func TestPlannedExpenseReminderDue(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.Local)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		plan PlannedExpense
		want bool
	}{
		{"due", PlannedExpense{IsReminderSet: true, ReminderDateTime: &past}, true},
		{"not yet due", PlannedExpense{IsReminderSet: true, ReminderDateTime: &future}, false},
		{"already shown", PlannedExpense{IsReminderSet: true, ReminderDateTime: &past, NotificationShown: true}, false},
		{"reminder not set", PlannedExpense{ReminderDateTime: &past}, false},
		{"no reminder time", PlannedExpense{IsReminderSet: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.ReminderDue(now); got != tt.want {
				t.Errorf("ReminderDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlannedExpenseExpired(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.Local)
	may := YearMonth{Year: 2025, Month: time.May}
	june := YearMonth{Year: 2025, Month: time.June}

	oneTime := PlannedExpense{TargetMonth: &may}
	if !oneTime.Expired(now) {
		t.Error("one-time plan for a past month should be expired")
	}

	current := PlannedExpense{TargetMonth: &june}
	if current.Expired(now) {
		t.Error("plan for the current month should not be expired")
	}

	recurring := PlannedExpense{TargetMonth: &may, IsRecurring: true}
	if recurring.Expired(now) {
		t.Error("recurring plan should never expire")
	}
}
