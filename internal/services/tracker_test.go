package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/storage"
)

func newTestTracker(t *testing.T) (*Tracker, *storage.Store) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	store, err := storage.Open(filepath.Join(dir, "tally.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tracker := NewTracker(
		store,
		storage.NewTransactionRepository(ctx, store),
		storage.NewPlannedExpenseRepository(ctx, store),
		cache.NewSummaryCache(16, time.Minute),
		dir,
	)
	return tracker, store
}

func testTx(t *testing.T, date string, amount float64) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", date, err)
	}
	return core.Transaction{
		Type:     core.Expense,
		Category: core.CategoryFood,
		Amount:   core.AmountFromFloat(amount),
		Date:     d,
	}
}

func TestTrackerMonthSummaryCaching(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	tracker.AddTransaction(ctx, testTx(t, "2024-03-10", 50))

	march := core.YearMonth{Year: 2024, Month: time.March}
	first := tracker.MonthSummary(ctx, march)
	if !first.ExpenseTotal.Equal(core.AmountFromInt(50)) {
		t.Fatalf("ExpenseTotal = %s, want 50", first.ExpenseTotal)
	}

	// A write bumps the store revision; the summary must pick it up even
	// though the previous result was cached.
	tracker.AddTransaction(ctx, testTx(t, "2024-03-11", 25))
	second := tracker.MonthSummary(ctx, march)
	if !second.ExpenseTotal.Equal(core.AmountFromInt(75)) {
		t.Errorf("ExpenseTotal after write = %s, want 75", second.ExpenseTotal)
	}
}

func TestTrackerImportBackupLegacy(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	payload := []byte(`[
		{"id":"a","type":"expense","category":"food","amount":10,"description":"dup","date":"2024-03-10"},
		{"id":"b","type":"expense","category":"food","amount":10,"description":"dup","date":"2024-03-10"},
		{"id":"c","type":"income","category":"salary","amount":2500,"description":"","date":"2024-03-01"}
	]`)

	result, err := tracker.ImportBackup(ctx, payload)
	if err != nil {
		t.Fatalf("ImportBackup() error = %v", err)
	}
	if result.Format != "legacy" {
		t.Errorf("Format = %q, want legacy", result.Format)
	}
	// Legacy imports dedup on fields, so the identical second record drops.
	if result.TransactionsAdded != 2 {
		t.Errorf("TransactionsAdded = %d, want 2", result.TransactionsAdded)
	}
}

func TestTrackerImportBackupNothingFound(t *testing.T) {
	tracker, _ := newTestTracker(t)

	_, err := tracker.ImportBackup(context.Background(), []byte(`{"transactions": []}`))
	if !errors.Is(err, ErrNothingToImport) {
		t.Errorf("ImportBackup() error = %v, want ErrNothingToImport", err)
	}
}

func TestTrackerExportImportRoundTrip(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	added, err := tracker.AddTransaction(ctx, testTx(t, "2024-03-10", 42.5))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	name, data, err := tracker.ExportJSON(ctx)
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	if name != "my_transactions_backup.json" {
		t.Errorf("filename = %q", name)
	}

	// An export imported into an empty tracker reproduces the history.
	fresh, _ := newTestTracker(t)
	result, err := fresh.ImportBackup(ctx, data)
	if err != nil {
		t.Fatalf("re-import error = %v", err)
	}
	if result.TransactionsAdded != 1 {
		t.Fatalf("TransactionsAdded into fresh tracker = %d, want 1", result.TransactionsAdded)
	}
	got := fresh.Transactions(ctx)
	if len(got) != 1 || got[0].ID != added.ID || !got[0].Amount.Equal(added.Amount) {
		t.Errorf("round-tripped transaction = %+v, want %+v", got[0], added)
	}
}

func TestTrackerMonthStatement(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	tracker.AddTransaction(ctx, testTx(t, "2024-03-10", 50))

	name, data, err := tracker.MonthStatement(ctx, core.YearMonth{Year: 2024, Month: time.March}, nil)
	if err != nil {
		t.Fatalf("MonthStatement() error = %v", err)
	}
	if name != "Transaction_Statement_2024_03.pdf" {
		t.Errorf("filename = %q", name)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("statement is not a PDF")
	}
}

func TestTrackerResync(t *testing.T) {
	tracker, store := newTestTracker(t)
	ctx := context.Background()

	// Another process rewrote the key behind our back.
	d, _ := core.ParseDate("2024-05-01")
	store.Set(ctx, storage.KeyTransactions, []core.Transaction{{
		ID: "remote", Type: core.Expense, Category: core.CategoryFood,
		Amount: core.AmountFromInt(5), Date: d,
	}})

	tracker.Resync(ctx, storage.KeyTransactions)
	got := tracker.Transactions(ctx)
	if len(got) != 1 || got[0].ID != "remote" {
		t.Errorf("Transactions() after Resync = %v, want the remote write", got)
	}
}
