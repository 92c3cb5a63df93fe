// Package services orchestrates the repositories, aggregation and export
// machinery behind the HTTP API and the background loops.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tally/internal/analytics"
	"tally/internal/backup"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/statement"
	"tally/internal/storage"
)

// ErrNothingToImport means the backup parsed fine but held no importable
// records. Callers surface it as its own outcome, not a failure.
var ErrNothingToImport = errors.New("nothing to import")

// Tracker is the central service tying repositories, aggregation and the
// import/export paths together.
type Tracker struct {
	store        *storage.Store
	transactions *storage.TransactionRepository
	planned      *storage.PlannedExpenseRepository
	summaries    *cache.SummaryCache
	exportDir    string
}

func NewTracker(
	store *storage.Store,
	transactions *storage.TransactionRepository,
	planned *storage.PlannedExpenseRepository,
	summaries *cache.SummaryCache,
	exportDir string,
) *Tracker {
	return &Tracker{
		store:        store,
		transactions: transactions,
		planned:      planned,
		summaries:    summaries,
		exportDir:    exportDir,
	}
}

func (t *Tracker) Transactions(ctx context.Context) []core.Transaction {
	return t.transactions.List(ctx)
}

func (t *Tracker) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	added, err := t.transactions.Add(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	return added, nil
}

func (t *Tracker) DeleteTransaction(ctx context.Context, id string) bool {
	return t.transactions.Delete(ctx, id)
}

func (t *Tracker) PlannedExpenses(ctx context.Context) []core.PlannedExpense {
	return t.planned.List(ctx)
}

func (t *Tracker) AddPlannedExpense(ctx context.Context, p core.PlannedExpense) (core.PlannedExpense, error) {
	added, err := t.planned.Add(ctx, p)
	if err != nil {
		return core.PlannedExpense{}, fmt.Errorf("add planned expense: %w", err)
	}
	return added, nil
}

func (t *Tracker) DeletePlannedExpense(ctx context.Context, id string) bool {
	return t.planned.Delete(ctx, id)
}

// MonthSummary computes the aggregation for one month. Results are cached
// against the store revision of the transaction key, so repeated reads
// between writes are free.
func (t *Tracker) MonthSummary(ctx context.Context, month core.YearMonth) analytics.MonthSummary {
	rev := t.store.Rev(ctx, storage.KeyTransactions)
	if t.summaries != nil {
		if s, ok := t.summaries.Get(month, rev); ok {
			return s
		}
	}

	s := analytics.Summarize(t.transactions.List(ctx), month)
	if t.summaries != nil {
		t.summaries.Set(month, rev, s)
	}
	return s
}

// ImportResult reports what a backup import added.
type ImportResult struct {
	Format            string `json:"format"`
	TransactionsAdded int    `json:"transactionsAdded"`
	PlannedAdded      int    `json:"plannedAdded"`
}

// ImportBackup parses and merges an uploaded backup. The dedup policy
// follows the detected format: field-based for legacy payloads, id-based
// for structured ones.
func (t *Tracker) ImportBackup(ctx context.Context, data []byte) (ImportResult, error) {
	b, err := backup.Parse(ctx, data)
	if err != nil {
		return ImportResult{}, err
	}
	if b.Empty() {
		return ImportResult{Format: b.Format.String()}, ErrNothingToImport
	}

	policy := storage.DedupByID
	if b.Format == backup.FormatLegacy {
		policy = storage.DedupByFields
	}

	result := ImportResult{
		Format:            b.Format.String(),
		TransactionsAdded: t.transactions.AddMany(ctx, b.Transactions, policy),
		PlannedAdded:      t.planned.AddMany(ctx, b.PlannedExpenses),
	}

	slog.InfoContext(ctx, "Imported backup",
		"format", result.Format,
		"transactions_added", result.TransactionsAdded,
		"planned_added", result.PlannedAdded)
	return result, nil
}

// ExportJSON serializes the full history for download.
func (t *Tracker) ExportJSON(ctx context.Context) (string, []byte, error) {
	data, err := backup.ExportJSON(t.transactions.List(ctx))
	if err != nil {
		return "", nil, err
	}
	return backup.Filename, data, nil
}

// MonthStatement renders the PDF statement for one month.
func (t *Tracker) MonthStatement(ctx context.Context, month core.YearMonth, charts []statement.Chart) (string, []byte, error) {
	s := t.MonthSummary(ctx, month)

	var buf bytes.Buffer
	err := statement.Render(&buf, statement.Data{
		Period:       month.String(),
		GeneratedAt:  time.Now(),
		Transactions: s.Transactions,
		IncomeTotal:  s.IncomeTotal,
		ExpenseTotal: s.ExpenseTotal,
		Balance:      s.ClosingBalance,
		Charts:       charts,
	})
	if err != nil {
		return "", nil, err
	}
	return statement.Filename(month.String()), buf.Bytes(), nil
}

// SaveMonthStatement renders a chartless statement into the export
// directory and returns the written path. Used by the auto-export check.
func (t *Tracker) SaveMonthStatement(ctx context.Context, month core.YearMonth) (string, error) {
	name, data, err := t.MonthStatement(ctx, month, nil)
	if err != nil {
		return "", err
	}

	path := filepath.Join(t.exportDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write statement: %w", err)
	}

	slog.InfoContext(ctx, "Saved statement", "period", month.String(), "path", path)
	return path, nil
}

// Resync reloads the repository backing a store key after a remote change.
// Unknown keys are ignored.
func (t *Tracker) Resync(ctx context.Context, key string) {
	switch key {
	case storage.KeyTransactions:
		t.transactions.Reload(ctx)
	case storage.KeyPlannedExpenses:
		t.planned.Reload(ctx)
	default:
		return
	}
	slog.DebugContext(ctx, "Resynced repository from store", "key", key)
}
