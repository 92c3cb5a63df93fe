// Package backup parses and serializes transaction backup files. Two wire
// formats exist: the legacy format is a bare JSON array of transactions,
// the structured format is an object with optional transactions and
// plannedExpenses lists. Individual records that fail validation are
// dropped silently; only malformed JSON or an unrecognized top-level shape
// aborts a parse.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/core"
)

// Filename is the fixed download name for JSON exports.
const Filename = "my_transactions_backup.json"

// ErrUnrecognizedShape means the payload parsed as JSON but is neither a
// transaction array nor a structured backup object.
var ErrUnrecognizedShape = errors.New("unrecognized backup shape")

// Format tells the caller which import path a payload came through, which
// decides the dedup policy applied when merging.
type Format int

const (
	FormatLegacy Format = iota
	FormatStructured
)

func (f Format) String() string {
	if f == FormatLegacy {
		return "legacy"
	}
	return "structured"
}

// Backup is a parsed, sanitized payload ready to merge into the
// repositories.
type Backup struct {
	Format          Format
	Transactions    []core.Transaction
	PlannedExpenses []core.PlannedExpense
}

// Empty reports whether the parse found nothing importable.
func (b Backup) Empty() bool {
	return len(b.Transactions) == 0 && len(b.PlannedExpenses) == 0
}

type structuredBackup struct {
	Transactions    []json.RawMessage `json:"transactions"`
	PlannedExpenses []json.RawMessage `json:"plannedExpenses"`
}

// Parse decodes a backup payload in either format.
func Parse(ctx context.Context, data []byte) (Backup, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Backup{}, fmt.Errorf("parse backup: %w", ErrUnrecognizedShape)
	}

	switch trimmed[0] {
	case '[':
		return parseLegacy(ctx, trimmed)
	case '{':
		return parseStructured(ctx, trimmed)
	default:
		return Backup{}, fmt.Errorf("parse backup: %w", ErrUnrecognizedShape)
	}
}

// parseLegacy handles the bare array format. Every record must carry its
// original id; records without one are dropped.
func parseLegacy(ctx context.Context, data []byte) (Backup, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Backup{}, fmt.Errorf("parse legacy backup: %w", err)
	}

	b := Backup{Format: FormatLegacy}
	for _, r := range raw {
		tx, ok := sanitizeTransaction(ctx, r)
		if !ok || tx.ID == "" {
			continue
		}
		b.Transactions = append(b.Transactions, tx)
	}
	return b, nil
}

func parseStructured(ctx context.Context, data []byte) (Backup, error) {
	var s structuredBackup
	if err := json.Unmarshal(data, &s); err != nil {
		return Backup{}, fmt.Errorf("parse structured backup: %w", err)
	}
	if s.Transactions == nil && s.PlannedExpenses == nil {
		return Backup{}, fmt.Errorf("parse structured backup: %w", ErrUnrecognizedShape)
	}

	b := Backup{Format: FormatStructured}
	for _, r := range s.Transactions {
		if tx, ok := sanitizeTransaction(ctx, r); ok {
			b.Transactions = append(b.Transactions, tx)
		}
	}
	for _, r := range s.PlannedExpenses {
		var p core.PlannedExpense
		if err := json.Unmarshal(r, &p); err != nil {
			slog.WarnContext(ctx, "Dropping unparseable planned expense", "error", err)
			continue
		}
		// The repository coerces the category and validates the rest.
		b.PlannedExpenses = append(b.PlannedExpenses, p)
	}
	return b, nil
}

// sanitizeTransaction decodes and validates one record. An unknown
// category degrades to the default of its partition; everything else that
// fails validation drops the record.
func sanitizeTransaction(ctx context.Context, raw json.RawMessage) (core.Transaction, bool) {
	var tx core.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		slog.WarnContext(ctx, "Dropping unparseable transaction", "error", err)
		return core.Transaction{}, false
	}

	if !tx.Category.AllowedFor(tx.Type) {
		switch tx.Type {
		case core.Income:
			tx.Category = core.CategoryOtherIncome
		case core.Expense:
			tx.Category = core.CategoryOther
		}
	}

	if err := tx.Validate(); err != nil {
		slog.WarnContext(ctx, "Dropping invalid transaction", "id", tx.ID, "error", err)
		return core.Transaction{}, false
	}
	return tx, true
}

// ExportJSON serializes the full transaction list pretty-printed, matching
// the backup download format.
func ExportJSON(txs []core.Transaction) ([]byte, error) {
	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize backup: %w", err)
	}
	return data, nil
}
