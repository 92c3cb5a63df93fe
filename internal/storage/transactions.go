package storage

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"tally/internal/core"
)

// KeyTransactions is the store key holding the full transaction history.
const KeyTransactions = "transactions"

// DedupPolicy selects how imported transactions are matched against
// existing ones.
type DedupPolicy int

const (
	// DedupByID drops records whose id is already present.
	DedupByID DedupPolicy = iota
	// DedupByFields drops records matching an existing one on date,
	// description, amount, type and category, ignoring ids.
	DedupByFields
)

// TransactionRepository owns the transaction history. It keeps the full
// list in memory and writes the whole list back to the store on every
// mutation.
type TransactionRepository struct {
	mu    sync.Mutex
	store *Store
	items []core.Transaction
}

// NewTransactionRepository loads the persisted history and returns a ready
// repository. A missing or unparseable value starts the history empty.
func NewTransactionRepository(ctx context.Context, store *Store) *TransactionRepository {
	r := &TransactionRepository{store: store}
	r.items = GetOr(ctx, store, KeyTransactions, []core.Transaction{})
	sortTransactions(r.items)
	return r
}

// List returns a copy of the history, newest first.
func (r *TransactionRepository) List(ctx context.Context) []core.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Transaction, len(r.items))
	copy(out, r.items)
	return out
}

// Add validates and appends a single transaction. A missing id gets a
// fresh one.
func (r *TransactionRepository) Add(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, tx)
	sortTransactions(r.items)
	r.store.Set(ctx, KeyTransactions, r.items)
	return tx, nil
}

// AddMany merges a batch of already-sanitized transactions into the
// history, skipping duplicates per policy, and returns how many were added.
func (r *TransactionRepository) AddMany(ctx context.Context, txs []core.Transaction, policy DedupPolicy) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(r.items))
	for _, t := range r.items {
		seen[dedupKey(t, policy)] = struct{}{}
	}

	added := 0
	for _, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		k := dedupKey(t, policy)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		r.items = append(r.items, t)
		added++
	}

	if added > 0 {
		sortTransactions(r.items)
		r.store.Set(ctx, KeyTransactions, r.items)
	}
	slog.DebugContext(ctx, "Merged transaction batch", "offered", len(txs), "added", added)
	return added
}

// Delete removes the transaction with the given id. It reports whether a
// transaction was removed.
func (r *TransactionRepository) Delete(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range r.items {
		if t.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			r.store.Set(ctx, KeyTransactions, r.items)
			return true
		}
	}
	return false
}

// Reload discards the in-memory mirror and re-reads the store. Used after
// a change notification from another process.
func (r *TransactionRepository) Reload(ctx context.Context) {
	fresh := GetOr(ctx, r.store, KeyTransactions, []core.Transaction{})
	sortTransactions(fresh)

	r.mu.Lock()
	r.items = fresh
	r.mu.Unlock()
}

func dedupKey(t core.Transaction, policy DedupPolicy) string {
	if policy == DedupByFields {
		return t.Date.String() + "|" + t.Description + "|" + t.Amount.String() + "|" + string(t.Type) + "|" + string(t.Category)
	}
	return t.ID
}

func sortTransactions(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[j].Date.Before(txs[i].Date.Time)
	})
}
