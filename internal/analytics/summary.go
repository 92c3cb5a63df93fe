// Package analytics computes derived views over the transaction history:
// monthly subsets, totals, running balances, category breakdowns and daily
// spending series. Everything here is a pure function re-run per request;
// callers that want memoization cache the result keyed by store revision.
package analytics

import (
	"sort"
	"time"

	"tally/internal/core"
)

// CategoryShare is one slice of the monthly expense breakdown.
type CategoryShare struct {
	Category core.Category `json:"category"`
	Amount   core.Amount   `json:"amount"`
	Percent  float64       `json:"percent"`
}

// DailyAmount is the expense sum for a single calendar day.
type DailyAmount struct {
	Date   core.Date   `json:"date"`
	Amount core.Amount `json:"amount"`
}

// MonthSummary bundles every derived value for one reference month.
type MonthSummary struct {
	Month             core.YearMonth     `json:"month"`
	Transactions      []core.Transaction `json:"transactions"`
	IncomeTotal       core.Amount        `json:"incomeTotal"`
	ExpenseTotal      core.Amount        `json:"expenseTotal"`
	OpeningBalance    core.Amount        `json:"openingBalance"`
	ClosingBalance    core.Amount        `json:"closingBalance"`
	CategoryBreakdown []CategoryShare    `json:"categoryBreakdown"`
	DailySeries       []DailyAmount      `json:"dailySeries"`
}

// Summarize computes the full monthly view in one pass over the history.
func Summarize(history []core.Transaction, month core.YearMonth) MonthSummary {
	monthly := MonthlyTransactions(history, month)
	income, expense := Totals(monthly)
	opening := OpeningBalance(history, month)

	return MonthSummary{
		Month:             month,
		Transactions:      monthly,
		IncomeTotal:       income,
		ExpenseTotal:      expense,
		OpeningBalance:    opening,
		ClosingBalance:    opening.Add(income).Sub(expense),
		CategoryBreakdown: CategoryBreakdown(monthly),
		DailySeries:       DailySeries(monthly, month),
	}
}

// MonthlyTransactions returns the subset dated in the reference month,
// preserving input order.
func MonthlyTransactions(history []core.Transaction, month core.YearMonth) []core.Transaction {
	var out []core.Transaction
	for _, t := range history {
		if t.Date.InMonth(month.Year, month.Month) {
			out = append(out, t)
		}
	}
	return out
}

// Totals sums amounts partitioned by transaction type.
func Totals(txs []core.Transaction) (income, expense core.Amount) {
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return income, expense
}

// OpeningBalance is the signed running total of every transaction dated
// strictly before the first day of the reference month.
func OpeningBalance(history []core.Transaction, month core.YearMonth) core.Amount {
	first := month.FirstDay()
	var balance core.Amount
	for _, t := range history {
		if t.Date.IsZero() || !t.Date.Before(first) {
			continue
		}
		balance = balance.Add(t.Signed())
	}
	return balance
}

// CategoryBreakdown sums expense-type transactions per category and computes
// each category's percentage of the total expense. Sorted descending by
// amount, ties alphabetically. A month without expenses yields nil.
func CategoryBreakdown(txs []core.Transaction) []CategoryShare {
	sums := make(map[core.Category]core.Amount)
	var total core.Amount
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
		total = total.Add(t.Amount)
	}
	if len(sums) == 0 || !total.Positive() {
		return nil
	}

	out := make([]CategoryShare, 0, len(sums))
	for cat, amount := range sums {
		out = append(out, CategoryShare{
			Category: cat,
			Amount:   amount,
			Percent:  amount.Float64() / total.Float64() * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount.Decimal)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// DailySeries returns the expense sum for every calendar day of the month,
// zero-filled for days without activity.
func DailySeries(txs []core.Transaction, month core.YearMonth) []DailyAmount {
	return seriesBetween(txs, month.FirstDay(), month.LastDay())
}

// DailySeriesRange covers the natural date range of the input, expanded to
// the full month when the range falls within a single one. Transactions with
// a zero (unparseable) date are excluded from range computation.
func DailySeriesRange(txs []core.Transaction) []DailyAmount {
	var min, max time.Time
	for _, t := range txs {
		if t.Date.IsZero() {
			continue
		}
		if min.IsZero() || t.Date.Before(min) {
			min = t.Date.Time
		}
		if max.IsZero() || t.Date.After(max) {
			max = t.Date.Time
		}
	}
	if min.IsZero() {
		return nil
	}
	if min.Year() == max.Year() && min.Month() == max.Month() {
		return DailySeries(txs, core.YearMonthOf(min))
	}
	return seriesBetween(txs, min, max)
}

func seriesBetween(txs []core.Transaction, from, to time.Time) []DailyAmount {
	sums := make(map[string]core.Amount)
	for _, t := range txs {
		if t.Type != core.Expense || t.Date.IsZero() {
			continue
		}
		key := t.Date.String()
		sums[key] = sums[key].Add(t.Amount)
	}

	var out []DailyAmount
	for d := core.DateOf(from); !d.After(to); d = core.DateOf(d.AddDate(0, 0, 1)) {
		out = append(out, DailyAmount{Date: d, Amount: sums[d.String()]})
	}
	return out
}
