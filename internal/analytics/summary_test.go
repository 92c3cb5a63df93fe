package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

func tx(id string, typ core.TransactionType, cat core.Category, amount float64, date string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:       id,
		Type:     typ,
		Category: cat,
		Amount:   core.AmountFromFloat(amount),
		Date:     d,
	}
}

func TestOpeningBalance(t *testing.T) {
	history := []core.Transaction{
		tx("a", core.Income, core.CategorySalary, 1000, "2024-01-15"),
		tx("b", core.Expense, core.CategoryFood, 200, "2024-02-01"),
	}

	march := core.YearMonth{Year: 2024, Month: time.March}
	assert.True(t, OpeningBalance(history, march).Equal(core.AmountFromInt(800)),
		"income 1000 minus expense 200 carried into March")

	// Transactions on the first day of the month are not prior activity.
	feb := core.YearMonth{Year: 2024, Month: time.February}
	assert.True(t, OpeningBalance(history, feb).Equal(core.AmountFromInt(1000)))

	jan := core.YearMonth{Year: 2024, Month: time.January}
	assert.True(t, OpeningBalance(history, jan).Equal(core.Amount{}))
}

func TestMonthlyTransactionsAndTotals(t *testing.T) {
	history := []core.Transaction{
		tx("a", core.Income, core.CategorySalary, 2500, "2024-03-01"),
		tx("b", core.Expense, core.CategoryFood, 80, "2024-03-10"),
		tx("c", core.Expense, core.CategoryTransport, 20, "2024-04-02"),
	}

	march := core.YearMonth{Year: 2024, Month: time.March}
	monthly := MonthlyTransactions(history, march)
	require.Len(t, monthly, 2)

	income, expense := Totals(monthly)
	assert.True(t, income.Equal(core.AmountFromInt(2500)))
	assert.True(t, expense.Equal(core.AmountFromInt(80)))
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.Expense, core.CategoryFood, 60, "2024-03-01"),
		tx("b", core.Expense, core.CategoryFood, 40, "2024-03-02"),
		tx("c", core.Expense, core.CategoryTransport, 25, "2024-03-03"),
		tx("d", core.Expense, core.CategoryHealth, 75, "2024-03-04"),
		tx("e", core.Income, core.CategorySalary, 9999, "2024-03-05"),
	}

	shares := CategoryBreakdown(txs)
	require.Len(t, shares, 3)

	// Descending by amount: food 100, health 75, transport 25.
	assert.Equal(t, core.CategoryFood, shares[0].Category)
	assert.Equal(t, core.CategoryHealth, shares[1].Category)
	assert.Equal(t, core.CategoryTransport, shares[2].Category)

	var percentSum float64
	for _, s := range shares {
		percentSum += s.Percent
	}
	assert.InDelta(t, 100.0, percentSum, 1e-9, "percentages must sum to 100")

	assert.Nil(t, CategoryBreakdown(nil), "no expenses yields an empty breakdown")
	assert.Nil(t, CategoryBreakdown([]core.Transaction{
		tx("f", core.Income, core.CategorySalary, 10, "2024-03-01"),
	}))
}

func TestDailySeriesZeroFill(t *testing.T) {
	feb := core.YearMonth{Year: 2024, Month: time.February}
	txs := []core.Transaction{
		tx("a", core.Expense, core.CategoryFood, 50, "2024-02-01"),
		tx("b", core.Expense, core.CategoryFood, 30, "2024-02-01"),
	}

	series := DailySeries(txs, feb)
	require.Len(t, series, 29, "leap February has 29 days")

	assert.Equal(t, 1, series[0].Date.Day())
	assert.True(t, series[0].Amount.Equal(core.AmountFromInt(80)), "two expenses on day 1 sum to 80")
	for _, d := range series[1:] {
		assert.True(t, d.Amount.Equal(core.Amount{}), "day %d should be zero", d.Date.Day())
	}
}

func TestDailySeriesRange(t *testing.T) {
	// Range inside one month expands to the full month.
	inside := []core.Transaction{
		tx("a", core.Expense, core.CategoryFood, 10, "2024-03-05"),
		tx("b", core.Expense, core.CategoryFood, 10, "2024-03-20"),
	}
	series := DailySeriesRange(inside)
	require.Len(t, series, 31)
	assert.Equal(t, 1, series[0].Date.Day())

	// Cross-month range keeps its natural bounds.
	spread := append(inside, tx("c", core.Expense, core.CategoryFood, 5, "2024-04-02"))
	series = DailySeriesRange(spread)
	require.Len(t, series, 29) // March 5 through April 2
	assert.Equal(t, "2024-03-05", series[0].Date.String())
	assert.Equal(t, "2024-04-02", series[len(series)-1].Date.String())

	assert.Nil(t, DailySeriesRange(nil))
}

func TestSummarize(t *testing.T) {
	history := []core.Transaction{
		tx("a", core.Income, core.CategorySalary, 1000, "2024-01-15"),
		tx("b", core.Expense, core.CategoryFood, 200, "2024-02-01"),
		tx("c", core.Income, core.CategorySalary, 2500, "2024-03-01"),
		tx("d", core.Expense, core.CategoryFood, 300, "2024-03-10"),
	}

	s := Summarize(history, core.YearMonth{Year: 2024, Month: time.March})
	assert.Len(t, s.Transactions, 2)
	assert.True(t, s.OpeningBalance.Equal(core.AmountFromInt(800)))
	assert.True(t, s.IncomeTotal.Equal(core.AmountFromInt(2500)))
	assert.True(t, s.ExpenseTotal.Equal(core.AmountFromInt(300)))
	assert.True(t, s.ClosingBalance.Equal(core.AmountFromInt(3000)), "800 + 2500 - 300")
	assert.Len(t, s.DailySeries, 31)
	require.Len(t, s.CategoryBreakdown, 1)
	assert.Equal(t, 100.0, s.CategoryBreakdown[0].Percent)
}
