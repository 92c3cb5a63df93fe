// Package core holds the domain model: transactions, planned expenses,
// categories and the money amount type shared by every other package.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal money amount. It marshals to a plain JSON
// number so exported backups look like the hand-written files users already
// have, and it accepts both numbers and quoted strings on the way in.
type Amount struct {
	decimal.Decimal
}

// NewAmount parses a decimal string such as "12.34". A decimal comma is
// accepted as separator.
func NewAmount(s string) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{d}, nil
}

// AmountFromFloat converts a float64 amount.
func AmountFromFloat(f float64) Amount {
	return Amount{decimal.NewFromFloat(f)}
}

// AmountFromInt converts a whole-unit integer amount.
func AmountFromInt(i int64) Amount {
	return Amount{decimal.NewFromInt(i)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{a.Decimal.Add(b.Decimal)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{a.Decimal.Sub(b.Decimal)}
}

// Equal reports whether two amounts represent the same value.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

// Positive reports whether the amount is strictly greater than zero.
func (a Amount) Positive() bool {
	return a.Decimal.IsPositive()
}

// Float64 returns the closest float64, for percentage math and display.
func (a Amount) Float64() float64 {
	return a.Decimal.InexactFloat64()
}

// Validate rejects zero and negative amounts.
func (a Amount) Validate() error {
	if !a.Positive() {
		return ErrInvalidAmount
	}
	return nil
}
