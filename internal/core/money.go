// Package core holds the ledger entities and the report-derivation logic
// of the aggregation engine.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CoerceAmount parses a free-form amount string into a decimal.
//
// Callers feed it whatever the producer sent: a missing, empty or
// non-numeric value coerces to zero so the owning record can still be
// retained, and the returned error tells the caller the field was bad.
// A decimal comma is accepted alongside the decimal dot.
func CoerceAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}
