package core

import "github.com/shopspring/decimal"

// Totals are the derived running sums of a statement's entry list.
type Totals struct {
	Debit  decimal.Decimal `json:"totalDebit"`
	Credit decimal.Decimal `json:"totalCredit"`
	Net    decimal.Decimal `json:"netAmount"` // Credit - Debit
}

// ComputeTotals derives statement totals in a single pass over the full
// entry list. Totals are always recomputed from scratch, never patched
// with a delta against a cached value, so a recompute can never drift
// from the entries it was derived from. Direction matching is
// case-insensitive; an entry with an unknown direction contributes to
// neither sum.
func ComputeTotals(entries []Entry) Totals {
	t := Totals{Debit: decimal.Zero, Credit: decimal.Zero, Net: decimal.Zero}
	for _, e := range entries {
		switch {
		case e.Direction.Is(DirectionDebit):
			t.Debit = t.Debit.Add(e.Amount)
		case e.Direction.Is(DirectionCredit):
			t.Credit = t.Credit.Add(e.Amount)
		}
	}
	t.Net = t.Credit.Sub(t.Debit)
	return t
}

// RecomputeTotals refreshes the statement's derived fields from its
// current entry list.
func (s *Statement) RecomputeTotals() {
	t := ComputeTotals(s.Entries)
	s.TotalDebit = t.Debit
	s.TotalCredit = t.Credit
	s.NetAmount = t.Net
}
