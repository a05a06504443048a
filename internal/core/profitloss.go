package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthFlow is one bucket of the P&L trend series.
type MonthFlow struct {
	Month    time.Month      `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// ProfitAndLoss is the period-performance payload. Net keeps its sign: a
// negative net is a loss and is surfaced, never clamped to zero.
// PlannedExpenses carries the budget ledger's plan for the filtered
// period; it is reported beside the actuals, never mixed into them.
type ProfitAndLoss struct {
	Income          decimal.Decimal `json:"income"`
	Expenses        decimal.Decimal `json:"expenses"`
	Net             decimal.Decimal `json:"net"`
	PlannedExpenses decimal.Decimal `json:"plannedExpenses"`
	Series          []MonthFlow     `json:"series,omitempty"`
}

// BuildProfitAndLoss derives the P&L from a filtered snapshot.
//
// trend is the unfiltered generic-transaction ledger used for the
// twelve-point month-of-year series; it is bucketed independently of the
// active filter so the chart always spans the whole year. Buckets with
// no transactions report zero, not absence. Pass groupByMonth=false to
// skip the series.
func BuildProfitAndLoss(ls LedgerSet, trend []Transaction, groupByMonth bool) ProfitAndLoss {
	income, expenses := sumFlows(ls)

	planned := decimal.Zero
	for _, b := range ls.Budgets {
		planned = planned.Add(b.Planned)
	}

	pnl := ProfitAndLoss{
		Income:          income,
		Expenses:        expenses,
		Net:             income.Sub(expenses),
		PlannedExpenses: planned,
	}
	if groupByMonth {
		pnl.Series = monthSeries(trend)
	}
	return pnl
}

func monthSeries(txs []Transaction) []MonthFlow {
	series := make([]MonthFlow, 12)
	for i := range series {
		series[i] = MonthFlow{
			Month:    time.Month(i + 1),
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
		}
	}
	for _, t := range txs {
		p, ok := t.ReportingPeriod()
		if !ok {
			continue
		}
		b := &series[int(p.Month)-1]
		switch {
		case t.Flow.Is(FlowIncome):
			b.Income = b.Income.Add(t.Amount)
		case t.Flow.Is(FlowExpense):
			b.Expenses = b.Expenses.Add(t.Amount)
		}
	}
	return series
}
