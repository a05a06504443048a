package core

import "github.com/shopspring/decimal"

// LedgerSet is a point-in-time snapshot of the five ledgers a report is
// built from. The builders only read it; filtering happens first.
type LedgerSet struct {
	Statements   []Statement
	Invoices     []Invoice
	Transactions []Transaction
	Payrolls     []Payroll
	Budgets      []BudgetLine
}

// FilterPeriod applies the month filter independently to every ledger.
func (ls LedgerSet) FilterPeriod(p Period) LedgerSet {
	return LedgerSet{
		Statements:   FilterByPeriod(p, ls.Statements),
		Invoices:     FilterByPeriod(p, ls.Invoices),
		Transactions: FilterByPeriod(p, ls.Transactions),
		Payrolls:     FilterByPeriod(p, ls.Payrolls),
		Budgets:      FilterByPeriod(p, ls.Budgets),
	}
}

// BalanceSheet is the point-in-time position payload.
type BalanceSheet struct {
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Net         decimal.Decimal `json:"net"`
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
	Currency    string          `json:"currency"`
}

// sumFlows returns the income and expense totals shared by both reports:
//
//	income   = invoice amounts (tax excluded) + statement credit totals + income transactions
//	expenses = statement debit totals + expense transactions + payroll base salaries
//
// Payroll is always an expense and budget lines never contribute; the two
// report views share one policy.
func sumFlows(ls LedgerSet) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for _, inv := range ls.Invoices {
		income = income.Add(inv.Amount)
	}
	for _, s := range ls.Statements {
		income = income.Add(s.TotalCredit)
		expenses = expenses.Add(s.TotalDebit)
	}
	for _, t := range ls.Transactions {
		switch {
		case t.Flow.Is(FlowIncome):
			income = income.Add(t.Amount)
		case t.Flow.Is(FlowExpense):
			expenses = expenses.Add(t.Amount)
		}
	}
	for _, p := range ls.Payrolls {
		expenses = expenses.Add(p.BaseSalary)
	}
	return income, expenses
}

// BuildBalanceSheet derives the position report from a filtered snapshot
// and the static profile adjustments.
//
// Every statement's net amount lands in exactly one of assets (surplus),
// liabilities (deficit, as an absolute value) or neither (zero). Equity
// is taken from the profile alone; assets minus liabilities is reported
// as computed and may be negative.
func BuildBalanceSheet(ls LedgerSet, profile FinancialProfile) BalanceSheet {
	income, expenses := sumFlows(ls)

	assets := profile.NonCurrentAssets
	liabilities := profile.Liabilities
	for _, s := range ls.Statements {
		switch {
		case s.NetAmount.IsPositive():
			assets = assets.Add(s.NetAmount)
		case s.NetAmount.IsNegative():
			liabilities = liabilities.Add(s.NetAmount.Abs())
		}
	}

	return BalanceSheet{
		Income:      income,
		Expenses:    expenses,
		Net:         income.Sub(expenses),
		Assets:      assets,
		Liabilities: liabilities,
		Equity:      profile.Equity,
		Currency:    profile.Currency,
	}
}
