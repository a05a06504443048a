package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
)

// fakeLedgerReader serves canned ledgers and can fail any one of them.
type fakeLedgerReader struct {
	statements   []core.Statement
	invoices     []core.Invoice
	transactions []core.Transaction
	payrolls     []core.Payroll
	budgets      []core.BudgetLine
	profile      core.FinancialProfile

	failInvoices bool
	failPayrolls bool
}

func (f *fakeLedgerReader) ListStatements(ctx context.Context) ([]core.Statement, error) {
	return f.statements, nil
}

func (f *fakeLedgerReader) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	if f.failInvoices {
		return nil, errors.New("disk on fire")
	}
	return f.invoices, nil
}

func (f *fakeLedgerReader) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return f.transactions, nil
}

func (f *fakeLedgerReader) ListPayrolls(ctx context.Context) ([]core.Payroll, error) {
	if f.failPayrolls {
		return nil, errors.New("disk on fire")
	}
	return f.payrolls, nil
}

func (f *fakeLedgerReader) ListBudgetLines(ctx context.Context) ([]core.BudgetLine, error) {
	return f.budgets, nil
}

func (f *fakeLedgerReader) GetProfile(ctx context.Context) (core.FinancialProfile, error) {
	return f.profile, nil
}

func seededLedgers() *fakeLedgerReader {
	march := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	stmt := core.Statement{
		ID:            "st1",
		BankName:      "ACME Bank",
		SelectedMonth: "2024-03",
		Entries: []core.Entry{
			{ID: "e1", Amount: decimal.NewFromInt(100), Direction: core.DirectionDebit},
			{ID: "e2", Amount: decimal.NewFromInt(40), Direction: core.DirectionCredit},
		},
	}
	stmt.RecomputeTotals()

	return &fakeLedgerReader{
		statements: []core.Statement{stmt},
		invoices: []core.Invoice{
			core.Invoice{ID: "in1", Vendor: "v", Number: "INV-1", IssueDate: march,
				Amount: decimal.NewFromInt(1000), TaxAmount: decimal.NewFromInt(150)}.WithDerivedTotal(),
		},
		transactions: []core.Transaction{
			{ID: "tx1", Flow: core.FlowIncome, Amount: decimal.NewFromInt(20), Date: march},
			{ID: "tx2", Flow: core.FlowExpense, Amount: decimal.NewFromInt(30), Date: april},
		},
		payrolls: []core.Payroll{
			{ID: "p1", EmployeeID: "emp", BaseSalary: decimal.NewFromInt(500), SalaryMonth: "2024-03"},
		},
		budgets: []core.BudgetLine{
			{ID: "b1", Category: "marketing", Period: "2024-03", Planned: decimal.NewFromInt(400)},
		},
		profile: core.FinancialProfile{
			NonCurrentAssets: decimal.NewFromInt(5000),
			Liabilities:      decimal.NewFromInt(2000),
			Equity:           decimal.NewFromInt(3000),
			Currency:         "EUR",
		},
	}
}

func TestBalanceSheetAllTime(t *testing.T) {
	svc := NewReportService(seededLedgers())

	bs, err := svc.BalanceSheet(context.Background(), core.Period{})
	require.NoError(t, err)

	// income 1000+40+20, expenses 100+30+500
	assert.Equal(t, "1060", bs.Income.String())
	assert.Equal(t, "630", bs.Expenses.String())
	assert.Equal(t, "430", bs.Net.String())
	// statement net is -60, so it lands in liabilities as 60
	assert.Equal(t, "5000", bs.Assets.String())
	assert.Equal(t, "2060", bs.Liabilities.String())
	assert.Equal(t, "3000", bs.Equity.String())
	assert.Equal(t, "EUR", bs.Currency)
}

func TestBalanceSheetMonthFilter(t *testing.T) {
	svc := NewReportService(seededLedgers())

	march, err := core.ParsePeriod("2024-03")
	require.NoError(t, err)

	bs, err := svc.BalanceSheet(context.Background(), march)
	require.NoError(t, err)

	// the april expense drops out under the march filter
	assert.Equal(t, "1060", bs.Income.String())
	assert.Equal(t, "600", bs.Expenses.String())
	assert.Equal(t, "460", bs.Net.String())
}

func TestProfitAndLoss(t *testing.T) {
	svc := NewReportService(seededLedgers())

	pnl, err := svc.ProfitAndLoss(context.Background(), core.Period{}, true)
	require.NoError(t, err)

	assert.Equal(t, "1060", pnl.Income.String())
	assert.Equal(t, "630", pnl.Expenses.String())
	assert.Equal(t, "430", pnl.Net.String())
	// budgets surface as plan, never as actuals
	assert.Equal(t, "400", pnl.PlannedExpenses.String())
	require.Len(t, pnl.Series, 12)
	assert.Equal(t, "20", pnl.Series[2].Income.String())
	assert.Equal(t, "30", pnl.Series[3].Expenses.String())
}

func TestProfitAndLossSeriesIgnoresFilter(t *testing.T) {
	svc := NewReportService(seededLedgers())

	march, err := core.ParsePeriod("2024-03")
	require.NoError(t, err)

	pnl, err := svc.ProfitAndLoss(context.Background(), march, true)
	require.NoError(t, err)

	// totals filtered, trend series still spans the whole year
	assert.Equal(t, "30", pnl.Series[3].Expenses.String())
	assert.Equal(t, "600", pnl.Expenses.String())
}

func TestReportFailsFastNamingLedger(t *testing.T) {
	ledgers := seededLedgers()
	ledgers.failInvoices = true
	svc := NewReportService(ledgers)

	_, err := svc.BalanceSheet(context.Background(), core.Period{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch invoices")

	ledgers.failInvoices = false
	ledgers.failPayrolls = true
	_, err = svc.ProfitAndLoss(context.Background(), core.Period{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch payrolls")
}
