package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"

	FlowIncome  Flow = "income"
	FlowExpense Flow = "expense"

	AccountCash  Account = "cash"
	AccountBank  Account = "bank"
	AccountPetty Account = "petty"

	StatusPending InvoiceStatus = "Pending"
	StatusPaid    InvoiceStatus = "Paid"
	StatusOverdue InvoiceStatus = "Overdue"
)

type (
	// Direction tags a bank-statement entry as money out (debit) or money in (credit).
	Direction string

	// Flow tags a generic ledger transaction as income or expense.
	Flow string

	// Account is the cash account a generic transaction moved through.
	Account string

	InvoiceStatus string

	// Entry is a single transaction embedded in a bank statement.
	Entry struct {
		ID          string          `json:"id"`
		Date        time.Time       `json:"date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Direction   Direction       `json:"direction"`
	}

	// Statement is an uploaded bank statement with its embedded entries.
	// TotalDebit, TotalCredit and NetAmount are derived from Entries and
	// must never go stale; Version guards concurrent entry mutations.
	Statement struct {
		ID            string          `json:"id"`
		BankName      string          `json:"bankName"`
		Description   string          `json:"description"`
		SelectedMonth string          `json:"selectedMonth"` // YYYY-MM reporting period
		TotalDebit    decimal.Decimal `json:"totalDebit"`
		TotalCredit   decimal.Decimal `json:"totalCredit"`
		NetAmount     decimal.Decimal `json:"netAmount"`
		Entries       []Entry         `json:"entries"`
		Version       int64           `json:"version"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	// Invoice is treated by the aggregation engine as an income record
	// dated by issue date, falling back to the creation timestamp.
	Invoice struct {
		ID          string          `json:"id"`
		Vendor      string          `json:"vendor"`
		Number      string          `json:"number"`
		IssueDate   time.Time       `json:"issueDate"`
		DueDate     time.Time       `json:"dueDate"`
		Status      InvoiceStatus   `json:"status"`
		Amount      decimal.Decimal `json:"amount"`
		TaxAmount   decimal.Decimal `json:"taxAmount"`
		TotalAmount decimal.Decimal `json:"totalAmount"` // Amount + TaxAmount, rederived on every write
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// Transaction is a generic income/expense record with no children.
	Transaction struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Flow        Flow            `json:"direction"`
		Account     Account         `json:"account"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// Payroll is a salary record, treated as a recurring business expense
	// dated by its salary month.
	Payroll struct {
		ID            string          `json:"id"`
		EmployeeID    string          `json:"employeeId"`
		BaseSalary    decimal.Decimal `json:"baseSalary"`
		OvertimeHours decimal.Decimal `json:"overtimeHours"`
		SalaryMonth   string          `json:"salaryMonth"` // YYYY-MM
		Experience    string          `json:"experience"`
		Date          time.Time       `json:"date"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	// BudgetLine is a planned amount for a category in a period. Budgets are
	// plan-only: they never contribute to report actuals.
	BudgetLine struct {
		ID        string          `json:"id"`
		Category  string          `json:"category"`
		Period    string          `json:"period"` // YYYY-MM
		Planned   decimal.Decimal `json:"planned"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// FinancialProfile holds the static balance-sheet adjustments owned by
	// the account collaborator. Read-only to the aggregation engine.
	FinancialProfile struct {
		NonCurrentAssets decimal.Decimal `json:"nonCurrentAssets"`
		Liabilities      decimal.Decimal `json:"liabilities"`
		Equity           decimal.Decimal `json:"equity"`
		Currency         string          `json:"currency"`
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("version conflict")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("negative amount")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidFlow      = errors.New("invalid direction (want income or expense)")
	ErrInvalidAccount   = errors.New("invalid account")
	ErrInvalidStatus    = errors.New("invalid invoice status")
	ErrInvalidPeriod    = errors.New("invalid period (want YYYY-MM)")
	ErrEmptyBankName    = errors.New("empty bank name")
	ErrEmptyVendor      = errors.New("empty vendor name")
	ErrEmptyNumber      = errors.New("empty invoice number")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyEmployee    = errors.New("empty employee id")
	ErrEmptyCategory    = errors.New("empty category")
)

// ParseDirection normalizes a direction tag. Producer code does not
// normalize case, so "Credit", "credit" and "CREDIT" are equivalent.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(DirectionDebit):
		return DirectionDebit, nil
	case string(DirectionCredit):
		return DirectionCredit, nil
	default:
		return "", ErrInvalidDirection
	}
}

// Is reports whether the entry direction matches d, ignoring case.
func (d Direction) Is(other Direction) bool {
	return strings.EqualFold(string(d), string(other))
}

// Is reports whether the transaction flow matches other, ignoring case.
func (f Flow) Is(other Flow) bool {
	return strings.EqualFold(string(f), string(other))
}

func ParseFlow(s string) (Flow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FlowIncome):
		return FlowIncome, nil
	case string(FlowExpense):
		return FlowExpense, nil
	default:
		return "", ErrInvalidFlow
	}
}

func ParseAccount(s string) (Account, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(AccountCash):
		return AccountCash, nil
	case string(AccountBank):
		return AccountBank, nil
	case string(AccountPetty):
		return AccountPetty, nil
	default:
		return "", ErrInvalidAccount
	}
}

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "paid":
		return StatusPaid, nil
	case "overdue":
		return StatusOverdue, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (e Entry) Validate() error {
	if _, err := ParseDirection(string(e.Direction)); err != nil {
		return err
	}
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (s Statement) Validate() error {
	if strings.TrimSpace(s.BankName) == "" {
		return ErrEmptyBankName
	}
	if _, err := ParsePeriod(s.SelectedMonth); err != nil {
		return err
	}
	for _, e := range s.Entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (i Invoice) Validate() error {
	if strings.TrimSpace(i.Vendor) == "" {
		return ErrEmptyVendor
	}
	if strings.TrimSpace(i.Number) == "" {
		return ErrEmptyNumber
	}
	if _, err := ParseInvoiceStatus(string(i.Status)); err != nil {
		return err
	}
	if i.Amount.IsNegative() || i.TaxAmount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// WithDerivedTotal returns the invoice with TotalAmount recomputed from
// Amount and TaxAmount. Applied on every create and update so the derived
// field can never go stale.
func (i Invoice) WithDerivedTotal() Invoice {
	i.TotalAmount = i.Amount.Add(i.TaxAmount)
	return i
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if _, err := ParseFlow(string(t.Flow)); err != nil {
		return err
	}
	if _, err := ParseAccount(string(t.Account)); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (p Payroll) Validate() error {
	if strings.TrimSpace(p.EmployeeID) == "" {
		return ErrEmptyEmployee
	}
	if p.BaseSalary.IsNegative() {
		return ErrNegativeAmount
	}
	if _, err := ParsePeriod(p.SalaryMonth); err != nil {
		return err
	}
	return nil
}

func (b BudgetLine) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Planned.IsNegative() {
		return ErrNegativeAmount
	}
	if _, err := ParsePeriod(b.Period); err != nil {
		return err
	}
	return nil
}
