package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// parseAmount parses a ledger amount strictly. Unlike statement entries
// there is no coercion here: a record without a real amount is rejected.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, raw, core.ErrInvalidAmount)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, raw, core.ErrNegativeAmount)
	}
	return d, nil
}

func parseOptionalDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t, nil
}

type invoiceRequest struct {
	Vendor    string `json:"vendor"`
	Number    string `json:"number"`
	IssueDate string `json:"issueDate"`
	DueDate   string `json:"dueDate"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	TaxAmount string `json:"taxAmount"`
}

func (req invoiceRequest) toInvoice(id string) (core.Invoice, error) {
	inv := core.Invoice{ID: id, Vendor: req.Vendor, Number: req.Number}

	var err error
	if inv.IssueDate, err = parseOptionalDate("issueDate", req.IssueDate); err != nil {
		return core.Invoice{}, err
	}
	if inv.DueDate, err = parseOptionalDate("dueDate", req.DueDate); err != nil {
		return core.Invoice{}, err
	}
	if req.Status != "" {
		if inv.Status, err = core.ParseInvoiceStatus(req.Status); err != nil {
			return core.Invoice{}, err
		}
	} else {
		inv.Status = core.StatusPending
	}
	if inv.Amount, err = parseAmount("amount", req.Amount); err != nil {
		return core.Invoice{}, err
	}
	if req.TaxAmount != "" {
		if inv.TaxAmount, err = parseAmount("taxAmount", req.TaxAmount); err != nil {
			return core.Invoice{}, err
		}
	}

	inv = inv.WithDerivedTotal()
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}
	return inv, nil
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inv, err := req.toInvoice(uuid.NewString())
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.ledgers.CreateInvoice(r.Context(), inv)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inv, err := req.toInvoice(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.ledgers.UpdateInvoice(r.Context(), inv)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.ledgers.ListInvoices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.ledgers.DeleteInvoice(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transactionRequest struct {
	Name        string `json:"name"`
	Direction   string `json:"direction"`
	Account     string `json:"account"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t := core.Transaction{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	}
	var err error
	if t.Flow, err = core.ParseFlow(req.Direction); err != nil {
		writeError(w, err)
		return
	}
	if req.Account != "" {
		if t.Account, err = core.ParseAccount(req.Account); err != nil {
			writeError(w, err)
			return
		}
	}
	if t.Amount, err = parseAmount("amount", req.Amount); err != nil {
		writeError(w, err)
		return
	}
	if t.Date, err = parseOptionalDate("date", req.Date); err != nil {
		writeError(w, err)
		return
	}
	if err := t.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.ledgers.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.ledgers.ListTransactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledgers.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type payrollRequest struct {
	EmployeeID    string `json:"employeeId"`
	BaseSalary    string `json:"baseSalary"`
	OvertimeHours string `json:"overtimeHours"`
	SalaryMonth   string `json:"salaryMonth"`
	Experience    string `json:"experience"`
	Date          string `json:"date"`
}

func (s *Server) handleCreatePayroll(w http.ResponseWriter, r *http.Request) {
	var req payrollRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p := core.Payroll{
		ID:          uuid.NewString(),
		EmployeeID:  req.EmployeeID,
		SalaryMonth: req.SalaryMonth,
		Experience:  req.Experience,
	}
	var err error
	if p.BaseSalary, err = parseAmount("baseSalary", req.BaseSalary); err != nil {
		writeError(w, err)
		return
	}
	if req.OvertimeHours != "" {
		if p.OvertimeHours, err = decimal.NewFromString(req.OvertimeHours); err != nil {
			writeError(w, fmt.Errorf("overtimeHours %q: %w", req.OvertimeHours, core.ErrInvalidAmount))
			return
		}
	}
	if p.Date, err = parseOptionalDate("date", req.Date); err != nil {
		writeError(w, err)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.ledgers.CreatePayroll(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListPayrolls(w http.ResponseWriter, r *http.Request) {
	payrolls, err := s.ledgers.ListPayrolls(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if payrolls == nil {
		payrolls = []core.Payroll{}
	}
	writeJSON(w, http.StatusOK, payrolls)
}

func (s *Server) handleDeletePayroll(w http.ResponseWriter, r *http.Request) {
	if err := s.ledgers.DeletePayroll(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type budgetLineRequest struct {
	Category string `json:"category"`
	Period   string `json:"period"`
	Planned  string `json:"planned"`
}

func (s *Server) handleCreateBudgetLine(w http.ResponseWriter, r *http.Request) {
	var req budgetLineRequest
	if !decodeBody(w, r, &req) {
		return
	}

	b := core.BudgetLine{
		ID:       uuid.NewString(),
		Category: req.Category,
		Period:   req.Period,
	}
	var err error
	if b.Planned, err = parseAmount("planned", req.Planned); err != nil {
		writeError(w, err)
		return
	}
	if err := b.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.ledgers.CreateBudgetLine(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListBudgetLines(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledgers.ListBudgetLines(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if budgets == nil {
		budgets = []core.BudgetLine{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleDeleteBudgetLine(w http.ResponseWriter, r *http.Request) {
	if err := s.ledgers.DeleteBudgetLine(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	NonCurrentAssets string `json:"nonCurrentAssets"`
	Liabilities      string `json:"liabilities"`
	Equity           string `json:"equity"`
	Currency         string `json:"currency"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.ledgers.GetProfile(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		profile = core.FinancialProfile{Currency: req.Currency}
		err     error
	)
	if profile.NonCurrentAssets, err = parseAmount("nonCurrentAssets", req.NonCurrentAssets); err != nil {
		writeError(w, err)
		return
	}
	if profile.Liabilities, err = parseAmount("liabilities", req.Liabilities); err != nil {
		writeError(w, err)
		return
	}
	if profile.Equity, err = parseAmount("equity", req.Equity); err != nil {
		writeError(w, err)
		return
	}

	if err := s.ledgers.UpdateProfile(r.Context(), profile); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
