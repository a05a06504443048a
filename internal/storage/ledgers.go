package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bilancio/internal/core"
)

func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	inv = inv.WithDerivedTotal()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, vendor, number, issue_date, due_date, status, amount, tax_amount, total_amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Vendor, inv.Number, fmtTime(inv.IssueDate), fmtTime(inv.DueDate), string(inv.Status),
		inv.Amount.String(), inv.TaxAmount.String(), inv.TotalAmount.String(), fmtTime(inv.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return core.Invoice{}, fmt.Errorf("invoice number %q: %w", inv.Number, core.ErrConflict)
		}
		return core.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	return inv, nil
}

func (r *SQLiteRepository) UpdateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	inv = inv.WithDerivedTotal()
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET vendor = ?, number = ?, issue_date = ?, due_date = ?, status = ?, amount = ?, tax_amount = ?, total_amount = ?
		 WHERE id = ?`,
		inv.Vendor, inv.Number, fmtTime(inv.IssueDate), fmtTime(inv.DueDate), string(inv.Status),
		inv.Amount.String(), inv.TaxAmount.String(), inv.TotalAmount.String(), inv.ID)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Invoice{}, core.ErrNotFound
	}
	return inv, nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vendor, number, issue_date, due_date, status, amount, tax_amount, total_amount, created_at
		 FROM invoices ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []core.Invoice
	for rows.Next() {
		var (
			inv                                   core.Invoice
			issue, due, amount, tax, total, cAt   string
		)
		if err := rows.Scan(&inv.ID, &inv.Vendor, &inv.Number, &issue, &due, &inv.Status, &amount, &tax, &total, &cAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.IssueDate = parseTime(issue)
		inv.DueDate = parseTime(due)
		inv.Amount = parseDec(amount)
		inv.TaxAmount = parseDec(tax)
		inv.TotalAmount = parseDec(total)
		inv.CreatedAt = parseTime(cAt)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "invoices", id)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, name, flow, account, category, amount, description, tx_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, string(t.Flow), string(t.Account), t.Category, t.Amount.String(), t.Description,
		fmtTime(t.Date), fmtTime(t.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, flow, account, category, amount, description, tx_date, created_at
		 FROM transactions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t                  core.Transaction
			amount, date, cAt  string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Flow, &t.Account, &t.Category, &amount, &t.Description, &date, &cAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = parseDec(amount)
		t.Date = parseTime(date)
		t.CreatedAt = parseTime(cAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "transactions", id)
}

func (r *SQLiteRepository) CreatePayroll(ctx context.Context, p core.Payroll) (core.Payroll, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payrolls (id, employee_id, base_salary, overtime_hours, salary_month, experience, pay_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.EmployeeID, p.BaseSalary.String(), p.OvertimeHours.String(), p.SalaryMonth, p.Experience,
		fmtTime(p.Date), fmtTime(p.CreatedAt))
	if err != nil {
		return core.Payroll{}, fmt.Errorf("insert payroll: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPayrolls(ctx context.Context) ([]core.Payroll, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, employee_id, base_salary, overtime_hours, salary_month, experience, pay_date, created_at
		 FROM payrolls ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list payrolls: %w", err)
	}
	defer rows.Close()

	var out []core.Payroll
	for rows.Next() {
		var (
			p                          core.Payroll
			salary, hours, date, cAt   string
		)
		if err := rows.Scan(&p.ID, &p.EmployeeID, &salary, &hours, &p.SalaryMonth, &p.Experience, &date, &cAt); err != nil {
			return nil, fmt.Errorf("scan payroll: %w", err)
		}
		p.BaseSalary = parseDec(salary)
		p.OvertimeHours = parseDec(hours)
		p.Date = parseTime(date)
		p.CreatedAt = parseTime(cAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeletePayroll(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "payrolls", id)
}

func (r *SQLiteRepository) CreateBudgetLine(ctx context.Context, b core.BudgetLine) (core.BudgetLine, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_lines (id, category, period, planned, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Category, b.Period, b.Planned.String(), fmtTime(b.CreatedAt))
	if err != nil {
		return core.BudgetLine{}, fmt.Errorf("insert budget line: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgetLines(ctx context.Context) ([]core.BudgetLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, period, planned, created_at FROM budget_lines ORDER BY period, category`)
	if err != nil {
		return nil, fmt.Errorf("list budget lines: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetLine
	for rows.Next() {
		var (
			b             core.BudgetLine
			planned, cAt  string
		)
		if err := rows.Scan(&b.ID, &b.Category, &b.Period, &planned, &cAt); err != nil {
			return nil, fmt.Errorf("scan budget line: %w", err)
		}
		b.Planned = parseDec(planned)
		b.CreatedAt = parseTime(cAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBudgetLine(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "budget_lines", id)
}

// GetProfile returns the single financial-profile row seeded by the
// initial migration.
func (r *SQLiteRepository) GetProfile(ctx context.Context) (core.FinancialProfile, error) {
	var assets, liabilities, equity string
	var p core.FinancialProfile
	err := r.db.QueryRowContext(ctx,
		`SELECT non_current_assets, liabilities, equity, currency FROM financial_profile WHERE id = 1`).
		Scan(&assets, &liabilities, &equity, &p.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FinancialProfile{}, core.ErrNotFound
	}
	if err != nil {
		return core.FinancialProfile{}, fmt.Errorf("get profile: %w", err)
	}
	p.NonCurrentAssets = parseDec(assets)
	p.Liabilities = parseDec(liabilities)
	p.Equity = parseDec(equity)
	return p, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, p core.FinancialProfile) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE financial_profile SET non_current_assets = ?, liabilities = ?, equity = ?, currency = ? WHERE id = 1`,
		p.NonCurrentAssets.String(), p.Liabilities.String(), p.Equity.String(), p.Currency)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) deleteByID(ctx context.Context, table, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
