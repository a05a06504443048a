// Package services orchestrates the ledger stores, the report builders
// and the event stream.
package services

import (
	"context"

	"bilancio/internal/core"
)

// Ports consumed by the services; the SQLite repository implements all
// of them.
type (
	StatementStore interface {
		CreateStatement(ctx context.Context, s core.Statement) (core.Statement, error)
		GetStatement(ctx context.Context, id string) (core.Statement, error)
		ListStatements(ctx context.Context) ([]core.Statement, error)
		DeleteStatement(ctx context.Context, id string) error
		MutateEntries(ctx context.Context, statementID string, fn func([]core.Entry) ([]core.Entry, error)) (core.Statement, error)
	}

	// LedgerReader is the read side the report builds run against. One
	// method per ledger so a failed fetch can be attributed.
	LedgerReader interface {
		ListStatements(ctx context.Context) ([]core.Statement, error)
		ListInvoices(ctx context.Context) ([]core.Invoice, error)
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		ListPayrolls(ctx context.Context) ([]core.Payroll, error)
		ListBudgetLines(ctx context.Context) ([]core.BudgetLine, error)
		GetProfile(ctx context.Context) (core.FinancialProfile, error)
	}

	// EventPublisher announces a statement whose totals changed.
	EventPublisher interface {
		PublishStatementSync(ctx context.Context, statementID string, version int64) error
	}
)
