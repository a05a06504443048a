package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"
)

// ReportService builds the two derived reports from a snapshot of the
// five ledgers plus the financial profile.
type ReportService struct {
	ledgers LedgerReader
}

func NewReportService(ledgers LedgerReader) *ReportService {
	return &ReportService{ledgers: ledgers}
}

// fetchLedgers reads every ledger concurrently. Any single failure fails
// the whole build and the error names the ledger that failed; a missing
// ledger is never smoothed over as an empty one.
func (s *ReportService) fetchLedgers(ctx context.Context) (core.LedgerSet, core.FinancialProfile, error) {
	var (
		ls      core.LedgerSet
		profile core.FinancialProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if ls.Statements, err = s.ledgers.ListStatements(gctx); err != nil {
			return fmt.Errorf("fetch statements: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if ls.Invoices, err = s.ledgers.ListInvoices(gctx); err != nil {
			return fmt.Errorf("fetch invoices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if ls.Transactions, err = s.ledgers.ListTransactions(gctx); err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if ls.Payrolls, err = s.ledgers.ListPayrolls(gctx); err != nil {
			return fmt.Errorf("fetch payrolls: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if ls.Budgets, err = s.ledgers.ListBudgetLines(gctx); err != nil {
			return fmt.Errorf("fetch budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if profile, err = s.ledgers.GetProfile(gctx); err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.LedgerSet{}, core.FinancialProfile{}, err
	}
	return ls, profile, nil
}

// BalanceSheet builds the position report under an optional month
// filter. The zero Period is the all-time view.
func (s *ReportService) BalanceSheet(ctx context.Context, filter core.Period) (core.BalanceSheet, error) {
	ls, profile, err := s.fetchLedgers(ctx)
	if err != nil {
		return core.BalanceSheet{}, err
	}
	return core.BuildBalanceSheet(ls.FilterPeriod(filter), profile), nil
}

// ProfitAndLoss builds the period-performance report. The trend series,
// when requested, is bucketed from the unfiltered transaction ledger.
func (s *ReportService) ProfitAndLoss(ctx context.Context, filter core.Period, groupByMonth bool) (core.ProfitAndLoss, error) {
	ls, _, err := s.fetchLedgers(ctx)
	if err != nil {
		return core.ProfitAndLoss{}, err
	}

	var trend []core.Transaction
	if groupByMonth {
		trend = ls.Transactions
	}
	return core.BuildProfitAndLoss(ls.FilterPeriod(filter), trend, groupByMonth), nil
}
