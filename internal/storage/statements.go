package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

// CreateStatement inserts a statement and its initial entry batch. Totals
// are derived from the batch before the insert so the row is born
// consistent.
func (r *SQLiteRepository) CreateStatement(ctx context.Context, s core.Statement) (core.Statement, error) {
	s.RecomputeTotals()
	s.Version = 1
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Statement{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO statements (id, bank_name, description, selected_month, total_debit, total_credit, net_amount, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.BankName, s.Description, s.SelectedMonth,
		s.TotalDebit.String(), s.TotalCredit.String(), s.NetAmount.String(), s.Version, fmtTime(s.CreatedAt))
	if err != nil {
		return core.Statement{}, fmt.Errorf("insert statement: %w", err)
	}

	if err := insertEntries(ctx, tx, s.ID, s.Entries); err != nil {
		return core.Statement{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Statement{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Statement created",
		"id", s.ID, "bank", s.BankName, "month", s.SelectedMonth, "entries", len(s.Entries))
	return s, nil
}

func (r *SQLiteRepository) GetStatement(ctx context.Context, id string) (core.Statement, error) {
	return scanStatement(ctx, r.db, id)
}

func (r *SQLiteRepository) ListStatements(ctx context.Context) ([]core.Statement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM statements ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan statement id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}

	out := make([]core.Statement, 0, len(ids))
	for _, id := range ids {
		s, err := scanStatement(ctx, r.db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DeleteStatement removes the statement row and, via the cascade, its
// entries. Deleting a whole statement carries no totals responsibility.
func (r *SQLiteRepository) DeleteStatement(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM statements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete statement rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Statement deleted", "id", id)
	return nil
}

// MutateEntries applies fn to a statement's entry list and persists the
// mutated list together with totals recomputed from it, all inside one
// SQL transaction. The totals update is conditional on the version the
// statement was read at; a concurrent mutation surfaces as
// core.ErrConflict instead of a silently lost update.
func (r *SQLiteRepository) MutateEntries(ctx context.Context, statementID string, fn func(entries []core.Entry) ([]core.Entry, error)) (core.Statement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Statement{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	s, err := scanStatement(ctx, tx, statementID)
	if err != nil {
		return core.Statement{}, err
	}

	mutated, err := fn(s.Entries)
	if err != nil {
		return core.Statement{}, err
	}
	s.Entries = mutated
	s.RecomputeTotals()

	res, err := tx.ExecContext(ctx,
		`UPDATE statements SET total_debit = ?, total_credit = ?, net_amount = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		s.TotalDebit.String(), s.TotalCredit.String(), s.NetAmount.String(), s.ID, s.Version)
	if err != nil {
		return core.Statement{}, fmt.Errorf("update statement totals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Statement{}, fmt.Errorf("totals rows affected: %w", err)
	}
	if n == 0 {
		return core.Statement{}, core.ErrConflict
	}
	s.Version++

	if _, err := tx.ExecContext(ctx, `DELETE FROM statement_entries WHERE statement_id = ?`, s.ID); err != nil {
		return core.Statement{}, fmt.Errorf("clear entries: %w", err)
	}
	if err := insertEntries(ctx, tx, s.ID, s.Entries); err != nil {
		return core.Statement{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Statement{}, fmt.Errorf("commit: %w", err)
	}
	return s, nil
}

// RepairTotals rewrites the persisted totals when they no longer match a
// fresh recompute from the stored entries. Returns the repaired
// statement and whether a repair was needed.
func (r *SQLiteRepository) RepairTotals(ctx context.Context, statementID string) (core.Statement, bool, error) {
	s, err := scanStatement(ctx, r.db, statementID)
	if err != nil {
		return core.Statement{}, false, err
	}

	want := core.ComputeTotals(s.Entries)
	if want.Debit.Equal(s.TotalDebit) && want.Credit.Equal(s.TotalCredit) && want.Net.Equal(s.NetAmount) {
		return s, false, nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE statements SET total_debit = ?, total_credit = ?, net_amount = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		want.Debit.String(), want.Credit.String(), want.Net.String(), s.ID, s.Version)
	if err != nil {
		return core.Statement{}, false, fmt.Errorf("repair totals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Statement{}, false, fmt.Errorf("repair rows affected: %w", err)
	}
	if n == 0 {
		// someone else wrote in between; their recompute supersedes ours
		return core.Statement{}, false, core.ErrConflict
	}

	s.TotalDebit, s.TotalCredit, s.NetAmount = want.Debit, want.Credit, want.Net
	s.Version++
	return s, true, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanStatement(ctx context.Context, q querier, id string) (core.Statement, error) {
	var (
		s                  core.Statement
		debit, credit, net string
		createdAt          string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, bank_name, description, selected_month, total_debit, total_credit, net_amount, version, created_at
		 FROM statements WHERE id = ?`, id).
		Scan(&s.ID, &s.BankName, &s.Description, &s.SelectedMonth, &debit, &credit, &net, &s.Version, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Statement{}, core.ErrNotFound
	}
	if err != nil {
		return core.Statement{}, fmt.Errorf("get statement: %w", err)
	}
	s.TotalDebit = parseDec(debit)
	s.TotalCredit = parseDec(credit)
	s.NetAmount = parseDec(net)
	s.CreatedAt = parseTime(createdAt)

	rows, err := q.QueryContext(ctx,
		`SELECT id, entry_date, description, amount, direction
		 FROM statement_entries WHERE statement_id = ? ORDER BY position`, id)
	if err != nil {
		return core.Statement{}, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e            core.Entry
			date, amount string
		)
		if err := rows.Scan(&e.ID, &date, &e.Description, &amount, &e.Direction); err != nil {
			return core.Statement{}, fmt.Errorf("scan entry: %w", err)
		}
		e.Date = parseTime(date)
		e.Amount = parseDec(amount)
		s.Entries = append(s.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return core.Statement{}, fmt.Errorf("iterate entries: %w", err)
	}
	return s, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, statementID string, entries []core.Entry) error {
	for i, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO statement_entries (id, statement_id, entry_date, description, amount, direction, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, statementID, fmtTime(e.Date), e.Description, e.Amount.String(), string(e.Direction), i)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return nil
}
