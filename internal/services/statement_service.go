package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// EntryInput carries the raw fields of an entry mutation as the producer
// sent them. Amount stays a string until coercion so a bad value can be
// downgraded to a warning instead of dropping the entry.
type EntryInput struct {
	Date        time.Time
	Description string
	Amount      string
	Direction   string
}

// EntryPatch updates a subset of an entry's fields; nil means unchanged.
type EntryPatch struct {
	Date        *time.Time
	Description *string
	Amount      *string
	Direction   *string
}

// StatementService owns the bank-statement ledger: statement lifecycle
// plus the entry mutations that keep the derived totals consistent.
type StatementService struct {
	store  StatementStore
	events EventPublisher
}

func NewStatementService(store StatementStore, events EventPublisher) *StatementService {
	return &StatementService{store: store, events: events}
}

// Create validates and persists a statement with its initial entry
// batch. Amounts in the batch follow the same coercion rule as single
// entry mutations; warnings name the coerced entries.
func (s *StatementService) Create(ctx context.Context, bankName, description, selectedMonth string, batch []EntryInput) (core.Statement, []string, error) {
	stmt := core.Statement{
		ID:            uuid.NewString(),
		BankName:      bankName,
		Description:   description,
		SelectedMonth: selectedMonth,
	}

	var warnings []string
	for i, in := range batch {
		entry, warn, err := buildEntry(in)
		if err != nil {
			return core.Statement{}, nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if warn != "" {
			warnings = append(warnings, fmt.Sprintf("entry %d: %s", i, warn))
		}
		stmt.Entries = append(stmt.Entries, entry)
	}

	if err := stmt.Validate(); err != nil {
		return core.Statement{}, nil, err
	}

	created, err := s.store.CreateStatement(ctx, stmt)
	if err != nil {
		return core.Statement{}, nil, fmt.Errorf("create statement: %w", err)
	}
	s.publishSync(ctx, created.ID, created.Version)
	return created, warnings, nil
}

func (s *StatementService) Get(ctx context.Context, id string) (core.Statement, error) {
	return s.store.GetStatement(ctx, id)
}

func (s *StatementService) List(ctx context.Context) ([]core.Statement, error) {
	return s.store.ListStatements(ctx)
}

func (s *StatementService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteStatement(ctx, id)
}

// AddEntry appends one entry and persists the statement with totals
// recomputed from the full resulting list, atomically with the insert.
func (s *StatementService) AddEntry(ctx context.Context, statementID string, in EntryInput) (core.Statement, []string, error) {
	entry, warn, err := buildEntry(in)
	if err != nil {
		return core.Statement{}, nil, err
	}

	stmt, err := s.store.MutateEntries(ctx, statementID, func(entries []core.Entry) ([]core.Entry, error) {
		return append(entries, entry), nil
	})
	if err != nil {
		return core.Statement{}, nil, err
	}

	slog.InfoContext(ctx, "Entry added",
		"statement_id", statementID, "entry_id", entry.ID,
		"direction", entry.Direction, "amount", entry.Amount.String(),
		"net", stmt.NetAmount.String())
	s.publishSync(ctx, stmt.ID, stmt.Version)
	return stmt, warningsOf(warn), nil
}

// UpdateEntry patches one entry in place and recomputes totals.
func (s *StatementService) UpdateEntry(ctx context.Context, statementID, entryID string, patch EntryPatch) (core.Statement, []string, error) {
	var warnings []string

	stmt, err := s.store.MutateEntries(ctx, statementID, func(entries []core.Entry) ([]core.Entry, error) {
		for i := range entries {
			if entries[i].ID != entryID {
				continue
			}
			if patch.Date != nil {
				entries[i].Date = *patch.Date
			}
			if patch.Description != nil {
				entries[i].Description = *patch.Description
			}
			if patch.Direction != nil {
				dir, err := core.ParseDirection(*patch.Direction)
				if err != nil {
					return nil, fmt.Errorf("direction %q: %w", *patch.Direction, err)
				}
				entries[i].Direction = dir
			}
			if patch.Amount != nil {
				amt, err := core.CoerceAmount(*patch.Amount)
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("amount %q coerced to 0: %v", *patch.Amount, err))
				}
				entries[i].Amount = amt
			}
			return entries, nil
		}
		return nil, fmt.Errorf("entry %s: %w", entryID, core.ErrNotFound)
	})
	if err != nil {
		return core.Statement{}, nil, err
	}

	slog.InfoContext(ctx, "Entry updated",
		"statement_id", statementID, "entry_id", entryID, "net", stmt.NetAmount.String())
	s.publishSync(ctx, stmt.ID, stmt.Version)
	return stmt, warnings, nil
}

// DeleteEntry removes one entry and recomputes totals.
func (s *StatementService) DeleteEntry(ctx context.Context, statementID, entryID string) (core.Statement, error) {
	stmt, err := s.store.MutateEntries(ctx, statementID, func(entries []core.Entry) ([]core.Entry, error) {
		for i := range entries {
			if entries[i].ID == entryID {
				return append(entries[:i], entries[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("entry %s: %w", entryID, core.ErrNotFound)
	})
	if err != nil {
		return core.Statement{}, err
	}

	slog.InfoContext(ctx, "Entry deleted",
		"statement_id", statementID, "entry_id", entryID, "net", stmt.NetAmount.String())
	s.publishSync(ctx, stmt.ID, stmt.Version)
	return stmt, nil
}

// buildEntry turns raw input into an entry. An unparsable direction is a
// hard error; an unparsable amount coerces to zero with a warning so the
// entry is still retained.
func buildEntry(in EntryInput) (core.Entry, string, error) {
	dir, err := core.ParseDirection(in.Direction)
	if err != nil {
		return core.Entry{}, "", fmt.Errorf("direction %q: %w", in.Direction, err)
	}

	var warn string
	amt, err := core.CoerceAmount(in.Amount)
	if err != nil {
		warn = fmt.Sprintf("amount %q coerced to 0: %v", in.Amount, err)
	}

	return core.Entry{
		ID:          uuid.NewString(),
		Date:        in.Date,
		Description: in.Description,
		Amount:      amt,
		Direction:   dir,
	}, warn, nil
}

func warningsOf(warn string) []string {
	if warn == "" {
		return nil
	}
	return []string{warn}
}

// publishSync is best-effort: the statement is already persisted, so a
// broker outage must not fail the request.
func (s *StatementService) publishSync(ctx context.Context, id string, version int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishStatementSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish statement sync message",
			"statement_id", id, "version", version, "error", err)
	}
}
