// Package worker runs the statement totals audit: it re-derives every
// statement's totals from its entries and repairs any persisted row that
// drifted, both on demand (sync messages) and on a schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

// StatementAuditor is the storage surface the worker needs.
type StatementAuditor interface {
	ListStatements(ctx context.Context) ([]core.Statement, error)
	RepairTotals(ctx context.Context, statementID string) (core.Statement, bool, error)
}

// AuditWorker verifies statement totals against a fresh recompute.
type AuditWorker struct {
	store StatementAuditor
}

func NewAuditWorker(store StatementAuditor) *AuditWorker {
	return &AuditWorker{store: store}
}

// HandleSyncMessage audits the single statement a sync message names. A
// statement deleted between publish and delivery is not an error.
func (w *AuditWorker) HandleSyncMessage(ctx context.Context, msg *amqp.StatementSyncMessage) error {
	slog.InfoContext(ctx, "Auditing statement from sync message",
		"statement_id", msg.StatementID,
		"version", msg.Version)

	stmt, repaired, err := w.store.RepairTotals(ctx, msg.StatementID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Statement gone before audit", "statement_id", msg.StatementID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("audit statement %s: %w", msg.StatementID, err)
	}

	if repaired {
		slog.WarnContext(ctx, "Repaired stale statement totals",
			"statement_id", stmt.ID,
			"net", stmt.NetAmount.String(),
			"version", stmt.Version)
	}
	return nil
}

// AuditAll sweeps every statement once and returns how many needed a
// repair. A single bad statement does not stop the sweep.
func (w *AuditWorker) AuditAll(ctx context.Context) (int, error) {
	statements, err := w.store.ListStatements(ctx)
	if err != nil {
		return 0, fmt.Errorf("list statements: %w", err)
	}

	repairedCount := 0
	var firstErr error
	for _, s := range statements {
		stmt, repaired, err := w.store.RepairTotals(ctx, s.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Statement audit failed",
				"statement_id", s.ID, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("audit statement %s: %w", s.ID, err)
			}
			continue
		}
		if repaired {
			repairedCount++
			slog.WarnContext(ctx, "Repaired stale statement totals",
				"statement_id", stmt.ID,
				"net", stmt.NetAmount.String())
		}
	}

	slog.InfoContext(ctx, "Statement audit sweep complete",
		"statements", len(statements),
		"repaired", repairedCount)
	return repairedCount, firstErr
}

// RunPeriodic sweeps on the given interval until the context is
// cancelled. An initial sweep runs immediately.
func (w *AuditWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if _, err := w.AuditAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial audit sweep had failures", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.AuditAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Audit sweep had failures", "error", err)
			}
		}
	}
}
