// Package worker exports recorded transactions to the external ledger.
package worker

import (
	"context"
	"errors"
	"fmt"

	"asesor/internal/amqp"
	applog "asesor/internal/log"
	"asesor/internal/sheets"
	"asesor/internal/store"
)

// ExportWorker appends transactions announced over AMQP to the ledger spreadsheet.
type ExportWorker struct {
	store  store.TransactionStore
	ledger sheets.LedgerWriter
	// checker is optional; without it redelivered messages may append twice.
	checker sheets.LedgerChecker
	logger  *applog.Logger
}

func NewExportWorker(s store.TransactionStore, ledger sheets.LedgerWriter, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentWorker)
	}
	w := &ExportWorker{
		store:  s,
		ledger: ledger,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
	if c, ok := ledger.(sheets.LedgerChecker); ok {
		w.checker = c
	}
	return w
}

// HandleTransactionRecorded exports one transaction. Returning an error
// requeues the message.
func (w *ExportWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	w.logger.InfoContext(ctx, "Processing transaction recorded message",
		applog.FieldTransactionID, msg.ID,
		applog.FieldOwner, msg.OwnerID,
		"version", msg.Version)

	t, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Nothing will ever make this succeed; drop it.
		w.logger.WarnContext(ctx, "Transaction not found, skipping export",
			applog.FieldTransactionID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if t.OwnerID != msg.OwnerID {
		w.logger.WarnContext(ctx, "Owner mismatch, skipping export",
			applog.FieldTransactionID, msg.ID,
			applog.FieldOwner, msg.OwnerID,
			"stored_owner", t.OwnerID)
		return nil
	}

	if w.checker != nil {
		exported, err := w.checker.HasTransaction(ctx, t)
		if err != nil {
			return fmt.Errorf("check ledger: %w", err)
		}
		if exported {
			w.logger.InfoContext(ctx, "Transaction already exported",
				applog.FieldTransactionID, t.ID)
			return nil
		}
	}

	ref, err := w.ledger.AppendTransaction(ctx, t)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	w.logger.InfoContext(ctx, "Transaction exported",
		applog.FieldTransactionID, t.ID,
		applog.FieldOwner, t.OwnerID,
		applog.FieldOperation, applog.OpExport,
		"row_ref", ref)
	return nil
}
