package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"allowance/internal/amqp"
	"allowance/internal/core"
	applog "allowance/internal/log"
	"allowance/internal/sheets"
)

// BadgeReconciler is satisfied by *services.BadgeService.
type BadgeReconciler interface {
	Reconcile(ctx context.Context, ownerID string) ([]core.Badge, error)
	ReconcileAll(ctx context.Context) (int, error)
}

type TransactionGetter interface {
	GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
}

// ActivityWorker reacts to activity messages published by the API.
type ActivityWorker struct {
	badges BadgeReconciler
	txs    TransactionGetter
	ledger sheets.Ledger
	logger *slog.Logger
}

// NewActivityWorker builds a worker. ledger may be nil, in which case
// transactions are not mirrored.
func NewActivityWorker(badges BadgeReconciler, txs TransactionGetter, ledger sheets.Ledger, logger *slog.Logger) *ActivityWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityWorker{
		badges: badges,
		txs:    txs,
		ledger: ledger,
		logger: logger,
	}
}

// HandleActivity is an amqp.Handler. Any returned error requeues the message,
// so ledger writes the mirror rejected outright are logged and acknowledged.
func (w *ActivityWorker) HandleActivity(ctx context.Context, msg *amqp.ActivityMessage) error {
	w.logger.InfoContext(ctx, "Processing activity message",
		"owner_id", msg.OwnerID,
		"kind", msg.Kind,
		"record_id", msg.RecordID)

	awarded, err := w.badges.Reconcile(ctx, msg.OwnerID)
	if err != nil {
		return fmt.Errorf("reconcile badges: %w", err)
	}
	if len(awarded) > 0 {
		w.logger.InfoContext(ctx, "Badges awarded from activity",
			"owner_id", msg.OwnerID,
			"count", len(awarded))
	}

	if w.ledger == nil || !msg.Kind.IsTransaction() {
		return nil
	}
	if err := w.mirror(ctx, msg); err != nil {
		if errors.Is(err, sheets.ErrRejected) {
			// badges are already reconciled; requeueing would block the queue
			w.logger.ErrorContext(ctx, "Ledger rejected transaction, mirror skipped",
				"owner_id", msg.OwnerID,
				"record_id", msg.RecordID,
				applog.FieldError, err)
			return nil
		}
		return fmt.Errorf("mirror transaction: %w", err)
	}
	return nil
}

func (w *ActivityWorker) mirror(ctx context.Context, msg *amqp.ActivityMessage) error {
	if msg.Kind == amqp.TransactionDeleted {
		err := w.ledger.DeleteTransaction(ctx, msg.RecordID)
		if errors.Is(err, core.ErrNotFound) {
			w.logger.WarnContext(ctx, "Ledger row already gone", "record_id", msg.RecordID)
			return nil
		}
		return err
	}

	tx, err := w.txs.GetTransaction(ctx, msg.OwnerID, msg.RecordID)
	if errors.Is(err, core.ErrNotFound) {
		// deleted before we got here; the delete message cleans up
		w.logger.WarnContext(ctx, "Transaction no longer exists, skipping mirror",
			"owner_id", msg.OwnerID,
			"record_id", msg.RecordID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	ref, err := w.ledger.UpsertTransaction(ctx, tx)
	if err != nil {
		return err
	}
	fields := applog.NewFields().WithTransaction(tx).WithOperation(applog.OpMirror)
	w.logger.InfoContext(ctx, "Transaction mirrored to ledger", append(fields.ToSlice(), "ref", ref)...)
	return nil
}
