// Package worker mirrors stored transactions to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/ledger"
	dlog "dompet/internal/log"

	"golang.org/x/sync/errgroup"
)

// Store is the part of the Record Store the worker reads and updates.
type Store interface {
	ledger.TransactionStore
	ledger.SyncTracker
}

// Consumer delivers sync messages until ctx is done.
type Consumer interface {
	ConsumeTransactionSync(ctx context.Context, handler func(context.Context, *amqp.TransactionSyncMessage) error) error
}

// SyncWorker appends transactions to the mirror and marks them synced.
// Queue messages and the periodic sweep share one lock so a transaction is
// never appended twice by concurrent paths.
type SyncWorker struct {
	store     Store
	mirror    ledger.TransactionMirror
	batchSize int
	now       func() time.Time
	events    *dlog.StructuredLogger
	mu        sync.Mutex
}

func NewSyncWorker(store Store, mirror ledger.TransactionMirror, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		mirror:    mirror,
		batchSize: batchSize,
		now:       time.Now,
		events:    dlog.NewStructuredLogger(dlog.Default(dlog.ComponentWorker)),
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
// A message for an unknown transaction is dropped; one already mirrored is
// acknowledged without appending again.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	slog.InfoContext(ctx, "Processing sync message", "transaction_id", msg.ID, "owner", msg.Owner)

	synced, err := w.store.IsSynced(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Sync message for unknown transaction, dropping", "transaction_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get sync state: %w", err)
	}
	if synced {
		slog.DebugContext(ctx, "Transaction already synced", "transaction_id", msg.ID)
		return nil
	}

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	return w.syncTransaction(ctx, tx)
}

// ProcessPending mirrors up to one batch of unsynced transactions. It is the
// backup path for lost AMQP messages and returns how many were synced.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger sweep when the worker starts, to recover
// from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	synced := 0
	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.syncTransaction(ctx, tx); err != nil {
			w.events.LogError(ctx, "Failed to sync transaction", err, dlog.OpSync,
				dlog.NewFields().WithOwner(tx.Owner).WithTransaction(tx.ID, string(tx.Kind), tx.Amount.Cents, tx.Category))
			continue
		}
		synced++
	}
	return synced, nil
}

// Run consumes queue messages and sweeps pending transactions every interval
// until ctx is cancelled or the consumer fails. consumer may be nil, in which
// case only the sweep runs.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeTransactionSync(ctx, w.HandleSyncMessage)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
					slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *SyncWorker) syncTransaction(ctx context.Context, tx core.Transaction) error {
	ref, err := w.mirror.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.store.MarkSynced(ctx, tx.ID, w.now()); err != nil {
		// The row is in the sheet; a failed mark only means a later sweep may retry it.
		slog.ErrorContext(ctx, "Failed to mark as synced", "transaction_id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"transaction_id", tx.ID,
		"sheets_ref", ref,
		"owner", tx.Owner,
		"amount_cents", tx.Amount.Cents)
	return nil
}
