package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"emipilot/internal/amqp"
	emilog "emipilot/internal/log"
	"emipilot/internal/sheets"
	"emipilot/internal/storage"
)

// MirrorWorker keeps a spreadsheet in step with the store. Every change
// event, and every tick of the periodic resync, rewrites the whole mirror.
type MirrorWorker struct {
	store    storage.Store
	writer   sheets.SnapshotWriter
	instance string
	logger   *emilog.Logger
	now      func() time.Time

	// serialises writes from the consumer and the ticker
	mu       sync.Mutex
	lastSync time.Time
}

func NewMirrorWorker(store storage.Store, writer sheets.SnapshotWriter, instance string, logger *emilog.Logger) *MirrorWorker {
	return &MirrorWorker{
		store:    store,
		writer:   writer,
		instance: instance,
		logger:   logger.WithComponent(emilog.ComponentWorker),
		now:      time.Now,
	}
}

// HandleEvent resyncs the mirror for an incoming change. Income events for
// other instances are acknowledged without work.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.Event) error {
	if ev.Type == amqp.IncomeUpdated && ev.Instance != "" && ev.Instance != w.instance {
		w.logger.DebugContext(ctx, "Ignoring income event for another instance",
			emilog.FieldInstance, ev.Instance)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing change event",
		emilog.FieldEventType, ev.Type,
		emilog.FieldEMIID, ev.ID)

	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("handle %s: %w", ev.Type, err)
	}
	return nil
}

// Sync reads the current EMIs and income and writes them to the mirror.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()

	emis, err := w.store.ListEMIs(ctx)
	if err != nil {
		return fmt.Errorf("list emis: %w", err)
	}
	income, err := w.store.GetOrCreateIncome(ctx, w.instance, now)
	if err != nil {
		return fmt.Errorf("get income: %w", err)
	}

	snapshot := sheets.Snapshot{EMIs: emis, Income: income, TakenAt: now}
	if err := w.writer.WriteSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	w.lastSync = now
	w.logger.InfoContext(ctx, "Mirror synced",
		emilog.FieldOperation, emilog.OpSync,
		"emis", len(emis))
	return nil
}

// LastSync returns the time of the last successful sync.
func (w *MirrorWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

// RunPeriodic syncs every interval until ctx is done. Failures are logged
// and retried on the next tick.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed",
					emilog.FieldOperation, emilog.OpSync,
					emilog.FieldError, err)
			}
		}
	}
}
