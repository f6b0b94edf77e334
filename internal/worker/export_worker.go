package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/sheets"
	"ledger/internal/storage"
)

// ExportWorker copies records from SQLite to an external sheet. Record
// events drive it; a periodic pass over pending records covers events
// that were lost while the broker or the worker was down.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	exporter  sheets.Exporter
	batchSize int
	logger    *applog.Logger

	mu      sync.Mutex
	running bool
}

func NewExportWorker(storage *storage.SQLiteRepository, exporter sheets.Exporter, batchSize int, logger *applog.Logger) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleRecordEvent exports the current state of the record named by ev.
// Events for records deleted in the meantime are acknowledged without work.
func (w *ExportWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	w.logger.InfoContext(ctx, "Processing record event",
		"event", ev.Event,
		applog.FieldRecordID, ev.RecordID,
		applog.FieldVersion, ev.Version)

	if ev.Event == amqp.RecordDeleted {
		if err := w.exporter.Remove(ctx, ev.RecordID); err != nil {
			return fmt.Errorf("remove exported record: %w", err)
		}
		w.logger.InfoContext(ctx, "Removed exported record", applog.FieldRecordID, ev.RecordID)
		return nil
	}

	_, err := w.exportRecord(ctx, ev.RecordID)
	return err
}

// ProcessPending exports up to one batch of records not yet synced and
// returns how many succeeded.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupCheck runs a larger pending pass to catch up after downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup export check: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup export check completed", "synced", synced)
	return nil
}

func (w *ExportWorker) processPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.storage.ListPendingRecords(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending records: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending records", "count", len(pending))

	synced := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		ok, err := w.exportRecord(ctx, p.ID)
		if err != nil {
			w.logger.LogErr(ctx, "Failed to export pending record", err, applog.FieldRecordID, p.ID)
			continue
		}
		if ok {
			synced++
		}
	}
	return synced, nil
}

// exportRecord reports false when the record no longer exists.
func (w *ExportWorker) exportRecord(ctx context.Context, id int64) (bool, error) {
	detail, err := w.storage.GetRecordDetail(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.DebugContext(ctx, "Record gone before export", applog.FieldRecordID, id)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get record %d: %w", id, err)
	}

	ref, err := w.exporter.Upsert(ctx, sheets.RowFromRecord(detail))
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			w.logger.LogErr(ctx, "Failed to mark sync error", markErr, applog.FieldRecordID, id)
		}
		return false, fmt.Errorf("export record %d: %w", id, err)
	}

	// the export worked even if the flag cannot be written; the next pass rewrites the same row
	if err := w.storage.MarkSynced(ctx, id, detail.Version); err != nil {
		w.logger.LogErr(ctx, "Failed to mark record synced", err, applog.FieldRecordID, id)
	}

	w.logger.InfoContext(ctx, "Exported record",
		applog.FieldRecordID, id,
		applog.FieldVersion, detail.Version,
		"sheet_ref", ref)
	return true, nil
}

// Run processes pending records every interval until ctx is done.
// It returns an error if the worker is already running.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("export worker is already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "Export loop started", "interval", interval, "batch_size", w.batchSize)
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Export loop stopped")
			return nil
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				w.logger.LogErr(ctx, "Pending export pass failed", err)
			}
		}
	}
}
