package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/sheets"
	"ledger/internal/sheets/memory"
	"ledger/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingExporter struct {
	mu    sync.Mutex
	calls int
}

func (f *failingExporter) Upsert(context.Context, sheets.ExportRow) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "", errors.New("quota exceeded")
}

func (f *failingExporter) Remove(context.Context, int64) error {
	return errors.New("quota exceeded")
}

type fixture struct {
	repo   *storage.SQLiteRepository
	record core.Record
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	user, err := repo.CreateUser(ctx, "alice", "alice@example.com", "hash")
	require.NoError(t, err)
	acc, err := repo.CreateAccount(ctx, user.ID, "Cash", 0)
	require.NoError(t, err)
	cat, err := repo.CreateCategory(ctx, user.ID, "Food", core.Expense)
	require.NoError(t, err)
	rec, err := repo.CreateRecord(ctx, core.Record{
		UserID:       user.ID,
		AccountID:    acc.ID,
		CategoryID:   cat.ID,
		TotalExpense: 12.5,
		DateRange:    "2024-03-01",
		Description:  "lunch",
	})
	require.NoError(t, err)

	return fixture{repo: repo, record: rec}
}

func TestHandleRecordEventExportsAndMarksSynced(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	store := memory.New()
	w := NewExportWorker(f.repo, store, 10, applog.Discard())

	ev := amqp.NewRecordEvent(amqp.RecordCreated, f.record.ID, f.record.UserID, f.record.Version)
	require.NoError(t, w.HandleRecordEvent(ctx, ev))

	rows := store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, f.record.ID, rows[0].RecordID)
	assert.Equal(t, "Food", rows[0].Category)
	assert.Equal(t, "Cash", rows[0].Account)
	assert.Equal(t, core.Expense, rows[0].Type)
	assert.Equal(t, 12.5, rows[0].Expense)

	pending, err := f.repo.ListPendingRecords(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestHandleRecordEventDeleted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	store := memory.New()
	w := NewExportWorker(f.repo, store, 10, applog.Discard())

	require.NoError(t, w.HandleRecordEvent(ctx, amqp.NewRecordEvent(amqp.RecordCreated, f.record.ID, f.record.UserID, 1)))
	require.NoError(t, w.HandleRecordEvent(ctx, amqp.NewRecordEvent(amqp.RecordDeleted, f.record.ID, f.record.UserID, 1)))
	assert.Empty(t, store.Rows())
}

func TestHandleRecordEventForMissingRecord(t *testing.T) {
	f := setup(t)
	store := memory.New()
	w := NewExportWorker(f.repo, store, 10, applog.Discard())

	err := w.HandleRecordEvent(context.Background(), amqp.NewRecordEvent(amqp.RecordUpdated, 9999, f.record.UserID, 3))
	require.NoError(t, err)
	assert.Empty(t, store.Rows())
}

func TestExportFailureMarksSyncError(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	exp := &failingExporter{}
	w := NewExportWorker(f.repo, exp, 10, applog.Discard())

	err := w.HandleRecordEvent(ctx, amqp.NewRecordEvent(amqp.RecordCreated, f.record.ID, f.record.UserID, 1))
	require.Error(t, err)

	// errored records stay eligible for the pending pass
	pending, err := f.repo.ListPendingRecords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	synced, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, synced)
	assert.Equal(t, 2, exp.calls)
}

func TestProcessPendingExportsNewerVersion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	store := memory.New()
	w := NewExportWorker(f.repo, store, 10, applog.Discard())

	synced, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	rec := f.record
	rec.TotalExpense = 20
	_, err = f.repo.UpdateRecord(ctx, rec)
	require.NoError(t, err)

	synced, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	rows := store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, 20.0, rows[0].Expense)
	assert.EqualValues(t, 2, rows[0].Version)
}

func TestRunStopsWithContext(t *testing.T) {
	f := setup(t)
	store := memory.New()
	w := NewExportWorker(f.repo, store, 10, applog.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return len(store.Rows()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
