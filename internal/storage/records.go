package storage

import (
	"context"
	"log/slog"
	"time"

	"ledger/internal/core"
)

const recordColumns = `id, user_id, account_id, category_id, total_income, total_expense,
	date_range, description, version`

const recordDetailQuery = `SELECT r.id, r.user_id, r.account_id, r.category_id, r.total_income, r.total_expense,
	r.date_range, r.description, r.version, a.account_type, c.name, c.category_type
	FROM records r
	JOIN accounts a ON a.id = r.account_id
	JOIN categories c ON c.id = r.category_id`

func scanRecord(row interface{ Scan(...any) error }) (core.Record, error) {
	var r core.Record
	err := row.Scan(&r.ID, &r.UserID, &r.AccountID, &r.CategoryID, &r.TotalIncome, &r.TotalExpense,
		&r.DateRange, &r.Description, &r.Version)
	return r, err
}

func scanRecordDetail(row interface{ Scan(...any) error }) (core.RecordDetail, error) {
	var (
		d  core.RecordDetail
		ct string
	)
	err := row.Scan(&d.ID, &d.UserID, &d.AccountID, &d.CategoryID, &d.TotalIncome, &d.TotalExpense,
		&d.DateRange, &d.Description, &d.Version, &d.AccountType, &d.CategoryName, &ct)
	d.CategoryType = core.CategoryType(ct)
	return d, err
}

func (q *Queries) CreateRecord(ctx context.Context, r core.Record) (core.Record, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO records (user_id, account_id, category_id, total_income, total_expense, date_range, description)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING `+recordColumns,
		r.UserID, r.AccountID, r.CategoryID, r.TotalIncome, r.TotalExpense, r.DateRange, r.Description)
	created, err := scanRecord(row)
	if err != nil {
		return core.Record{}, storeErr("create record", err)
	}
	return created, nil
}

func (q *Queries) GetRecord(ctx context.Context, userID, id int64) (core.Record, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanRecord(row)
	if err != nil {
		return core.Record{}, rowErr("get record", "record", id, err)
	}
	return r, nil
}

// GetRecordDetail loads a record with its labels regardless of owner.
// Only background workers call it.
func (q *Queries) GetRecordDetail(ctx context.Context, id int64) (core.RecordDetail, error) {
	row := q.db.QueryRowContext(ctx, recordDetailQuery+` WHERE r.id = ?`, id)
	d, err := scanRecordDetail(row)
	if err != nil {
		return core.RecordDetail{}, rowErr("get record detail", "record", id, err)
	}
	return d, nil
}

// ListRecordDetails returns every record of the user joined with its
// account and category, newest first.
func (q *Queries) ListRecordDetails(ctx context.Context, userID int64) ([]core.RecordDetail, error) {
	rows, err := q.db.QueryContext(ctx, recordDetailQuery+` WHERE r.user_id = ? ORDER BY r.date_range DESC, r.id DESC`, userID)
	if err != nil {
		return nil, storeErr("list records", err)
	}
	defer rows.Close()

	var records []core.RecordDetail
	for rows.Next() {
		d, err := scanRecordDetail(rows)
		if err != nil {
			return nil, storeErr("scan record", err)
		}
		records = append(records, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list records", err)
	}
	return records, nil
}

// UpdateRecord writes every mutable field, bumps the version and queues the
// record for export again.
func (q *Queries) UpdateRecord(ctx context.Context, r core.Record) (core.Record, error) {
	row := q.db.QueryRowContext(ctx,
		`UPDATE records SET account_id = ?, category_id = ?, total_income = ?, total_expense = ?,
			date_range = ?, description = ?, version = version + 1, sync_status = 'pending',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ? RETURNING `+recordColumns,
		r.AccountID, r.CategoryID, r.TotalIncome, r.TotalExpense, r.DateRange, r.Description, r.ID, r.UserID)
	updated, err := scanRecord(row)
	if err != nil {
		return core.Record{}, rowErr("update record", "record", r.ID, err)
	}
	return updated, nil
}

func (q *Queries) DeleteRecord(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return storeErr("delete record", err)
	}
	return affected("delete record", "record", id, res)
}

// ListAccountRecords returns the records booked on one of the user's accounts.
func (q *Queries) ListAccountRecords(ctx context.Context, userID, accountID int64) ([]core.Record, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE account_id = ? AND user_id = ? ORDER BY id`, accountID, userID)
	if err != nil {
		return nil, storeErr("list account records", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr("scan record", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list account records", err)
	}
	return records, nil
}

// SummaryByUser totals all of the user's records. Users without records get zeros.
func (q *Queries) SummaryByUser(ctx context.Context, userID int64) (core.Summary, error) {
	var income, expense float64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_income), 0.0), COALESCE(SUM(total_expense), 0.0)
		FROM records WHERE user_id = ?`, userID).Scan(&income, &expense)
	if err != nil {
		return core.Summary{}, storeErr("summarize records", err)
	}
	return core.NewSummary(income, expense), nil
}

// PendingRecord is the minimal data needed to queue a record for export.
type PendingRecord struct {
	ID        int64
	UserID    int64
	Version   int64
	CreatedAt time.Time
}

func (q *Queries) ListPendingRecords(ctx context.Context, limit int) ([]PendingRecord, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, version, created_at FROM records
		WHERE sync_status IN ('pending', 'error') ORDER BY created_at, id LIMIT ?`, limit)
	if err != nil {
		return nil, storeErr("list pending records", err)
	}
	defer rows.Close()

	var pending []PendingRecord
	for rows.Next() {
		var p PendingRecord
		if err := rows.Scan(&p.ID, &p.UserID, &p.Version, &p.CreatedAt); err != nil {
			return nil, storeErr("scan pending record", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list pending records", err)
	}
	return pending, nil
}

// MarkSynced marks a record version as exported. A newer version written in
// the meantime stays pending.
func (q *Queries) MarkSynced(ctx context.Context, id, version int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE records SET sync_status = 'synced' WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return storeErr("mark record synced", err)
	}
	slog.InfoContext(ctx, "Record marked as synced", "id", id, "version", version)
	return nil
}

func (q *Queries) MarkSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE records SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return storeErr("mark record sync error", err)
	}
	slog.WarnContext(ctx, "Record marked with sync error", "id", id)
	return nil
}
