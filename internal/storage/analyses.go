package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"ledger/internal/core"
)

const analysisColumns = `id, user_id, granularity, income_data, expense_data, created_at`

func scanAnalysis(row interface{ Scan(...any) error }) (core.Analysis, error) {
	var (
		a                     core.Analysis
		granularity           string
		incomeRaw, expenseRaw string
		createdAt             sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.UserID, &granularity, &incomeRaw, &expenseRaw, &createdAt); err != nil {
		return core.Analysis{}, err
	}
	a.Granularity = core.Granularity(granularity)
	a.CreatedAt = createdAt.Time
	if err := json.Unmarshal([]byte(incomeRaw), &a.IncomeData); err != nil {
		return core.Analysis{}, err
	}
	if err := json.Unmarshal([]byte(expenseRaw), &a.ExpenseData); err != nil {
		return core.Analysis{}, err
	}
	return a, nil
}

// CreateAnalysis stores a snapshot. Identical snapshots are stored again.
func (q *Queries) CreateAnalysis(ctx context.Context, a core.Analysis) (core.Analysis, error) {
	income, err := json.Marshal(nonNil(a.IncomeData))
	if err != nil {
		return core.Analysis{}, storeErr("encode income data", err)
	}
	expense, err := json.Marshal(nonNil(a.ExpenseData))
	if err != nil {
		return core.Analysis{}, storeErr("encode expense data", err)
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := q.db.QueryRowContext(ctx,
		`INSERT INTO analyses (user_id, granularity, income_data, expense_data, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING `+analysisColumns,
		a.UserID, string(a.Granularity), string(income), string(expense), createdAt.UTC())
	created, err := scanAnalysis(row)
	if err != nil {
		return core.Analysis{}, storeErr("create analysis", err)
	}
	return created, nil
}

func (q *Queries) GetAnalysis(ctx context.Context, userID, id int64) (core.Analysis, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAnalysis(row)
	if err != nil {
		return core.Analysis{}, rowErr("get analysis", "analysis", id, err)
	}
	return a, nil
}

func (q *Queries) ListAnalyses(ctx context.Context, userID int64) ([]core.Analysis, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, storeErr("list analyses", err)
	}
	defer rows.Close()

	var analyses []core.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, storeErr("scan analysis", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list analyses", err)
	}
	return analyses, nil
}

func nonNil(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
