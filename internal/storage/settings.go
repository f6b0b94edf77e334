package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger/internal/core"
)

func (q *Queries) CreateSetting(ctx context.Context, userID int64, currency string) (core.Setting, error) {
	var s core.Setting
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO settings (user_id, currency) VALUES (?, ?) RETURNING id, user_id, currency`,
		userID, currency).Scan(&s.ID, &s.UserID, &s.Currency)
	if err != nil {
		return core.Setting{}, storeErr("create setting", err)
	}
	return s, nil
}

func (q *Queries) GetSetting(ctx context.Context, userID int64) (core.Setting, error) {
	var s core.Setting
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, currency FROM settings WHERE user_id = ?`, userID).
		Scan(&s.ID, &s.UserID, &s.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Setting{}, fmt.Errorf("%w: settings for user %d", core.ErrNotFound, userID)
	}
	if err != nil {
		return core.Setting{}, storeErr("get setting", err)
	}
	return s, nil
}

// UpsertCurrency sets the user's currency, creating the settings row if needed.
func (q *Queries) UpsertCurrency(ctx context.Context, userID int64, currency string) (core.Setting, error) {
	var s core.Setting
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO settings (user_id, currency) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET currency = excluded.currency
		RETURNING id, user_id, currency`,
		userID, currency).Scan(&s.ID, &s.UserID, &s.Currency)
	if err != nil {
		return core.Setting{}, storeErr("update currency", err)
	}
	return s, nil
}
