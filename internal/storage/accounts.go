package storage

import (
	"context"
	"database/sql"
	"errors"

	"ledger/internal/core"
)

const accountColumns = `id, user_id, account_type, balance`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Balance)
	return a, err
}

func (q *Queries) CreateAccount(ctx context.Context, userID int64, accountType string, balance float64) (core.Account, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO accounts (user_id, account_type, balance) VALUES (?, ?, ?) RETURNING `+accountColumns,
		userID, accountType, balance)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, storeErr("create account", err)
	}
	return a, nil
}

// GetAccount returns the account only when it belongs to userID.
func (q *Queries) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, rowErr("get account", "account", id, err)
	}
	return a, nil
}

// AccountTypeExists reports whether userID already has an account of that type,
// ignoring the account with id exceptID.
func (q *Queries) AccountTypeExists(ctx context.Context, userID int64, accountType string, exceptID int64) (bool, error) {
	var id int64
	err := q.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE user_id = ? AND account_type = ? AND id != ? LIMIT 1`,
		userID, accountType, exceptID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check account type", err)
	}
	return true, nil
}

func (q *Queries) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, storeErr("list accounts", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, storeErr("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list accounts", err)
	}
	return accounts, nil
}

func (q *Queries) RenameAccount(ctx context.Context, userID, id int64, accountType string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET account_type = ? WHERE id = ? AND user_id = ?`, accountType, id, userID)
	if err != nil {
		return storeErr("rename account", err)
	}
	return affected("rename account", "account", id, res)
}

// AddToBalance applies a signed delta with a single additive update.
func (q *Queries) AddToBalance(ctx context.Context, id int64, delta float64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + ? WHERE id = ?`, delta, id)
	if err != nil {
		return storeErr("update balance", err)
	}
	return affected("update balance", "account", id, res)
}

func (q *Queries) DeleteAccount(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return storeErr("delete account", err)
	}
	return affected("delete account", "account", id, res)
}

// AccountContribution sums the signed contributions of the account's records.
func (q *Queries) AccountContribution(ctx context.Context, id int64) (float64, error) {
	var total float64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_income - total_expense), 0.0) FROM records WHERE account_id = ?`, id).
		Scan(&total)
	if err != nil {
		return 0, storeErr("sum account records", err)
	}
	return total, nil
}
