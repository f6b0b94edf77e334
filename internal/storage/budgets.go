package storage

import (
	"context"

	"ledger/internal/core"
)

const budgetColumns = `id, user_id, category_id, name, amount`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Name, &b.Amount)
	return b, err
}

func (q *Queries) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, category_id, name, amount) VALUES (?, ?, ?, ?) RETURNING `+budgetColumns,
		b.UserID, b.CategoryID, b.Name, b.Amount)
	created, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, storeErr("create budget", err)
	}
	return created, nil
}

func (q *Queries) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, rowErr("get budget", "budget", id, err)
	}
	return b, nil
}

func (q *Queries) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, storeErr("list budgets", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, storeErr("scan budget", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list budgets", err)
	}
	return budgets, nil
}

func (q *Queries) UpdateBudgetAmount(ctx context.Context, userID, id int64, amount float64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE budgets SET amount = ? WHERE id = ? AND user_id = ?`, amount, id, userID)
	if err != nil {
		return storeErr("update budget", err)
	}
	return affected("update budget", "budget", id, res)
}

func (q *Queries) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return storeErr("delete budget", err)
	}
	return affected("delete budget", "budget", id, res)
}
