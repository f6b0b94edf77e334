package storage

import (
	"context"

	"ledger/internal/core"
)

const categoryColumns = `id, user_id, name, category_type`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c  core.Category
		ct string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &ct); err != nil {
		return core.Category{}, err
	}
	c.Type = core.CategoryType(ct)
	return c, nil
}

func (q *Queries) CreateCategory(ctx context.Context, userID int64, name string, ct core.CategoryType) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO categories (user_id, name, category_type) VALUES (?, ?, ?) RETURNING `+categoryColumns,
		userID, name, string(ct))
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, storeErr("create category", err)
	}
	return c, nil
}

func (q *Queries) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, rowErr("get category", "category", id, err)
	}
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY category_type, name, id`, userID)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, storeErr("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list categories", err)
	}
	return categories, nil
}

func (q *Queries) RenameCategory(ctx context.Context, userID, id int64, name string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ? AND user_id = ?`, name, id, userID)
	if err != nil {
		return storeErr("rename category", err)
	}
	return affected("rename category", "category", id, res)
}

func (q *Queries) CountCategoryRecords(ctx context.Context, id int64) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE category_id = ?`, id).Scan(&n); err != nil {
		return 0, storeErr("count category records", err)
	}
	return n, nil
}

func (q *Queries) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return storeErr("delete category", err)
	}
	return affected("delete category", "category", id, res)
}
