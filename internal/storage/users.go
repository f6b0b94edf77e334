package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledger/internal/core"
)

const userColumns = `id, username, email, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var (
		u         core.User
		createdAt sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = createdAt.Time
	return u, nil
}

func (q *Queries) CreateUser(ctx context.Context, username, email, passwordHash string) (core.User, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?) RETURNING `+userColumns,
		username, email, passwordHash)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, storeErr("create user", err)
	}
	return u, nil
}

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, rowErr("get user", "user", id, err)
	}
	return u, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("%w: user %q", core.ErrNotFound, username)
	}
	if err != nil {
		return core.User{}, storeErr("get user by username", err)
	}
	return u, nil
}

// UserExists reports whether the username or the email is already taken.
func (q *Queries) UserExists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, username, email).Scan(&n)
	if err != nil {
		return false, storeErr("check user exists", err)
	}
	return n > 0, nil
}

func (q *Queries) CreateSession(ctx context.Context, s core.Session) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.UTC())
	if err != nil {
		return storeErr("create session", err)
	}
	return nil
}

func (q *Queries) GetSession(ctx context.Context, token string) (core.Session, error) {
	var s core.Session
	err := q.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, fmt.Errorf("%w: session", core.ErrNotFound)
	}
	if err != nil {
		return core.Session{}, storeErr("get session", err)
	}
	return s, nil
}

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return storeErr("delete session", err)
	}
	return nil
}

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, storeErr("delete expired sessions", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
