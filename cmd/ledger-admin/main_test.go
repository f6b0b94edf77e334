package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (dbPath string, stdout, stderr *bytes.Buffer) {
	t.Helper()
	t.Setenv("BCRYPT_COST", "4")
	return filepath.Join(t.TempDir(), "ledger.db"), new(bytes.Buffer), new(bytes.Buffer)
}

func TestAddUser(t *testing.T) {
	dbPath, stdout, stderr := setup(t)

	args := []string{"adduser", "-user", "alice", "-email", "alice@example.com", "-password", "secret", "-db", dbPath}
	require.NoError(t, run(args, new(bytes.Buffer), stdout, stderr))
	assert.Contains(t, stdout.String(), "User alice created successfully")

	err := run(args, new(bytes.Buffer), stdout, stderr)
	require.Error(t, err, "duplicate user")
	assert.Contains(t, err.Error(), "already registered")
}

func TestAddUserPromptsForPassword(t *testing.T) {
	dbPath, stdout, stderr := setup(t)

	args := []string{"adduser", "-user", "bob", "-email", "bob@example.com", "-db", dbPath}
	require.NoError(t, run(args, bytes.NewBufferString("typed_secret\n"), stdout, stderr))
	assert.Contains(t, stdout.String(), "Password: ")
	assert.Contains(t, stdout.String(), "User bob created successfully")
}

func TestAddUserRejectsEmptyPassword(t *testing.T) {
	dbPath, stdout, stderr := setup(t)

	args := []string{"adduser", "-user", "bob", "-email", "bob@example.com", "-db", dbPath}
	err := run(args, bytes.NewBufferString("\n"), stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestAddUserMissingFlags(t *testing.T) {
	_, stdout, stderr := setup(t)

	err := run([]string{"adduser", "-password", "secret"}, new(bytes.Buffer), stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags")
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestAddUserInvalidCurrency(t *testing.T) {
	dbPath, stdout, stderr := setup(t)

	args := []string{"adduser", "-user", "carol", "-email", "c@example.com", "-password", "pw", "-currency", "euro", "-db", dbPath}
	err := run(args, new(bytes.Buffer), stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "three-letter")
}

func TestReconcileFreshUser(t *testing.T) {
	dbPath, stdout, stderr := setup(t)
	require.NoError(t, run([]string{"adduser", "-user", "alice", "-email", "a@example.com", "-password", "pw", "-db", dbPath},
		new(bytes.Buffer), stdout, stderr))

	stdout.Reset()
	require.NoError(t, run([]string{"reconcile", "-user", "alice", "-db", dbPath}, nil, stdout, stderr))
	assert.Contains(t, stdout.String(), "Cash")
	assert.Contains(t, stdout.String(), "3 account(s), 0 with drift")

	err := run([]string{"reconcile", "-user", "nobody", "-db", dbPath}, nil, stdout, stderr)
	require.Error(t, err)
}

func TestPurgeSessions(t *testing.T) {
	dbPath, stdout, stderr := setup(t)

	require.NoError(t, run([]string{"purge-sessions", "-db", dbPath}, nil, stdout, stderr))
	assert.Contains(t, stdout.String(), "Purged 0 expired session(s)")
}

func TestUnknownCommand(t *testing.T) {
	_, stdout, stderr := setup(t)

	err := run([]string{"frobnicate"}, nil, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, stdout.String(), "Usage:")

	require.Error(t, run(nil, nil, stdout, stderr))
}

func TestInvalidDBPath(t *testing.T) {
	_, stdout, stderr := setup(t)
	dir := t.TempDir()

	err := run([]string{"purge-sessions", "-db", dir}, nil, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}
