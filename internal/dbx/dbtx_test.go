package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupDB opens a file database so every pool connection sees the same data.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE registry_tokens (id TEXT PRIMARY KEY, username TEXT NOT NULL, is_active INTEGER NOT NULL)`)
	require.NoError(t, err)
	return db
}

func activeFor(t *testing.T, db *sql.DB, username string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM registry_tokens WHERE username = ? AND is_active = 1`, username).Scan(&n))
	return n
}

// supersede deactivates the live token of username and inserts id in its place.
func supersede(ctx context.Context, tx DBTX, username, id string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE registry_tokens SET is_active = 0 WHERE username = ?`, username); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO registry_tokens (id, username, is_active) VALUES (?, ?, 1)`, id, username)
	return err
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	for _, id := range []string{"t1", "t2"} {
		err := WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
			return supersede(ctx, tx, "svc", id)
		})
		require.NoError(t, err)
	}
	require.Equal(t, 1, activeFor(t, db, "svc"), "exactly one live token after two commits")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	require.NoError(t, WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		return supersede(ctx, tx, "svc", "t1")
	}))

	boom := errors.New("boom")
	err := WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, supersede(ctx, tx, "svc", "t2"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	var live string
	require.NoError(t, db.QueryRow(`SELECT id FROM registry_tokens WHERE is_active = 1`).Scan(&live))
	require.Equal(t, "t1", live, "the old token must survive a failed rotation")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, activeFor(t, db, "svc"), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, supersede(ctx, tx, "svc", "t1"))
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err, "begin should fail when DB is closed")
	require.False(t, called)
}

func TestDialect_Rebind(t *testing.T) {
	q := `UPDATE registry_tokens SET is_active = ?, token = '?' WHERE id = ? AND username = ?`

	require.Equal(t, q, SQLite.Rebind(q))
	require.Equal(t, `UPDATE registry_tokens SET is_active = $1, token = '?' WHERE id = $2 AND username = $3`, Postgres.Rebind(q))
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in     string
		want   Dialect
		driver string
		err    bool
	}{
		{in: "sqlite", want: SQLite, driver: "sqlite"},
		{in: "SQLITE3", want: SQLite, driver: "sqlite"},
		{in: "pgx", want: Postgres, driver: "pgx"},
		{in: "postgres", want: Postgres, driver: "pgx"},
		{in: "mysql", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDialect(tt.in)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, d)
			require.Equal(t, tt.driver, d.DriverName())
		})
	}
}
