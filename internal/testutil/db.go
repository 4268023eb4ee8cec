// Package testutil provides shared helpers for integration tests. Helpers
// skip the test when TEST_DATABASE_URL is not set.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DSNEnv names the variable holding the integration database URL
const DSNEnv = "TEST_DATABASE_URL"

// NewDB opens a *sqlx.DB against TEST_DATABASE_URL and closes it when the
// test finishes.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	db, err := sqlx.ConnectContext(context.Background(), "postgres", dsn)
	if err != nil {
		t.Fatalf("testutil.NewDB: connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// MustOpenDB connects to dsn and panics on error. For TestMain, where no
// *testing.T exists; the caller closes the DB.
func MustOpenDB(dsn string) *sqlx.DB {
	db, err := sqlx.ConnectContext(context.Background(), "postgres", dsn)
	if err != nil {
		panic("testutil.MustOpenDB: " + err.Error())
	}
	return db
}

// Truncate empties the given tables
func Truncate(t *testing.T, db *sqlx.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.ExecContext(context.Background(), "TRUNCATE TABLE "+table); err != nil {
			t.Fatalf("testutil.Truncate %s: %v", table, err)
		}
	}
}
