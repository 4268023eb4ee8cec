package database

import (
	"context"
	"os"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocomet/taxi-fare/migrations"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// TestConfig_DSN tests connection string assembly
func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "taxi", Password: "secret", DBName: "fares", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=taxi password=secret dbname=fares sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://taxi:secret@db:5432/fares?sslmode=disable"
	assert.Equal(t, cfg.URL, cfg.DSN())
}

// TestMigrations applies the schema against a real database
func TestMigrations(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	ctx := context.Background()

	db, err := NewPostgresDB(ctx, Config{URL: dsn})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db.DB, logger.Nop()))

	var exists bool
	require.NoError(t, db.GetContext(ctx, &exists, `SELECT to_regclass('public.trips') IS NOT NULL`))
	assert.True(t, exists)

	provider, err := goose.NewProvider(goose.DialectPostgres, db.DB, migrations.FS)
	require.NoError(t, err)
	pending, err := provider.HasPending(ctx)
	require.NoError(t, err)
	assert.False(t, pending)

	// a second run is a no-op
	require.NoError(t, RunMigrations(ctx, db.DB, logger.Nop()))
}
