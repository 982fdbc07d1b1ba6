//go:build integration

package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	pgdb "github.com/alanyang/prodline/internal/adapter/postgres"
)

// SetupTestDB connects to the test database and applies the embedded
// migrations. It skips the test if TEST_DATABASE_URL is not set.
// Every caller shares the same DB; isolate by creating fresh projects.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	return SetupTestDBWithMaxConns(t, 0)
}

// SetupTestDBWithMaxConns is SetupTestDB with the pool capped at maxConns.
// Zero keeps the size Connect would pick.
func SetupTestDBWithMaxConns(t *testing.T, maxConns int32) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	var (
		pool *pgxpool.Pool
		err  error
	)
	if maxConns > 0 {
		var cfg *pgxpool.Config
		if cfg, err = pgxpool.ParseConfig(url); err == nil {
			cfg.MaxConns = maxConns
			pool, err = pgxpool.NewWithConfig(ctx, cfg)
		}
	} else {
		pool, err = pgdb.Connect(ctx, url)
	}
	if err != nil {
		t.Fatalf("connect to test DB: %v", err)
	}
	if err := pgdb.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("migrate test DB: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}
