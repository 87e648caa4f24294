package database

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDatabaseURLEnv names the environment variable that points integration
// tests at a disposable Postgres instance.
const TestDatabaseURLEnv = "DAO_RISK_TEST_DATABASE_URL"

// TestingT is the subset of testing.TB used by SetupTestPool.
type TestingT interface {
	Logf(format string, args ...any)
	Skipf(format string, args ...any)
	FailNow()
	Cleanup(func())
}

// SetupTestPool connects to the test database, creates an isolated schema,
// migrates it and drops it on cleanup. The test is skipped when
// DAO_RISK_TEST_DATABASE_URL is not set.
func SetupTestPool(t TestingT) *pgxpool.Pool {
	connURL := os.Getenv(TestDatabaseURLEnv)
	if connURL == "" {
		t.Skipf("%s not set; skipping database test", TestDatabaseURLEnv)
		return nil
	}

	ctx := context.Background()
	schema := fmt.Sprintf("test_%s", uuid.New().String()[0:8])

	admin, err := pgxpool.New(ctx, connURL)
	if err != nil {
		t.Logf("failed to connect to database. Is your local database running?: %v", err)
		t.FailNow()
	}
	if _, err := admin.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		admin.Close()
		t.Logf("failed to create schema %s: %v", schema, err)
		t.FailNow()
	}

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		admin.Close()
		t.Logf("parse test database url: %v", err)
		t.FailNow()
	}
	poolCfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		admin.Close()
		t.Logf("failed to connect with schema: %v", err)
		t.FailNow()
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		admin.Close()
		t.Logf("migrate test schema: %v", err)
		t.FailNow()
	}

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE")
		admin.Close()
	})

	return pool
}
