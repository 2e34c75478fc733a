//go:build integration

package pgtest

import (
	"context"
	"testing"
	"time"

	"ledger-service/config"
	"ledger-service/internal/adapter/storage/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const image = "postgres:16-alpine"

// Start runs a migrated PostgreSQL container for the lifetime of t and
// returns a pool connected to it.
func Start(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, postgres.Migrate(dsn, zerolog.Nop()))

	pool, err := postgres.NewPool(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 32}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

// Reset empties every ledger table and restarts id sequences.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE movements, accounts RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}
