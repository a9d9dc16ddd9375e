//go:build integration

// Package containers starts throwaway database servers for integration tests.
package containers

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sherpa-db/sherpa/config"
)

// PostgreSQLOptions configures the PostgreSQL container.
type PostgreSQLOptions struct {
	ImageTag       string
	Username       string
	Password       string
	Database       string
	StartupTimeout time.Duration
}

// DefaultPostgreSQLOptions returns a postgres:17-alpine setup with test credentials.
func DefaultPostgreSQLOptions() PostgreSQLOptions {
	return PostgreSQLOptions{
		ImageTag:       "17-alpine",
		Username:       "sherpa",
		Password:       "sherpa",
		Database:       "sherpa",
		StartupTimeout: 60 * time.Second,
	}
}

// PostgreSQL is a running PostgreSQL container.
type PostgreSQL struct {
	container *postgres.PostgresContainer
	connStr   string
}

// StartPostgreSQL starts a container and terminates it when the test ends.
// The test is skipped when Docker is unavailable.
func StartPostgreSQL(ctx context.Context, t *testing.T, opts PostgreSQLOptions) *PostgreSQL {
	t.Helper()

	if !dockerAvailable(ctx) {
		t.Skip("Docker is not available, skipping integration test")
	}

	pg, err := postgres.Run(ctx,
		"postgres:"+opts.ImageTag,
		postgres.WithDatabase(opts.Database),
		postgres.WithUsername(opts.Username),
		postgres.WithPassword(opts.Password),
		testcontainers.WithWaitStrategy(
			// the server restarts once after init
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(opts.StartupTimeout),
		),
	)
	if err != nil {
		t.Fatalf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pg.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get PostgreSQL connection string: %v", err)
	}
	t.Logf("PostgreSQL container started at %s", redact(connStr))

	return &PostgreSQL{container: pg, connStr: connStr}
}

// ConnectionString returns the libpq URL of the container.
func (p *PostgreSQL) ConnectionString() string {
	return p.connStr
}

// DatabaseConfig returns a sherpa database config pointing at the container.
func (p *PostgreSQL) DatabaseConfig() *config.DatabaseConfig {
	cfg := &config.DatabaseConfig{
		Type:             config.PostgreSQL,
		ConnectionString: p.connStr,
	}
	cfg.Pool.Max.Connections = 5
	cfg.Query.Slow.Enabled = true
	cfg.Query.Slow.Threshold = time.Second
	return cfg
}

// redact hides the password of a connection URL.
func redact(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		return "postgres://****@<unparseable>"
	}
	return u.Redacted()
}

// dockerAvailable reports whether the Docker daemon answers.
func dockerAvailable(ctx context.Context) bool {
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.DaemonHost(ctx)
	return err == nil
}
