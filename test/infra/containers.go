package infra

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DSNEnv names a database to reuse instead of starting a container.
const DSNEnv = "LOANFLOW_TEST_PG_DSN"

// PGContainer wraps a started container. It is empty when an existing
// database was reused.
type PGContainer struct {
	C *postgres.PostgresContainer
}

// SkipWithoutDatabase skips t when no DSN is configured and no healthy
// container runtime is reachable.
func SkipWithoutDatabase(t *testing.T, overrideDSN string) {
	t.Helper()
	if overrideDSN != "" || os.Getenv(DSNEnv) != "" {
		return
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// StartPostgres starts a Postgres 16 container and returns its DSN. When
// overrideDSN or LOANFLOW_TEST_PG_DSN is set that database is used instead.
func StartPostgres(ctx context.Context, overrideDSN string) (*PGContainer, string, error) {
	if overrideDSN != "" {
		return &PGContainer{}, overrideDSN, nil
	}
	if dsn := os.Getenv(DSNEnv); dsn != "" {
		return &PGContainer{}, dsn, nil
	}

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("loanflow"),
		postgres.WithUsername("loanflow"),
		postgres.WithPassword("loanflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return nil, "", err
	}

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, "", err
	}
	return &PGContainer{C: pgC}, dsn, nil
}

func (p *PGContainer) Terminate(ctx context.Context) error {
	if p == nil || p.C == nil {
		return nil
	}
	return p.C.Terminate(ctx)
}
