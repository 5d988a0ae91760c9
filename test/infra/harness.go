package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"loanflow/db"
)

// Harness owns a migrated Postgres database for integration tests.
type Harness struct {
	container *PGContainer
	pool      *pgxpool.Pool
}

// NewHarness reuses overrideDSN when set, otherwise starts a container, and
// applies the embedded migrations, which also load the demo borrowers.
func NewHarness(ctx context.Context, overrideDSN string) (*Harness, error) {
	container, dsn, err := StartPostgres(ctx, overrideDSN)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	pool, err := db.Open(ctx, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	h := &Harness{container: container, pool: pool}
	if err := h.Reset(ctx); err != nil {
		h.Close(ctx)
		return nil, err
	}
	return h, nil
}

func (h *Harness) Pool() *pgxpool.Pool {
	return h.pool
}

// Close releases the pool and stops the container, if one was started.
func (h *Harness) Close(ctx context.Context) {
	if h.pool != nil {
		h.pool.Close()
	}
	_ = h.container.Terminate(ctx)
}

// Reset drops every loanflow table and migrates again, restoring the seed
// data.
func (h *Harness) Reset(ctx context.Context) error {
	const drop = `
		DROP TABLE IF EXISTS borrower_flags, borrowers, workflow_steps, broker_profiles, schema_migrations CASCADE
	`
	if _, err := h.pool.Exec(ctx, drop); err != nil {
		return fmt.Errorf("reset: drop tables: %w", err)
	}
	if _, err := db.Migrate(ctx, h.pool); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
