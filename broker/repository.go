package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested broker does not exist.
var ErrNotFound = errors.New("broker: not found")

// Repository provides read access to broker overviews and workflow steps.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOverview fetches the broker overview by its primary key.
func (r *Repository) GetOverview(ctx context.Context, id string) (Overview, error) {
	const query = `
		SELECT name, deals, approval_rate, pending
		FROM broker_profiles
		WHERE id = $1
	`

	var o Overview
	err := r.pool.QueryRow(ctx, query, id).Scan(&o.Name, &o.Deals, &o.ApprovalRate, &o.Pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Overview{}, ErrNotFound
		}
		return Overview{}, fmt.Errorf("broker: query overview: %w", err)
	}

	return o, nil
}

// WorkflowSteps lists the loan workflow stage names in position order.
func (r *Repository) WorkflowSteps(ctx context.Context) ([]string, error) {
	const query = `
		SELECT name
		FROM workflow_steps
		ORDER BY position ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("broker: list workflow steps: %w", err)
	}
	defer rows.Close()

	steps := make([]string, 0, 8)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("broker: scan workflow step: %w", err)
		}
		steps = append(steps, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("broker: iterate workflow steps: %w", err)
	}

	return steps, nil
}
