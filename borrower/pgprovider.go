package borrower

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"loanflow/broker"
)

// PGProvider reads the dashboard data from Postgres.
type PGProvider struct {
	pool     *pgxpool.Pool
	brokers  *broker.Repository
	brokerID string
}

// NewPGProvider serves brokerID's overview alongside the shared pipeline.
func NewPGProvider(pool *pgxpool.Pool, brokerID string) *PGProvider {
	return &PGProvider{
		pool:     pool,
		brokers:  broker.NewRepository(pool),
		brokerID: brokerID,
	}
}

func (p *PGProvider) FetchPipeline(ctx context.Context) (Pipeline, error) {
	const query = `
		SELECT id, name, loan_type, loan_amount, COALESCE(pipeline_status, status), bucket
		FROM borrowers
		ORDER BY bucket, position, id
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return Pipeline{}, fmt.Errorf("borrower: query pipeline: %w", err)
	}
	defer rows.Close()

	buckets := make(map[Bucket][]Summary, len(Buckets))
	for rows.Next() {
		var (
			s      Summary
			bucket string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.LoanType, &s.Amount, &s.Status, &bucket); err != nil {
			return Pipeline{}, fmt.Errorf("borrower: scan pipeline row: %w", err)
		}
		b, err := ParseBucket(bucket)
		if err != nil {
			return Pipeline{}, fmt.Errorf("borrower: row %s: %w", s.ID, err)
		}
		buckets[b] = append(buckets[b], s)
	}
	if err := rows.Err(); err != nil {
		return Pipeline{}, fmt.Errorf("borrower: iterate pipeline: %w", err)
	}

	return NewPipeline(buckets), nil
}

func (p *PGProvider) FetchDetail(ctx context.Context, id string) (Detail, error) {
	const query = `
		SELECT id, name, email, phone, loan_amount, status, employment, income,
		       existing_loan, credit_score, source_of_funds, risk_signal
		FROM borrowers
		WHERE id = $1
	`

	var d Detail
	err := p.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Name, &d.Email, &d.Phone, &d.LoanAmount, &d.Status, &d.Employment,
		&d.Income, &d.ExistingLoan, &d.CreditScore, &d.SourceOfFunds, &d.RiskSignal,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Detail{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Detail{}, fmt.Errorf("borrower: query detail: %w", err)
	}

	flags, err := p.flags(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d.AIFlags = flags
	return d, nil
}

func (p *PGProvider) flags(ctx context.Context, id string) ([]string, error) {
	const query = `
		SELECT flag
		FROM borrower_flags
		WHERE borrower_id = $1
		ORDER BY position ASC
	`

	rows, err := p.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("borrower: query flags: %w", err)
	}
	defer rows.Close()

	flags := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("borrower: scan flag: %w", err)
		}
		flags = append(flags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("borrower: iterate flags: %w", err)
	}
	return flags, nil
}

func (p *PGProvider) FetchBrokerInfo(ctx context.Context) (broker.Overview, error) {
	return p.brokers.GetOverview(ctx, p.brokerID)
}

func (p *PGProvider) FetchWorkflowSteps(ctx context.Context) ([]string, error) {
	return p.brokers.WorkflowSteps(ctx)
}
