package borrower

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loanflow/broker"
)

// ErrNotFound signals that no borrower has the requested id.
var ErrNotFound = errors.New("borrower: not found")

// DefaultFetchDelay is the simulated latency of a fixture detail fetch.
const DefaultFetchDelay = 500 * time.Millisecond

// Provider supplies the dashboard's read-side data.
type Provider interface {
	FetchPipeline(ctx context.Context) (Pipeline, error)
	FetchDetail(ctx context.Context, id string) (Detail, error)
	FetchBrokerInfo(ctx context.Context) (broker.Overview, error)
	FetchWorkflowSteps(ctx context.Context) ([]string, error)
}

// FixtureProvider serves the built-in demo records.
type FixtureProvider struct {
	fetchDelay time.Duration
	details    map[string]Detail
}

// NewFixtureProvider returns the demo data set. Detail fetches wait for
// fetchDelay; a negative value disables the wait.
func NewFixtureProvider(fetchDelay time.Duration) *FixtureProvider {
	details := make(map[string]Detail, 3)
	for _, d := range fixtureDetails() {
		details[d.ID] = d
	}
	return &FixtureProvider{fetchDelay: fetchDelay, details: details}
}

func (p *FixtureProvider) FetchPipeline(ctx context.Context) (Pipeline, error) {
	if err := ctx.Err(); err != nil {
		return Pipeline{}, err
	}
	return NewPipeline(map[Bucket][]Summary{
		BucketNew: {
			{ID: "1", Name: "Sarah Dunn", LoanType: "Home Loan", Amount: 300000, Status: StatusRenew},
			{ID: "3", Name: "Lisa Carter", LoanType: "Home Loan", Amount: 450000, Status: StatusNew},
		},
		BucketInReview: {
			{ID: "2", Name: "Alan Matthews", LoanType: "Personal Loan", Amount: 20000, Status: StatusInReview},
		},
		BucketApproved: {},
	}), nil
}

func (p *FixtureProvider) FetchDetail(ctx context.Context, id string) (Detail, error) {
	if err := sleep(ctx, p.fetchDelay); err != nil {
		return Detail{}, err
	}
	d, ok := p.details[id]
	if !ok {
		return Detail{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d.Clone(), nil
}

func (p *FixtureProvider) FetchBrokerInfo(ctx context.Context) (broker.Overview, error) {
	if err := ctx.Err(); err != nil {
		return broker.Overview{}, err
	}
	return broker.DemoOverview(), nil
}

func (p *FixtureProvider) FetchWorkflowSteps(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return broker.DemoWorkflowSteps(), nil
}

func fixtureDetails() []Detail {
	base := Detail{
		Employment:    "At Tech Company",
		Income:        120000,
		ExistingLoan:  240000,
		CreditScore:   720,
		SourceOfFunds: "Declared",
		RiskSignal:    "Missing Source of Funds declaration",
	}
	people := []struct {
		id, name, email, phone string
		amount                 int64
		status                 Status
	}{
		{"1", "Sarah Dunn", "sarah.dunn@example.com", "(355)123-4557", 300000, StatusNew},
		{"2", "Alan Matthews", "alan.matthews@example.com", "(355)123-4558", 20000, StatusInReview},
		{"3", "Lisa Carter", "lisa.carter@example.com", "(355)123-4559", 450000, StatusNew},
	}

	out := make([]Detail, 0, len(people))
	for _, p := range people {
		d := base
		d.ID, d.Name, d.Email, d.Phone = p.id, p.name, p.email, p.phone
		d.LoanAmount, d.Status = p.amount, p.status
		d.AIFlags = []string{
			"Income Inconsistent with Bank statements",
			"High Debt-to-Income Ratio detected",
		}
		out = append(out, d)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
