package borrower

import (
	"errors"
	"fmt"

	"loanflow/validation"
)

// Status is the display status of a borrower application.
type Status string

const (
	StatusNew                = Status("New")
	StatusRenew              = Status("Renew")
	StatusInReview           = Status("In Review")
	StatusDocumentsRequested = Status("Documents Requested")
	StatusWithValuer         = Status("With Valuer")
	StatusApproved           = Status("Approved")
	StatusCreditCommittee    = Status("Credit Committee Review")
)

// Bucket is a pipeline tab.
type Bucket string

const (
	BucketNew      = Bucket("new")
	BucketInReview = Bucket("in_review")
	BucketApproved = Bucket("approved")
)

// Buckets lists the pipeline tabs in display and search order.
var Buckets = []Bucket{BucketNew, BucketInReview, BucketApproved}

// ErrUnknownBucket signals a tab name outside Buckets.
var ErrUnknownBucket = errors.New("borrower: unknown bucket")

// ParseBucket validates a tab name.
func ParseBucket(s string) (Bucket, error) {
	for _, b := range Buckets {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

// Label renders the bucket for people, e.g. "in review".
func (b Bucket) Label() string {
	out := []byte(b)
	for i, c := range out {
		if c == '_' {
			out[i] = ' '
			break
		}
	}
	return string(out)
}

// Summary is a borrower row in a pipeline bucket.
type Summary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LoanType string `json:"loan_type"`
	Amount   int64  `json:"amount"`
	Status   Status `json:"status"`
}

// Detail is the full borrower record shown in the detail pane.
type Detail struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	LoanAmount    int64    `json:"loan_amount"`
	Status        Status   `json:"status"`
	Employment    string   `json:"employment"`
	Income        int64    `json:"income"`
	ExistingLoan  int64    `json:"existing_loan"`
	CreditScore   int      `json:"credit_score"`
	SourceOfFunds string   `json:"source_of_funds"`
	RiskSignal    string   `json:"risk_signal"`
	AIFlags       []string `json:"ai_flags"`
}

// Clone returns a copy that shares no slices with d.
func (d Detail) Clone() Detail {
	out := d
	if d.AIFlags != nil {
		out.AIFlags = append([]string(nil), d.AIFlags...)
	}
	return out
}

// DefaultLoanType is assigned to borrowers added through the form and to
// rows moved into review or approval.
const DefaultLoanType = "Home Loan"

// NoRiskSignal replaces an empty risk signal on newly added borrowers.
const NoRiskSignal = "No risk signals detected"

// NewBorrower is the add-borrower form payload.
type NewBorrower struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	LoanAmount    int64  `json:"loan_amount"`
	Employment    string `json:"employment"`
	Income        int64  `json:"income"`
	ExistingLoan  int64  `json:"existing_loan"`
	CreditScore   int    `json:"credit_score"`
	SourceOfFunds string `json:"source_of_funds"`
	RiskSignal    string `json:"risk_signal,omitempty"`
}

func validateNew(n NewBorrower) error {
	return validation.Borrower.Validate(n)
}

func (n NewBorrower) detail(id string) Detail {
	risk := n.RiskSignal
	if risk == "" {
		risk = NoRiskSignal
	}
	return Detail{
		ID:            id,
		Name:          n.Name,
		Email:         n.Email,
		Phone:         n.Phone,
		LoanAmount:    n.LoanAmount,
		Status:        StatusNew,
		Employment:    n.Employment,
		Income:        n.Income,
		ExistingLoan:  n.ExistingLoan,
		CreditScore:   n.CreditScore,
		SourceOfFunds: n.SourceOfFunds,
		RiskSignal:    risk,
		AIFlags:       []string{},
	}
}
