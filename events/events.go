package events

import "context"

// Event topics.
const (
	TopicBorrowerAdded        = "loanflow.borrower.added"
	TopicBorrowerTransitioned = "loanflow.borrower.transitioned"
	TopicUserLoggedIn         = "loanflow.auth.logged_in"
	TopicUserLoggedOut        = "loanflow.auth.logged_out"
)

// BorrowerAdded is published when a borrower enters the pipeline.
type BorrowerAdded struct {
	BorrowerID string `json:"borrower_id"`
	Name       string `json:"name"`
	LoanAmount int64  `json:"loan_amount"`
}

// BorrowerTransitioned is published after every applied status transition.
type BorrowerTransitioned struct {
	BorrowerID     string `json:"borrower_id"`
	Action         string `json:"action"`
	PreviousStatus string `json:"previous_status"`
	NextStatus     string `json:"next_status"`
	Bucket         string `json:"bucket"`
	Flag           string `json:"flag,omitempty"`
}

// UserSession is published on login and logout.
type UserSession struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
