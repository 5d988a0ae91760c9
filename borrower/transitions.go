package borrower

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"loanflow/events"
)

var (
	// ErrInvalidTransition signals an action that is not legal from the
	// borrower's current status.
	ErrInvalidTransition = errors.New("borrower: invalid transition")
	// ErrNotActive signals an action on a borrower other than the active one.
	ErrNotActive = errors.New("borrower: not the active borrower")
	// ErrUnknownAction signals an action name outside the transition table.
	ErrUnknownAction = errors.New("borrower: unknown action")
)

// Action names a status transition.
type Action string

const (
	ActionMoveToReview     = Action("review")
	ActionRequestDocuments = Action("documents")
	ActionSendToValuer     = Action("valuer")
	ActionApprove          = Action("approve")
	ActionEscalate         = Action("escalate")
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := transitions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

type transition struct {
	next Status
	flag string
	// bucket is where the summary moves; empty relabels it in place.
	bucket  Bucket
	allowed func(Detail) bool
	notice  func(Detail) (title, description string)
}

var transitions = map[Action]transition{
	ActionMoveToReview: {
		next:   StatusInReview,
		bucket: BucketInReview,
		allowed: func(d Detail) bool {
			return d.Status == StatusNew || d.Status == StatusRenew
		},
		notice: func(d Detail) (string, string) {
			return "Moved to Review: " + d.Name, "Application is now under review"
		},
	},
	ActionRequestDocuments: {
		next:    StatusDocumentsRequested,
		flag:    "Documents requested from borrower",
		allowed: notApproved,
		notice: func(d Detail) (string, string) {
			return "Documents requested from " + d.Name, "They will be notified via email and SMS"
		},
	},
	ActionSendToValuer: {
		next:    StatusWithValuer,
		flag:    "Property valuation in progress",
		allowed: notApproved,
		notice: func(d Detail) (string, string) {
			return "Sent to valuer: " + d.Name, "Expected completion: 2-3 business days"
		},
	},
	ActionApprove: {
		next:    StatusApproved,
		bucket:  BucketApproved,
		allowed: notApproved,
		notice: func(d Detail) (string, string) {
			return fmt.Sprintf("🎉 Loan approved for %s!", d.Name), "Amount: " + FormatAmount(d.LoanAmount)
		},
	},
	ActionEscalate: {
		next: StatusCreditCommittee,
		flag: "Escalated to Credit Committee for manual review",
		allowed: func(d Detail) bool {
			return notApproved(d) && EscalationEligible(d)
		},
		notice: func(d Detail) (string, string) {
			return "Escalated to Credit Committee: " + d.Name, "They will review within 24 hours"
		},
	},
}

func notApproved(d Detail) bool {
	return d.Status != StatusApproved
}

func (d *Dashboard) MoveToReview(ctx context.Context, id string) (Snapshot, error) {
	return d.Apply(ctx, ActionMoveToReview, id)
}

func (d *Dashboard) RequestDocuments(ctx context.Context, id string) (Snapshot, error) {
	return d.Apply(ctx, ActionRequestDocuments, id)
}

func (d *Dashboard) SendToValuer(ctx context.Context, id string) (Snapshot, error) {
	return d.Apply(ctx, ActionSendToValuer, id)
}

func (d *Dashboard) Approve(ctx context.Context, id string) (Snapshot, error) {
	return d.Apply(ctx, ActionApprove, id)
}

func (d *Dashboard) Escalate(ctx context.Context, id string) (Snapshot, error) {
	return d.Apply(ctx, ActionEscalate, id)
}

// Apply runs action against the active borrower id. The change is all or
// nothing: if the delay is cut short or the cache write fails, nothing moves.
func (d *Dashboard) Apply(ctx context.Context, action Action, id string) (Snapshot, error) {
	t, ok := transitions[action]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == nil || d.active.ID != id {
		d.reject(action, id, "not active")
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotActive, id)
	}
	current := *d.active
	if !t.allowed(current) {
		d.reject(action, id, string(current.Status))
		return Snapshot{}, fmt.Errorf("%w: %s from %q", ErrInvalidTransition, action, current.Status)
	}

	if err := sleep(ctx, d.actionDelay); err != nil {
		return Snapshot{}, err
	}

	updated := current.Clone()
	updated.Status = t.next
	if t.flag != "" {
		updated.AIFlags = append(updated.AIFlags, t.flag)
	}
	if err := d.cache.Put(ctx, updated); err != nil {
		d.log.Error("persist transition", zap.String("action", string(action)), zap.String("borrower_id", id), zap.Error(err))
		return Snapshot{}, err
	}

	d.active = &updated
	bucket, _, _ := d.pipeline.Locate(id)
	if t.bucket != "" {
		// Moved rows are rebuilt from the detail, which carries no loan type.
		row := Summary{ID: id, Name: updated.Name, LoanType: DefaultLoanType, Amount: updated.LoanAmount, Status: t.next}
		d.pipeline = d.pipeline.Place(row, t.bucket)
		bucket = t.bucket
	} else {
		d.pipeline = d.pipeline.Relabel(id, t.next)
	}
	if action == ActionMoveToReview {
		d.activeTab = BucketInReview
	}

	d.notifyLocked(t.notice(updated))
	d.metrics.Transitions.WithLabelValues(string(action)).Inc()
	d.publishLocked(ctx, events.TopicBorrowerTransitioned, events.BorrowerTransitioned{
		BorrowerID:     id,
		Action:         string(action),
		PreviousStatus: string(current.Status),
		NextStatus:     string(t.next),
		Bucket:         string(bucket),
		Flag:           t.flag,
	})
	d.log.Info("borrower transitioned",
		zap.String("borrower_id", id),
		zap.String("action", string(action)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(t.next)),
	)

	return d.snapshotLocked(), nil
}

func (d *Dashboard) reject(action Action, id, reason string) {
	d.metrics.TransitionRejections.WithLabelValues(string(action)).Inc()
	d.log.Warn("transition rejected",
		zap.String("borrower_id", id),
		zap.String("action", string(action)),
		zap.String("reason", reason),
	)
}
