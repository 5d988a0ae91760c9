package oracles

import (
	"fmt"

	"loanflow/borrower"
	"loanflow/notification"
)

// Oracle checks one invariant of a dashboard snapshot and its notifications.
// It returns a description of the first violation, or "".
type Oracle struct {
	Name  string
	Check func(borrower.Snapshot, []notification.Notification) string
}

func All() []Oracle {
	return []Oracle{
		{Name: "O1_single_bucket_membership", Check: singleBucket},
		{Name: "O2_bucket_status_agrees", Check: bucketStatus},
		{Name: "O3_notification_cap_and_order", Check: notificationOrder},
		{Name: "O4_escalation_flag", Check: escalationFlag},
	}
}

// Run applies every oracle and returns the first failure.
func Run(snap borrower.Snapshot, items []notification.Notification) (name, detail string) {
	for _, o := range All() {
		if msg := o.Check(snap, items); msg != "" {
			return o.Name, msg
		}
	}
	return "", ""
}

func singleBucket(snap borrower.Snapshot, _ []notification.Notification) string {
	seen := map[string]borrower.Bucket{}
	for _, b := range borrower.Buckets {
		for _, s := range snap.Pipeline.Bucket(b) {
			if prev, dup := seen[s.ID]; dup {
				return fmt.Sprintf("id %s in both %s and %s", s.ID, prev, b)
			}
			seen[s.ID] = b
		}
	}
	return ""
}

func bucketStatus(snap borrower.Snapshot, _ []notification.Notification) string {
	for _, s := range snap.Pipeline.Bucket(borrower.BucketApproved) {
		if s.Status != borrower.StatusApproved {
			return fmt.Sprintf("approved row %s has status %q", s.ID, s.Status)
		}
	}
	for _, s := range snap.Pipeline.Bucket(borrower.BucketNew) {
		if s.Status == borrower.StatusApproved || s.Status == borrower.StatusInReview {
			return fmt.Sprintf("new row %s has status %q", s.ID, s.Status)
		}
	}
	return ""
}

func notificationOrder(_ borrower.Snapshot, items []notification.Notification) string {
	if len(items) > notification.DefaultCapacity {
		return fmt.Sprintf("%d notifications retained", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Timestamp.After(items[i-1].Timestamp) {
			return fmt.Sprintf("notification %s newer than %s", items[i].ID, items[i-1].ID)
		}
	}
	return ""
}

func escalationFlag(snap borrower.Snapshot, _ []notification.Notification) string {
	if snap.Active == nil {
		return ""
	}
	if want := borrower.EscalationEligible(*snap.Active); snap.CanEscalate != want {
		return fmt.Sprintf("can_escalate=%v for %s, predicate says %v", snap.CanEscalate, snap.Active.ID, want)
	}
	return ""
}
