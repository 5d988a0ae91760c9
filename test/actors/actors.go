package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"loanflow/borrower"
	"loanflow/notification"
	"loanflow/test/chaos"
)

var actions = []borrower.Action{
	borrower.ActionMoveToReview,
	borrower.ActionRequestDocuments,
	borrower.ActionSendToValuer,
	borrower.ActionApprove,
	borrower.ActionEscalate,
}

var queries = []string{"alan", "SARAH", "carter", "zzz", "", "a"}

// expected reports errors that concurrent callers legitimately hit: a lost
// race for the active borrower, an illegal action, or a chaos cancellation.
func expected(err error) bool {
	return err == nil ||
		errors.Is(err, borrower.ErrInvalidTransition) ||
		errors.Is(err, borrower.ErrNotActive) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func pause(rng *rand.Rand) {
	time.Sleep(time.Duration(1+rng.Intn(3)) * time.Millisecond)
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return true
	case <-stop:
		return true
	default:
		return false
	}
}

// Transitioner selects random borrowers and fires random actions at them.
func Transitioner(ctx context.Context, d *borrower.Dashboard, seed int64, stop <-chan struct{}) error {
	rng := rand.New(rand.NewSource(seed))
	for !stopped(ctx, stop) {
		snap := d.Snapshot()
		rows := snap.Pipeline.Bucket(borrower.Buckets[rng.Intn(len(borrower.Buckets))])
		if len(rows) == 0 {
			pause(rng)
			continue
		}
		id := rows[rng.Intn(len(rows))].ID

		actx, cancel := chaos.Context(ctx, rng)
		_, err := d.Select(actx, id)
		if err == nil {
			_, err = d.Apply(actx, actions[rng.Intn(len(actions))], id)
		}
		cancel()
		if !expected(err) && !errors.Is(err, borrower.ErrNotFound) {
			return fmt.Errorf("transitioner %s: %w", id, err)
		}
		pause(rng)
	}
	return nil
}

// Searcher runs a mix of hits, misses and empty queries.
func Searcher(ctx context.Context, d *borrower.Dashboard, seed int64, stop <-chan struct{}) error {
	rng := rand.New(rand.NewSource(seed))
	for !stopped(ctx, stop) {
		actx, cancel := chaos.Context(ctx, rng)
		_, err := d.Search(actx, queries[rng.Intn(len(queries))])
		cancel()
		if !expected(err) {
			return fmt.Errorf("searcher: %w", err)
		}
		pause(rng)
	}
	return nil
}

// Adder keeps adding borrowers to the new bucket.
func Adder(ctx context.Context, d *borrower.Dashboard, seed int64, stop <-chan struct{}) error {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; !stopped(ctx, stop); i++ {
		in := borrower.NewBorrower{
			Name:          fmt.Sprintf("Stress Borrower %d-%d", seed, i),
			Email:         fmt.Sprintf("stress%d@example.com", i),
			Phone:         "0400000000",
			LoanAmount:    int64(1000 + rng.Intn(900000)),
			Employment:    "Contractor",
			Income:        int64(1 + rng.Intn(200000)),
			ExistingLoan:  int64(rng.Intn(200000)),
			CreditScore:   300 + rng.Intn(551),
			SourceOfFunds: "Savings",
		}
		if _, _, err := d.AddBorrower(ctx, in); !expected(err) {
			return fmt.Errorf("adder: %w", err)
		}
		time.Sleep(time.Duration(5+rng.Intn(10)) * time.Millisecond)
	}
	return nil
}

// Reader marks and deletes notifications while others append them.
func Reader(ctx context.Context, d *borrower.Dashboard, seed int64, stop <-chan struct{}) error {
	rng := rand.New(rand.NewSource(seed))
	for !stopped(ctx, stop) {
		log := d.Notifications()
		items := log.List()
		switch {
		case len(items) == 0:
			d.Help()
		case rng.Intn(3) == 0:
			log.MarkAllRead()
		default:
			n := items[rng.Intn(len(items))]
			if err := log.Delete(n.ID); err != nil && !errors.Is(err, notification.ErrNotFound) {
				return fmt.Errorf("reader: %w", err)
			}
		}
		pause(rng)
	}
	return nil
}
