package borrower

import (
	"context"
	"strings"

	"loanflow/broker"
)

// Search result labels, as counted by the searches metric.
const (
	SearchEmpty   = "empty"
	SearchMiss    = "miss"
	SearchMatched = "matched"
)

// SearchResult reports the outcome of a name search. Notice is the message
// to show; on a match it is also appended to the notification log.
type SearchResult struct {
	Outcome  string         `json:"outcome"`
	Notice   broker.Message `json:"notice"`
	Bucket   Bucket         `json:"bucket,omitempty"`
	Borrower *Summary       `json:"borrower,omitempty"`
	Snapshot Snapshot       `json:"snapshot"`
}

// Search finds the first borrower, scanning new, then in review, then
// approved, whose name contains query. A match switches the tab and selects
// the borrower. An empty query or a miss changes nothing.
func (d *Dashboard) Search(ctx context.Context, query string) (SearchResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		d.metrics.Searches.WithLabelValues(SearchEmpty).Inc()
		return SearchResult{
			Outcome:  SearchEmpty,
			Notice:   broker.Message{Title: "Enter something to search"},
			Snapshot: d.snapshotLocked(),
		}, nil
	}

	bucket, match, ok := d.findLocked(q)
	if !ok {
		d.metrics.Searches.WithLabelValues(SearchMiss).Inc()
		return SearchResult{
			Outcome:  SearchMiss,
			Notice:   broker.Message{Title: "No borrowers found", Description: `Query: "` + query + `"`},
			Snapshot: d.snapshotLocked(),
		}, nil
	}

	if err := d.selectLocked(ctx, match.ID); err != nil {
		return SearchResult{}, err
	}
	d.activeTab = bucket

	notice := broker.Message{
		Title:       "🔎 Found borrower: " + match.Name,
		Description: "Jumped to " + bucket.Label(),
	}
	d.notifyLocked(notice.Title, notice.Description)
	d.metrics.Searches.WithLabelValues(SearchMatched).Inc()

	return SearchResult{
		Outcome:  SearchMatched,
		Notice:   notice,
		Bucket:   bucket,
		Borrower: &match,
		Snapshot: d.snapshotLocked(),
	}, nil
}

func (d *Dashboard) findLocked(q string) (Bucket, Summary, bool) {
	for _, b := range Buckets {
		for _, s := range d.pipeline.Bucket(b) {
			if strings.Contains(strings.ToLower(s.Name), q) {
				return b, s, true
			}
		}
	}
	return "", Summary{}, false
}
