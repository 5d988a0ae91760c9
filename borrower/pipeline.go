package borrower

import "encoding/json"

// Pipeline groups borrower summaries by bucket. A borrower id appears in at
// most one bucket. Pipeline values are never mutated; every change returns a
// new value.
type Pipeline struct {
	rows map[Bucket][]Summary
}

// NewPipeline copies the given buckets. Later duplicates of an id are dropped.
func NewPipeline(rows map[Bucket][]Summary) Pipeline {
	p := Pipeline{rows: make(map[Bucket][]Summary, len(Buckets))}
	seen := make(map[string]struct{})
	for _, b := range Buckets {
		out := make([]Summary, 0, len(rows[b]))
		for _, s := range rows[b] {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			out = append(out, s)
		}
		p.rows[b] = out
	}
	return p
}

// Bucket returns a copy of the rows in b.
func (p Pipeline) Bucket(b Bucket) []Summary {
	rows := p.rows[b]
	out := make([]Summary, len(rows))
	copy(out, rows)
	return out
}

// Rows returns a copy of every bucket.
func (p Pipeline) Rows() map[Bucket][]Summary {
	out := make(map[Bucket][]Summary, len(Buckets))
	for _, b := range Buckets {
		out[b] = p.Bucket(b)
	}
	return out
}

// Locate finds the bucket and row holding id.
func (p Pipeline) Locate(id string) (Bucket, Summary, bool) {
	for _, b := range Buckets {
		for _, s := range p.rows[b] {
			if s.ID == id {
				return b, s, true
			}
		}
	}
	return "", Summary{}, false
}

// Len counts rows across all buckets.
func (p Pipeline) Len() int {
	n := 0
	for _, b := range Buckets {
		n += len(p.rows[b])
	}
	return n
}

// Place removes s.ID from every bucket and appends s to target.
func (p Pipeline) Place(s Summary, target Bucket) Pipeline {
	next := make(map[Bucket][]Summary, len(Buckets))
	for _, b := range Buckets {
		rows := make([]Summary, 0, len(p.rows[b])+1)
		for _, r := range p.rows[b] {
			if r.ID != s.ID {
				rows = append(rows, r)
			}
		}
		if b == target {
			rows = append(rows, s)
		}
		next[b] = rows
	}
	return Pipeline{rows: next}
}

// Relabel changes the status of id in place, leaving bucket membership and
// order alone. An unknown id yields an identical copy.
func (p Pipeline) Relabel(id string, status Status) Pipeline {
	next := p.Rows()
	for _, b := range Buckets {
		for i := range next[b] {
			if next[b][i].ID == id {
				next[b][i].Status = status
			}
		}
	}
	return Pipeline{rows: next}
}

// Append adds s to the end of target. It is Place under another name for
// rows entering the pipeline for the first time.
func (p Pipeline) Append(s Summary, target Bucket) Pipeline {
	return p.Place(s, target)
}

// MarshalJSON encodes the pipeline as an object keyed by bucket.
func (p Pipeline) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Rows())
}
