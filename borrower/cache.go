package borrower

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"loanflow/session"
)

// Session keys used by the detail cache.
const (
	DetailsKey     = "borrowerDetails"
	InitializedKey = "appInitialized"
)

// DetailCache keeps fetched borrower details for the life of a browsing
// session. The store passed in should already be scoped to that session.
type DetailCache struct {
	store session.Store
}

func NewDetailCache(store session.Store) *DetailCache {
	return &DetailCache{store: store}
}

// Open marks the session initialized. When the marker was missing the
// cached details are discarded first and fresh is true.
func (c *DetailCache) Open(ctx context.Context) (fresh bool, err error) {
	_, err = c.store.Get(ctx, InitializedKey)
	switch {
	case errors.Is(err, session.ErrNotFound):
		fresh = true
		if err := c.store.Del(ctx, DetailsKey); err != nil {
			return false, fmt.Errorf("borrower: clear cache: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("borrower: read init marker: %w", err)
	}

	if err := c.store.Set(ctx, InitializedKey, []byte("true")); err != nil {
		return false, fmt.Errorf("borrower: set init marker: %w", err)
	}
	return fresh, nil
}

// Close drops the initialized marker so the next Open starts clean.
func (c *DetailCache) Close(ctx context.Context) error {
	if err := c.store.Del(ctx, InitializedKey); err != nil {
		return fmt.Errorf("borrower: clear init marker: %w", err)
	}
	return nil
}

// Get returns the cached detail for id.
func (c *DetailCache) Get(ctx context.Context, id string) (Detail, bool, error) {
	all, err := c.load(ctx)
	if err != nil {
		return Detail{}, false, err
	}
	d, ok := all[id]
	return d, ok, nil
}

// Put stores d under its id, replacing any earlier entry.
func (c *DetailCache) Put(ctx context.Context, d Detail) error {
	all, err := c.load(ctx)
	if err != nil {
		return err
	}
	all[d.ID] = d.Clone()

	raw, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("borrower: encode cache: %w", err)
	}
	if err := c.store.Set(ctx, DetailsKey, raw); err != nil {
		return fmt.Errorf("borrower: write cache: %w", err)
	}
	return nil
}

// Clear discards every cached detail.
func (c *DetailCache) Clear(ctx context.Context) error {
	if err := c.store.Del(ctx, DetailsKey); err != nil {
		return fmt.Errorf("borrower: clear cache: %w", err)
	}
	return nil
}

// load treats a missing or undecodable blob as empty.
func (c *DetailCache) load(ctx context.Context) (map[string]Detail, error) {
	raw, err := c.store.Get(ctx, DetailsKey)
	if errors.Is(err, session.ErrNotFound) {
		return map[string]Detail{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("borrower: read cache: %w", err)
	}

	all := map[string]Detail{}
	if err := json.Unmarshal(raw, &all); err != nil {
		return map[string]Detail{}, nil
	}
	return all, nil
}
