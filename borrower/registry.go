package borrower

import (
	"sync"
	"time"
)

// Factory builds the dashboard for a newly seen session.
type Factory func(sessionID string) *Dashboard

type registryEntry struct {
	dashboard *Dashboard
	lastSeen  time.Time
}

// Registry holds one dashboard per browsing session. With an idle TTL set,
// sessions not seen for that long are evicted on the next Get.
type Registry struct {
	mu         sync.Mutex
	dashboards map[string]registryEntry
	factory    Factory
	idleTTL    time.Duration
	now        func() time.Time
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		dashboards: make(map[string]registryEntry),
		factory:    factory,
		now:        time.Now,
	}
}

// WithIdleTTL evicts dashboards idle for at least ttl. Zero disables eviction.
func (r *Registry) WithIdleTTL(ttl time.Duration) *Registry {
	r.idleTTL = ttl
	return r
}

func (r *Registry) WithClock(now func() time.Time) *Registry {
	if now != nil {
		r.now = now
	}
	return r
}

// Get returns the session's dashboard, creating it on first use.
func (r *Registry) Get(sessionID string) *Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictLocked(now)

	e, ok := r.dashboards[sessionID]
	if !ok {
		e.dashboard = r.factory(sessionID)
	}
	e.lastSeen = now
	r.dashboards[sessionID] = e
	return e.dashboard
}

// Drop forgets the session's dashboard.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dashboards, sessionID)
}

// Len reports how many sessions hold a dashboard.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dashboards)
}

func (r *Registry) evictLocked(now time.Time) {
	if r.idleTTL <= 0 {
		return
	}
	for id, e := range r.dashboards {
		if now.Sub(e.lastSeen) >= r.idleTTL {
			delete(r.dashboards, id)
		}
	}
}
