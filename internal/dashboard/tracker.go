package dashboard

import (
	"sync"
	"time"
)

// Tracker hands out per-visitor fetch generations so a slow response for an
// abandoned month selection can be discarded once a newer request has been
// issued. Without it, rapid month switching could let a stale response
// overwrite fresher state.
type Tracker struct {
	mu       sync.Mutex
	visitors map[string]*visitorGen
}

type visitorGen struct {
	issued    uint64
	committed uint64
	touched   time.Time
}

func NewTracker() *Tracker {
	return &Tracker{visitors: make(map[string]*visitorGen)}
}

// Begin issues the next generation for a visitor. Called before the fetch.
func (t *Tracker) Begin(visitor string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.visitors[visitor]
	if v == nil {
		v = &visitorGen{}
		t.visitors[visitor] = v
	}
	v.issued++
	v.touched = time.Now()
	return v.issued
}

// Commit reports whether the fetch that started at gen is still the newest
// one for this visitor. A false return means the result is stale and must be
// dropped, not rendered.
func (t *Tracker) Commit(visitor string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.visitors[visitor]
	if v == nil || gen != v.issued || gen <= v.committed {
		return false
	}
	v.committed = gen
	v.touched = time.Now()
	return true
}

// CleanExpired drops visitors idle for longer than maxIdle and returns how
// many were removed.
func (t *Tracker) CleanExpired(maxIdle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for visitor, v := range t.visitors {
		if v.touched.Before(cutoff) {
			delete(t.visitors, visitor)
			removed++
		}
	}
	return removed
}
