package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"zentrack/internal/core"
)

// HandoffStore passes an identity from the handshake to the very next
// protected-page load without a second verification round-trip. Entries are
// single use and expire quickly: a token survives exactly one redirect.
type HandoffStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]handoffEntry
}

type handoffEntry struct {
	user      core.User
	expiresAt time.Time
}

// DefaultHandoffTTL comfortably covers one browser redirect.
const DefaultHandoffTTL = 30 * time.Second

func NewHandoffStore(ttl time.Duration) *HandoffStore {
	if ttl <= 0 {
		ttl = DefaultHandoffTTL
	}
	return &HandoffStore{
		ttl:     ttl,
		entries: make(map[string]handoffEntry),
	}
}

// Put stores the identity and returns the one-time token to embed in the
// redirect target.
func (s *HandoffStore) Put(user core.User) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = handoffEntry{user: user, expiresAt: time.Now().Add(s.ttl)}
	return token
}

// Redeem consumes the token. The second redeem of the same token fails, as
// does any redeem after expiry.
func (s *HandoffStore) Redeem(token string) (core.User, bool) {
	if token == "" {
		return core.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return core.User{}, false
	}
	delete(s.entries, token)
	if time.Now().After(e.expiresAt) {
		return core.User{}, false
	}
	return e.user, true
}

// CleanExpired removes expired entries and returns how many were dropped.
func (s *HandoffStore) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for token, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

// Size returns the current number of pending handoffs.
func (s *HandoffStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
