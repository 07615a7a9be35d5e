// Package session owns authentication state: the gate deciding whether a
// visitor may see protected views, and the handshake turning a one-time
// redirect token into an established session.
package session

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"zentrack/internal/api"
	"zentrack/internal/cache"
	"zentrack/internal/core"
	applog "zentrack/internal/log"
)

// ParseFragment extracts the one-time session id from a URL fragment. The
// identity provider delivers it as "#session_id=..." — a fragment, never a
// query parameter, so it must be lifted client-side and handed to the server
// out of band. The fragment is parsed as a query string.
func ParseFragment(fragment string) (string, bool) {
	fragment = strings.TrimPrefix(fragment, "#")
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return "", false
	}
	id := values.Get("session_id")
	return id, id != ""
}

// ExchangeResult is the terminal outcome of one handshake: either an
// established session plus a handoff token, or an error. There is no retry;
// a fresh login attempt generates a fresh one-time id.
type ExchangeResult struct {
	User    core.User
	Cred    api.Credential
	Handoff string
	Err     error
}

// Exchanger performs the session exchange at most once per one-time id.
// Concurrent duplicates collapse through singleflight; sequential duplicates
// (a re-submitted callback) replay the recorded outcome without touching the
// network.
type Exchanger struct {
	sessions api.SessionAPI
	handoffs *HandoffStore
	logger   *slog.Logger

	flight singleflight.Group

	results *cache.LRUCache[ExchangeResult]
}

// DefaultExchangeTTL bounds how long a recorded outcome shields the backend
// from duplicate exchange attempts.
const DefaultExchangeTTL = 2 * time.Minute

// maxRecordedExchanges caps the outcome cache; oldest records evict first.
const maxRecordedExchanges = 1000

func NewExchanger(sessions api.SessionAPI, handoffs *HandoffStore, logger *slog.Logger) *Exchanger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exchanger{
		sessions: sessions,
		handoffs: handoffs,
		logger:   logger,
		results:  cache.NewLRUCache[ExchangeResult](maxRecordedExchanges, DefaultExchangeTTL),
	}
}

// Exchange trades sessionID for a session. The one-shot latch guarantees the
// backend sees at most one exchange per id regardless of how many times the
// callback fires.
func (e *Exchanger) Exchange(ctx context.Context, sessionID string) ExchangeResult {
	if prev, ok := e.results.Get(sessionID); ok {
		return prev
	}

	v, _, _ := e.flight.Do(sessionID, func() (any, error) {
		if prev, ok := e.results.Get(sessionID); ok {
			return prev, nil
		}
		res := e.exchange(ctx, sessionID)
		e.results.Set(sessionID, res)
		return res, nil
	})
	return v.(ExchangeResult)
}

func (e *Exchanger) exchange(ctx context.Context, sessionID string) ExchangeResult {
	user, cred, err := e.sessions.Exchange(ctx, sessionID)
	if err != nil {
		// Logged for diagnostics; the visitor only sees the login redirect.
		e.logger.ErrorContext(ctx, "session exchange failed", applog.FieldError, err)
		return ExchangeResult{Err: err}
	}
	res := ExchangeResult{User: user, Cred: cred}
	if e.handoffs != nil {
		res.Handoff = e.handoffs.Put(user)
	}
	e.logger.InfoContext(ctx, "session established", applog.FieldUserID, user.UserID)
	return res
}

// CleanExpired drops stale exchange records and returns how many were removed.
func (e *Exchanger) CleanExpired() int {
	return e.results.CleanExpired()
}
