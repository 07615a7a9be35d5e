package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"zentrack/internal/api"
	"zentrack/internal/core"
	applog "zentrack/internal/log"
)

// State is the authentication lifecycle of one page load:
// unauthenticated -> pending -> authenticated -> (logout) -> unauthenticated.
type State string

const (
	StatePending         State = "pending"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Result is what the gate decides for one navigation. Protected content must
// only render on StateAuthenticated; pending shows a neutral loading view and
// unauthenticated redirects to login.
type Result struct {
	State State
	User  core.User
	// Provisional marks an identity accepted on handoff from the handshake.
	// It is trusted for this render only; a background check re-validates it.
	Provisional bool
}

// Gate decides whether the current visitor may view protected content. It is
// an explicit value handed to every protected handler, never a hidden global.
type Gate struct {
	sessions api.SessionAPI
	handoffs *HandoffStore
	logger   *slog.Logger

	verifyTimeout time.Duration
	// observed after a background handoff verification finishes; tests hook it.
	afterVerify func(err error)
}

func NewGate(sessions api.SessionAPI, handoffs *HandoffStore, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		sessions:      sessions,
		handoffs:      handoffs,
		logger:        logger,
		verifyTimeout: 10 * time.Second,
	}
}

// Check resolves the gate for one navigation. A redeemable handoff token is
// accepted immediately without blocking on the network, but the identity is
// provisional: the "who am I" check still runs in the background so a forged
// or stale handoff cannot quietly extend a dead session. Without a handoff
// the check is synchronous and any failure lands on unauthenticated.
func (g *Gate) Check(ctx context.Context, cred api.Credential, handoffToken string) Result {
	if g.handoffs != nil && handoffToken != "" {
		if user, ok := g.handoffs.Redeem(handoffToken); ok {
			go g.verifyHandoff(cred, user)
			return Result{State: StateAuthenticated, User: user, Provisional: true}
		}
		// Spent or expired token: fall through to the normal check.
	}

	user, err := g.sessions.Me(ctx, cred)
	if err != nil {
		if !errors.Is(err, api.ErrUnauthenticated) {
			g.logger.WarnContext(ctx, "session check failed", applog.FieldError, err)
		}
		return Result{State: StateUnauthenticated}
	}
	return Result{State: StateAuthenticated, User: user}
}

// verifyHandoff re-validates a handed-off identity off the request path. The
// render already happened; this only surfaces divergence in the logs.
func (g *Gate) verifyHandoff(cred api.Credential, claimed core.User) {
	ctx, cancel := context.WithTimeout(context.Background(), g.verifyTimeout)
	defer cancel()

	verified, err := g.sessions.Me(ctx, cred)
	switch {
	case err != nil:
		g.logger.Warn("handoff verification failed", "claimed_user_id", claimed.UserID, applog.FieldError, err)
	case verified.UserID != claimed.UserID:
		g.logger.Error("handoff identity mismatch",
			"claimed_user_id", claimed.UserID, "verified_user_id", verified.UserID)
	}
	if g.afterVerify != nil {
		g.afterVerify(err)
	}
}

// Logout destroys the session server-side. The caller clears the cookie and
// redirects; the gate lands back on unauthenticated either way.
func (g *Gate) Logout(ctx context.Context, cred api.Credential) {
	if err := g.sessions.Logout(ctx, cred); err != nil {
		g.logger.WarnContext(ctx, "logout failed", applog.FieldError, err)
	}
}
