package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"zentrack/internal/api"
	"zentrack/internal/core"
)

// fakeSessions implements api.SessionAPI with scripted outcomes.
type fakeSessions struct {
	mu            sync.Mutex
	exchangeCalls int32
	meCalls       int32
	exchangeErr   error
	meErr         error
	user          core.User
	cred          api.Credential
}

func (f *fakeSessions) Me(ctx context.Context, cred api.Credential) (core.User, error) {
	atomic.AddInt32(&f.meCalls, 1)
	if f.meErr != nil {
		return core.User{}, f.meErr
	}
	if cred.IsZero() {
		return core.User{}, api.ErrUnauthenticated
	}
	return f.user, nil
}

func (f *fakeSessions) Exchange(ctx context.Context, sessionID string) (core.User, api.Credential, error) {
	atomic.AddInt32(&f.exchangeCalls, 1)
	if f.exchangeErr != nil {
		return core.User{}, api.Credential{}, f.exchangeErr
	}
	return f.user, f.cred, nil
}

func (f *fakeSessions) Logout(ctx context.Context, cred api.Credential) error { return nil }

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		user: core.User{UserID: "user_1", Name: "Ada", Email: "ada@example.com"},
		cred: api.Credential{Token: "fresh-token"},
	}
}

func TestParseFragment(t *testing.T) {
	cases := []struct {
		fragment string
		want     string
		ok       bool
	}{
		{"session_id=abc123", "abc123", true},
		{"#session_id=abc123", "abc123", true},
		{"foo=bar&session_id=abc123", "abc123", true},
		{"session_id=a%2Fb", "a/b", true},
		{"foo=bar", "", false},
		{"session_id=", "", false},
		{"", "", false},
		{"%zz", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseFragment(tc.fragment)
		require.Equal(t, tc.ok, ok, "fragment %q", tc.fragment)
		require.Equal(t, tc.want, got, "fragment %q", tc.fragment)
	}
}

func TestExchangeHappyPath(t *testing.T) {
	fake := newFakeSessions()
	handoffs := NewHandoffStore(0)
	ex := NewExchanger(fake, handoffs, nil)

	res := ex.Exchange(context.Background(), "one-time-id")
	require.NoError(t, res.Err)
	require.Equal(t, "user_1", res.User.UserID)
	require.Equal(t, "fresh-token", res.Cred.Token)
	require.NotEmpty(t, res.Handoff)

	user, ok := handoffs.Redeem(res.Handoff)
	require.True(t, ok)
	require.Equal(t, "user_1", user.UserID)
}

func TestExchangeFiresAtMostOncePerID(t *testing.T) {
	fake := newFakeSessions()
	ex := NewExchanger(fake, NewHandoffStore(0), nil)

	// Simulates the callback firing twice for the same redirect.
	first := ex.Exchange(context.Background(), "dup-id")
	second := ex.Exchange(context.Background(), "dup-id")

	require.EqualValues(t, 1, atomic.LoadInt32(&fake.exchangeCalls))
	require.NoError(t, first.Err)
	require.Equal(t, first.User, second.User)
	require.Equal(t, first.Cred, second.Cred)
}

func TestExchangeConcurrentDuplicatesCollapse(t *testing.T) {
	fake := newFakeSessions()
	ex := NewExchanger(fake, NewHandoffStore(0), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := ex.Exchange(context.Background(), "race-id")
			require.NoError(t, res.Err)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, atomic.LoadInt32(&fake.exchangeCalls))
}

func TestExchangeFailureIsTerminal(t *testing.T) {
	fake := newFakeSessions()
	fake.exchangeErr = errors.New("upstream said no")
	ex := NewExchanger(fake, NewHandoffStore(0), nil)

	first := ex.Exchange(context.Background(), "bad-id")
	require.Error(t, first.Err)

	// No retry: the recorded failure replays without a second network call.
	second := ex.Exchange(context.Background(), "bad-id")
	require.Error(t, second.Err)
	require.EqualValues(t, 1, atomic.LoadInt32(&fake.exchangeCalls))
}

func TestExchangeDistinctIDsAreIndependent(t *testing.T) {
	fake := newFakeSessions()
	ex := NewExchanger(fake, NewHandoffStore(0), nil)

	ex.Exchange(context.Background(), "id-a")
	ex.Exchange(context.Background(), "id-b")
	require.EqualValues(t, 2, atomic.LoadInt32(&fake.exchangeCalls))
}
