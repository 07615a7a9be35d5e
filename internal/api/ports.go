// Package api defines the ports toward the ZenTrack backend. The backend
// owns every authoritative copy of users, categories, expenses, budgets and
// stats; this side only fetches snapshots and pushes mutations through the
// operations below.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"

	"zentrack/internal/core"
)

// SessionCookieName is the cookie the backend sets on a successful session
// exchange and expects back on every call.
const SessionCookieName = "session_token"

// Credential is the ambient session credential of one visitor. It is opaque:
// nothing here inspects it beyond presence.
type Credential struct {
	Token string
}

// IsZero reports whether no credential is present.
func (c Credential) IsZero() bool { return c.Token == "" }

// ErrUnauthenticated covers every authentication failure: missing, invalid
// or expired sessions all collapse into it, and callers resolve it by
// redirecting to the login view.
var ErrUnauthenticated = errors.New("unauthenticated")

// StatusError reports a non-2xx backend response that is not an
// authentication failure.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
}

// Ports for the backend, one per collection.
type (
	SessionAPI interface {
		// Me resolves the ambient credential to a user, or ErrUnauthenticated.
		Me(ctx context.Context, cred Credential) (core.User, error)
		// Exchange trades a one-time session id for an established session.
		// The returned credential is the cookie the backend set.
		Exchange(ctx context.Context, sessionID string) (core.User, Credential, error)
		// Logout destroys the session server-side.
		Logout(ctx context.Context, cred Credential) error
	}

	CategoryAPI interface {
		ListCategories(ctx context.Context, cred Credential) ([]core.Category, error)
		CreateCategory(ctx context.Context, cred Credential, in core.CategoryInput) (core.Category, error)
		// DeleteCategory fails for predefined categories; the backend decides.
		DeleteCategory(ctx context.Context, cred Credential, categoryID string) error
	}

	ExpenseAPI interface {
		// ListExpenses is always month-scoped, newest first.
		ListExpenses(ctx context.Context, cred Credential, month core.Month) ([]core.Expense, error)
		CreateExpense(ctx context.Context, cred Credential, in core.ExpenseInput) (core.Expense, error)
		UpdateExpense(ctx context.Context, cred Credential, expenseID string, in core.ExpenseInput) (core.Expense, error)
		DeleteExpense(ctx context.Context, cred Credential, expenseID string) error
	}

	BudgetAPI interface {
		// ListBudgets returns every budget; month filtering happens client-side.
		ListBudgets(ctx context.Context, cred Credential) ([]core.Budget, error)
		// SetBudget upserts on (category, month).
		SetBudget(ctx context.Context, cred Credential, in core.BudgetInput) (core.Budget, error)
	}

	StatsAPI interface {
		MonthlyStats(ctx context.Context, cred Credential, month core.Month) (core.MonthlyStats, error)
	}

	Exporter interface {
		// ExportCSV streams the pre-formatted export document for one month.
		ExportCSV(ctx context.Context, cred Credential, month core.Month) (io.ReadCloser, error)
	}
)

// Backend bundles every port. Handlers receive the narrow interfaces; the
// composition exists for wiring in main.
type Backend interface {
	SessionAPI
	CategoryAPI
	ExpenseAPI
	BudgetAPI
	StatsAPI
	Exporter
}
