package http

import (
	"net/http"
	"time"

	"zentrack/internal/core"
	"zentrack/internal/dashboard"
	applog "zentrack/internal/log"
	"zentrack/internal/session"
)

// contentView is the template payload for one month of dashboard content.
type contentView struct {
	Month      string
	MonthLabel string
	PrevMonth  string
	NextMonth  string
	// AtBoundary disables forward navigation at the current month.
	AtBoundary bool

	Snapshot dashboard.Snapshot

	ExpensesFailed bool
	BudgetsFailed  bool
	StatsFailed    bool
}

// clampMonth pulls a future selection back to the month containing now, on
// the same calendar MonthOf uses. Comparing instants instead would disagree
// with the month arithmetic near a boundary in a non-UTC zone.
func clampMonth(m core.Month, now time.Time) core.Month {
	if cur := core.MonthOf(now); cur.Before(m) {
		return cur
	}
	return m
}

func buildContentView(snap dashboard.Snapshot, now time.Time) contentView {
	return contentView{
		Month:          snap.Month.String(),
		MonthLabel:     snap.Month.Label(),
		PrevMonth:      snap.Month.Prev().String(),
		NextMonth:      snap.Month.NextClamped(now).String(),
		AtBoundary:     snap.Month.AtBoundary(now),
		Snapshot:       snap,
		ExpensesFailed: snap.FailedSection(dashboard.SectionExpenses),
		BudgetsFailed:  snap.FailedSection(dashboard.SectionBudgets),
		StatsFailed:    snap.FailedSection(dashboard.SectionStats),
	}
}

// handleDashboard renders the full dashboard page. The gate runs first:
// nothing below it renders for an unauthenticated visitor.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)
	handoff := r.URL.Query().Get("handoff")

	res := s.gate.Check(r.Context(), cred, handoff)
	if res.State != session.StateAuthenticated {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	now := time.Now()
	month := clampMonth(monthFromQuery(r), now)

	visitor := visitorID(w, r)
	gen := s.tracker.Begin(visitor)

	snap, err := s.dash.Fetch(r.Context(), cred, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "dashboard load failed",
			applog.FieldMonth, month.String(), applog.FieldError, err)
		s.render(w, r, "dashboard_error_page", struct{ User core.User }{res.User})
		return
	}
	if !s.tracker.Commit(visitor, gen) {
		// A newer navigation for this visitor already started; this result
		// is stale and must not render.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	data := struct {
		User    core.User
		Content contentView
	}{
		User:    res.User,
		Content: buildContentView(snap, now),
	}
	s.render(w, r, "dashboard_page", data)
}

// handleDashboardContent serves the month content partial that htmx swaps in
// on month navigation and after mutations. Stale responses answer 204, which
// htmx leaves unswapped.
func (s *Server) handleDashboardContent(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)

	res := s.gate.Check(r.Context(), cred, "")
	if res.State != session.StateAuthenticated {
		UnauthorizedResponse("/login?error=session_expired").Write(w)
		return
	}

	now := time.Now()
	month := clampMonth(monthFromQuery(r), now)

	visitor := visitorID(w, r)
	gen := s.tracker.Begin(visitor)

	snap, err := s.dash.Fetch(r.Context(), cred, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "dashboard refresh failed",
			applog.FieldMonth, month.String(), applog.FieldError, err)
		BadGatewayError("Could not load this month. Please retry.").Write(w)
		return
	}
	if !s.tracker.Commit(visitor, gen) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.render(w, r, "dashboard_content", buildContentView(snap, now))
}
