package http

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"zentrack/internal/api"
	"zentrack/internal/core"
	applog "zentrack/internal/log"
)

const visitorCookieName = "zt_visitor"

// credentialFrom reads the session cookie. A missing cookie yields a zero
// credential, which the backend client treats as unauthenticated without a
// network call.
func credentialFrom(r *http.Request) api.Credential {
	c, err := r.Cookie(api.SessionCookieName)
	if err != nil {
		return api.Credential{}
	}
	return api.Credential{Token: c.Value}
}

// visitorID identifies a browser for month-navigation bookkeeping. It is not
// a security boundary, so a client-provided value is accepted as-is.
func visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// monthFromQuery parses the month query parameter, falling back to the
// current month reported by the server clock.
func monthFromQuery(r *http.Request) core.Month {
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := core.ParseMonth(v); err == nil {
			return m
		}
	}
	return core.MonthOf(time.Now())
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatAmount renders a money value like "$12.34".
func formatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"amount": formatAmount,
		"pctWidth": func(pct decimal.Decimal) string {
			capped := pct
			if capped.GreaterThan(decimal.NewFromInt(100)) {
				capped = decimal.NewFromInt(100)
			}
			return capped.StringFixed(0)
		},
		"pct": func(p decimal.Decimal) string {
			return p.StringFixed(0)
		},
		// share of total as a 0-100 width for chart bars
		"share": func(part, total decimal.Decimal) string {
			if !total.IsPositive() {
				return "0"
			}
			return part.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(0)
		},
	}
}

// render executes a named template, reporting failures as 500s.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "template execution failed",
			"template", name, applog.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// setSessionCookie relays the upstream session credential to the browser.
func setSessionCookie(w http.ResponseWriter, cred api.Credential) {
	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    cred.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   7 * 24 * 60 * 60,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
