package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"zentrack/internal/core"
	applog "zentrack/internal/log"
	"zentrack/internal/session"
)

// handleSetBudget creates or replaces the limit for one category and month.
// The backend upserts on (category, month), so submitting the form twice
// adjusts the limit instead of duplicating it.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)
	if s.gate.Check(r.Context(), cred, "").State != session.StateAuthenticated {
		UnauthorizedResponse("/login?error=session_expired").Write(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid budget data").Write(w)
		return
	}

	in := core.BudgetInput{
		Category: sanitizeInput(r.Form.Get("category")),
	}
	if v := strings.TrimSpace(r.Form.Get("amount")); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			UnprocessableEntityError("Amount must be a positive number").Write(w)
			return
		}
		in.Amount = amount
	}
	if v := strings.TrimSpace(r.Form.Get("month")); v != "" {
		month, err := core.ParseMonth(v)
		if err != nil {
			BadRequestError("Invalid month").Write(w)
			return
		}
		in.Month = month
	} else {
		in.Month = monthFromQuery(r)
	}

	if err := in.Validate(); err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	saved, err := s.backend.SetBudget(r.Context(), cred, in)
	if err != nil {
		s.writeBackendError(w, r, "set budget", err)
		return
	}

	s.logger.InfoContext(r.Context(), "budget saved",
		applog.FieldCategory, saved.Category,
		applog.FieldMonth, saved.Month.String())

	NewHTMXResponse().
		TriggerBudgetsChanged(saved.Month.String()).
		TriggerFormReset().
		TriggerSuccessNotification("Budget saved").
		Write(w)
}
