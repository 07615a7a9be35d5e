package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"zentrack/internal/api"
	"zentrack/internal/core"
	applog "zentrack/internal/log"
	"zentrack/internal/session"
)

// expenseInputFromForm builds an ExpenseInput from form values. The date
// defaults to today when absent so quick entry stays quick.
func expenseInputFromForm(r *http.Request) (core.ExpenseInput, error) {
	if err := r.ParseForm(); err != nil {
		return core.ExpenseInput{}, err
	}

	in := core.ExpenseInput{
		Title:    sanitizeInput(r.Form.Get("title")),
		Category: sanitizeInput(r.Form.Get("category")),
		Notes:    sanitizeInput(r.Form.Get("notes")),
	}

	if v := strings.TrimSpace(r.Form.Get("amount")); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return core.ExpenseInput{}, core.ErrInvalidAmount
		}
		in.Amount = amount
	}

	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		date, err := core.ParseDate(v)
		if err != nil {
			return core.ExpenseInput{}, err
		}
		in.Date = date
	} else {
		in.Date = core.Today()
	}

	return in, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)
	if s.gate.Check(r.Context(), cred, "").State != session.StateAuthenticated {
		UnauthorizedResponse("/login?error=session_expired").Write(w)
		return
	}

	in, err := expenseInputFromForm(r)
	if err != nil {
		BadRequestError("Invalid expense data").Write(w)
		return
	}
	if err := in.Validate(); err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	created, err := s.backend.CreateExpense(r.Context(), cred, in)
	if err != nil {
		s.writeBackendError(w, r, "create expense", err)
		return
	}

	s.logger.InfoContext(r.Context(), "expense created",
		applog.FieldExpenseID, created.ExpenseID,
		applog.FieldCategory, created.Category)

	month := created.Date.InMonth().String()
	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerExpensesChanged(month).
		TriggerFormReset().
		TriggerSuccessNotification("Expense added").
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)
	if s.gate.Check(r.Context(), cred, "").State != session.StateAuthenticated {
		UnauthorizedResponse("/login?error=session_expired").Write(w)
		return
	}

	expenseID := r.PathValue("id")
	if expenseID == "" {
		BadRequestError("Missing expense id").Write(w)
		return
	}

	in, err := expenseInputFromForm(r)
	if err != nil {
		BadRequestError("Invalid expense data").Write(w)
		return
	}
	if err := in.Validate(); err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	updated, err := s.backend.UpdateExpense(r.Context(), cred, expenseID, in)
	if err != nil {
		s.writeBackendError(w, r, "update expense", err)
		return
	}

	s.logger.InfoContext(r.Context(), "expense updated",
		applog.FieldExpenseID, updated.ExpenseID)

	month := updated.Date.InMonth().String()
	NewHTMXResponse().
		TriggerExpensesChanged(month).
		TriggerFormReset().
		TriggerSuccessNotification("Expense updated").
		Write(w)
}

// handleDeleteExpense issues exactly one backend delete; the confirmation
// step lives in the markup (hx-confirm), so an unconfirmed click never
// reaches this handler.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)
	if s.gate.Check(r.Context(), cred, "").State != session.StateAuthenticated {
		UnauthorizedResponse("/login?error=session_expired").Write(w)
		return
	}

	expenseID := r.PathValue("id")
	if expenseID == "" {
		BadRequestError("Missing expense id").Write(w)
		return
	}

	if err := s.backend.DeleteExpense(r.Context(), cred, expenseID); err != nil {
		s.writeBackendError(w, r, "delete expense", err)
		return
	}

	s.logger.InfoContext(r.Context(), "expense deleted",
		applog.FieldExpenseID, expenseID)

	month := monthFromQuery(r).String()
	NewHTMXResponse().
		TriggerExpensesChanged(month).
		TriggerSuccessNotification("Expense deleted").
		Write(w)
}

// writeBackendError translates backend failures into HTMX responses.
func (s *Server) writeBackendError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, api.ErrUnauthenticated) {
		UnauthorizedResponse("/login?error=session_expired").Write(w)
		return
	}

	s.logger.ErrorContext(r.Context(), "backend call failed",
		"op", op, applog.FieldError, err)

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
		ErrorResponse(statusErr.StatusCode, "The request was rejected").
			TriggerErrorNotification("The request was rejected").
			Write(w)
		return
	}

	BadGatewayError("Something went wrong. Please retry.").
		TriggerErrorNotification("Something went wrong. Please retry.").
		Write(w)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyTitle):
		return "Title is required"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number"
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category is required"
	case errors.Is(err, core.ErrEmptyName):
		return "Name is required"
	case errors.Is(err, core.ErrInvalidColor):
		return "Color must be a hex value like #AABBCC"
	default:
		return "Invalid input"
	}
}
