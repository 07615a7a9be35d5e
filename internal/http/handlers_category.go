package http

import (
	"net/http"

	"zentrack/internal/core"
	applog "zentrack/internal/log"
	"zentrack/internal/session"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)
	if s.gate.Check(r.Context(), cred, "").State != session.StateAuthenticated {
		UnauthorizedResponse("/login?error=session_expired").Write(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid category data").Write(w)
		return
	}
	in := core.CategoryInput{
		Name:  sanitizeInput(r.Form.Get("name")),
		Color: sanitizeInput(r.Form.Get("color")),
	}
	if in.Color == "" {
		in.Color = core.FallbackColor
	}
	if err := in.Validate(); err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	created, err := s.backend.CreateCategory(r.Context(), cred, in)
	if err != nil {
		s.writeBackendError(w, r, "create category", err)
		return
	}

	s.logger.InfoContext(r.Context(), "category created",
		applog.FieldCategoryID, created.CategoryID,
		applog.FieldCategory, created.Name)

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerCategoriesChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Category added").
		Write(w)
}

// handleDeleteCategory forwards the delete and lets the backend refuse
// predefined categories; that refusal comes back as a 4xx.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)
	if s.gate.Check(r.Context(), cred, "").State != session.StateAuthenticated {
		UnauthorizedResponse("/login?error=session_expired").Write(w)
		return
	}

	categoryID := r.PathValue("id")
	if categoryID == "" {
		BadRequestError("Missing category id").Write(w)
		return
	}

	if err := s.backend.DeleteCategory(r.Context(), cred, categoryID); err != nil {
		s.writeBackendError(w, r, "delete category", err)
		return
	}

	s.logger.InfoContext(r.Context(), "category deleted",
		applog.FieldCategoryID, categoryID)

	NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerSuccessNotification("Category deleted").
		Write(w)
}
