package http

import (
	"io"
	"net/http"

	applog "zentrack/internal/log"
	"zentrack/internal/session"
)

// handleExportCSV streams the month's expenses as a CSV download. The
// backend produces the file; this side only relays the stream.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)
	if s.gate.Check(r.Context(), cred, "").State != session.StateAuthenticated {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	month := monthFromQuery(r)

	body, err := s.backend.ExportCSV(r.Context(), cred, month)
	if err != nil {
		s.writeBackendError(w, r, "export csv", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses_`+month.String()+`.csv"`)

	if _, err := io.Copy(w, body); err != nil {
		s.logger.WarnContext(r.Context(), "csv stream interrupted",
			applog.FieldMonth, month.String(), applog.FieldError, err)
	}
}
