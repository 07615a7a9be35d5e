package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"zentrack/internal/session"
)

// handleRoot serves the landing page. The identity provider redirects here
// with the one-time session id in the URL fragment, which only the browser
// can see; the page's bootstrap script lifts it out of the fragment and
// POSTs it to /auth/callback, or moves on to the dashboard when no fragment
// is present.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "landing_page", nil)
}

// handleLogin renders the login view with the provider redirect URL.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	data := struct {
		LoginURL string
		Error    string
	}{
		LoginURL: s.cfg.LoginRedirectURL(),
		Error:    loginErrorMessage(r.URL.Query().Get("error")),
	}
	s.render(w, r, "login_page", data)
}

func loginErrorMessage(code string) string {
	switch code {
	case "auth_failed":
		return "Sign-in failed. Please try again."
	case "session_expired":
		return "Your session has expired. Please sign in again."
	default:
		return ""
	}
}

// callbackRequest is the payload the landing page script sends after lifting
// the session id out of the URL fragment.
type callbackRequest struct {
	SessionID string `json:"session_id"`
}

type callbackResponse struct {
	Redirect string `json:"redirect"`
}

// handleAuthCallback exchanges the one-time session id for an established
// session. A missing id short-circuits to the login page without touching
// the backend. On success the backend's session cookie is relayed to the
// browser and the response points at the dashboard with a one-time handoff
// token, so the very next page load authenticates without re-checking.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	sessionID := callbackSessionID(r)
	if sessionID == "" {
		writeCallbackRedirect(w, "/login")
		return
	}

	res := s.exchanger.Exchange(r.Context(), sessionID)
	if res.Err != nil {
		writeCallbackRedirect(w, "/login?error=auth_failed")
		return
	}

	setSessionCookie(w, res.Cred)
	writeCallbackRedirect(w, "/dashboard?handoff="+res.Handoff)
}

func callbackSessionID(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") {
		var req callbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return ""
		}
		return strings.TrimSpace(req.SessionID)
	}

	if err := r.ParseForm(); err != nil {
		return ""
	}
	if v := strings.TrimSpace(r.Form.Get("session_id")); v != "" {
		return v
	}
	// The script may also hand over the whole fragment untouched.
	if frag := r.Form.Get("fragment"); frag != "" {
		if id, ok := session.ParseFragment(frag); ok {
			return id
		}
	}
	return ""
}

func writeCallbackRedirect(w http.ResponseWriter, target string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(callbackResponse{Redirect: target})
}

// handleLogout destroys the session server-side, clears the cookie and sends
// the browser back to the login page. Backend failures do not block the
// local logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cred := credentialFrom(r)
	if !cred.IsZero() {
		s.gate.Logout(r.Context(), cred)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
