package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuilderSetsTriggersHeader(t *testing.T) {
	rec := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerExpensesChanged("2026-08").
		TriggerFormReset().
		TriggerSuccessNotification("Expense added").
		Write(rec)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	for _, name := range []string{"expenses:changed", "form:reset", "show-notification"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("missing trigger %q", name)
		}
	}

	var changed struct {
		Month string `json:"month"`
	}
	if err := json.Unmarshal(triggers["expenses:changed"], &changed); err != nil {
		t.Fatalf("decode expenses:changed: %v", err)
	}
	if changed.Month != "2026-08" {
		t.Errorf("month = %q, want 2026-08", changed.Month)
	}
}

func TestBuilderNoTriggersNoHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTMXResponse().Status(http.StatusNoContent).Write(rec)

	if rec.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger set without any triggers")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestErrorResponseEscapesHTML(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequestError(`<script>alert("x")</script>`).Write(rec)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("error body contains unescaped HTML")
	}
	if !strings.Contains(body, `class="error"`) {
		t.Error("error body missing error wrapper")
	}
}

func TestUnauthorizedResponseRedirects(t *testing.T) {
	rec := httptest.NewRecorder()
	UnauthorizedResponse("/login").Write(rec)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q, want /login", got)
	}
}
