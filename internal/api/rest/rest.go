// Package rest implements the backend ports over HTTP with JSON bodies.
// Every request carries the visitor's session cookie; the backend never sees
// bearer tokens in headers.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"zentrack/internal/api"
	"zentrack/internal/core"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// Ensure interface conformance
var _ api.Backend = (*Client)(nil)

// New creates a backend client for the given base URL, e.g.
// "https://api.zentrack.example". A nil httpClient gets a 10s timeout default.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// do issues one request and decodes a 2xx JSON body into out (if non-nil).
// 401 and 403 map to api.ErrUnauthenticated; other non-2xx statuses become
// *api.StatusError. Returns the raw response only on success with out == nil
// so streaming callers can take over the body.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, cred api.Credential, body, out any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if !cred.IsZero() {
		req.AddCookie(&http.Cookie{Name: api.SessionCookieName, Value: cred.Token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		drain(resp)
		return nil, fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, api.ErrUnauthenticated)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp)
		return nil, &api.StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return resp, nil
	}
	defer drain(resp)
	// An empty 2xx body is fine for mutation acks.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return resp, nil
}

// drain discards and closes the body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func (c *Client) Me(ctx context.Context, cred api.Credential) (core.User, error) {
	if cred.IsZero() {
		// No ambient credential: skip the round-trip entirely.
		return core.User{}, api.ErrUnauthenticated
	}
	var u core.User
	_, err := c.do(ctx, "auth.me", http.MethodGet, "/api/auth/me", nil, cred, nil, &u)
	return u, err
}

func (c *Client) Exchange(ctx context.Context, sessionID string) (core.User, api.Credential, error) {
	payload := struct {
		SessionID string `json:"session_id"`
	}{SessionID: sessionID}

	var u core.User
	resp, err := c.do(ctx, "auth.exchange", http.MethodPost, "/api/auth/session", nil, api.Credential{}, payload, nil)
	if err != nil {
		return core.User{}, api.Credential{}, err
	}
	defer drain(resp)

	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return core.User{}, api.Credential{}, fmt.Errorf("auth.exchange: decode user: %w", err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == api.SessionCookieName && ck.Value != "" {
			return u, api.Credential{Token: ck.Value}, nil
		}
	}
	return core.User{}, api.Credential{}, fmt.Errorf("auth.exchange: response carried no %s cookie", api.SessionCookieName)
}

func (c *Client) Logout(ctx context.Context, cred api.Credential) error {
	_, err := c.do(ctx, "auth.logout", http.MethodPost, "/api/auth/logout", nil, cred, nil, &struct{}{})
	return err
}

func (c *Client) ListCategories(ctx context.Context, cred api.Credential) ([]core.Category, error) {
	var cats []core.Category
	_, err := c.do(ctx, "categories.list", http.MethodGet, "/api/categories", nil, cred, nil, &cats)
	return cats, err
}

func (c *Client) CreateCategory(ctx context.Context, cred api.Credential, in core.CategoryInput) (core.Category, error) {
	var cat core.Category
	_, err := c.do(ctx, "categories.create", http.MethodPost, "/api/categories", nil, cred, in, &cat)
	return cat, err
}

func (c *Client) DeleteCategory(ctx context.Context, cred api.Credential, categoryID string) error {
	_, err := c.do(ctx, "categories.delete", http.MethodDelete, "/api/categories/"+url.PathEscape(categoryID), nil, cred, nil, &struct{}{})
	return err
}

func (c *Client) ListExpenses(ctx context.Context, cred api.Credential, month core.Month) ([]core.Expense, error) {
	q := url.Values{"month": {month.String()}}
	var exps []core.Expense
	_, err := c.do(ctx, "expenses.list", http.MethodGet, "/api/expenses", q, cred, nil, &exps)
	return exps, err
}

func (c *Client) CreateExpense(ctx context.Context, cred api.Credential, in core.ExpenseInput) (core.Expense, error) {
	var e core.Expense
	_, err := c.do(ctx, "expenses.create", http.MethodPost, "/api/expenses", nil, cred, in, &e)
	return e, err
}

func (c *Client) UpdateExpense(ctx context.Context, cred api.Credential, expenseID string, in core.ExpenseInput) (core.Expense, error) {
	var e core.Expense
	_, err := c.do(ctx, "expenses.update", http.MethodPut, "/api/expenses/"+url.PathEscape(expenseID), nil, cred, in, &e)
	return e, err
}

func (c *Client) DeleteExpense(ctx context.Context, cred api.Credential, expenseID string) error {
	_, err := c.do(ctx, "expenses.delete", http.MethodDelete, "/api/expenses/"+url.PathEscape(expenseID), nil, cred, nil, &struct{}{})
	return err
}

func (c *Client) ListBudgets(ctx context.Context, cred api.Credential) ([]core.Budget, error) {
	var budgets []core.Budget
	_, err := c.do(ctx, "budgets.list", http.MethodGet, "/api/budgets", nil, cred, nil, &budgets)
	return budgets, err
}

func (c *Client) SetBudget(ctx context.Context, cred api.Credential, in core.BudgetInput) (core.Budget, error) {
	var b core.Budget
	_, err := c.do(ctx, "budgets.set", http.MethodPost, "/api/budgets", nil, cred, in, &b)
	return b, err
}

func (c *Client) MonthlyStats(ctx context.Context, cred api.Credential, month core.Month) (core.MonthlyStats, error) {
	q := url.Values{"month": {month.String()}}
	var s core.MonthlyStats
	_, err := c.do(ctx, "stats.monthly", http.MethodGet, "/api/stats/monthly", q, cred, nil, &s)
	return s, err
}

func (c *Client) ExportCSV(ctx context.Context, cred api.Credential, month core.Month) (io.ReadCloser, error) {
	q := url.Values{"month": {month.String()}}
	resp, err := c.do(ctx, "export.csv", http.MethodGet, "/api/export/csv", q, cred, nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
