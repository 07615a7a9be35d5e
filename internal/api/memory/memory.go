// Package memory is an in-process stand-in for the backend, used for local
// development and tests. It accepts any session id during the exchange and
// seeds the same predefined categories the real backend creates on first
// login.
package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"zentrack/internal/api"
	"zentrack/internal/core"
)

type Store struct {
	mu       sync.Mutex
	user     core.User
	sessions map[string]bool
	cats     []core.Category
	expenses []core.Expense
	budgets  []core.Budget
}

// Ensure interface conformance
var _ api.Backend = (*Store)(nil)

var predefined = []core.CategoryInput{
	{Name: "Food", Color: "#E15554"},
	{Name: "Transport", Color: "#3D9970"},
	{Name: "Bills", Color: "#2E4F4F"},
	{Name: "Shopping", Color: "#F59E0B"},
	{Name: "Entertainment", Color: "#8B5CF6"},
	{Name: "Healthcare", Color: "#EC4899"},
	{Name: "Other", Color: "#6B7280"},
}

func New() *Store {
	s := &Store{
		user: core.User{
			UserID:    "user_" + uuid.NewString()[:12],
			Email:     "dev@zentrack.local",
			Name:      "Dev User",
			CreatedAt: time.Now().UTC(),
		},
		sessions: make(map[string]bool),
	}
	for _, in := range predefined {
		s.cats = append(s.cats, core.Category{
			CategoryID:   "cat_" + uuid.NewString()[:12],
			Name:         in.Name,
			Color:        in.Color,
			IsPredefined: true,
		})
	}
	return s
}

func (s *Store) check(cred api.Credential) error {
	if cred.IsZero() || !s.sessions[cred.Token] {
		return api.ErrUnauthenticated
	}
	return nil
}

func (s *Store) Me(_ context.Context, cred api.Credential) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return core.User{}, err
	}
	return s.user, nil
}

func (s *Store) Exchange(_ context.Context, sessionID string) (core.User, api.Credential, error) {
	if strings.TrimSpace(sessionID) == "" {
		return core.User{}, api.Credential{}, api.ErrUnauthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.sessions[token] = true
	return s.user, api.Credential{Token: token}, nil
}

func (s *Store) Logout(_ context.Context, cred api.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, cred.Token)
	return nil
}

func (s *Store) ListCategories(_ context.Context, cred api.Credential) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return nil, err
	}
	return append([]core.Category(nil), s.cats...), nil
}

func (s *Store) CreateCategory(_ context.Context, cred api.Credential, in core.CategoryInput) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return core.Category{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	cat := core.Category{
		CategoryID: "cat_" + uuid.NewString()[:12],
		Name:       in.Name,
		Color:      in.Color,
	}
	s.cats = append(s.cats, cat)
	return cat, nil
}

func (s *Store) DeleteCategory(_ context.Context, cred api.Credential, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return err
	}
	for i, c := range s.cats {
		if c.CategoryID != categoryID {
			continue
		}
		if c.IsPredefined {
			return &api.StatusError{Op: "categories.delete", StatusCode: 400}
		}
		s.cats = append(s.cats[:i], s.cats[i+1:]...)
		return nil
	}
	return &api.StatusError{Op: "categories.delete", StatusCode: 404}
}

func (s *Store) ListExpenses(_ context.Context, cred api.Credential, month core.Month) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return nil, err
	}
	var out []core.Expense
	for _, e := range s.expenses {
		if e.Date.InMonth() == month {
			out = append(out, e)
		}
	}
	// Newest first, like the backend.
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, cred api.Credential, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return core.Expense{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		ExpenseID: "exp_" + uuid.NewString()[:12],
		Title:     in.Title,
		Amount:    in.Amount,
		Category:  in.Category,
		Date:      in.Date,
		Notes:     in.Notes,
	}
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, cred api.Credential, expenseID string, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return core.Expense{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	for i, e := range s.expenses {
		if e.ExpenseID == expenseID {
			s.expenses[i] = core.Expense{
				ExpenseID: expenseID,
				Title:     in.Title,
				Amount:    in.Amount,
				Category:  in.Category,
				Date:      in.Date,
				Notes:     in.Notes,
			}
			return s.expenses[i], nil
		}
	}
	return core.Expense{}, &api.StatusError{Op: "expenses.update", StatusCode: 404}
}

func (s *Store) DeleteExpense(_ context.Context, cred api.Credential, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return err
	}
	for i, e := range s.expenses {
		if e.ExpenseID == expenseID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return &api.StatusError{Op: "expenses.delete", StatusCode: 404}
}

func (s *Store) ListBudgets(_ context.Context, cred api.Credential) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return nil, err
	}
	return append([]core.Budget(nil), s.budgets...), nil
}

func (s *Store) SetBudget(_ context.Context, cred api.Credential, in core.BudgetInput) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cred); err != nil {
		return core.Budget{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Budget{}, err
	}
	// Upsert on (category, month).
	for i, b := range s.budgets {
		if b.Category == in.Category && b.Month == in.Month {
			s.budgets[i].Amount = in.Amount
			return s.budgets[i], nil
		}
	}
	b := core.Budget{
		BudgetID: "budget_" + uuid.NewString()[:12],
		Category: in.Category,
		Amount:   in.Amount,
		Month:    in.Month,
	}
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) MonthlyStats(ctx context.Context, cred api.Credential, month core.Month) (core.MonthlyStats, error) {
	exps, err := s.ListExpenses(ctx, cred, month)
	if err != nil {
		return core.MonthlyStats{}, err
	}
	stats := core.MonthlyStats{
		Month:      month,
		ByCategory: make(map[string]decimal.Decimal),
	}
	for _, e := range exps {
		stats.Total = stats.Total.Add(e.Amount)
		stats.Count++
		stats.ByCategory[e.Category] = stats.ByCategory[e.Category].Add(e.Amount)
	}
	return stats, nil
}

func (s *Store) ExportCSV(ctx context.Context, cred api.Credential, month core.Month) (io.ReadCloser, error) {
	exps, err := s.ListExpenses(ctx, cred, month)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("Date,Title,Category,Amount,Notes\n")
	for _, e := range exps {
		notes := strings.ReplaceAll(e.Notes, ",", ";")
		fmt.Fprintf(&sb, "%s,%s,%s,%s,%s\n", e.Date, e.Title, e.Category, e.Amount, notes)
	}
	return io.NopCloser(strings.NewReader(sb.String())), nil
}
