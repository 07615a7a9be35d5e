package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// User is the identity returned by the backend. Read-only on this side:
	// the backend creates and updates it during the session exchange.
	User struct {
		UserID    string    `json:"user_id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Picture   string    `json:"picture,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Category carries display metadata for expenses and budgets. Expense and
	// Budget records reference it by Name, not by CategoryID: that is the wire
	// contract of the backend, so renaming a category detaches its history.
	Category struct {
		CategoryID   string `json:"category_id"`
		Name         string `json:"name"`
		Color        string `json:"color"`
		IsPredefined bool   `json:"is_predefined,omitempty"`
	}

	Expense struct {
		ExpenseID string          `json:"expense_id"`
		Title     string          `json:"title"`
		Amount    decimal.Decimal `json:"amount"`
		Category  string          `json:"category"`
		Date      Date            `json:"date"`
		Notes     string          `json:"notes,omitempty"`
	}

	Budget struct {
		BudgetID string          `json:"budget_id"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Month    Month           `json:"month"`
	}

	// MonthlyStats is the server-computed aggregate for one month. Never
	// mutated here; mutating expenses and refetching is the only way it moves.
	MonthlyStats struct {
		Month      Month                      `json:"month"`
		Total      decimal.Decimal            `json:"total"`
		Count      int                        `json:"count"`
		ByCategory map[string]decimal.Decimal `json:"by_category"`
	}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidColor  = errors.New("invalid color")
)

const maxTitleLen = 200

// ExpenseInput is the payload for creating or updating an expense.
type ExpenseInput struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     Date            `json:"date"`
	Notes    string          `json:"notes,omitempty"`
}

func (in ExpenseInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if len(in.Title) > maxTitleLen {
		return errors.New("title too long (max 200 characters)")
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	return in.Date.Validate()
}

// CategoryInput is the payload for creating a category.
type CategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if !validHexColor(in.Color) {
		return ErrInvalidColor
	}
	return nil
}

// BudgetInput is the payload for setting a budget ceiling. The backend
// upserts on (category, month); at most one ceiling exists per pair.
type BudgetInput struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Month    Month           `json:"month"`
}

func (in BudgetInput) Validate() error {
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return in.Month.Validate()
}

// validHexColor accepts #RGB and #RRGGBB forms.
func validHexColor(s string) bool {
	if len(s) != 4 && len(s) != 7 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
