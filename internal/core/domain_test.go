package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestExpenseInputValidate(t *testing.T) {
	good := ExpenseInput{
		Title:    "Groceries",
		Amount:   decimal.NewFromFloat(42.50),
		Category: "Food",
		Date:     NewDate(2024, time.March, 12),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []ExpenseInput{
		{Title: "", Amount: decimal.NewFromInt(1), Category: "Food", Date: good.Date},
		{Title: "  ", Amount: decimal.NewFromInt(1), Category: "Food", Date: good.Date},
		{Title: "a", Amount: decimal.Zero, Category: "Food", Date: good.Date},
		{Title: "a", Amount: decimal.NewFromInt(-5), Category: "Food", Date: good.Date},
		{Title: "a", Amount: decimal.NewFromInt(1), Category: "", Date: good.Date},
		{Title: "a", Amount: decimal.NewFromInt(1), Category: "Food"}, // zero date
	}
	for i, in := range bads {
		if err := in.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryInputValidate(t *testing.T) {
	cases := []struct {
		in CategoryInput
		ok bool
	}{
		{CategoryInput{Name: "Fitness", Color: "#E15554"}, true},
		{CategoryInput{Name: "Fitness", Color: "#abc"}, true},
		{CategoryInput{Name: "", Color: "#E15554"}, false},
		{CategoryInput{Name: "Fitness", Color: "E15554"}, false},
		{CategoryInput{Name: "Fitness", Color: "#E1555"}, false},
		{CategoryInput{Name: "Fitness", Color: "#gggggg"}, false},
	}
	for i, tc := range cases {
		err := tc.in.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetInputValidate(t *testing.T) {
	good := BudgetInput{Category: "Food", Amount: decimal.NewFromInt(800), Month: Month{2024, time.March}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (BudgetInput{Category: "", Amount: decimal.NewFromInt(1), Month: good.Month}).Validate(); err == nil {
		t.Fatal("expected error for empty category")
	}
	if err := (BudgetInput{Category: "Food", Amount: decimal.Zero, Month: good.Month}).Validate(); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if err := (BudgetInput{Category: "Food", Amount: decimal.NewFromInt(1)}).Validate(); err == nil {
		t.Fatal("expected error for zero month")
	}
}

func TestExpenseJSONWireShape(t *testing.T) {
	raw := `{"expense_id":"exp_1","title":"Coffee","amount":3.5,"category":"Food","date":"2024-03-12","notes":"oat milk"}`
	var e Expense
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ExpenseID != "exp_1" || e.Category != "Food" || e.Date.String() != "2024-03-12" {
		t.Fatalf("unexpected decode: %+v", e)
	}
	if !e.Amount.Equal(decimal.NewFromFloat(3.5)) {
		t.Fatalf("amount = %s", e.Amount)
	}

	// Lists may carry full timestamps in the date field.
	raw = `{"expense_id":"exp_2","title":"Rent","amount":900,"category":"Bills","date":"2024-03-01T00:00:00Z"}`
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal rfc3339 date: %v", err)
	}
	if e.Date.String() != "2024-03-01" {
		t.Fatalf("date = %s", e.Date)
	}
}

func TestStatsJSONWireShape(t *testing.T) {
	raw := `{"month":"2024-03","total":1500,"count":3,"by_category":{"Food":1000,"Transport":500}}`
	var s MonthlyStats
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Month != (Month{2024, time.March}) || s.Count != 3 {
		t.Fatalf("unexpected decode: %+v", s)
	}
	if !s.ByCategory["Food"].Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("by_category = %v", s.ByCategory)
	}
}
