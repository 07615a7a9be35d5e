// Package dashboard keeps the four server-backed collections of the main
// view — categories, expenses, budgets, stats — consistent with the selected
// month. Every render re-reads ground truth: there is no optimistic local
// update anywhere, which trades a little latency for zero client/server
// divergence.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"zentrack/internal/api"
	"zentrack/internal/core"
	applog "zentrack/internal/log"
)

// Section names a refetchable slice of the snapshot, used to report partial
// read failures without blanking the rest of the view.
type Section string

const (
	SectionExpenses Section = "expenses"
	SectionBudgets  Section = "budgets"
	SectionStats    Section = "stats"
)

// Snapshot is everything one dashboard render needs, fetched fresh.
type Snapshot struct {
	Month      core.Month
	Categories []core.Category
	Expenses   []core.Expense
	Budgets    []core.Budget // already filtered to Month
	Stats      core.MonthlyStats

	// Derived purely from the data above; no extra network calls.
	Chart  []core.ChartPoint
	Alerts []core.BudgetAlert

	// Sections whose fetch failed. Their fields hold zero values and the
	// view shows a transient notice instead of blanking what it had.
	Failed []Section
}

// FailedSection reports whether the given section's fetch failed.
func (s Snapshot) FailedSection(sec Section) bool {
	for _, f := range s.Failed {
		if f == sec {
			return true
		}
	}
	return false
}

type Service struct {
	categories api.CategoryAPI
	expenses   api.ExpenseAPI
	budgets    api.BudgetAPI
	stats      api.StatsAPI
	logger     *slog.Logger

	fetchTimeout time.Duration
}

func NewService(categories api.CategoryAPI, expenses api.ExpenseAPI, budgets api.BudgetAPI, stats api.StatsAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		categories:   categories,
		expenses:     expenses,
		budgets:      budgets,
		stats:        stats,
		logger:       logger,
		fetchTimeout: 7 * time.Second,
	}
}

// Fetch assembles a snapshot for the selected month. Categories load first —
// expense and budget rendering needs their metadata — and a categories
// failure is fatal to the whole load. The three month-scoped collections then
// fetch concurrently; each of those may fail independently and only marks
// its own section.
func (s *Service) Fetch(ctx context.Context, cred api.Credential, month core.Month) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	cats, err := s.categories.ListCategories(ctx, cred)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list categories: %w", err)
	}

	snap := Snapshot{Month: month, Categories: cats}

	g, gctx := errgroup.WithContext(ctx)
	var (
		expenses   []core.Expense
		allBudgets []core.Budget
		stats      core.MonthlyStats
		failed     = make(chan Section, 3)
	)
	g.Go(func() error {
		var err error
		if expenses, err = s.expenses.ListExpenses(gctx, cred, month); err != nil {
			s.logger.ErrorContext(gctx, "list expenses failed",
				applog.FieldSection, string(SectionExpenses), applog.FieldMonth, month.String(), applog.FieldError, err)
			failed <- SectionExpenses
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if allBudgets, err = s.budgets.ListBudgets(gctx, cred); err != nil {
			s.logger.ErrorContext(gctx, "list budgets failed",
				applog.FieldSection, string(SectionBudgets), applog.FieldError, err)
			failed <- SectionBudgets
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if stats, err = s.stats.MonthlyStats(gctx, cred, month); err != nil {
			s.logger.ErrorContext(gctx, "monthly stats failed",
				applog.FieldSection, string(SectionStats), applog.FieldMonth, month.String(), applog.FieldError, err)
			failed <- SectionStats
		}
		return nil
	})
	_ = g.Wait()
	close(failed)
	for sec := range failed {
		snap.Failed = append(snap.Failed, sec)
	}

	snap.Expenses = expenses
	snap.Budgets = core.FilterBudgetsByMonth(allBudgets, month)
	snap.Stats = stats
	snap.Chart = core.ChartSeries(stats, cats)
	snap.Alerts = core.BudgetAlerts(snap.Budgets, stats)
	return snap, nil
}
