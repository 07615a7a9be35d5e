package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// FallbackColor is used for chart entries whose category no longer exists,
// e.g. when a category was deleted or renamed after the stats were computed.
const FallbackColor = "#6B7280"

// Alert severity tiers. Purely presentational: the thresholds pick a style,
// they do not gate any behavior.
type AlertLevel string

const (
	AlertOK   AlertLevel = "ok"   // <= 80%
	AlertWarn AlertLevel = "warn" // > 80%
	AlertOver AlertLevel = "over" // > 100%
)

// ChartPoint is one bar of the spending-by-category chart.
type ChartPoint struct {
	Name   string
	Amount decimal.Decimal
	Color  string
}

// BudgetAlert pairs a configured ceiling with the amount actually spent.
type BudgetAlert struct {
	Budget
	Spent      decimal.Decimal
	Percentage decimal.Decimal
	Level      AlertLevel
}

var (
	hundred        = decimal.NewFromInt(100)
	warnThreshold  = decimal.NewFromInt(80)
	limitThreshold = decimal.NewFromInt(100)
)

// ChartSeries derives chart points from the stats breakdown, pairing each
// category present in by_category with its configured color. Output is sorted
// by name so renders are stable across refetches.
func ChartSeries(stats MonthlyStats, categories []Category) []ChartPoint {
	colors := make(map[string]string, len(categories))
	for _, c := range categories {
		colors[c.Name] = c.Color
	}

	points := make([]ChartPoint, 0, len(stats.ByCategory))
	for name, amount := range stats.ByCategory {
		color, ok := colors[name]
		if !ok {
			color = FallbackColor
		}
		points = append(points, ChartPoint{Name: name, Amount: amount, Color: color})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Name < points[j].Name })
	return points
}

// BudgetAlerts computes utilization for every budget of the selected month:
// percentage = 100 * spent / ceiling. Budgets with nothing spent are
// suppressed (the > 0 filter), matching how the view hides empty bars.
// Budgets with a non-positive ceiling are skipped outright.
func BudgetAlerts(budgets []Budget, stats MonthlyStats) []BudgetAlert {
	alerts := make([]BudgetAlert, 0, len(budgets))
	for _, b := range budgets {
		if !b.Amount.IsPositive() {
			continue
		}
		spent := stats.ByCategory[b.Category]
		pct := spent.Mul(hundred).Div(b.Amount)
		if !pct.IsPositive() {
			continue
		}
		alerts = append(alerts, BudgetAlert{
			Budget:     b,
			Spent:      spent,
			Percentage: pct,
			Level:      classifyAlert(pct),
		})
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Category < alerts[j].Category })
	return alerts
}

func classifyAlert(pct decimal.Decimal) AlertLevel {
	switch {
	case pct.GreaterThan(limitThreshold):
		return AlertOver
	case pct.GreaterThan(warnThreshold):
		return AlertWarn
	default:
		return AlertOK
	}
}

// FilterBudgetsByMonth keeps only the budgets for the selected month. The
// backend returns the full budget list; filtering happens on this side.
func FilterBudgetsByMonth(budgets []Budget, month Month) []Budget {
	out := make([]Budget, 0, len(budgets))
	for _, b := range budgets {
		if b.Month == month {
			out = append(out, b)
		}
	}
	return out
}

// CategoryColor resolves a category name to its display color, falling back
// to the neutral gray when the name no longer matches any category.
func CategoryColor(categories []Category, name string) string {
	for _, c := range categories {
		if c.Name == name {
			return c.Color
		}
	}
	return FallbackColor
}
