package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"zentrack/internal/api"
	"zentrack/internal/core"
)

// fakeBackend scripts the four read ports independently.
type fakeBackend struct {
	cats       []core.Category
	expenses   []core.Expense
	budgets    []core.Budget
	stats      core.MonthlyStats
	catsErr    error
	expErr     error
	budgetsErr error
	statsErr   error
}

func (f *fakeBackend) ListCategories(ctx context.Context, cred api.Credential) ([]core.Category, error) {
	return f.cats, f.catsErr
}
func (f *fakeBackend) CreateCategory(ctx context.Context, cred api.Credential, in core.CategoryInput) (core.Category, error) {
	return core.Category{}, nil
}
func (f *fakeBackend) DeleteCategory(ctx context.Context, cred api.Credential, id string) error {
	return nil
}
func (f *fakeBackend) ListExpenses(ctx context.Context, cred api.Credential, month core.Month) ([]core.Expense, error) {
	return f.expenses, f.expErr
}
func (f *fakeBackend) CreateExpense(ctx context.Context, cred api.Credential, in core.ExpenseInput) (core.Expense, error) {
	return core.Expense{}, nil
}
func (f *fakeBackend) UpdateExpense(ctx context.Context, cred api.Credential, id string, in core.ExpenseInput) (core.Expense, error) {
	return core.Expense{}, nil
}
func (f *fakeBackend) DeleteExpense(ctx context.Context, cred api.Credential, id string) error {
	return nil
}
func (f *fakeBackend) ListBudgets(ctx context.Context, cred api.Credential) ([]core.Budget, error) {
	return f.budgets, f.budgetsErr
}
func (f *fakeBackend) SetBudget(ctx context.Context, cred api.Credential, in core.BudgetInput) (core.Budget, error) {
	return core.Budget{}, nil
}
func (f *fakeBackend) MonthlyStats(ctx context.Context, cred api.Credential, month core.Month) (core.MonthlyStats, error) {
	return f.stats, f.statsErr
}

var march = core.Month{Year: 2024, Mon: time.March}

func seededBackend() *fakeBackend {
	return &fakeBackend{
		cats: []core.Category{
			{CategoryID: "cat_1", Name: "Food", Color: "#E15554"},
			{CategoryID: "cat_2", Name: "Transport", Color: "#3D9970"},
		},
		expenses: []core.Expense{
			{ExpenseID: "exp_1", Title: "Groceries", Amount: decimal.NewFromInt(1000), Category: "Food", Date: core.NewDate(2024, time.March, 2)},
		},
		budgets: []core.Budget{
			{BudgetID: "b_1", Category: "Food", Amount: decimal.NewFromInt(800), Month: march},
			{BudgetID: "b_2", Category: "Food", Amount: decimal.NewFromInt(900), Month: core.Month{Year: 2024, Mon: time.April}},
		},
		stats: core.MonthlyStats{
			Month: march,
			Total: decimal.NewFromInt(1500),
			Count: 3,
			ByCategory: map[string]decimal.Decimal{
				"Food":      decimal.NewFromInt(1000),
				"Transport": decimal.NewFromInt(500),
			},
		},
	}
}

func TestFetchAssemblesSnapshot(t *testing.T) {
	f := seededBackend()
	svc := NewService(f, f, f, f, nil)

	snap, err := svc.Fetch(context.Background(), api.Credential{Token: "tok"}, march)
	require.NoError(t, err)
	require.Empty(t, snap.Failed)
	require.Len(t, snap.Categories, 2)
	require.Len(t, snap.Expenses, 1)

	// Budgets arrive unfiltered and are narrowed to the selected month here.
	require.Len(t, snap.Budgets, 1)
	require.Equal(t, "b_1", snap.Budgets[0].BudgetID)

	// Derived chart pairs stats entries with configured colors.
	require.Len(t, snap.Chart, 2)
	require.Equal(t, "#E15554", snap.Chart[0].Color)

	// 1000 spent against an 800 ceiling: 125%, top severity tier.
	require.Len(t, snap.Alerts, 1)
	require.True(t, snap.Alerts[0].Percentage.Equal(decimal.NewFromInt(125)))
	require.Equal(t, core.AlertOver, snap.Alerts[0].Level)
}

func TestFetchCategoriesFailureIsFatal(t *testing.T) {
	f := seededBackend()
	f.catsErr = errors.New("backend down")
	svc := NewService(f, f, f, f, nil)

	_, err := svc.Fetch(context.Background(), api.Credential{Token: "tok"}, march)
	require.Error(t, err)
}

func TestFetchSectionFailuresAreIsolated(t *testing.T) {
	f := seededBackend()
	f.statsErr = errors.New("stats exploded")
	svc := NewService(f, f, f, f, nil)

	snap, err := svc.Fetch(context.Background(), api.Credential{Token: "tok"}, march)
	require.NoError(t, err)
	require.True(t, snap.FailedSection(SectionStats))
	require.False(t, snap.FailedSection(SectionExpenses))

	// The rest of the view keeps its data.
	require.Len(t, snap.Expenses, 1)
	require.Len(t, snap.Budgets, 1)
	// Stats-derived values degrade to empty, not garbage.
	require.Empty(t, snap.Chart)
	require.Empty(t, snap.Alerts)
}

func TestTrackerDiscardsStaleLoads(t *testing.T) {
	tr := NewTracker()

	// Visitor switches months rapidly: gen 1 issued, then gen 2.
	g1 := tr.Begin("visitor-a")
	g2 := tr.Begin("visitor-a")

	// The newer fetch lands first and commits.
	require.True(t, tr.Commit("visitor-a", g2))
	// The abandoned fetch must be discarded even though it finished.
	require.False(t, tr.Commit("visitor-a", g1))
	// Double commit of the same generation is also rejected.
	require.False(t, tr.Commit("visitor-a", g2))
}

func TestTrackerVisitorsAreIndependent(t *testing.T) {
	tr := NewTracker()
	ga := tr.Begin("visitor-a")
	gb := tr.Begin("visitor-b")
	require.True(t, tr.Commit("visitor-a", ga))
	require.True(t, tr.Commit("visitor-b", gb))
}

func TestTrackerCleanExpired(t *testing.T) {
	tr := NewTracker()
	tr.Begin("old-visitor")
	time.Sleep(2 * time.Millisecond)
	require.Equal(t, 1, tr.CleanExpired(time.Millisecond))
	require.Equal(t, 0, tr.CleanExpired(time.Millisecond))
}
