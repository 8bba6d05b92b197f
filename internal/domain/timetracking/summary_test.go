package timetracking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExpenseSummary(t *testing.T) {
	tenant, user := uuid.New(), uuid.New()
	expense := func(category, amount string, date time.Time) Expense {
		ex, err := NewExpense(tenant, user, nil, category, decimal.RequireFromString(amount), date, true)
		require.NoError(t, err)
		return *ex
	}
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	summary := BuildExpenseSummary([]Expense{
		expense("Travel", "120.00", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)),
		expense("Software", "49.99", time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC)),
		expense("Travel", "80.00", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
		expense("Meals", "200.00", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
		expense("Software", "150.01", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)),
	}, now)

	assert.Equal(t, 5, summary.Count)
	assert.True(t, summary.TotalExpenses.Equal(decimal.RequireFromString("600")), "total %s", summary.TotalExpenses)

	require.Len(t, summary.ByCategory, 3)
	assert.Equal(t, "Meals", summary.ByCategory[0].Category, "ties order by name")
	assert.Equal(t, "Software", summary.ByCategory[1].Category)
	assert.Equal(t, "Travel", summary.ByCategory[2].Category)
	assert.True(t, summary.ByCategory[1].Total.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, summary.ByCategory[2].Count)

	require.Len(t, summary.Monthly, ExpenseSummaryMonths)
	months := make([]string, 0, len(summary.Monthly))
	for _, m := range summary.Monthly {
		months = append(months, m.Month)
	}
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06"}, months)
	assert.Equal(t, "Jan 2024", summary.Monthly[0].Label)
	assert.True(t, summary.Monthly[0].Total.Equal(decimal.NewFromInt(80)), "December is outside the window")
	assert.True(t, summary.Monthly[1].Total.IsZero())
	assert.Equal(t, 0, summary.Monthly[1].Count)
	assert.True(t, summary.Monthly[2].Total.Equal(decimal.RequireFromString("150.01")))
	assert.True(t, summary.Monthly[5].Total.Equal(decimal.RequireFromString("169.99")))
	assert.Equal(t, 2, summary.Monthly[5].Count)
}

func TestBuildExpenseSummary_Empty(t *testing.T) {
	summary := BuildExpenseSummary(nil, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, summary.TotalExpenses.IsZero())
	assert.Empty(t, summary.ByCategory)
	require.Len(t, summary.Monthly, ExpenseSummaryMonths)
	assert.Equal(t, "2023-10", summary.Monthly[0].Month)
	assert.Equal(t, "2024-03", summary.Monthly[5].Month)
}
