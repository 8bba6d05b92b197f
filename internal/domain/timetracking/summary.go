package timetracking

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseSummaryMonths is the number of calendar months in ExpenseSummary.Monthly
const ExpenseSummaryMonths = 6

// MonthlyExpenses totals the expenses dated in one calendar month
type MonthlyExpenses struct {
	Month string          `json:"month"` // YYYY-MM
	Label string          `json:"label"` // Jan 2024
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// CategoryExpenses totals the expenses of one category
type CategoryExpenses struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// ExpenseSummary totals a tenant's expenses overall, per category and per recent month
type ExpenseSummary struct {
	TotalExpenses decimal.Decimal    `json:"total_expenses"`
	Count         int                `json:"count"`
	ByCategory    []CategoryExpenses `json:"by_category"`
	Monthly       []MonthlyExpenses  `json:"monthly"`
}

// BuildExpenseSummary aggregates expenses. Monthly covers the month of now and
// the ExpenseSummaryMonths-1 months before it, oldest first, in UTC.
func BuildExpenseSummary(expenses []Expense, now time.Time) ExpenseSummary {
	s := ExpenseSummary{TotalExpenses: decimal.Zero, Count: len(expenses)}

	now = now.UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := current.AddDate(0, -(ExpenseSummaryMonths - 1), 0)
	s.Monthly = make([]MonthlyExpenses, ExpenseSummaryMonths)
	for i := range s.Monthly {
		m := first.AddDate(0, i, 0)
		s.Monthly[i] = MonthlyExpenses{Month: m.Format("2006-01"), Label: m.Format("Jan 2006"), Total: decimal.Zero}
	}

	categories := make(map[string]*CategoryExpenses)
	for i := range expenses {
		e := &expenses[i]
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)

		c, ok := categories[e.Category]
		if !ok {
			c = &CategoryExpenses{Category: e.Category, Total: decimal.Zero}
			categories[e.Category] = c
		}
		c.Total = c.Total.Add(e.Amount)
		c.Count++

		d := e.Date.UTC()
		if d.Before(first) || !d.Before(current.AddDate(0, 1, 0)) {
			continue
		}
		idx := (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
		s.Monthly[idx].Total = s.Monthly[idx].Total.Add(e.Amount)
		s.Monthly[idx].Count++
	}

	s.ByCategory = make([]CategoryExpenses, 0, len(categories))
	for _, c := range categories {
		s.ByCategory = append(s.ByCategory, *c)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		if !s.ByCategory[i].Total.Equal(s.ByCategory[j].Total) {
			return s.ByCategory[i].Total.GreaterThan(s.ByCategory[j].Total)
		}
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})
	return s
}
