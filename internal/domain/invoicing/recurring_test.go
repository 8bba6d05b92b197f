package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestFrequency_Advance(t *testing.T) {
	tests := []struct {
		freq Frequency
		from time.Time
		want time.Time
	}{
		{FrequencyWeekly, date(2024, 1, 15), date(2024, 1, 22)},
		{FrequencyBiweekly, date(2024, 1, 15), date(2024, 1, 29)},
		{FrequencyMonthly, date(2024, 1, 15), date(2024, 2, 15)},
		{FrequencyQuarterly, date(2024, 1, 15), date(2024, 4, 15)},
		{FrequencyYearly, date(2024, 2, 29), date(2025, 3, 1)},
		{FrequencyMonthly, date(2024, 1, 31), date(2024, 3, 2)},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq)+" "+tt.from.Format("2006-01-02"), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.freq.Advance(tt.from))
		})
	}
}

func newTestProfile(t *testing.T, freq Frequency, start time.Time, end *time.Time) *RecurringProfile {
	t.Helper()
	p, err := NewRecurringProfile(uuid.New(), uuid.New(), "Retainer", freq, start, end, "USD", d("100"), d("10"), d("110"))
	require.NoError(t, err)
	return p
}

func TestRecurringProfile_MonthlyScheduleEndsAfterEndDate(t *testing.T) {
	end := date(2024, 3, 1)
	p := newTestProfile(t, FrequencyMonthly, date(2024, 1, 15), &end)

	now := date(2024, 1, 15).Add(time.Hour)
	require.True(t, p.IsDue(now))
	c := p.Advance(now)
	assert.Equal(t, date(2024, 2, 15), c.DueDate)
	assert.Equal(t, date(2024, 2, 15), p.NextInvoiceDate)
	assert.True(t, p.IsActive)
	assert.False(t, p.IsDue(now), "a second pass in the same cycle must not generate again")

	now = date(2024, 2, 15).Add(time.Hour)
	require.True(t, p.IsDue(now))
	c = p.Advance(now)
	assert.Equal(t, date(2024, 3, 15), p.NextInvoiceDate)
	assert.True(t, c.Deactivated)
	assert.False(t, p.IsActive)

	assert.False(t, p.IsDue(date(2024, 3, 16)))
}

func TestRecurringProfile_IsDue(t *testing.T) {
	end := date(2024, 1, 10)
	p := newTestProfile(t, FrequencyWeekly, date(2024, 1, 1), &end)
	assert.False(t, p.IsDue(date(2023, 12, 31)))
	assert.True(t, p.IsDue(date(2024, 1, 5)))
	assert.False(t, p.IsDue(date(2024, 1, 11)), "past end date")

	p.Pause()
	assert.False(t, p.IsDue(date(2024, 1, 5)))
	p.Resume()
	assert.True(t, p.IsDue(date(2024, 1, 5)))
}

func TestRecurringProfile_Notes(t *testing.T) {
	p := newTestProfile(t, FrequencyMonthly, date(2024, 1, 1), nil)
	assert.Equal(t, "Auto-generated from Retainer", p.InvoiceNotes())
	p.Notes = "Monthly support"
	assert.Equal(t, "[Auto-generated from Retainer] Monthly support", p.InvoiceNotes())
	assert.Equal(t, `Auto-generated from recurring profile "Retainer" (monthly)`, p.ActivityDetails())
	assert.Equal(t, "Recurring-3", DefaultProfileName(3))
}

func TestRecurringProfile_Totals(t *testing.T) {
	p, err := NewRecurringProfile(uuid.New(), uuid.New(), "R", FrequencyMonthly, date(2024, 1, 1), nil, "USD", d("100"), d("10"), d("100"))
	require.NoError(t, err)
	tot := p.Totals()
	assert.True(t, tot.Discount.Equal(d("10")))
	assert.True(t, tot.Total.Equal(d("100")))

	p, err = NewRecurringProfile(uuid.New(), uuid.New(), "R", FrequencyMonthly, date(2024, 1, 1), nil, "USD", d("100"), d("10"), d("0"))
	require.NoError(t, err)
	assert.True(t, p.TotalAmount.Equal(d("110")))

	_, err = NewRecurringProfile(uuid.New(), uuid.New(), "R", FrequencyMonthly, date(2024, 1, 1), nil, "USD", d("100"), d("10"), d("200"))
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewRecurringProfile(uuid.New(), uuid.New(), "R", "daily", date(2024, 1, 1), nil, "USD", d("1"), d("0"), d("1"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecurringProfile_Reprice(t *testing.T) {
	p, err := NewRecurringProfile(uuid.New(), uuid.New(), "R", FrequencyMonthly, date(2024, 1, 1), nil, "USD", d("100"), d("10"), d("110"))
	require.NoError(t, err)

	require.NoError(t, p.Reprice(d("200"), d("20"), d("0")))
	assert.True(t, p.TotalAmount.Equal(d("220")))

	assert.ErrorIs(t, p.Reprice(d("200"), d("20"), d("300")), shared.ErrValidation)
	assert.ErrorIs(t, p.Reprice(d("-1"), d("0"), d("0")), shared.ErrValidation)
	assert.True(t, p.TotalAmount.Equal(d("220")), "failed reprice leaves amounts unchanged")

	assert.ErrorIs(t, p.Rename(""), shared.ErrValidation)
	require.NoError(t, p.Rename("Retainer"))
	assert.Equal(t, "Retainer", p.ProfileName)
}
