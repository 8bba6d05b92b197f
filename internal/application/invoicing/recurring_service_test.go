package invoicing_test

import (
	"testing"
	"time"

	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurringService_Create(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Acme Corp")
	svc := appinvoicing.NewRecurringService(env.scope, env.repos, nil)

	p, err := svc.Create(env.ctx, env.tenantID, &env.userID, appinvoicing.CreateRecurringRequest{
		CustomerID: customer.ID,
		Frequency:  "Monthly",
		StartDate:  day(2024, 1, 15),
		Subtotal:   dec("100"),
		TaxAmount:  dec("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Recurring-1", p.ProfileName)
	assert.Equal(t, invoicing.FrequencyMonthly, p.Frequency)
	assert.Equal(t, "Acme Corp", p.CustomerName)
	assert.True(t, p.TotalAmount.Equal(dec("110")), "zero total is derived")
	assert.True(t, p.IsActive)

	second, err := svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateRecurringRequest{
		CustomerID: customer.ID,
		StartDate:  day(2024, 1, 1),
		Subtotal:   dec("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Recurring-2", second.ProfileName)
	assert.Equal(t, invoicing.FrequencyMonthly, second.Frequency, "frequency defaults to monthly")

	_, err = svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateRecurringRequest{
		CustomerID: customer.ID,
		Frequency:  "hourly",
		StartDate:  day(2024, 1, 1),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateRecurringRequest{
		CustomerID:  customer.ID,
		StartDate:   day(2024, 1, 1),
		Subtotal:    dec("100"),
		TotalAmount: dec("120"),
	})
	assert.ErrorIs(t, err, shared.ErrValidation, "total above subtotal plus tax")
}

func TestRecurringService_RunDue(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Acme Corp")
	svc := appinvoicing.NewRecurringService(env.scope, env.repos, nil)

	p, err := svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateRecurringRequest{
		CustomerID:  customer.ID,
		ProfileName: "Retainer",
		Frequency:   "monthly",
		StartDate:   day(2024, 1, 15),
		Subtotal:    dec("100"),
		TaxAmount:   dec("10"),
		TotalAmount: dec("105"),
		Notes:       "Monthly retainer",
	})
	require.NoError(t, err)

	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	result, err := svc.RunDue(env.ctx, now)
	require.NoError(t, err)
	assert.Equal(t, appinvoicing.SweepRecurring, result.Sweep)
	assert.Equal(t, 1, result.Selected)
	assert.Equal(t, 1, result.Processed)
	assert.Zero(t, result.Failed)

	page, err := env.invoiceService().List(env.ctx, env.tenantID, invoicing.InvoiceFilter{CustomerID: &customer.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	inv := page.Items[0]
	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
	assert.Equal(t, invoicing.InvoiceStatusDraft, inv.Status)
	assert.True(t, inv.DueDate.Equal(day(2024, 2, 15)), "due %s", inv.DueDate)
	assert.True(t, inv.Subtotal.Equal(dec("100")))
	assert.True(t, inv.TaxAmount.Equal(dec("10")))
	assert.True(t, inv.DiscountAmount.Equal(dec("5")))
	assert.True(t, inv.TotalAmount.Equal(dec("105")))
	assert.Equal(t, "[Auto-generated from Retainer] Monthly retainer", inv.Notes)
	require.NotNil(t, inv.RecurringProfileID)
	assert.Equal(t, p.ID, *inv.RecurringProfileID)

	detail, err := env.invoiceService().GetByID(env.ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, []activity.Action{activity.ActionCreated}, actions(detail.Activity))

	stored, err := svc.GetByID(env.ctx, env.tenantID, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.NextInvoiceDate.Equal(day(2024, 2, 15)))
	require.NotNil(t, stored.LastRunAt)
	assert.True(t, stored.IsActive)

	again, err := svc.RunDue(env.ctx, now)
	require.NoError(t, err)
	assert.Zero(t, again.Selected, "a profile generates once per cycle")
	assert.Zero(t, again.Processed)

	next, err := svc.RunDue(env.ctx, time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, next.Processed)

	stored, err = svc.GetByID(env.ctx, env.tenantID, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.NextInvoiceDate.Equal(day(2024, 3, 15)))
}

func TestRecurringService_RunDue_EndDateDeactivates(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Acme Corp")
	svc := appinvoicing.NewRecurringService(env.scope, env.repos, nil)

	end := day(2024, 1, 5)
	p, err := svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateRecurringRequest{
		CustomerID: customer.ID,
		Frequency:  "weekly",
		StartDate:  day(2024, 1, 1),
		EndDate:    &end,
		Subtotal:   dec("40"),
	})
	require.NoError(t, err)

	result, err := svc.RunDue(env.ctx, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	stored, err := svc.GetByID(env.ctx, env.tenantID, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "next cycle falls after the end date")
	assert.True(t, stored.NextInvoiceDate.Equal(day(2024, 1, 8)))

	later, err := svc.RunDue(env.ctx, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, later.Selected)
}

func TestRecurringService_PauseResumeUpdate(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Acme Corp")
	svc := appinvoicing.NewRecurringService(env.scope, env.repos, nil)

	p, err := svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateRecurringRequest{
		CustomerID: customer.ID,
		StartDate:  day(2024, 1, 1),
		Subtotal:   dec("40"),
	})
	require.NoError(t, err)

	_, err = svc.Pause(env.ctx, env.tenantID, p.ID)
	require.NoError(t, err)
	result, err := svc.RunDue(env.ctx, day(2024, 1, 2))
	require.NoError(t, err)
	assert.Zero(t, result.Selected, "paused profiles are not due")

	_, err = svc.Resume(env.ctx, env.tenantID, p.ID)
	require.NoError(t, err)

	name := "Hosting"
	freq := "quarterly"
	updated, err := svc.Update(env.ctx, env.tenantID, p.ID, appinvoicing.UpdateRecurringRequest{
		ProfileName: &name,
		Frequency:   &freq,
		Subtotal:    decPtr("60"),
		TaxAmount:   decPtr("6"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hosting", updated.ProfileName)
	assert.Equal(t, invoicing.FrequencyQuarterly, updated.Frequency)
	assert.True(t, updated.TotalAmount.Equal(dec("66")), "total follows subtotal and tax")
	assert.True(t, updated.IsActive)

	bad := "daily"
	_, err = svc.Update(env.ctx, env.tenantID, p.ID, appinvoicing.UpdateRecurringRequest{Frequency: &bad})
	assert.ErrorIs(t, err, shared.ErrValidation)

	result, err = svc.RunDue(env.ctx, day(2024, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	stored, err := svc.GetByID(env.ctx, env.tenantID, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.NextInvoiceDate.Equal(day(2024, 4, 1)))

	require.NoError(t, svc.Remove(env.ctx, env.tenantID, p.ID))
	_, err = svc.GetByID(env.ctx, env.tenantID, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	page, err := env.invoiceService().List(env.ctx, env.tenantID, invoicing.InvoiceFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total, "generated invoices survive profile removal")
}
