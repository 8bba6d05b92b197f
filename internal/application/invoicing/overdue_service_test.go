package invoicing_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/identity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverdueService_RunSweep(t *testing.T) {
	env := newTestEnv(t)
	acme := env.customer(t, "Acme Corp")
	admin := env.user(t, "admin@example.com", identity.RoleAdmin)
	manager := env.user(t, "manager@example.com", identity.RoleManager)
	staff := env.user(t, "staff@example.com", identity.RoleStaff)

	former, err := identity.NewUser(env.tenantID, "former@example.com", "Former", identity.RoleAdmin)
	require.NoError(t, err)
	former.Deactivate()
	require.NoError(t, env.repos.Users.Save(env.ctx, former))

	pastDue := env.createInvoice(t, acme.ID, "150", day(2024, 3, 1)).Invoice
	notYetDue := env.createInvoice(t, acme.ID, "80", day(2024, 3, 20)).Invoice
	paid := env.createInvoice(t, acme.ID, "60", day(2024, 2, 1)).Invoice
	_, err = env.invoiceService().MarkPaid(env.ctx, env.tenantID, paid.ID, nil)
	require.NoError(t, err)

	svc := appinvoicing.NewOverdueService(env.scope, env.repos, nil)
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	result, err := svc.RunSweep(env.ctx, now)
	require.NoError(t, err)
	assert.Equal(t, appinvoicing.SweepOverdue, result.Sweep)
	assert.Equal(t, 1, result.Selected)
	assert.Equal(t, 1, result.Processed)
	assert.Zero(t, result.Failed)

	detail, err := env.invoiceService().GetByID(env.ctx, env.tenantID, pastDue.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusOverdue, detail.Invoice.Status)
	assert.ElementsMatch(t, []activity.Action{activity.ActionCreated, activity.ActionOverdue}, actions(detail.Activity))
	for _, l := range detail.Activity {
		if l.Action == activity.ActionOverdue {
			assert.Equal(t, "Invoice is 10 days past due", l.Details)
		}
	}

	other, err := env.invoiceService().GetByID(env.ctx, env.tenantID, notYetDue.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusSent, other.Invoice.Status)

	notifications := appinvoicing.NewNotificationService(env.repos.Notifications)
	for _, u := range []uuid.UUID{admin.ID, manager.ID} {
		page, err := notifications.List(env.ctx, env.tenantID, u, true, shared.Filter{})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		n := page.Items[0]
		assert.Equal(t, activity.NotificationTypeOverdue, n.Type)
		assert.Equal(t, "Invoice INV-00001 is overdue", n.Title)
		assert.Equal(t, "Invoice for Acme Corp - USD 150.00 is past due.", n.Message)
		assert.False(t, n.IsRead)
	}
	for _, u := range []uuid.UUID{staff.ID, former.ID} {
		page, err := notifications.List(env.ctx, env.tenantID, u, false, shared.Filter{})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	}

	again, err := svc.RunSweep(env.ctx, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, again.Selected, "overdue invoices are not flagged twice")

	page, err := notifications.List(env.ctx, env.tenantID, admin.ID, false, shared.Filter{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestOverdueService_PartiallyPaidBalance(t *testing.T) {
	env := newTestEnv(t)
	acme := env.customer(t, "Acme Corp")
	admin := env.user(t, "admin@example.com", identity.RoleAdmin)
	inv := env.createInvoice(t, acme.ID, "1500", day(2024, 3, 1)).Invoice

	_, err := env.paymentService().Apply(env.ctx, env.tenantID, nil, appinvoicing.ApplyPaymentRequest{
		InvoiceID: &inv.ID,
		Amount:    dec("265.5"),
	})
	require.NoError(t, err)

	result, err := appinvoicing.NewOverdueService(env.scope, env.repos, nil).RunSweep(env.ctx, day(2024, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	page, err := appinvoicing.NewNotificationService(env.repos.Notifications).List(env.ctx, env.tenantID, admin.ID, false, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Invoice for Acme Corp - USD 1,234.50 is past due.", page.Items[0].Message)
}

func TestOverdueService_SkipsInvoiceSettledByEdit(t *testing.T) {
	env := newTestEnv(t)
	acme := env.customer(t, "Acme Corp")
	admin := env.user(t, "admin@example.com", identity.RoleAdmin)
	inv := env.createInvoice(t, acme.ID, "100", day(2024, 3, 1)).Invoice

	_, err := env.paymentService().Apply(env.ctx, env.tenantID, nil, appinvoicing.ApplyPaymentRequest{
		InvoiceID: &inv.ID,
		Amount:    dec("60"),
	})
	require.NoError(t, err)

	updated, err := env.invoiceService().Update(env.ctx, env.tenantID, inv.ID, &env.userID, appinvoicing.UpdateInvoiceRequest{
		Items: []appinvoicing.LineRequest{{Description: "Reduced scope", Quantity: dec("1"), Rate: decPtr("50")}},
	})
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusPaid, updated.Status)
	assert.True(t, updated.BalanceDue.IsZero())
	assert.True(t, updated.AmountPaid.Equal(dec("60")))

	result, err := appinvoicing.NewOverdueService(env.scope, env.repos, nil).RunSweep(env.ctx, day(2024, 3, 20))
	require.NoError(t, err)
	assert.Zero(t, result.Selected)

	detail, err := env.invoiceService().GetByID(env.ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusPaid, detail.Invoice.Status)

	page, err := appinvoicing.NewNotificationService(env.repos.Notifications).List(env.ctx, env.tenantID, admin.ID, false, shared.Filter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestNotificationService_MarkRead(t *testing.T) {
	env := newTestEnv(t)
	acme := env.customer(t, "Acme Corp")
	admin := env.user(t, "admin@example.com", identity.RoleAdmin)
	env.createInvoice(t, acme.ID, "10", day(2024, 3, 1))
	env.createInvoice(t, acme.ID, "20", day(2024, 3, 2))

	_, err := appinvoicing.NewOverdueService(env.scope, env.repos, nil).RunSweep(env.ctx, day(2024, 3, 10))
	require.NoError(t, err)

	svc := appinvoicing.NewNotificationService(env.repos.Notifications)
	page, err := svc.List(env.ctx, env.tenantID, admin.ID, true, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	n, err := svc.MarkRead(env.ctx, env.tenantID, admin.ID, []uuid.UUID{page.Items[0].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	unread, err := svc.List(env.ctx, env.tenantID, admin.ID, true, shared.Filter{})
	require.NoError(t, err)
	assert.Len(t, unread.Items, 1)

	n, err = svc.MarkRead(env.ctx, env.tenantID, admin.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	unread, err = svc.List(env.ctx, env.tenantID, admin.ID, true, shared.Filter{})
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
}
