package invoicing_test

import (
	"testing"

	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actions(logs []activity.Log) []activity.Action {
	out := make([]activity.Action, len(logs))
	for i, l := range logs {
		out[i] = l.Action
	}
	return out
}

func TestInvoiceService_Create(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Acme Corp")
	item := env.item(t, "Consulting", "120", "10")
	svc := env.invoiceService()

	detail, err := svc.Create(env.ctx, env.tenantID, &env.userID, appinvoicing.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Items: []appinvoicing.LineRequest{
			{ItemID: &item.ID, Quantity: dec("2")},
			{Description: "Hosting", Quantity: dec("1"), Rate: decPtr("50"), TaxRate: decPtr("0")},
		},
		DueDate:  day(2030, 1, 31),
		Discount: dec("20"),
	})
	require.NoError(t, err)

	inv := detail.Invoice
	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
	assert.Equal(t, invoicing.InvoiceStatusSent, inv.Status)
	assert.Equal(t, "Acme Corp", inv.CustomerName)
	assert.True(t, inv.Subtotal.Equal(dec("290")), "subtotal %s", inv.Subtotal)
	assert.True(t, inv.TaxAmount.Equal(dec("24")), "tax %s", inv.TaxAmount)
	assert.True(t, inv.TotalAmount.Equal(dec("294")), "total %s", inv.TotalAmount)
	assert.True(t, inv.BalanceDue.Equal(inv.TotalAmount))

	stored, err := svc.GetByID(env.ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Invoice.Items, 2)
	assert.Equal(t, "Consulting", stored.Invoice.Items[0].Description)
	assert.True(t, stored.Invoice.Items[0].Rate.Equal(dec("120")))
	assert.Equal(t, []activity.Action{activity.ActionCreated}, actions(stored.Activity))
	require.NotNil(t, stored.Customer)
	assert.Equal(t, customer.ID, stored.Customer.ID)

	second := env.createInvoice(t, customer.ID, "10", day(2030, 2, 1))
	assert.Equal(t, "INV-00002", second.Invoice.InvoiceNumber)
}

func TestInvoiceService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Acme Corp")
	svc := env.invoiceService()

	_, err := svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateInvoiceRequest{
		CustomerID: customer.ID,
		DueDate:    day(2030, 1, 31),
	})
	assert.ErrorIs(t, err, shared.ErrValidation, "no lines")

	_, err = svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Items:      []appinvoicing.LineRequest{{Description: "x", Quantity: dec("1")}},
		DueDate:    day(2030, 1, 31),
	})
	assert.ErrorIs(t, err, shared.ErrValidation, "missing rate")

	_, err = svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Items:      []appinvoicing.LineRequest{{Description: "x", Quantity: dec("1"), Rate: decPtr("10")}},
		DueDate:    day(2030, 1, 31),
		Discount:   dec("11"),
	})
	assert.ErrorIs(t, err, shared.ErrValidation, "discount above subtotal plus tax")

	other := newTestEnv(t)
	_, err = svc.Create(env.ctx, other.tenantID, nil, appinvoicing.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Items:      []appinvoicing.LineRequest{{Description: "x", Quantity: dec("1"), Rate: decPtr("10")}},
		DueDate:    day(2030, 1, 31),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound, "customer of another tenant")

	// failed creations must not consume numbers
	detail := env.createInvoice(t, customer.ID, "10", day(2030, 1, 31))
	assert.Equal(t, "INV-00001", detail.Invoice.InvoiceNumber)
}

func TestInvoiceService_Update_ReplacesItemsAndKeepsPaid(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Acme Corp")
	detail := env.createInvoice(t, customer.ID, "100", day(2030, 1, 31))

	_, err := env.paymentService().Apply(env.ctx, env.tenantID, nil, appinvoicing.ApplyPaymentRequest{
		InvoiceID: &detail.Invoice.ID,
		Amount:    dec("40"),
	})
	require.NoError(t, err)

	svc := env.invoiceService()
	updated, err := svc.Update(env.ctx, env.tenantID, detail.Invoice.ID, &env.userID, appinvoicing.UpdateInvoiceRequest{
		Items: []appinvoicing.LineRequest{{Description: "Revised", Quantity: dec("3"), Rate: decPtr("50")}},
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(dec("150")))
	assert.True(t, updated.AmountPaid.Equal(dec("40")))
	assert.True(t, updated.BalanceDue.Equal(dec("110")))
	assert.Equal(t, invoicing.InvoiceStatusPartiallyPaid, updated.Status)

	stored, err := svc.GetByID(env.ctx, env.tenantID, detail.Invoice.ID)
	require.NoError(t, err)
	require.Len(t, stored.Invoice.Items, 1)
	assert.Equal(t, "Revised", stored.Invoice.Items[0].Description)
	assert.Len(t, stored.Payments, 1)
	assert.ElementsMatch(t,
		[]activity.Action{activity.ActionCreated, activity.ActionPaymentReceived, activity.ActionUpdated},
		actions(stored.Activity))
}

func TestInvoiceService_StatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Acme Corp")
	svc := env.invoiceService()

	detail := env.createInvoice(t, customer.ID, "80", day(2030, 1, 31))
	id := detail.Invoice.ID

	same := "sent"
	unchanged, err := svc.Update(env.ctx, env.tenantID, id, nil, appinvoicing.UpdateInvoiceRequest{Status: &same})
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusSent, unchanged.Status)

	paid, err := svc.MarkPaid(env.ctx, env.tenantID, id, nil)
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusPaid, paid.Status)
	assert.True(t, paid.BalanceDue.IsZero())
	assert.True(t, paid.AmountPaid.Equal(dec("80")))

	void := "VOID"
	_, err = svc.Update(env.ctx, env.tenantID, id, nil, appinvoicing.UpdateInvoiceRequest{Status: &void})
	assert.ErrorIs(t, err, shared.ErrConflict, "PAID is terminal")

	_, err = svc.Update(env.ctx, env.tenantID, id, nil, appinvoicing.UpdateInvoiceRequest{Discount: decPtr("5")})
	assert.ErrorIs(t, err, shared.ErrConflict, "amounts of a PAID invoice are frozen")

	notes := "Thanks!"
	updated, err := svc.Update(env.ctx, env.tenantID, id, nil, appinvoicing.UpdateInvoiceRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "Thanks!", updated.Notes)

	bogus := "ARCHIVED"
	_, err = svc.Update(env.ctx, env.tenantID, id, nil, appinvoicing.UpdateInvoiceRequest{Status: &bogus})
	assert.Error(t, err)
}

func TestInvoiceService_Remove(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Acme Corp")
	svc := env.invoiceService()

	unpaid := env.createInvoice(t, customer.ID, "10", day(2030, 1, 31))
	require.NoError(t, svc.Remove(env.ctx, env.tenantID, unpaid.Invoice.ID, &env.userID))
	_, err := svc.GetByID(env.ctx, env.tenantID, unpaid.Invoice.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	logs, err := env.repos.Activity.ListForInvoice(env.ctx, env.tenantID, unpaid.Invoice.ID)
	require.NoError(t, err)
	assert.Contains(t, actions(logs), activity.ActionDeleted, "activity outlives the invoice")

	paid := env.createInvoice(t, customer.ID, "10", day(2030, 1, 31))
	_, err = env.paymentService().Apply(env.ctx, env.tenantID, nil, appinvoicing.ApplyPaymentRequest{
		InvoiceID: &paid.Invoice.ID,
		Amount:    dec("5"),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Remove(env.ctx, env.tenantID, paid.Invoice.ID, nil), shared.ErrConflict)
}

func TestInvoiceService_List(t *testing.T) {
	env := newTestEnv(t)
	acme := env.customer(t, "Acme Corp")
	globex := env.customer(t, "Globex")
	svc := env.invoiceService()

	env.createInvoice(t, acme.ID, "10", day(2030, 1, 31))
	env.createInvoice(t, acme.ID, "20", day(2030, 1, 31))
	env.createInvoice(t, globex.ID, "30", day(2030, 1, 31))

	page, err := svc.List(env.ctx, env.tenantID, invoicing.InvoiceFilter{CustomerID: &acme.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = svc.List(env.ctx, env.tenantID, invoicing.InvoiceFilter{Filter: shared.Filter{Search: "globex"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].TotalAmount.Equal(decimal.NewFromInt(30)))

	_, err = svc.List(env.ctx, env.tenantID, invoicing.InvoiceFilter{Status: "LOST"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	other := newTestEnv(t)
	page, err = svc.List(env.ctx, other.tenantID, invoicing.InvoiceFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "tenants are isolated")
}
