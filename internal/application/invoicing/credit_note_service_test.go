package invoicing_test

import (
	"testing"

	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditNoteService(t *testing.T) {
	env := newTestEnv(t)
	acme := env.customer(t, "Acme Corp")
	globex := env.customer(t, "Globex")
	inv := env.createInvoice(t, acme.ID, "150", day(2030, 1, 31)).Invoice
	svc := appinvoicing.NewCreditNoteService(env.scope, env.repos, nil)

	note, err := svc.Create(env.ctx, env.tenantID, &env.userID, appinvoicing.CreateCreditNoteRequest{
		CustomerID: acme.ID,
		InvoiceID:  &inv.ID,
		Amount:     dec("25"),
		Reason:     "Damaged goods",
	})
	require.NoError(t, err)
	assert.Equal(t, "CN-00001", note.CreditNoteNumber)
	assert.Equal(t, "Damaged goods", note.Reason)

	detail, err := env.invoiceService().GetByID(env.ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	assert.True(t, detail.Invoice.BalanceDue.Equal(dec("150")), "credit notes do not change the invoice balance")

	_, err = svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateCreditNoteRequest{
		CustomerID: globex.ID,
		InvoiceID:  &inv.ID,
		Amount:     dec("5"),
	})
	assert.ErrorIs(t, err, shared.ErrValidation, "customer mismatch")

	_, err = svc.Create(env.ctx, env.tenantID, nil, appinvoicing.CreateCreditNoteRequest{CustomerID: acme.ID, Amount: dec("-1")})
	assert.ErrorIs(t, err, shared.ErrValidation)

	page, err := svc.List(env.ctx, env.tenantID, shared.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	require.NoError(t, svc.Remove(env.ctx, env.tenantID, note.ID))
	_, err = svc.GetByID(env.ctx, env.tenantID, note.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
