package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T, lines ...LineInput) *Invoice {
	t.Helper()
	if len(lines) == 0 {
		lines = []LineInput{line("2", "50", "10")}
	}
	inv, err := NewInvoice(NewInvoiceInput{
		TenantID:      uuid.New(),
		CustomerID:    uuid.New(),
		CustomerName:  "Acme Ltd",
		InvoiceNumber: "INV-00001",
		DueDate:       time.Now().AddDate(0, 0, 30),
		Currency:      "USD",
	}, lines, decimal.Zero)
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	inv := newTestInvoice(t)

	assert.Equal(t, InvoiceStatusSent, inv.Status)
	assert.True(t, inv.Subtotal.Equal(d("100")))
	assert.True(t, inv.TaxAmount.Equal(d("10")))
	assert.True(t, inv.TotalAmount.Equal(d("110")))
	assert.True(t, inv.AmountPaid.IsZero())
	assert.True(t, inv.BalanceDue.Equal(d("110")))
	assert.Equal(t, 1, inv.Version)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Amount.Equal(d("100")))

	t.Run("explicit draft", func(t *testing.T) {
		inv, err := NewInvoice(NewInvoiceInput{
			TenantID: uuid.New(), CustomerID: uuid.New(), InvoiceNumber: "INV-00002",
			DueDate: time.Now(), Currency: "USD", Status: InvoiceStatusDraft,
		}, []LineInput{line("1", "1", "0")}, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
	})

	t.Run("rejects paid as initial status", func(t *testing.T) {
		_, err := NewInvoice(NewInvoiceInput{
			TenantID: uuid.New(), CustomerID: uuid.New(), InvoiceNumber: "INV-00003",
			DueDate: time.Now(), Currency: "USD", Status: InvoiceStatusPaid,
		}, []LineInput{line("1", "1", "0")}, decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects empty items", func(t *testing.T) {
		_, err := NewInvoice(NewInvoiceInput{
			TenantID: uuid.New(), CustomerID: uuid.New(), InvoiceNumber: "INV-00004",
			DueDate: time.Now(), Currency: "USD",
		}, nil, decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects missing customer", func(t *testing.T) {
		_, err := NewInvoice(NewInvoiceInput{
			TenantID: uuid.New(), InvoiceNumber: "INV-00005", DueDate: time.Now(), Currency: "USD",
		}, []LineInput{line("1", "1", "0")}, decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestInvoiceStatus_Transitions(t *testing.T) {
	all := []InvoiceStatus{
		InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid,
	}
	allowed := map[InvoiceStatus]map[InvoiceStatus]bool{
		InvoiceStatusDraft:         {InvoiceStatusSent: true, InvoiceStatusPartiallyPaid: true, InvoiceStatusPaid: true, InvoiceStatusVoid: true},
		InvoiceStatusSent:          {InvoiceStatusViewed: true, InvoiceStatusPartiallyPaid: true, InvoiceStatusPaid: true, InvoiceStatusOverdue: true, InvoiceStatusVoid: true},
		InvoiceStatusViewed:        {InvoiceStatusSent: true, InvoiceStatusPartiallyPaid: true, InvoiceStatusPaid: true, InvoiceStatusOverdue: true, InvoiceStatusVoid: true},
		InvoiceStatusPartiallyPaid: {InvoiceStatusPaid: true, InvoiceStatusOverdue: true, InvoiceStatusVoid: true},
		InvoiceStatusOverdue:       {InvoiceStatusPartiallyPaid: true, InvoiceStatusPaid: true, InvoiceStatusVoid: true},
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, allowed[from][to], from.CanTransitionTo(to))
			})
		}
	}

	assert.True(t, InvoiceStatusPaid.IsTerminal())
	assert.True(t, InvoiceStatusVoid.IsTerminal())
	assert.False(t, InvoiceStatusOverdue.IsTerminal())
}

func TestInvoice_TransitionTo(t *testing.T) {
	t.Run("rejects a disallowed move with conflict", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.TransitionTo(InvoiceStatusVoid))
		err := inv.TransitionTo(InvoiceStatusSent)
		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Equal(t, InvoiceStatusVoid, inv.Status)
	})

	t.Run("rejects unknown status with validation", func(t *testing.T) {
		inv := newTestInvoice(t)
		assert.ErrorIs(t, inv.TransitionTo("ARCHIVED"), shared.ErrValidation)
	})

	t.Run("mark paid settles the balance", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkPaid())
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.AmountPaid.Equal(inv.TotalAmount))
		assert.True(t, inv.BalanceDue.IsZero())
	})
}

func TestInvoice_ApplyPayment(t *testing.T) {
	t.Run("full payment then overpayment", func(t *testing.T) {
		inv := newTestInvoice(t)

		require.NoError(t, inv.ApplyPayment(d("110")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.BalanceDue.IsZero())

		require.NoError(t, inv.ApplyPayment(d("20")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.BalanceDue.IsZero())
		assert.True(t, inv.AmountPaid.Equal(d("130")))
	})

	t.Run("partial payment", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ApplyPayment(d("10.50")))
		assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
		assert.True(t, inv.BalanceDue.Equal(d("99.50")))
	})

	t.Run("order of payments does not matter", func(t *testing.T) {
		a := newTestInvoice(t)
		b := newTestInvoice(t)
		for _, amt := range []string{"30", "50", "45"} {
			require.NoError(t, a.ApplyPayment(d(amt)))
		}
		for _, amt := range []string{"45", "30", "50"} {
			require.NoError(t, b.ApplyPayment(d(amt)))
		}
		assert.True(t, a.AmountPaid.Equal(b.AmountPaid))
		assert.True(t, a.BalanceDue.Equal(b.BalanceDue))
		assert.Equal(t, a.Status, b.Status)
	})

	t.Run("overdue invoice receives partial payment", func(t *testing.T) {
		inv := newTestInvoice(t)
		inv.DueDate = time.Now().AddDate(0, 0, -3)
		_, err := inv.MarkOverdue(time.Now())
		require.NoError(t, err)
		require.NoError(t, inv.ApplyPayment(d("1")))
		assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
	})

	t.Run("void invoice rejects payments", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.TransitionTo(InvoiceStatusVoid))
		assert.ErrorIs(t, inv.ApplyPayment(d("1")), shared.ErrConflict)
		assert.True(t, inv.AmountPaid.IsZero())
	})

	t.Run("non-positive amount", func(t *testing.T) {
		inv := newTestInvoice(t)
		assert.ErrorIs(t, inv.ApplyPayment(decimal.Zero), shared.ErrValidation)
		assert.ErrorIs(t, inv.ApplyPayment(d("-5")), shared.ErrValidation)
	})

	t.Run("sub-cent amount", func(t *testing.T) {
		inv := newTestInvoice(t)
		assert.ErrorIs(t, inv.ApplyPayment(d("1.005")), shared.ErrValidation)
		assert.True(t, inv.AmountPaid.IsZero())
	})
}

func TestInvoice_ReplaceItems(t *testing.T) {
	t.Run("recomputes and keeps amount paid", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ApplyPayment(d("40")))

		require.NoError(t, inv.ReplaceItems([]LineInput{line("1", "200", "0"), line("1", "10", "50")}, d("5")))
		assert.True(t, inv.Subtotal.Equal(d("210")))
		assert.True(t, inv.TaxAmount.Equal(d("5")))
		assert.True(t, inv.TotalAmount.Equal(d("210")))
		assert.True(t, inv.AmountPaid.Equal(d("40")))
		assert.True(t, inv.BalanceDue.Equal(d("170")))
		require.Len(t, inv.Items, 2)
		assert.Equal(t, 0, inv.Items[0].SortOrder)
		assert.Equal(t, 1, inv.Items[1].SortOrder)
	})

	t.Run("an edit below amount paid settles the invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ApplyPayment(d("60")))
		require.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)

		require.NoError(t, inv.ReplaceItems([]LineInput{line("1", "50", "0")}, decimal.Zero))
		assert.True(t, inv.BalanceDue.IsZero())
		assert.True(t, inv.AmountPaid.Equal(d("60")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)

		inv.DueDate = time.Now().AddDate(0, 0, -5)
		assert.False(t, inv.IsOverdueCandidate(time.Now()))
	})

	t.Run("a discount that covers the open balance settles the invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ApplyPayment(d("100")))
		require.NoError(t, inv.ApplyDiscount(d("10")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
	})

	t.Run("an unpaid invoice edited to zero keeps its status", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ReplaceItems([]LineInput{line("1", "0", "0")}, decimal.Zero))
		assert.Equal(t, InvoiceStatusSent, inv.Status)
		assert.False(t, inv.IsOverdueCandidate(time.Now().AddDate(1, 0, 0)))
	})

	t.Run("paid invoice is locked", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkPaid())
		assert.ErrorIs(t, inv.ReplaceItems([]LineInput{line("1", "1", "0")}, decimal.Zero), shared.ErrConflict)
		assert.ErrorIs(t, inv.ApplyDiscount(d("1")), shared.ErrConflict)
	})
}

func TestInvoice_ApplyDiscount(t *testing.T) {
	inv := newTestInvoice(t)
	require.NoError(t, inv.ApplyDiscount(d("10")))
	assert.True(t, inv.TotalAmount.Equal(d("100")))
	assert.True(t, inv.BalanceDue.Equal(d("100")))
	assert.ErrorIs(t, inv.ApplyDiscount(d("-1")), shared.ErrValidation)
}

func TestInvoice_MarkOverdue(t *testing.T) {
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

	t.Run("sent invoice ten days late", func(t *testing.T) {
		inv := newTestInvoice(t)
		inv.DueDate = now.AddDate(0, 0, -10)
		days, err := inv.MarkOverdue(now)
		require.NoError(t, err)
		assert.Equal(t, 10, days)
		assert.Equal(t, InvoiceStatusOverdue, inv.Status)
	})

	t.Run("already overdue is not eligible", func(t *testing.T) {
		inv := newTestInvoice(t)
		inv.DueDate = now.AddDate(0, 0, -10)
		_, err := inv.MarkOverdue(now)
		require.NoError(t, err)
		_, err = inv.MarkOverdue(now)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("not yet due", func(t *testing.T) {
		inv := newTestInvoice(t)
		inv.DueDate = now.AddDate(0, 0, 1)
		assert.False(t, inv.IsOverdueCandidate(now))
	})

	t.Run("draft is not eligible", func(t *testing.T) {
		inv := newTestInvoice(t)
		inv.Status = InvoiceStatusDraft
		inv.DueDate = now.AddDate(0, 0, -1)
		assert.False(t, inv.IsOverdueCandidate(now))
	})

	t.Run("viewed is eligible", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.TransitionTo(InvoiceStatusViewed))
		inv.DueDate = now.AddDate(0, 0, -1)
		assert.True(t, inv.IsOverdueCandidate(now))
	})
}
