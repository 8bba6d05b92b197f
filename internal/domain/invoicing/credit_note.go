package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreditNote records a reduction of a customer's obligation.
// It is informational and does not change the linked invoice's balance.
type CreditNote struct {
	shared.TenantAggregateRoot
	CustomerID       uuid.UUID
	InvoiceID        *uuid.UUID
	CreditNoteNumber string
	Amount           decimal.Decimal
	Reason           string
	Notes            string
	Date             time.Time
}

// NewCreditNote creates a credit note dated now unless date is set
func NewCreditNote(tenantID, customerID uuid.UUID, invoiceID *uuid.UUID, number string, amount decimal.Decimal, date *time.Time) (*CreditNote, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("credit note amount must be greater than zero")
	}
	if !HasAmountScale(amount) {
		return nil, shared.NewValidationError("credit note amount cannot have more than %d decimal places", AmountScale)
	}
	if number == "" {
		return nil, shared.NewValidationError("credit note number is required")
	}
	d := shared.Now()
	if date != nil && !date.IsZero() {
		d = date.UTC()
	}
	return &CreditNote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		InvoiceID:           invoiceID,
		CreditNoteNumber:    number,
		Amount:              amount,
		Date:                d,
	}, nil
}
