package invoicing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodPayPal       PaymentMethod = "PAYPAL"
	PaymentMethodStripe       PaymentMethod = "STRIPE"
	PaymentMethodGateway      PaymentMethod = "GATEWAY"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCreditCard, PaymentMethodCash, PaymentMethodCheck,
		PaymentMethodPayPal, PaymentMethodStripe, PaymentMethodGateway:
		return true
	}
	return false
}

// ErrDuplicatePaymentReference marks a gateway payment whose reference was already recorded
var ErrDuplicatePaymentReference = errors.New("payment reference already recorded")

// DuplicatePaymentReferenceError matches both ErrDuplicatePaymentReference and shared.ErrConflict
func DuplicatePaymentReferenceError(reference string) error {
	return fmt.Errorf("%w: %w", ErrDuplicatePaymentReference,
		shared.NewConflictError("payment reference %q is already recorded", reference))
}

// PaymentStatus is the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// IsValid checks if the status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment records money received from a customer, optionally against one invoice.
// Only Status changes after creation.
type Payment struct {
	shared.TenantAggregateRoot
	CustomerID    uuid.UUID
	InvoiceID     *uuid.UUID
	PaymentNumber string
	Amount        decimal.Decimal
	Method        PaymentMethod
	Status        PaymentStatus
	Reference     string
	PaymentDate   time.Time
	Notes         string
}

// NewPayment creates a COMPLETED payment
func NewPayment(tenantID, customerID uuid.UUID, invoiceID *uuid.UUID, number string, amount decimal.Decimal, method PaymentMethod) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("payment amount must be greater than zero")
	}
	if !HasAmountScale(amount) {
		return nil, shared.NewValidationError("payment amount cannot have more than %d decimal places", AmountScale)
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if method == "" {
		method = PaymentMethodBankTransfer
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("invalid payment method %q", method)
	}
	if number == "" {
		return nil, shared.NewValidationError("payment number is required")
	}
	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		InvoiceID:           invoiceID,
		PaymentNumber:       number,
		Amount:              amount,
		Method:              method,
		Status:              PaymentStatusCompleted,
		PaymentDate:         shared.Now(),
	}, nil
}

// IsUnapplied reports whether the payment is customer credit not tied to an invoice
func (p *Payment) IsUnapplied() bool {
	return p.InvoiceID == nil
}

// UpdateStatus is the only mutation allowed on a recorded payment
func (p *Payment) UpdateStatus(status PaymentStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("invalid payment status %q", status)
	}
	p.Status = status
	p.Touch()
	return nil
}
