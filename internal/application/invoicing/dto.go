package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// LineRequest is one requested line. When ItemID names a catalog item, an
// empty description and nil rate or tax rate are copied from the item.
type LineRequest struct {
	ItemID      *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	Rate        *decimal.Decimal
	TaxRate     *decimal.Decimal
}

// CreateInvoiceRequest is the input for creating a manual invoice
type CreateInvoiceRequest struct {
	CustomerID uuid.UUID
	Items      []LineRequest
	IssueDate  *time.Time
	DueDate    time.Time
	Discount   decimal.Decimal
	Notes      string
	Terms      string
	Currency   string
	Status     string
}

// UpdateInvoiceRequest is a partial invoice update. Nil fields are left unchanged;
// a non-nil Items replaces every line.
type UpdateInvoiceRequest struct {
	Items    []LineRequest
	DueDate  *time.Time
	Discount *decimal.Decimal
	Notes    *string
	Terms    *string
	Currency *string
	Status   *string
}

// InvoiceListFilter narrows invoice listings
type InvoiceListFilter = invoicing.InvoiceFilter

// InvoiceDetail is an invoice with everything shown on its page
type InvoiceDetail struct {
	Invoice  *invoicing.Invoice
	Customer *partner.Customer
	Payments []invoicing.Payment
	Activity []activity.Log
}

// CreateQuoteRequest is the input for creating a quote
type CreateQuoteRequest struct {
	CustomerID uuid.UUID
	Items      []LineRequest
	IssueDate  *time.Time
	ExpiryDate *time.Time
	Discount   decimal.Decimal
	Notes      string
	Terms      string
	Currency   string
}

// UpdateQuoteRequest is a partial quote update
type UpdateQuoteRequest struct {
	Items      []LineRequest
	ExpiryDate *time.Time
	Discount   *decimal.Decimal
	Notes      *string
	Terms      *string
	Currency   *string
	Status     *string
}

// QuoteDetail is a quote with its customer and activity
type QuoteDetail struct {
	Quote    *invoicing.Quote
	Customer *partner.Customer
	Activity []activity.Log
}

// ConvertQuoteRequest is the input for converting a quote into an invoice.
// A zero DueDate defaults to 30 days after conversion.
type ConvertQuoteRequest struct {
	DueDate time.Time
}

// ApplyPaymentRequest is the input for recording a payment
type ApplyPaymentRequest struct {
	InvoiceID   *uuid.UUID
	CustomerID  uuid.UUID
	Amount      decimal.Decimal
	Method      string
	Reference   string
	PaymentDate *time.Time
	Notes       string
	// Currency, when set, must match the invoice currency
	Currency string
}

// GatewayCapture is a captured payment reported by the payment gateway.
// AmountMinor is in the minor unit of Currency.
type GatewayCapture struct {
	PaymentID   string
	AmountMinor int64
	Currency    string
	InvoiceID   uuid.UUID
	TenantID    uuid.UUID
	CustomerID  uuid.UUID
}

// CreateCreditNoteRequest is the input for issuing a credit note
type CreateCreditNoteRequest struct {
	CustomerID uuid.UUID
	InvoiceID  *uuid.UUID
	Amount     decimal.Decimal
	Reason     string
	Notes      string
	Date       *time.Time
}

// ConsolidateRequest selects billable records to invoice
type ConsolidateRequest struct {
	CustomerID   uuid.UUID
	TimeEntryIDs []uuid.UUID
	ExpenseIDs   []uuid.UUID
}

// CreateRecurringRequest is the input for creating a recurring profile.
// A zero TotalAmount is derived as subtotal plus tax.
type CreateRecurringRequest struct {
	CustomerID  uuid.UUID
	ProfileName string
	Frequency   string
	StartDate   time.Time
	EndDate     *time.Time
	Currency    string
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
	Notes       string
	Terms       string
}

// UpdateRecurringRequest is a partial recurring profile update
type UpdateRecurringRequest struct {
	ProfileName *string
	Frequency   *string
	StartDate   *time.Time
	EndDate     *time.Time
	Subtotal    *decimal.Decimal
	TaxAmount   *decimal.Decimal
	TotalAmount *decimal.Decimal
	Notes       *string
	Terms       *string
	IsActive    *bool
}

// SweepResult summarizes one background sweep run
type SweepResult struct {
	Sweep     string        `json:"sweep"`
	Selected  int           `json:"selected"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}
