package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// QuoteStatus represents the lifecycle state of a quote
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "DRAFT"
	QuoteStatusSent      QuoteStatus = "SENT"
	QuoteStatusAccepted  QuoteStatus = "ACCEPTED"
	QuoteStatusDeclined  QuoteStatus = "DECLINED"
	QuoteStatusExpired   QuoteStatus = "EXPIRED"
	QuoteStatusConverted QuoteStatus = "CONVERTED"
)

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusDraft:    {QuoteStatusSent, QuoteStatusConverted},
	QuoteStatusSent:     {QuoteStatusAccepted, QuoteStatusDeclined, QuoteStatusExpired, QuoteStatusConverted},
	QuoteStatusAccepted: {QuoteStatusConverted},
}

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusDeclined,
		QuoteStatusExpired, QuoteStatusConverted:
		return true
	}
	return false
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// IsTerminal returns true for CONVERTED, DECLINED and EXPIRED
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusConverted || s == QuoteStatusDeclined || s == QuoteStatusExpired
}

// CanTransitionTo reports whether s -> target is allowed
func (s QuoteStatus) CanTransitionTo(target QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// NewQuoteInput carries the header fields of a new quote
type NewQuoteInput struct {
	TenantID     uuid.UUID
	CustomerID   uuid.UUID
	CustomerName string
	QuoteNumber  string
	IssueDate    time.Time
	ExpiryDate   *time.Time
	Currency     valueobject.Currency
	Notes        string
	Terms        string
	CreatedBy    *uuid.UUID
}

// Quote is the quote aggregate root
type Quote struct {
	shared.TenantAggregateRoot
	CustomerID     uuid.UUID
	CustomerName   string
	QuoteNumber    string
	IssueDate      time.Time
	ExpiryDate     *time.Time
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       valueobject.Currency
	Status         QuoteStatus
	Notes          string
	Terms          string
	Items          []LineItem
}

// NewQuote prices the lines and creates a DRAFT quote
func NewQuote(in NewQuoteInput, lines []LineInput, discount decimal.Decimal) (*Quote, error) {
	if in.TenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if in.QuoteNumber == "" {
		return nil, shared.NewValidationError("quote number is required")
	}
	if !in.Currency.IsValid() {
		return nil, shared.NewValidationError("invalid currency %q", in.Currency)
	}
	items, totals, err := BuildLineItems(lines)
	if err != nil {
		return nil, err
	}
	totals, err = totals.WithDiscount(discount)
	if err != nil {
		return nil, err
	}

	issueDate := in.IssueDate
	if issueDate.IsZero() {
		issueDate = shared.Now()
	}

	q := &Quote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(in.TenantID),
		CustomerID:          in.CustomerID,
		CustomerName:        in.CustomerName,
		QuoteNumber:         in.QuoteNumber,
		IssueDate:           issueDate.UTC(),
		ExpiryDate:          utcPtr(in.ExpiryDate),
		Currency:            in.Currency,
		Status:              QuoteStatusDraft,
		Notes:               in.Notes,
		Terms:               in.Terms,
		Items:               items,
	}
	q.SetCreatedBy(in.CreatedBy)
	q.applyTotals(totals)
	return q, nil
}

// ReplaceItems recomputes the quote from a replacement line set
func (q *Quote) ReplaceItems(lines []LineInput, discount decimal.Decimal) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	items, totals, err := BuildLineItems(lines)
	if err != nil {
		return err
	}
	totals, err = totals.WithDiscount(discount)
	if err != nil {
		return err
	}
	q.Items = items
	q.applyTotals(totals)
	return nil
}

// ApplyDiscount changes the discount against stored subtotal and tax
func (q *Quote) ApplyDiscount(discount decimal.Decimal) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	totals, err := q.Totals().WithDiscount(discount)
	if err != nil {
		return err
	}
	q.applyTotals(totals)
	return nil
}

// UpdateHeader applies scalar edits; nil fields are left unchanged
func (q *Quote) UpdateHeader(expiry *time.Time, cur *valueobject.Currency, notes, terms *string) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if cur != nil {
		if !cur.IsValid() {
			return shared.NewValidationError("invalid currency %q", *cur)
		}
		q.Currency = *cur
	}
	if expiry != nil {
		q.ExpiryDate = utcPtr(expiry)
	}
	if notes != nil {
		q.Notes = *notes
	}
	if terms != nil {
		q.Terms = *terms
	}
	q.Touch()
	return nil
}

// TransitionTo moves the quote to target if allowed
func (q *Quote) TransitionTo(target QuoteStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("invalid quote status %q", target)
	}
	if q.Status == QuoteStatusConverted {
		return shared.NewConflictError("quote %s is already converted", q.QuoteNumber)
	}
	if !q.Status.CanTransitionTo(target) {
		return shared.NewConflictError("quote %s cannot move from %s to %s", q.QuoteNumber, q.Status, target)
	}
	q.Status = target
	q.Touch()
	return nil
}

// MarkConverted records conversion. A quote converts at most once.
func (q *Quote) MarkConverted() error {
	return q.TransitionTo(QuoteStatusConverted)
}

// CanBeDeleted returns an error when the quote may not be removed
func (q *Quote) CanBeDeleted() error {
	if q.Status == QuoteStatusConverted {
		return shared.NewConflictError("quote %s is already converted and cannot be deleted", q.QuoteNumber)
	}
	return nil
}

// Totals returns the stored quote totals
func (q *Quote) Totals() Totals {
	return Totals{
		Subtotal:  q.Subtotal,
		TaxAmount: q.TaxAmount,
		Discount:  q.DiscountAmount,
		Total:     q.TotalAmount,
	}
}

func (q *Quote) applyTotals(t Totals) {
	q.Subtotal = t.Subtotal
	q.TaxAmount = t.TaxAmount
	q.DiscountAmount = t.Discount
	q.TotalAmount = t.Total
	q.Touch()
}

func (q *Quote) ensureEditable() error {
	if q.Status == QuoteStatusConverted {
		return shared.NewConflictError("quote %s is already converted", q.QuoteNumber)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
