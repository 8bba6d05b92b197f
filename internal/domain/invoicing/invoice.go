package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusViewed        InvoiceStatus = "VIEWED"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusVoid          InvoiceStatus = "VOID"
)

// invoiceTransitions lists the allowed target states for each state.
// PAID and VOID have no outgoing transitions.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:         {InvoiceStatusSent, InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusVoid},
	InvoiceStatusSent:          {InvoiceStatusViewed, InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid},
	InvoiceStatusViewed:        {InvoiceStatusSent, InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid},
	InvoiceStatusPartiallyPaid: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid},
	InvoiceStatusOverdue:       {InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusVoid},
}

// OverdueCandidateStatuses are the states the overdue sweep may move to OVERDUE
var OverdueCandidateStatuses = []InvoiceStatus{
	InvoiceStatusSent,
	InvoiceStatusViewed,
	InvoiceStatusPartiallyPaid,
}

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true for PAID and VOID
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoid
}

// CanTransitionTo reports whether the table allows s -> target
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// NewInvoiceInput carries the header fields of a new invoice
type NewInvoiceInput struct {
	TenantID             uuid.UUID
	CustomerID           uuid.UUID
	CustomerName         string
	InvoiceNumber        string
	IssueDate            time.Time
	DueDate              time.Time
	Currency             valueobject.Currency
	Notes                string
	Terms                string
	Status               InvoiceStatus // DRAFT or SENT, defaults to SENT
	ConvertedFromQuoteID *uuid.UUID
	RecurringProfileID   *uuid.UUID
	CreatedBy            *uuid.UUID
}

// Invoice is the invoice aggregate root
type Invoice struct {
	shared.TenantAggregateRoot
	CustomerID           uuid.UUID
	CustomerName         string
	InvoiceNumber        string
	IssueDate            time.Time
	DueDate              time.Time
	Subtotal             decimal.Decimal
	TaxAmount            decimal.Decimal
	DiscountAmount       decimal.Decimal
	TotalAmount          decimal.Decimal
	AmountPaid           decimal.Decimal
	BalanceDue           decimal.Decimal
	Currency             valueobject.Currency
	Status               InvoiceStatus
	Notes                string
	Terms                string
	ConvertedFromQuoteID *uuid.UUID
	RecurringProfileID   *uuid.UUID
	Items                []LineItem
}

// NewInvoice prices the lines and creates an open invoice
func NewInvoice(in NewInvoiceInput, lines []LineInput, discount decimal.Decimal) (*Invoice, error) {
	items, totals, err := BuildLineItems(lines)
	if err != nil {
		return nil, err
	}
	totals, err = totals.WithDiscount(discount)
	if err != nil {
		return nil, err
	}
	return NewInvoiceFromTotals(in, items, totals)
}

// NewInvoiceFromTotals creates an invoice from amounts computed elsewhere
// (a converted quote or a recurring profile). Items may be empty.
func NewInvoiceFromTotals(in NewInvoiceInput, items []LineItem, totals Totals) (*Invoice, error) {
	if in.TenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if in.InvoiceNumber == "" {
		return nil, shared.NewValidationError("invoice number is required")
	}
	if in.DueDate.IsZero() {
		return nil, shared.NewValidationError("due date is required")
	}
	if !in.Currency.IsValid() {
		return nil, shared.NewValidationError("invalid currency %q", in.Currency)
	}
	if totals.Discount.IsNegative() {
		return nil, shared.NewValidationError("discount cannot be negative")
	}

	status := in.Status
	if status == "" {
		status = InvoiceStatusSent
	}
	if status != InvoiceStatusDraft && status != InvoiceStatusSent {
		return nil, shared.NewValidationError("invoice must be created as DRAFT or SENT, got %s", status)
	}

	issueDate := in.IssueDate
	if issueDate.IsZero() {
		issueDate = shared.Now()
	}

	inv := &Invoice{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(in.TenantID),
		CustomerID:           in.CustomerID,
		CustomerName:         in.CustomerName,
		InvoiceNumber:        in.InvoiceNumber,
		IssueDate:            issueDate.UTC(),
		DueDate:              in.DueDate.UTC(),
		Subtotal:             totals.Subtotal,
		TaxAmount:            totals.TaxAmount,
		DiscountAmount:       totals.Discount,
		TotalAmount:          totals.Total,
		AmountPaid:           decimal.Zero,
		Currency:             in.Currency,
		Status:               status,
		Notes:                in.Notes,
		Terms:                in.Terms,
		ConvertedFromQuoteID: in.ConvertedFromQuoteID,
		RecurringProfileID:   in.RecurringProfileID,
		Items:                items,
	}
	inv.SetCreatedBy(in.CreatedBy)
	inv.recomputeBalance()
	return inv, nil
}

// ReplaceItems recomputes every amount from a replacement line set.
// The existing AmountPaid is kept and BalanceDue is re-derived from it.
func (i *Invoice) ReplaceItems(lines []LineInput, discount decimal.Decimal) error {
	if err := i.ensureAmountsEditable(); err != nil {
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
	i.Items = items
	i.applyTotals(totals)
	return nil
}

// ApplyDiscount changes the discount and recomputes the total from stored subtotal and tax
func (i *Invoice) ApplyDiscount(discount decimal.Decimal) error {
	if err := i.ensureAmountsEditable(); err != nil {
		return err
	}
	totals, err := i.Totals().WithDiscount(discount)
	if err != nil {
		return err
	}
	i.applyTotals(totals)
	return nil
}

// ChangeCurrency sets the document currency
func (i *Invoice) ChangeCurrency(cur valueobject.Currency) error {
	if err := i.ensureAmountsEditable(); err != nil {
		return err
	}
	if !cur.IsValid() {
		return shared.NewValidationError("invalid currency %q", cur)
	}
	i.Currency = cur
	i.Touch()
	return nil
}

// SetDueDate changes the due date
func (i *Invoice) SetDueDate(due time.Time) error {
	if due.IsZero() {
		return shared.NewValidationError("due date is required")
	}
	i.DueDate = due.UTC()
	i.Touch()
	return nil
}

// SetNotes replaces the free-text notes and terms
func (i *Invoice) SetNotes(notes, terms *string) {
	if notes != nil {
		i.Notes = *notes
	}
	if terms != nil {
		i.Terms = *terms
	}
	i.Touch()
}

// TransitionTo moves the invoice to target if the transition table allows it.
// Moving to PAID settles the balance.
func (i *Invoice) TransitionTo(target InvoiceStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("invalid invoice status %q", target)
	}
	if !i.Status.CanTransitionTo(target) {
		return shared.NewConflictError("invoice %s cannot move from %s to %s", i.InvoiceNumber, i.Status, target)
	}
	if target == InvoiceStatusPaid {
		i.settle()
	}
	i.Status = target
	i.Touch()
	return nil
}

// MarkPaid settles the invoice: AmountPaid = Total, BalanceDue = 0, status PAID
func (i *Invoice) MarkPaid() error {
	return i.TransitionTo(InvoiceStatusPaid)
}

// MarkSent moves the invoice to SENT
func (i *Invoice) MarkSent() error {
	return i.TransitionTo(InvoiceStatusSent)
}

// ApplyPayment adds a payment to AmountPaid and derives BalanceDue and status.
// Overpayment is accepted; BalanceDue is clamped at zero.
func (i *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("payment amount must be greater than zero")
	}
	if !HasAmountScale(amount) {
		return shared.NewValidationError("payment amount cannot have more than %d decimal places", AmountScale)
	}
	if i.Status == InvoiceStatusVoid {
		return shared.NewConflictError("invoice %s is void and cannot receive payments", i.InvoiceNumber)
	}

	i.AmountPaid = i.AmountPaid.Add(amount)
	i.recomputeBalance()

	switch {
	case !i.BalanceDue.IsPositive():
		i.Status = InvoiceStatusPaid
	case i.AmountPaid.IsPositive() && i.Status != InvoiceStatusPaid:
		i.Status = InvoiceStatusPartiallyPaid
	}
	i.Touch()
	return nil
}

// IsOverdueCandidate reports whether the sweep should flag the invoice at now.
// An invoice with nothing left to pay is never a candidate.
func (i *Invoice) IsOverdueCandidate(now time.Time) bool {
	if !i.DueDate.Before(now) || !i.BalanceDue.IsPositive() {
		return false
	}
	for _, s := range OverdueCandidateStatuses {
		if i.Status == s {
			return true
		}
	}
	return false
}

// MarkOverdue moves a past-due open invoice to OVERDUE and returns the days past due
func (i *Invoice) MarkOverdue(now time.Time) (int, error) {
	if !i.IsOverdueCandidate(now) {
		return 0, shared.NewConflictError("invoice %s is not eligible for overdue (status %s)", i.InvoiceNumber, i.Status)
	}
	if err := i.TransitionTo(InvoiceStatusOverdue); err != nil {
		return 0, err
	}
	return i.DaysPastDue(now), nil
}

// DaysPastDue returns whole days elapsed since the due date, or 0 if not yet due
func (i *Invoice) DaysPastDue(now time.Time) int {
	return DaysBetween(i.DueDate, now)
}

// Totals returns the stored document totals
func (i *Invoice) Totals() Totals {
	return Totals{
		Subtotal:  i.Subtotal,
		TaxAmount: i.TaxAmount,
		Discount:  i.DiscountAmount,
		Total:     i.TotalAmount,
	}
}

// Balance returns BalanceDue as Money
func (i *Invoice) Balance() valueobject.Money {
	return valueobject.MustNewMoney(i.BalanceDue, i.Currency)
}

func (i *Invoice) applyTotals(t Totals) {
	i.Subtotal = t.Subtotal
	i.TaxAmount = t.TaxAmount
	i.DiscountAmount = t.Discount
	i.TotalAmount = t.Total
	i.recomputeBalance()
	// an edit that drops the total to or below what was already paid settles the invoice
	if i.AmountPaid.IsPositive() && i.BalanceDue.IsZero() {
		i.Status = InvoiceStatusPaid
	}
	i.Touch()
}

func (i *Invoice) recomputeBalance() {
	balance := i.TotalAmount.Sub(i.AmountPaid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	i.BalanceDue = balance
}

func (i *Invoice) settle() {
	if i.AmountPaid.LessThan(i.TotalAmount) {
		i.AmountPaid = i.TotalAmount
	}
	i.BalanceDue = decimal.Zero
}

func (i *Invoice) ensureAmountsEditable() error {
	if i.Status.IsTerminal() {
		return shared.NewConflictError("invoice %s is %s and its amounts cannot be edited", i.InvoiceNumber, i.Status)
	}
	return nil
}

// DaysBetween returns the whole days from -> to, never negative
func DaysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
