package activity

import (
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// Action is what happened to a document
type Action string

const (
	ActionCreated         Action = "created"
	ActionUpdated         Action = "updated"
	ActionSent            Action = "sent"
	ActionViewed          Action = "viewed"
	ActionPaid            Action = "paid"
	ActionOverdue         Action = "overdue"
	ActionVoided          Action = "voided"
	ActionDeleted         Action = "deleted"
	ActionAccepted        Action = "accepted"
	ActionDeclined        Action = "declined"
	ActionConverted       Action = "converted"
	ActionPaymentReceived Action = "payment_received"
)

// IsValid checks if the action is known
func (a Action) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionSent, ActionViewed, ActionPaid, ActionOverdue,
		ActionVoided, ActionDeleted, ActionAccepted, ActionDeclined, ActionConverted, ActionPaymentReceived:
		return true
	}
	return false
}

// Log is an append-only audit entry for an invoice or a quote.
// InvoiceID is not a foreign key so the entry outlives a deleted invoice.
type Log struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	InvoiceID *uuid.UUID
	QuoteID   *uuid.UUID
	Action    Action
	Details   string
	UserID    *uuid.UUID
}

// Entry is the input for recording activity
type Entry struct {
	TenantID  uuid.UUID
	InvoiceID *uuid.UUID
	QuoteID   *uuid.UUID
	Action    Action
	Details   string
	UserID    *uuid.UUID
}

// ForInvoice builds an entry on an invoice
func ForInvoice(tenantID, invoiceID uuid.UUID, action Action, details string, userID *uuid.UUID) Entry {
	return Entry{TenantID: tenantID, InvoiceID: &invoiceID, Action: action, Details: details, UserID: userID}
}

// ForQuote builds an entry on a quote
func ForQuote(tenantID, quoteID uuid.UUID, action Action, details string, userID *uuid.UUID) Entry {
	return Entry{TenantID: tenantID, QuoteID: &quoteID, Action: action, Details: details, UserID: userID}
}

// NewLog validates an entry. At most one of invoice and quote may be set.
func NewLog(e Entry) (*Log, error) {
	if e.TenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if e.InvoiceID != nil && e.QuoteID != nil {
		return nil, shared.NewValidationError("activity may reference an invoice or a quote, not both")
	}
	if !e.Action.IsValid() {
		return nil, shared.NewValidationError("invalid activity action %q", e.Action)
	}
	return &Log{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   e.TenantID,
		InvoiceID:  e.InvoiceID,
		QuoteID:    e.QuoteID,
		Action:     e.Action,
		Details:    e.Details,
		UserID:     e.UserID,
	}, nil
}
