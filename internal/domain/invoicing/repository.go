package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	Status     InvoiceStatus
	CustomerID *uuid.UUID
}

// InvoiceRef identifies an invoice across tenants, used by sweeps
type InvoiceRef struct {
	TenantID uuid.UUID
	ID       uuid.UUID
}

// InvoiceRepository persists invoices and their line items.
// Every method that takes a tenant ID filters on it.
type InvoiceRepository interface {
	// FindByID loads an invoice with its items
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindByIDForUpdate is FindByID holding a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)
	// FindAllWithItems loads every invoice of the tenant with items, for reports
	FindAllWithItems(ctx context.Context, tenantID uuid.UUID) ([]Invoice, error)
	// FindOutstanding returns invoices with a positive balance
	FindOutstanding(ctx context.Context, tenantID uuid.UUID) ([]Invoice, error)
	// FindOverdueCandidates returns invoices due before now in a status the sweep may flag
	FindOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]InvoiceRef, error)
	Create(ctx context.Context, invoice *Invoice) error
	// Update saves header fields. It fails with a concurrency conflict when the
	// stored version differs from invoice.Version and bumps the version otherwise.
	Update(ctx context.Context, invoice *Invoice) error
	// ReplaceItems deletes the stored items and inserts invoice.Items
	ReplaceItems(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// QuoteFilter narrows quote listings
type QuoteFilter struct {
	shared.Filter
	Status     QuoteStatus
	CustomerID *uuid.UUID
}

// QuoteRepository persists quotes and their line items
type QuoteRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Quote, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Quote, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter QuoteFilter) ([]Quote, int64, error)
	Create(ctx context.Context, quote *Quote) error
	Update(ctx context.Context, quote *Quote) error
	ReplaceItems(ctx context.Context, quote *Quote) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	InvoiceID  *uuid.UUID
	Method     PaymentMethod
	Status     PaymentStatus
}

// PaymentRepository persists payments
type PaymentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]Payment, int64, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)
	CountByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error)
	ExistsByReference(ctx context.Context, tenantID uuid.UUID, method PaymentMethod, reference string) (bool, error)
	Create(ctx context.Context, payment *Payment) error
	UpdateStatus(ctx context.Context, payment *Payment) error
}

// CreditNoteRepository persists credit notes
type CreditNoteRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CreditNote, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CreditNote, int64, error)
	Create(ctx context.Context, note *CreditNote) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// RecurringProfileRepository persists recurring profiles
type RecurringProfileRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*RecurringProfile, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*RecurringProfile, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]RecurringProfile, int64, error)
	// FindDue returns active profiles whose next invoice date has arrived and whose end date has not passed
	FindDue(ctx context.Context, now time.Time, limit int) ([]RecurringProfile, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Create(ctx context.Context, profile *RecurringProfile) error
	Update(ctx context.Context, profile *RecurringProfile) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
