package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// (tenant_id, invoice_number) is unique; the constraint lives in the migrations.
type InvoiceModel struct {
	TenantAggregateModel
	CustomerID           uuid.UUID               `gorm:"type:uuid;not null;index"`
	CustomerName         string                  `gorm:"type:varchar(200);not null"`
	InvoiceNumber        string                  `gorm:"type:varchar(30);not null;index"`
	IssueDate            time.Time               `gorm:"not null"`
	DueDate              time.Time               `gorm:"not null;index"`
	Subtotal             decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount            decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount       decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount          decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	AmountPaid           decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceDue           decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Currency             string                  `gorm:"type:varchar(3);not null;default:'USD'"`
	Status               invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'SENT';index"`
	Notes                string                  `gorm:"type:text"`
	Terms                string                  `gorm:"type:text"`
	ConvertedFromQuoteID *uuid.UUID              `gorm:"type:uuid;index"`
	RecurringProfileID   *uuid.UUID              `gorm:"type:uuid;index"`
	Items                []InvoiceItemModel      `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// LineItemColumns are the priced columns shared by invoice and quote items
type LineItemColumns struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID      *uuid.UUID      `gorm:"type:uuid"`
	Description string          `gorm:"type:text;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Rate        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SortOrder   int             `gorm:"not null;default:0"`
}

func (c LineItemColumns) toDomain() invoicing.LineItem {
	return invoicing.LineItem{
		ID:          c.ID,
		ItemID:      c.ItemID,
		Description: c.Description,
		Quantity:    c.Quantity,
		Rate:        c.Rate,
		TaxRate:     c.TaxRate,
		Amount:      c.Amount,
		SortOrder:   c.SortOrder,
	}
}

func lineItemColumnsFromDomain(tenantID uuid.UUID, l invoicing.LineItem) LineItemColumns {
	return LineItemColumns{
		ID:          l.ID,
		TenantID:    tenantID,
		ItemID:      l.ItemID,
		Description: l.Description,
		Quantity:    l.Quantity,
		Rate:        l.Rate,
		TaxRate:     l.TaxRate,
		Amount:      l.Amount,
		SortOrder:   l.SortOrder,
	}
}

// InvoiceItemModel is a line of an invoice
type InvoiceItemModel struct {
	LineItemColumns
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		TenantAggregateRoot:  m.tenantRoot(),
		CustomerID:           m.CustomerID,
		CustomerName:         m.CustomerName,
		InvoiceNumber:        m.InvoiceNumber,
		IssueDate:            m.IssueDate.UTC(),
		DueDate:              m.DueDate.UTC(),
		Subtotal:             m.Subtotal,
		TaxAmount:            m.TaxAmount,
		DiscountAmount:       m.DiscountAmount,
		TotalAmount:          m.TotalAmount,
		AmountPaid:           m.AmountPaid,
		BalanceDue:           m.BalanceDue,
		Currency:             valueobject.Currency(m.Currency),
		Status:               m.Status,
		Notes:                m.Notes,
		Terms:                m.Terms,
		ConvertedFromQuoteID: m.ConvertedFromQuoteID,
		RecurringProfileID:   m.RecurringProfileID,
		Items:                make([]invoicing.LineItem, len(m.Items)),
	}
	for i, item := range m.Items {
		inv.Items[i] = item.toDomain()
	}
	return inv
}

// FromDomain populates the model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.CustomerID = inv.CustomerID
	m.CustomerName = inv.CustomerName
	m.InvoiceNumber = inv.InvoiceNumber
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Subtotal = inv.Subtotal
	m.TaxAmount = inv.TaxAmount
	m.DiscountAmount = inv.DiscountAmount
	m.TotalAmount = inv.TotalAmount
	m.AmountPaid = inv.AmountPaid
	m.BalanceDue = inv.BalanceDue
	m.Currency = inv.Currency.String()
	m.Status = inv.Status
	m.Notes = inv.Notes
	m.Terms = inv.Terms
	m.ConvertedFromQuoteID = inv.ConvertedFromQuoteID
	m.RecurringProfileID = inv.RecurringProfileID
	m.Items = InvoiceItemModelsFromDomain(inv)
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModelsFromDomain maps the invoice's lines
func InvoiceItemModelsFromDomain(inv *invoicing.Invoice) []InvoiceItemModel {
	items := make([]InvoiceItemModel, len(inv.Items))
	for i, l := range inv.Items {
		items[i] = InvoiceItemModel{
			LineItemColumns: lineItemColumnsFromDomain(inv.TenantID, l),
			InvoiceID:       inv.ID,
		}
	}
	return items
}

// QuoteModel is the persistence model for the Quote aggregate root
type QuoteModel struct {
	TenantAggregateModel
	CustomerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName   string    `gorm:"type:varchar(200);not null"`
	QuoteNumber    string    `gorm:"type:varchar(30);not null;index"`
	IssueDate      time.Time `gorm:"not null"`
	ExpiryDate     *time.Time
	Subtotal       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount    decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Currency       string                `gorm:"type:varchar(3);not null;default:'USD'"`
	Status         invoicing.QuoteStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Notes          string                `gorm:"type:text"`
	Terms          string                `gorm:"type:text"`
	Items          []QuoteItemModel      `gorm:"foreignKey:QuoteID;references:ID"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quotes"
}

// QuoteItemModel is a line of a quote
type QuoteItemModel struct {
	LineItemColumns
	QuoteID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (QuoteItemModel) TableName() string {
	return "quote_items"
}

// ToDomain converts the model to a domain Quote
func (m *QuoteModel) ToDomain() *invoicing.Quote {
	var expiry *time.Time
	if m.ExpiryDate != nil {
		e := m.ExpiryDate.UTC()
		expiry = &e
	}
	q := &invoicing.Quote{
		TenantAggregateRoot: m.tenantRoot(),
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		QuoteNumber:         m.QuoteNumber,
		IssueDate:           m.IssueDate.UTC(),
		ExpiryDate:          expiry,
		Subtotal:            m.Subtotal,
		TaxAmount:           m.TaxAmount,
		DiscountAmount:      m.DiscountAmount,
		TotalAmount:         m.TotalAmount,
		Currency:            valueobject.Currency(m.Currency),
		Status:              m.Status,
		Notes:               m.Notes,
		Terms:               m.Terms,
		Items:               make([]invoicing.LineItem, len(m.Items)),
	}
	for i, item := range m.Items {
		q.Items[i] = item.toDomain()
	}
	return q
}

// FromDomain populates the model from a domain Quote
func (m *QuoteModel) FromDomain(q *invoicing.Quote) {
	m.FromDomainTenantAggregateRoot(q.TenantAggregateRoot)
	m.CustomerID = q.CustomerID
	m.CustomerName = q.CustomerName
	m.QuoteNumber = q.QuoteNumber
	m.IssueDate = q.IssueDate
	m.ExpiryDate = q.ExpiryDate
	m.Subtotal = q.Subtotal
	m.TaxAmount = q.TaxAmount
	m.DiscountAmount = q.DiscountAmount
	m.TotalAmount = q.TotalAmount
	m.Currency = q.Currency.String()
	m.Status = q.Status
	m.Notes = q.Notes
	m.Terms = q.Terms
	m.Items = QuoteItemModelsFromDomain(q)
}

// QuoteModelFromDomain creates a new persistence model from a domain Quote
func QuoteModelFromDomain(q *invoicing.Quote) *QuoteModel {
	m := &QuoteModel{}
	m.FromDomain(q)
	return m
}

// QuoteItemModelsFromDomain maps the quote's lines
func QuoteItemModelsFromDomain(q *invoicing.Quote) []QuoteItemModel {
	items := make([]QuoteItemModel, len(q.Items))
	for i, l := range q.Items {
		items[i] = QuoteItemModel{
			LineItemColumns: lineItemColumnsFromDomain(q.TenantID, l),
			QuoteID:         q.ID,
		}
	}
	return items
}

// PaymentModel is the persistence model for payments
type PaymentModel struct {
	TenantAggregateModel
	CustomerID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	InvoiceID     *uuid.UUID              `gorm:"type:uuid;index"`
	PaymentNumber string                  `gorm:"type:varchar(30);not null;index"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Method        invoicing.PaymentMethod `gorm:"type:varchar(30);not null"`
	Status        invoicing.PaymentStatus `gorm:"type:varchar(20);not null;default:'COMPLETED'"`
	Reference     string                  `gorm:"type:varchar(200);index"`
	PaymentDate   time.Time               `gorm:"not null"`
	Notes         string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain Payment
func (m *PaymentModel) ToDomain() *invoicing.Payment {
	return &invoicing.Payment{
		TenantAggregateRoot: m.tenantRoot(),
		CustomerID:          m.CustomerID,
		InvoiceID:           m.InvoiceID,
		PaymentNumber:       m.PaymentNumber,
		Amount:              m.Amount,
		Method:              m.Method,
		Status:              m.Status,
		Reference:           m.Reference,
		PaymentDate:         m.PaymentDate.UTC(),
		Notes:               m.Notes,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *invoicing.Payment) *PaymentModel {
	m := &PaymentModel{
		CustomerID:    p.CustomerID,
		InvoiceID:     p.InvoiceID,
		PaymentNumber: p.PaymentNumber,
		Amount:        p.Amount,
		Method:        p.Method,
		Status:        p.Status,
		Reference:     p.Reference,
		PaymentDate:   p.PaymentDate,
		Notes:         p.Notes,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// CreditNoteModel is the persistence model for credit notes
type CreditNoteModel struct {
	TenantAggregateModel
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID        *uuid.UUID      `gorm:"type:uuid;index"`
	CreditNoteNumber string          `gorm:"type:varchar(30);not null;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason           string          `gorm:"type:varchar(500)"`
	Notes            string          `gorm:"type:text"`
	Date             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CreditNoteModel) TableName() string {
	return "credit_notes"
}

// ToDomain converts the model to a domain CreditNote
func (m *CreditNoteModel) ToDomain() *invoicing.CreditNote {
	return &invoicing.CreditNote{
		TenantAggregateRoot: m.tenantRoot(),
		CustomerID:          m.CustomerID,
		InvoiceID:           m.InvoiceID,
		CreditNoteNumber:    m.CreditNoteNumber,
		Amount:              m.Amount,
		Reason:              m.Reason,
		Notes:               m.Notes,
		Date:                m.Date.UTC(),
	}
}

// CreditNoteModelFromDomain creates a new persistence model from a domain CreditNote
func CreditNoteModelFromDomain(c *invoicing.CreditNote) *CreditNoteModel {
	m := &CreditNoteModel{
		CustomerID:       c.CustomerID,
		InvoiceID:        c.InvoiceID,
		CreditNoteNumber: c.CreditNoteNumber,
		Amount:           c.Amount,
		Reason:           c.Reason,
		Notes:            c.Notes,
		Date:             c.Date,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// RecurringProfileModel is the persistence model for recurring invoice profiles
type RecurringProfileModel struct {
	TenantAggregateModel
	CustomerID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	CustomerName    string              `gorm:"type:varchar(200);not null"`
	ProfileName     string              `gorm:"type:varchar(200);not null"`
	Frequency       invoicing.Frequency `gorm:"type:varchar(20);not null;default:'monthly'"`
	StartDate       time.Time           `gorm:"not null"`
	EndDate         *time.Time
	NextInvoiceDate time.Time       `gorm:"not null;index"`
	Currency        string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes           string          `gorm:"type:text"`
	Terms           string          `gorm:"type:text"`
	IsActive        bool            `gorm:"not null;default:true;index"`
	LastRunAt       *time.Time
}

// TableName returns the table name for GORM
func (RecurringProfileModel) TableName() string {
	return "recurring_invoices"
}

// ToDomain converts the model to a domain RecurringProfile
func (m *RecurringProfileModel) ToDomain() *invoicing.RecurringProfile {
	return &invoicing.RecurringProfile{
		TenantAggregateRoot: m.tenantRoot(),
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		ProfileName:         m.ProfileName,
		Frequency:           m.Frequency,
		StartDate:           m.StartDate.UTC(),
		EndDate:             utcPtr(m.EndDate),
		NextInvoiceDate:     m.NextInvoiceDate.UTC(),
		Currency:            valueobject.Currency(m.Currency),
		Subtotal:            m.Subtotal,
		TaxAmount:           m.TaxAmount,
		TotalAmount:         m.TotalAmount,
		Notes:               m.Notes,
		Terms:               m.Terms,
		IsActive:            m.IsActive,
		LastRunAt:           utcPtr(m.LastRunAt),
	}
}

// RecurringProfileModelFromDomain creates a new persistence model from a domain RecurringProfile
func RecurringProfileModelFromDomain(p *invoicing.RecurringProfile) *RecurringProfileModel {
	m := &RecurringProfileModel{
		CustomerID:      p.CustomerID,
		CustomerName:    p.CustomerName,
		ProfileName:     p.ProfileName,
		Frequency:       p.Frequency,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		NextInvoiceDate: p.NextInvoiceDate,
		Currency:        p.Currency.String(),
		Subtotal:        p.Subtotal,
		TaxAmount:       p.TaxAmount,
		TotalAmount:     p.TotalAmount,
		Notes:           p.Notes,
		Terms:           p.Terms,
		IsActive:        p.IsActive,
		LastRunAt:       p.LastRunAt,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// DocumentSequenceModel holds the last issued ordinal per tenant and document type
type DocumentSequenceModel struct {
	TenantID     uuid.UUID              `gorm:"type:uuid;primaryKey"`
	DocumentType invoicing.DocumentType `gorm:"type:varchar(20);primaryKey"`
	LastValue    int64                  `gorm:"not null;default:0"`
	UpdatedAt    time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
