package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const searchEscape = ` ESCAPE '\'`

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
}

// FindByID loads an invoice with its items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withItems(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Invoice")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads an invoice holding a row lock until the transaction ends
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Invoice")
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", model.ID).
		Order("sort_order ASC").
		Find(&model.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load invoice items: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists invoices. Search matches the invoice number or customer name.
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("(LOWER(invoice_number) LIKE ?"+searchEscape+" OR LOWER(customer_name) LIKE ?"+searchEscape+")", p, p)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	var rows []models.InvoiceModel
	if err := paginate(query, filter.Filter, InvoiceSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoicesToDomain(rows), total, nil
}

// FindAllWithItems loads every invoice of the tenant with items
func (r *GormInvoiceRepository) FindAllWithItems(ctx context.Context, tenantID uuid.UUID) ([]invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.withItems(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	return invoicesToDomain(rows), nil
}

// FindOutstanding returns invoices with a positive balance, oldest due first
func (r *GormInvoiceRepository) FindOutstanding(ctx context.Context, tenantID uuid.UUID) ([]invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND balance_due > 0", tenantID).
		Order("due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load outstanding invoices: %w", err)
	}
	return invoicesToDomain(rows), nil
}

// FindOverdueCandidates returns invoices across tenants that are past due, still open and owe a balance
func (r *GormInvoiceRepository) FindOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]invoicing.InvoiceRef, error) {
	var refs []invoicing.InvoiceRef
	query := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("tenant_id, id").
		Where("due_date < ? AND status IN ? AND balance_due > 0", now.UTC(), invoicing.OverdueCandidateStatuses).
		Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(&refs).Error; err != nil {
		return nil, fmt.Errorf("failed to select overdue candidates: %w", err)
	}
	return refs, nil
}

// Create inserts the invoice and its items
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// Update saves header fields with an optimistic version check
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *invoicing.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", invoice.TenantID, invoice.ID, invoice.Version).
		Updates(map[string]any{
			"customer_id":             invoice.CustomerID,
			"customer_name":           invoice.CustomerName,
			"issue_date":              invoice.IssueDate,
			"due_date":                invoice.DueDate,
			"subtotal":                invoice.Subtotal,
			"tax_amount":              invoice.TaxAmount,
			"discount_amount":         invoice.DiscountAmount,
			"total_amount":            invoice.TotalAmount,
			"amount_paid":             invoice.AmountPaid,
			"balance_due":             invoice.BalanceDue,
			"currency":                invoice.Currency.String(),
			"status":                  invoice.Status,
			"notes":                   invoice.Notes,
			"terms":                   invoice.Terms,
			"converted_from_quote_id": invoice.ConvertedFromQuoteID,
			"recurring_profile_id":    invoice.RecurringProfileID,
			"version":                 invoice.Version + 1,
			"updated_at":              invoice.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	invoice.IncrementVersion()
	return nil
}

// ReplaceItems deletes the stored items and inserts invoice.Items
func (r *GormInvoiceRepository) ReplaceItems(ctx context.Context, invoice *invoicing.Invoice) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("tenant_id = ? AND invoice_id = ?", invoice.TenantID, invoice.ID).
		Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	items := models.InvoiceItemModelsFromDomain(invoice)
	if len(items) == 0 {
		return nil
	}
	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("failed to insert invoice items: %w", err)
	}
	return nil
}

// Delete removes the invoice and its items. Activity rows are kept.
func (r *GormInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("tenant_id = ? AND invoice_id = ?", tenantID, id).
		Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	result := db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.InvoiceModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Invoice")
	}
	return nil
}

func invoicesToDomain(rows []models.InvoiceModel) []invoicing.Invoice {
	out := make([]invoicing.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
