package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormQuoteRepository implements QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByID loads a quote with its items
func (r *GormQuoteRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Quote")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads a quote holding a row lock
func (r *GormQuoteRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Quote")
	}
	if err := r.db.WithContext(ctx).
		Where("quote_id = ?", model.ID).
		Order("sort_order ASC").
		Find(&model.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load quote items: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists quotes. Search matches the quote number or customer name.
func (r *GormQuoteRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter invoicing.QuoteFilter) ([]invoicing.Quote, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("(LOWER(quote_number) LIKE ?"+searchEscape+" OR LOWER(customer_name) LIKE ?"+searchEscape+")", p, p)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quotes: %w", err)
	}
	var rows []models.QuoteModel
	if err := paginate(query, filter.Filter, QuoteSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list quotes: %w", err)
	}
	out := make([]invoicing.Quote, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts the quote and its items
func (r *GormQuoteRepository) Create(ctx context.Context, quote *invoicing.Quote) error {
	if err := r.db.WithContext(ctx).Create(models.QuoteModelFromDomain(quote)).Error; err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

// Update saves header fields with an optimistic version check
func (r *GormQuoteRepository) Update(ctx context.Context, quote *invoicing.Quote) error {
	result := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", quote.TenantID, quote.ID, quote.Version).
		Updates(map[string]any{
			"expiry_date":     quote.ExpiryDate,
			"subtotal":        quote.Subtotal,
			"tax_amount":      quote.TaxAmount,
			"discount_amount": quote.DiscountAmount,
			"total_amount":    quote.TotalAmount,
			"currency":        quote.Currency.String(),
			"status":          quote.Status,
			"notes":           quote.Notes,
			"terms":           quote.Terms,
			"version":         quote.Version + 1,
			"updated_at":      quote.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update quote: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	quote.IncrementVersion()
	return nil
}

// ReplaceItems deletes the stored items and inserts quote.Items
func (r *GormQuoteRepository) ReplaceItems(ctx context.Context, quote *invoicing.Quote) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("tenant_id = ? AND quote_id = ?", quote.TenantID, quote.ID).
		Delete(&models.QuoteItemModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete quote items: %w", err)
	}
	items := models.QuoteItemModelsFromDomain(quote)
	if len(items) == 0 {
		return nil
	}
	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("failed to insert quote items: %w", err)
	}
	return nil
}

// Delete removes the quote and its items
func (r *GormQuoteRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("tenant_id = ? AND quote_id = ?", tenantID, id).
		Delete(&models.QuoteItemModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete quote items: %w", err)
	}
	result := db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.QuoteModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete quote: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Quote")
	}
	return nil
}

// Ensure GormQuoteRepository implements QuoteRepository
var _ invoicing.QuoteRepository = (*GormQuoteRepository)(nil)
