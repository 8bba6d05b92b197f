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

// GormRecurringProfileRepository implements RecurringProfileRepository using GORM
type GormRecurringProfileRepository struct {
	db *gorm.DB
}

// NewGormRecurringProfileRepository creates a new GormRecurringProfileRepository
func NewGormRecurringProfileRepository(db *gorm.DB) *GormRecurringProfileRepository {
	return &GormRecurringProfileRepository{db: db}
}

// FindByID finds a profile by ID within a tenant
func (r *GormRecurringProfileRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.RecurringProfile, error) {
	var model models.RecurringProfileModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Recurring profile")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads a profile holding a row lock
func (r *GormRecurringProfileRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.RecurringProfile, error) {
	var model models.RecurringProfileModel
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Recurring profile")
	}
	return model.ToDomain(), nil
}

// FindAll lists profiles of a tenant
func (r *GormRecurringProfileRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]invoicing.RecurringProfile, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RecurringProfileModel{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("(LOWER(profile_name) LIKE ?"+searchEscape+" OR LOWER(customer_name) LIKE ?"+searchEscape+")", p, p)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recurring profiles: %w", err)
	}
	var rows []models.RecurringProfileModel
	if err := paginate(query, filter, RecurringProfileSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list recurring profiles: %w", err)
	}
	return profilesToDomain(rows), total, nil
}

// FindDue returns due profiles across all tenants, earliest first
func (r *GormRecurringProfileRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]invoicing.RecurringProfile, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ? AND next_invoice_date <= ?", true, now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("next_invoice_date ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.RecurringProfileModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load due recurring profiles: %w", err)
	}
	return profilesToDomain(rows), nil
}

// CountByTenant counts profiles of a tenant, used for default profile names
func (r *GormRecurringProfileRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RecurringProfileModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count recurring profiles: %w", err)
	}
	return count, nil
}

// Create inserts a profile
func (r *GormRecurringProfileRepository) Create(ctx context.Context, profile *invoicing.RecurringProfile) error {
	if err := r.db.WithContext(ctx).Create(models.RecurringProfileModelFromDomain(profile)).Error; err != nil {
		return fmt.Errorf("failed to create recurring profile: %w", err)
	}
	return nil
}

// Update saves a profile with an optimistic version check
func (r *GormRecurringProfileRepository) Update(ctx context.Context, profile *invoicing.RecurringProfile) error {
	result := r.db.WithContext(ctx).
		Model(&models.RecurringProfileModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", profile.TenantID, profile.ID, profile.Version).
		Updates(map[string]any{
			"customer_id":       profile.CustomerID,
			"customer_name":     profile.CustomerName,
			"profile_name":      profile.ProfileName,
			"frequency":         profile.Frequency,
			"start_date":        profile.StartDate,
			"end_date":          profile.EndDate,
			"next_invoice_date": profile.NextInvoiceDate,
			"currency":          profile.Currency.String(),
			"subtotal":          profile.Subtotal,
			"tax_amount":        profile.TaxAmount,
			"total_amount":      profile.TotalAmount,
			"notes":             profile.Notes,
			"terms":             profile.Terms,
			"is_active":         profile.IsActive,
			"last_run_at":       profile.LastRunAt,
			"version":           profile.Version + 1,
			"updated_at":        profile.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update recurring profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	profile.IncrementVersion()
	return nil
}

// Delete removes a profile. Invoices it generated keep their reference.
func (r *GormRecurringProfileRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.RecurringProfileModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete recurring profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Recurring profile")
	}
	return nil
}

func profilesToDomain(rows []models.RecurringProfileModel) []invoicing.RecurringProfile {
	out := make([]invoicing.RecurringProfile, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormRecurringProfileRepository implements RecurringProfileRepository
var _ invoicing.RecurringProfileRepository = (*GormRecurringProfileRepository)(nil)
