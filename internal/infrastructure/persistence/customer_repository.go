package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/partner"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// customerReferenceTables hold a customer_id column that blocks customer deletion
var customerReferenceTables = []string{
	"invoices",
	"quotes",
	"payments",
	"credit_notes",
	"recurring_invoices",
	"time_entries",
	"expenses",
}

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by ID within a tenant
func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Customer")
	}
	return model.ToDomain(), nil
}

// FindAll lists customers of a tenant
func (r *GormCustomerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(
			"(LOWER(display_name) LIKE ?"+searchEscape+" OR LOWER(company_name) LIKE ?"+searchEscape+" OR LOWER(email) LIKE ?"+searchEscape+")",
			p, p, p,
		)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}
	var rows []models.CustomerModel
	if err := paginate(query, filter, CustomerSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	out := make([]partner.Customer, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	if err := r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(customer)).Error; err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

// Delete deletes a customer within a tenant
func (r *GormCustomerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete customer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Customer")
	}
	return nil
}

// IsReferenced reports whether any billing document or billable points at the customer
func (r *GormCustomerRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	for _, table := range customerReferenceTables {
		var count int64
		if err := db.Table(table).
			Where("tenant_id = ? AND customer_id = ?", tenantID, id).
			Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to check %s references: %w", table, err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
