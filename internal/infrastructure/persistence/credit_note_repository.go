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

// GormCreditNoteRepository implements CreditNoteRepository using GORM
type GormCreditNoteRepository struct {
	db *gorm.DB
}

// NewGormCreditNoteRepository creates a new GormCreditNoteRepository
func NewGormCreditNoteRepository(db *gorm.DB) *GormCreditNoteRepository {
	return &GormCreditNoteRepository{db: db}
}

// FindByID finds a credit note by ID within a tenant
func (r *GormCreditNoteRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.CreditNote, error) {
	var model models.CreditNoteModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Credit note")
	}
	return model.ToDomain(), nil
}

// FindAll lists credit notes of a tenant
func (r *GormCreditNoteRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]invoicing.CreditNote, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CreditNoteModel{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		query = query.Where("LOWER(credit_note_number) LIKE ?"+searchEscape, likePattern(filter.Search))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count credit notes: %w", err)
	}
	var rows []models.CreditNoteModel
	if err := paginate(query, filter, CommonSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list credit notes: %w", err)
	}
	out := make([]invoicing.CreditNote, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a credit note
func (r *GormCreditNoteRepository) Create(ctx context.Context, note *invoicing.CreditNote) error {
	if err := r.db.WithContext(ctx).Create(models.CreditNoteModelFromDomain(note)).Error; err != nil {
		return fmt.Errorf("failed to create credit note: %w", err)
	}
	return nil
}

// Delete removes a credit note
func (r *GormCreditNoteRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.CreditNoteModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete credit note: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Credit note")
	}
	return nil
}

// Ensure GormCreditNoteRepository implements CreditNoteRepository
var _ invoicing.CreditNoteRepository = (*GormCreditNoteRepository)(nil)
