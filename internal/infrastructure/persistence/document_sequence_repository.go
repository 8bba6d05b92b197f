package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentSequenceRepository allocates per-tenant document ordinals.
// Each (tenant, document type) pair owns one counter row. The counter is
// bumped with a single UPDATE so concurrent allocators serialize on the row
// lock and never hand out the same ordinal. Run it inside the transaction that
// inserts the document so a rollback also releases the ordinal.
type GormDocumentSequenceRepository struct {
	db *gorm.DB
}

// NewGormDocumentSequenceRepository creates a new GormDocumentSequenceRepository
func NewGormDocumentSequenceRepository(db *gorm.DB) *GormDocumentSequenceRepository {
	return &GormDocumentSequenceRepository{db: db}
}

// NextValue reserves and returns the next ordinal, starting at 1
func (r *GormDocumentSequenceRepository) NextValue(ctx context.Context, tenantID uuid.UUID, docType invoicing.DocumentType) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := shared.Now()
		seed := models.DocumentSequenceModel{
			TenantID:     tenantID,
			DocumentType: docType,
			LastValue:    0,
			UpdatedAt:    now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to seed document sequence: %w", err)
		}
		result := tx.Model(&models.DocumentSequenceModel{}).
			Where("tenant_id = ? AND document_type = ?", tenantID, docType).
			Updates(map[string]any{
				"last_value": gorm.Expr("last_value + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to advance document sequence: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("document sequence for %s missing", docType)
		}
		var row models.DocumentSequenceModel
		if err := tx.Where("tenant_id = ? AND document_type = ?", tenantID, docType).
			First(&row).Error; err != nil {
			return fmt.Errorf("failed to read document sequence: %w", err)
		}
		next = row.LastValue
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// PeekValue returns the ordinal NextValue would hand out without reserving it
func (r *GormDocumentSequenceRepository) PeekValue(ctx context.Context, tenantID uuid.UUID, docType invoicing.DocumentType) (int64, error) {
	var row models.DocumentSequenceModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_type = ?", tenantID, docType).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read document sequence: %w", err)
	}
	return row.LastValue + 1, nil
}

// Ensure GormDocumentSequenceRepository implements SequenceAllocator
var _ invoicing.SequenceAllocator = (*GormDocumentSequenceRepository)(nil)
