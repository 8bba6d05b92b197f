package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// ItemRepository defines the interface for catalog item persistence
type ItemRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Item, error)
	// FindByIDs returns the tenant's items among ids; unknown ids are skipped
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Item, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Item, int64, error)
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
