package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindAll lists customers; Search matches display name, company or email
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, int64, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// Delete hard deletes a customer within a tenant
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// IsReferenced reports whether any invoice, quote, payment, credit note,
	// recurring profile, time entry or expense points at the customer
	IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}
