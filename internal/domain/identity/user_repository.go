package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)

	// FindActiveByRoles returns active users of the tenant holding any of roles
	FindActiveByRoles(ctx context.Context, tenantID uuid.UUID, roles []Role) ([]User, error)

	Save(ctx context.Context, user *User) error
}
