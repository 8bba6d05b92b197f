package identity

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// Role is the organization role of a user. Role checks are enforced by the
// identity service; billing only uses roles to pick notification recipients.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// NotificationRoles receive operational alerts such as overdue invoices
var NotificationRoles = []Role{RoleAdmin, RoleManager}

// User is the billing view of an organization member
type User struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	Email       string
	DisplayName string
	Role        Role
	IsActive    bool
}

// NewUser creates an active member
func NewUser(tenantID uuid.UUID, email, displayName string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, shared.NewValidationError("email is required")
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("invalid role %q", role)
	}
	return &User{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		IsActive:    true,
	}, nil
}

// Deactivate stops the user from receiving notifications
func (u *User) Deactivate() {
	u.IsActive = false
	u.Touch()
}
