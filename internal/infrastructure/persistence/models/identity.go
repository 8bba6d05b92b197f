package models

import (
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/identity"
)

// UserModel is the persistence model for organization members
type UserModel struct {
	BaseModel
	TenantID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	Email       string        `gorm:"type:varchar(200);not null"`
	DisplayName string        `gorm:"type:varchar(200)"`
	Role        identity.Role `gorm:"type:varchar(20);not null;default:'STAFF'"`
	IsActive    bool          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Role:        m.Role,
		IsActive:    m.IsActive,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		TenantID:    u.TenantID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsActive:    u.IsActive,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}
