package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/shared"
)

// ActivityLogModel is an append-only audit row. It has no UpdatedAt column.
type ActivityLogModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID *uuid.UUID      `gorm:"type:uuid;index"`
	QuoteID   *uuid.UUID      `gorm:"type:uuid;index"`
	Action    activity.Action `gorm:"type:varchar(30);not null"`
	Details   string          `gorm:"type:text"`
	UserID    *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ToDomain converts the persistence model to a domain Log
func (m *ActivityLogModel) ToDomain() *activity.Log {
	return &activity.Log{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.CreatedAt.UTC()},
		TenantID:   m.TenantID,
		InvoiceID:  m.InvoiceID,
		QuoteID:    m.QuoteID,
		Action:     m.Action,
		Details:    m.Details,
		UserID:     m.UserID,
	}
}

// ActivityLogModelFromDomain creates a persistence model from a domain Log
func ActivityLogModelFromDomain(l *activity.Log) *ActivityLogModel {
	return &ActivityLogModel{
		ID:        l.ID,
		TenantID:  l.TenantID,
		InvoiceID: l.InvoiceID,
		QuoteID:   l.QuoteID,
		Action:    l.Action,
		Details:   l.Details,
		UserID:    l.UserID,
		CreatedAt: l.CreatedAt,
	}
}

// NotificationModel is the persistence model for in-app notifications
type NotificationModel struct {
	BaseModel
	TenantID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	UserID   uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Type     activity.NotificationType `gorm:"type:varchar(30);not null"`
	Title    string                    `gorm:"type:varchar(300);not null"`
	Message  string                    `gorm:"type:text"`
	IsRead   bool                      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification
func (m *NotificationModel) ToDomain() *activity.Notification {
	return &activity.Notification{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		UserID:     m.UserID,
		Type:       m.Type,
		Title:      m.Title,
		Message:    m.Message,
		IsRead:     m.IsRead,
	}
}

// NotificationModelFromDomain creates a persistence model from a domain Notification
func NotificationModelFromDomain(n *activity.Notification) *NotificationModel {
	m := &NotificationModel{
		TenantID: n.TenantID,
		UserID:   n.UserID,
		Type:     n.Type,
		Title:    n.Title,
		Message:  n.Message,
		IsRead:   n.IsRead,
	}
	m.FromDomainBaseEntity(n.BaseEntity)
	return m
}
