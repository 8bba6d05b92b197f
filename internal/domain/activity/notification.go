package activity

import (
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// NotificationType classifies notifications for the UI
type NotificationType string

const (
	NotificationTypeOverdue         NotificationType = "overdue"
	NotificationTypePaymentReceived NotificationType = "payment_received"
)

// Notification is an in-app message addressed to one user
type Notification struct {
	shared.BaseEntity
	TenantID uuid.UUID
	UserID   uuid.UUID
	Type     NotificationType
	Title    string
	Message  string
	IsRead   bool
}

// NewNotification creates an unread notification
func NewNotification(tenantID, userID uuid.UUID, typ NotificationType, title, message string) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("notification recipient is required")
	}
	if title == "" {
		return nil, shared.NewValidationError("notification title is required")
	}
	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		UserID:     userID,
		Type:       typ,
		Title:      title,
		Message:    message,
	}, nil
}

// MarkRead flags the notification as seen
func (n *Notification) MarkRead() {
	n.IsRead = true
	n.Touch()
}
