package activity

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// LogRepository appends and reads activity. There is no update or delete.
type LogRepository interface {
	Append(ctx context.Context, log *Log) error
	// ListForInvoice returns entries newest first
	ListForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Log, error)
	// ListForQuote returns entries newest first
	ListForQuote(ctx context.Context, tenantID, quoteID uuid.UUID) ([]Log, error)
}

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*Notification) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Notification, error)
	FindForUser(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]Notification, int64, error)
	MarkRead(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID) (int64, error)
}
