package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/shared"
)

// NotificationService lists and acknowledges a user's notifications
type NotificationService struct {
	repo activity.NotificationRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo activity.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns a page of the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool, filter shared.Filter) (*shared.Paginated[activity.Notification], error) {
	filter = filter.Normalize()
	items, total, err := s.repo.FindForUser(ctx, tenantID, userID, unreadOnly, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// MarkRead marks the given notifications read, or all of the user's when ids is empty
func (s *NotificationService) MarkRead(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return s.repo.MarkRead(ctx, tenantID, userID, ids)
}
