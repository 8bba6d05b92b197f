package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormActivityLogRepository implements LogRepository using GORM
type GormActivityLogRepository struct {
	db *gorm.DB
}

// NewGormActivityLogRepository creates a new GormActivityLogRepository
func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

// Append inserts an activity entry
func (r *GormActivityLogRepository) Append(ctx context.Context, log *activity.Log) error {
	if err := r.db.WithContext(ctx).Create(models.ActivityLogModelFromDomain(log)).Error; err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// ListForInvoice returns the invoice's activity, newest first
func (r *GormActivityLogRepository) ListForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]activity.Log, error) {
	return r.list(ctx, "tenant_id = ? AND invoice_id = ?", tenantID, invoiceID)
}

// ListForQuote returns the quote's activity, newest first
func (r *GormActivityLogRepository) ListForQuote(ctx context.Context, tenantID, quoteID uuid.UUID) ([]activity.Log, error) {
	return r.list(ctx, "tenant_id = ? AND quote_id = ?", tenantID, quoteID)
}

func (r *GormActivityLogRepository) list(ctx context.Context, where string, args ...any) ([]activity.Log, error) {
	var rows []models.ActivityLogModel
	if err := r.db.WithContext(ctx).
		Where(where, args...).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	out := make([]activity.Log, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// GormNotificationRepository implements NotificationRepository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// CreateBatch inserts notifications in one statement
func (r *GormNotificationRepository) CreateBatch(ctx context.Context, notifications []*activity.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	rows := make([]*models.NotificationModel, len(notifications))
	for i, n := range notifications {
		rows[i] = models.NotificationModelFromDomain(n)
	}
	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

// FindByID finds a notification by ID within a tenant
func (r *GormNotificationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*activity.Notification, error) {
	var model models.NotificationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Notification")
	}
	return model.ToDomain(), nil
}

// FindForUser lists a user's notifications, newest first
func (r *GormNotificationRepository) FindForUser(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]activity.Notification, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	var rows []models.NotificationModel
	if err := paginate(query, filter, CommonSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	out := make([]activity.Notification, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// MarkRead flags the user's notifications among ids as read
func (r *GormNotificationRepository) MarkRead(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("tenant_id = ? AND user_id = ? AND is_read = ?", tenantID, userID, false)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	result := query.Updates(map[string]any{"is_read": true, "updated_at": shared.Now()})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

var (
	_ activity.LogRepository          = (*GormActivityLogRepository)(nil)
	_ activity.NotificationRepository = (*GormNotificationRepository)(nil)
)
