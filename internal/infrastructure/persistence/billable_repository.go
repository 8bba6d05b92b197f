package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/timetracking"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

func applyBillableFilter(query *gorm.DB, filter timetracking.BillableFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.IsBillable != nil {
		query = query.Where("is_billable = ?", *filter.IsBillable)
	}
	if filter.IsBilled != nil {
		query = query.Where("is_billed = ?", *filter.IsBilled)
	}
	return query
}

// updateUnbilled writes columns of an unbilled row at the expected version
func updateUnbilled(ctx context.Context, db *gorm.DB, model any, root shared.TenantAggregateRoot, columns map[string]any) error {
	columns["version"] = root.Version + 1
	columns["updated_at"] = root.UpdatedAt
	result := db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND id = ? AND version = ? AND is_billed = ?", root.TenantID, root.ID, root.Version, false).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// markBilled flips is_billed on unbilled rows of model's table
func markBilled(ctx context.Context, db *gorm.DB, model any, tenantID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND id IN ? AND is_billable = ? AND is_billed = ?", tenantID, ids, true, false).
		Updates(map[string]any{
			"is_billed":  true,
			"version":    gorm.Expr("version + 1"),
			"updated_at": shared.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GormTimeEntryRepository implements TimeEntryRepository using GORM
type GormTimeEntryRepository struct {
	db *gorm.DB
}

// NewGormTimeEntryRepository creates a new GormTimeEntryRepository
func NewGormTimeEntryRepository(db *gorm.DB) *GormTimeEntryRepository {
	return &GormTimeEntryRepository{db: db}
}

// FindByID finds a time entry by ID within a tenant
func (r *GormTimeEntryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*timetracking.TimeEntry, error) {
	var model models.TimeEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Time entry")
	}
	return model.ToDomain(), nil
}

// FindAll lists time entries of a tenant
func (r *GormTimeEntryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter timetracking.BillableFilter) ([]timetracking.TimeEntry, int64, error) {
	query := applyBillableFilter(r.db.WithContext(ctx).Model(&models.TimeEntryModel{}).Where("tenant_id = ?", tenantID), filter)
	if filter.Search != "" {
		query = query.Where("LOWER(description) LIKE ?"+searchEscape, likePattern(filter.Search))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count time entries: %w", err)
	}
	var rows []models.TimeEntryModel
	if err := paginate(query, filter.Filter, BillableSortFields, "date").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list time entries: %w", err)
	}
	return timeEntriesToDomain(rows), total, nil
}

// FindUnbilledByIDs locks and returns the billable, unbilled entries among ids
func (r *GormTimeEntryRepository) FindUnbilledByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]timetracking.TimeEntry, error) {
	if len(ids) == 0 {
		return []timetracking.TimeEntry{}, nil
	}
	var rows []models.TimeEntryModel
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("tenant_id = ? AND id IN ? AND is_billable = ? AND is_billed = ?", tenantID, ids, true, false).
		Order("date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load unbilled time entries: %w", err)
	}
	return timeEntriesToDomain(rows), nil
}

// Save creates or updates a time entry
func (r *GormTimeEntryRepository) Save(ctx context.Context, entry *timetracking.TimeEntry) error {
	if err := r.db.WithContext(ctx).Save(models.TimeEntryModelFromDomain(entry)).Error; err != nil {
		return fmt.Errorf("failed to save time entry: %w", err)
	}
	return nil
}

// Update writes an edited entry that is still unbilled
func (r *GormTimeEntryRepository) Update(ctx context.Context, entry *timetracking.TimeEntry) error {
	err := updateUnbilled(ctx, r.db, &models.TimeEntryModel{}, entry.TenantAggregateRoot, map[string]any{
		"customer_id": entry.CustomerID,
		"description": entry.Description,
		"hours":       entry.Hours,
		"hourly_rate": entry.HourlyRate,
		"date":        entry.Date,
		"is_billable": entry.IsBillable,
	})
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}
	entry.IncrementVersion()
	return nil
}

// MarkBilled flags unbilled entries as billed
func (r *GormTimeEntryRepository) MarkBilled(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error) {
	n, err := markBilled(ctx, r.db, &models.TimeEntryModel{}, tenantID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark time entries billed: %w", err)
	}
	return n, nil
}

// Delete removes a time entry
func (r *GormTimeEntryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TimeEntryModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete time entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Time entry")
	}
	return nil
}

func timeEntriesToDomain(rows []models.TimeEntryModel) []timetracking.TimeEntry {
	out := make([]timetracking.TimeEntry, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by ID within a tenant
func (r *GormExpenseRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*timetracking.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findErr(err, "Expense")
	}
	return model.ToDomain(), nil
}

// FindAll lists expenses of a tenant
func (r *GormExpenseRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter timetracking.BillableFilter) ([]timetracking.Expense, int64, error) {
	query := applyBillableFilter(r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("tenant_id = ?", tenantID), filter)
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(
			"(LOWER(description) LIKE ?"+searchEscape+" OR LOWER(merchant) LIKE ?"+searchEscape+" OR LOWER(category) LIKE ?"+searchEscape+")",
			p, p, p,
		)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	var rows []models.ExpenseModel
	if err := paginate(query, filter.Filter, BillableSortFields, "date").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expensesToDomain(rows), total, nil
}

// FindUnbilledByIDs locks and returns the billable, unbilled expenses among ids
func (r *GormExpenseRepository) FindUnbilledByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]timetracking.Expense, error) {
	if len(ids) == 0 {
		return []timetracking.Expense{}, nil
	}
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("tenant_id = ? AND id IN ? AND is_billable = ? AND is_billed = ?", tenantID, ids, true, false).
		Order("date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load unbilled expenses: %w", err)
	}
	return expensesToDomain(rows), nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *timetracking.Expense) error {
	if err := r.db.WithContext(ctx).Save(models.ExpenseModelFromDomain(expense)).Error; err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

// Update writes an edited expense that is still unbilled
func (r *GormExpenseRepository) Update(ctx context.Context, expense *timetracking.Expense) error {
	err := updateUnbilled(ctx, r.db, &models.ExpenseModel{}, expense.TenantAggregateRoot, map[string]any{
		"customer_id": expense.CustomerID,
		"description": expense.Description,
		"merchant":    expense.Merchant,
		"category":    expense.Category,
		"amount":      expense.Amount,
		"date":        expense.Date,
		"is_billable": expense.IsBillable,
	})
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	expense.IncrementVersion()
	return nil
}

// FindAllByTenant returns every expense of a tenant, oldest first
func (r *GormExpenseRepository) FindAllByTenant(ctx context.Context, tenantID uuid.UUID) ([]timetracking.Expense, error) {
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	return expensesToDomain(rows), nil
}

// MarkBilled flags unbilled expenses as billed
func (r *GormExpenseRepository) MarkBilled(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error) {
	n, err := markBilled(ctx, r.db, &models.ExpenseModel{}, tenantID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expenses billed: %w", err)
	}
	return n, nil
}

// Delete removes an expense
func (r *GormExpenseRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ExpenseModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete expense: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Expense")
	}
	return nil
}

func expensesToDomain(rows []models.ExpenseModel) []timetracking.Expense {
	out := make([]timetracking.Expense, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var (
	_ timetracking.TimeEntryRepository = (*GormTimeEntryRepository)(nil)
	_ timetracking.ExpenseRepository   = (*GormExpenseRepository)(nil)
)
