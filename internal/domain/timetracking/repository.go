package timetracking

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// BillableFilter narrows time entry and expense listings
type BillableFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	UserID     *uuid.UUID
	IsBillable *bool
	IsBilled   *bool
}

// TimeEntryRepository defines the interface for time entry persistence
type TimeEntryRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*TimeEntry, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter BillableFilter) ([]TimeEntry, int64, error)
	// FindUnbilledByIDs returns the billable, unbilled entries among ids, locking them
	FindUnbilledByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]TimeEntry, error)
	Save(ctx context.Context, entry *TimeEntry) error
	// Update writes an edit; it fails with a concurrency conflict when the row
	// changed since it was read or was billed in the meantime
	Update(ctx context.Context, entry *TimeEntry) error
	// MarkBilled flips is_billed for unbilled ids and returns the number of rows changed
	MarkBilled(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter BillableFilter) ([]Expense, int64, error)
	FindUnbilledByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Expense, error)
	Save(ctx context.Context, expense *Expense) error
	Update(ctx context.Context, expense *Expense) error
	// FindAllByTenant returns every expense of the tenant, for reporting
	FindAllByTenant(ctx context.Context, tenantID uuid.UUID) ([]Expense, error)
	MarkBilled(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
