package timetracking

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/partner"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/timetracking"
)

// Service records time entries and expenses for later consolidation
type Service struct {
	entries   timetracking.TimeEntryRepository
	expenses  timetracking.ExpenseRepository
	customers partner.CustomerRepository
}

// NewService creates a new Service
func NewService(entries timetracking.TimeEntryRepository, expenses timetracking.ExpenseRepository, customers partner.CustomerRepository) *Service {
	return &Service{entries: entries, expenses: expenses, customers: customers}
}

// LogTime records a time entry for userID. Entries are billable unless IsBillable is false.
func (s *Service) LogTime(ctx context.Context, tenantID, userID uuid.UUID, req CreateTimeEntryRequest) (*timetracking.TimeEntry, error) {
	if err := s.checkCustomer(ctx, tenantID, req.CustomerID); err != nil {
		return nil, err
	}
	entry, err := timetracking.NewTimeEntry(tenantID, userID, req.CustomerID, req.Description, req.Hours, req.HourlyRate, req.Date, billable(req.IsBillable))
	if err != nil {
		return nil, err
	}
	entry.SetCreatedBy(&userID)
	if err := s.entries.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordExpense records an expense for userID. Expenses are billable unless IsBillable is false.
func (s *Service) RecordExpense(ctx context.Context, tenantID, userID uuid.UUID, req CreateExpenseRequest) (*timetracking.Expense, error) {
	if err := s.checkCustomer(ctx, tenantID, req.CustomerID); err != nil {
		return nil, err
	}
	expense, err := timetracking.NewExpense(tenantID, userID, req.CustomerID, req.Category, req.Amount, req.Date, billable(req.IsBillable))
	if err != nil {
		return nil, err
	}
	expense.Description = req.Description
	expense.Merchant = req.Merchant
	expense.SetCreatedBy(&userID)
	if err := s.expenses.Save(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// GetTimeEntry returns a time entry
func (s *Service) GetTimeEntry(ctx context.Context, tenantID, id uuid.UUID) (*timetracking.TimeEntry, error) {
	return s.entries.FindByID(ctx, tenantID, id)
}

// GetExpense returns an expense
func (s *Service) GetExpense(ctx context.Context, tenantID, id uuid.UUID) (*timetracking.Expense, error) {
	return s.expenses.FindByID(ctx, tenantID, id)
}

// UpdateTimeEntry edits an entry. Billed entries are frozen and return a Conflict,
// as does an entry billed between the read and the write.
func (s *Service) UpdateTimeEntry(ctx context.Context, tenantID, id uuid.UUID, req UpdateTimeEntryRequest) (*timetracking.TimeEntry, error) {
	if err := s.checkCustomer(ctx, tenantID, req.CustomerID); err != nil {
		return nil, err
	}
	entry, err := s.entries.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := entry.Revise(timetracking.TimeEntryChanges{
		CustomerID:  req.CustomerID,
		Description: req.Description,
		Hours:       req.Hours,
		HourlyRate:  req.HourlyRate,
		Date:        req.Date,
		IsBillable:  req.IsBillable,
	}); err != nil {
		return nil, err
	}
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateExpense edits an expense. Billed expenses are frozen and return a Conflict.
func (s *Service) UpdateExpense(ctx context.Context, tenantID, id uuid.UUID, req UpdateExpenseRequest) (*timetracking.Expense, error) {
	if err := s.checkCustomer(ctx, tenantID, req.CustomerID); err != nil {
		return nil, err
	}
	expense, err := s.expenses.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := expense.Revise(timetracking.ExpenseChanges{
		CustomerID:  req.CustomerID,
		Description: req.Description,
		Merchant:    req.Merchant,
		Category:    req.Category,
		Amount:      req.Amount,
		Date:        req.Date,
		IsBillable:  req.IsBillable,
	}); err != nil {
		return nil, err
	}
	if err := s.expenses.Update(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListTimeEntries returns a page of time entries
func (s *Service) ListTimeEntries(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*shared.Paginated[timetracking.TimeEntry], error) {
	f := toBillableFilter(filter)
	items, total, err := s.entries.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// ListExpenses returns a page of expenses
func (s *Service) ListExpenses(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*shared.Paginated[timetracking.Expense], error) {
	f := toBillableFilter(filter)
	items, total, err := s.expenses.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// DeleteTimeEntry deletes a time entry that has not been billed
func (s *Service) DeleteTimeEntry(ctx context.Context, tenantID, id uuid.UUID) error {
	entry, err := s.entries.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if entry.IsBilled {
		return shared.NewConflictError("billed time entries cannot be deleted")
	}
	return s.entries.Delete(ctx, tenantID, id)
}

// DeleteExpense deletes an expense that has not been billed
func (s *Service) DeleteExpense(ctx context.Context, tenantID, id uuid.UUID) error {
	expense, err := s.expenses.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if expense.IsBilled {
		return shared.NewConflictError("billed expenses cannot be deleted")
	}
	return s.expenses.Delete(ctx, tenantID, id)
}

func (s *Service) checkCustomer(ctx context.Context, tenantID uuid.UUID, customerID *uuid.UUID) error {
	if customerID == nil {
		return nil
	}
	_, err := s.customers.FindByID(ctx, tenantID, *customerID)
	return err
}

func billable(flag *bool) bool {
	return flag == nil || *flag
}

func toBillableFilter(filter ListFilter) timetracking.BillableFilter {
	f := timetracking.BillableFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		CustomerID: filter.CustomerID,
	}
	if f.OrderBy == "" {
		f.OrderBy = "date"
	}
	f.Filter = f.Filter.Normalize()
	if filter.Unbilled {
		yes, no := true, false
		f.IsBillable = &yes
		f.IsBilled = &no
	}
	return f
}
