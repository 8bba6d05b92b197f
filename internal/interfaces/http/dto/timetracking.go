package dto

import (
	"time"

	"github.com/google/uuid"
	apptime "github.com/invoicely/backend/internal/application/timetracking"
	"github.com/invoicely/backend/internal/domain/timetracking"
	"github.com/shopspring/decimal"
)

// LogTimeRequest is the body of POST /time-entries
type LogTimeRequest struct {
	CustomerID  *uuid.UUID      `json:"customer_id"`
	Description string          `json:"description" binding:"max=500"`
	Hours       decimal.Decimal `json:"hours" binding:"decimal_gt0"`
	HourlyRate  decimal.Decimal `json:"hourly_rate" binding:"decimal_gte0"`
	Date        Date            `json:"date"`
	IsBillable  *bool           `json:"is_billable"`
}

// ToCommand converts the body to the service request
func (r LogTimeRequest) ToCommand() apptime.CreateTimeEntryRequest {
	return apptime.CreateTimeEntryRequest{
		CustomerID:  r.CustomerID,
		Description: r.Description,
		Hours:       r.Hours,
		HourlyRate:  r.HourlyRate,
		Date:        r.Date.Time,
		IsBillable:  r.IsBillable,
	}
}

// RecordExpenseRequest is the body of POST /expenses
type RecordExpenseRequest struct {
	CustomerID  *uuid.UUID      `json:"customer_id"`
	Description string          `json:"description" binding:"max=500"`
	Merchant    string          `json:"merchant" binding:"max=200"`
	Category    string          `json:"category" binding:"required,max=100"`
	Amount      decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Date        Date            `json:"date"`
	IsBillable  *bool           `json:"is_billable"`
}

// ToCommand converts the body to the service request
func (r RecordExpenseRequest) ToCommand() apptime.CreateExpenseRequest {
	return apptime.CreateExpenseRequest{
		CustomerID:  r.CustomerID,
		Description: r.Description,
		Merchant:    r.Merchant,
		Category:    r.Category,
		Amount:      r.Amount,
		Date:        r.Date.Time,
		IsBillable:  r.IsBillable,
	}
}

// UpdateTimeEntryRequest is the body of PATCH /time-entries/:id
type UpdateTimeEntryRequest struct {
	CustomerID  *uuid.UUID       `json:"customer_id"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Hours       *decimal.Decimal `json:"hours" binding:"omitempty,decimal_gt0"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate" binding:"omitempty,decimal_gte0"`
	Date        *Date            `json:"date"`
	IsBillable  *bool            `json:"is_billable"`
}

// ToCommand converts the body to the service request
func (r UpdateTimeEntryRequest) ToCommand() apptime.UpdateTimeEntryRequest {
	return apptime.UpdateTimeEntryRequest{
		CustomerID:  r.CustomerID,
		Description: r.Description,
		Hours:       r.Hours,
		HourlyRate:  r.HourlyRate,
		Date:        r.Date.Ptr(),
		IsBillable:  r.IsBillable,
	}
}

// UpdateExpenseRequest is the body of PATCH /expenses/:id
type UpdateExpenseRequest struct {
	CustomerID  *uuid.UUID       `json:"customer_id"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Merchant    *string          `json:"merchant" binding:"omitempty,max=200"`
	Category    *string          `json:"category" binding:"omitempty,min=1,max=100"`
	Amount      *decimal.Decimal `json:"amount" binding:"omitempty,decimal_gt0"`
	Date        *Date            `json:"date"`
	IsBillable  *bool            `json:"is_billable"`
}

// ToCommand converts the body to the service request
func (r UpdateExpenseRequest) ToCommand() apptime.UpdateExpenseRequest {
	return apptime.UpdateExpenseRequest{
		CustomerID:  r.CustomerID,
		Description: r.Description,
		Merchant:    r.Merchant,
		Category:    r.Category,
		Amount:      r.Amount,
		Date:        r.Date.Ptr(),
		IsBillable:  r.IsBillable,
	}
}

// BillableListQuery filters GET /time-entries and GET /expenses
type BillableListQuery struct {
	ListQuery
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Unbilled   bool   `form:"unbilled"`
}

// ToFilter converts the query into the service filter
func (q BillableListQuery) ToFilter() apptime.ListFilter {
	return apptime.ListFilter{
		CustomerID: optionalUUID(q.CustomerID),
		Unbilled:   q.Unbilled,
		Search:     q.Search,
		Page:       q.Page,
		PageSize:   q.PageSize,
		OrderBy:    q.OrderBy,
		OrderDir:   q.OrderDir,
	}
}

// TimeEntryResponse is a logged time entry
type TimeEntryResponse struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Hours       decimal.Decimal `json:"hours"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Date        Date            `json:"date"`
	IsBillable  bool            `json:"is_billable"`
	IsBilled    bool            `json:"is_billed"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToTimeEntryResponse maps a time entry
func ToTimeEntryResponse(e *timetracking.TimeEntry) TimeEntryResponse {
	return TimeEntryResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		CustomerID:  e.CustomerID,
		Description: e.Description,
		Hours:       e.Hours,
		HourlyRate:  e.HourlyRate,
		Date:        NewDate(e.Date),
		IsBillable:  e.IsBillable,
		IsBilled:    e.IsBilled,
		CreatedAt:   e.CreatedAt,
	}
}

// ToTimeEntryResponses maps time entries
func ToTimeEntryResponses(entries []timetracking.TimeEntry) []TimeEntryResponse {
	out := make([]TimeEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToTimeEntryResponse(&entries[i])
	}
	return out
}

// ExpenseResponse is a recorded expense
type ExpenseResponse struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Merchant    string          `json:"merchant,omitempty"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	IsBillable  bool            `json:"is_billable"`
	IsBilled    bool            `json:"is_billed"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToExpenseResponse maps an expense
func ToExpenseResponse(e *timetracking.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		CustomerID:  e.CustomerID,
		Description: e.Description,
		Merchant:    e.Merchant,
		Category:    e.Category,
		Amount:      e.Amount,
		Date:        NewDate(e.Date),
		IsBillable:  e.IsBillable,
		IsBilled:    e.IsBilled,
		CreatedAt:   e.CreatedAt,
	}
}

// ToExpenseResponses maps expenses
func ToExpenseResponses(expenses []timetracking.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		out[i] = ToExpenseResponse(&expenses[i])
	}
	return out
}
