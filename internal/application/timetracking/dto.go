package timetracking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTimeEntryRequest represents a request to log hours
type CreateTimeEntryRequest struct {
	CustomerID  *uuid.UUID      `json:"customer_id"`
	Description string          `json:"description" binding:"max=500"`
	Hours       decimal.Decimal `json:"hours"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Date        time.Time       `json:"date"`
	IsBillable  *bool           `json:"is_billable"`
}

// CreateExpenseRequest represents a request to record an expense
type CreateExpenseRequest struct {
	CustomerID  *uuid.UUID      `json:"customer_id"`
	Description string          `json:"description" binding:"max=500"`
	Merchant    string          `json:"merchant" binding:"max=200"`
	Category    string          `json:"category" binding:"required,max=100"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	IsBillable  *bool           `json:"is_billable"`
}

// UpdateTimeEntryRequest is an edit of an unbilled time entry; nil fields are unchanged
type UpdateTimeEntryRequest struct {
	CustomerID  *uuid.UUID
	Description *string
	Hours       *decimal.Decimal
	HourlyRate  *decimal.Decimal
	Date        *time.Time
	IsBillable  *bool
}

// UpdateExpenseRequest is an edit of an unbilled expense; nil fields are unchanged
type UpdateExpenseRequest struct {
	CustomerID  *uuid.UUID
	Description *string
	Merchant    *string
	Category    *string
	Amount      *decimal.Decimal
	Date        *time.Time
	IsBillable  *bool
}

// ListFilter represents filter options for time entry and expense lists
type ListFilter struct {
	CustomerID *uuid.UUID `form:"customer_id"`
	Unbilled   bool       `form:"unbilled"`
	Search     string     `form:"search"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
