package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/timetracking"
	"github.com/shopspring/decimal"
)

// BillingColumns are the billable/billed flags shared by time entries and expenses
type BillingColumns struct {
	IsBillable bool `gorm:"not null"`
	IsBilled   bool `gorm:"not null;default:false;index"`
}

// TimeEntryModel is the persistence model for time entries
type TimeEntryModel struct {
	TenantAggregateModel
	BillingColumns
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"type:text"`
	Hours       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	HourlyRate  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Date        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TimeEntryModel) TableName() string {
	return "time_entries"
}

// ToDomain converts the persistence model to a domain TimeEntry
func (m *TimeEntryModel) ToDomain() *timetracking.TimeEntry {
	return &timetracking.TimeEntry{
		TenantAggregateRoot: m.tenantRoot(),
		Billing:             timetracking.Billing{IsBillable: m.IsBillable, IsBilled: m.IsBilled},
		UserID:              m.UserID,
		CustomerID:          m.CustomerID,
		Description:         m.Description,
		Hours:               m.Hours,
		HourlyRate:          m.HourlyRate,
		Date:                m.Date.UTC(),
	}
}

// TimeEntryModelFromDomain creates a persistence model from a domain TimeEntry
func TimeEntryModelFromDomain(e *timetracking.TimeEntry) *TimeEntryModel {
	m := &TimeEntryModel{
		BillingColumns: BillingColumns{IsBillable: e.IsBillable, IsBilled: e.IsBilled},
		UserID:         e.UserID,
		CustomerID:     e.CustomerID,
		Description:    e.Description,
		Hours:          e.Hours,
		HourlyRate:     e.HourlyRate,
		Date:           e.Date,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	return m
}

// ExpenseModel is the persistence model for expenses
type ExpenseModel struct {
	TenantAggregateModel
	BillingColumns
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"type:text"`
	Merchant    string          `gorm:"type:varchar(200)"`
	Category    string          `gorm:"type:varchar(100);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Date        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *timetracking.Expense {
	return &timetracking.Expense{
		TenantAggregateRoot: m.tenantRoot(),
		Billing:             timetracking.Billing{IsBillable: m.IsBillable, IsBilled: m.IsBilled},
		UserID:              m.UserID,
		CustomerID:          m.CustomerID,
		Description:         m.Description,
		Merchant:            m.Merchant,
		Category:            m.Category,
		Amount:              m.Amount,
		Date:                m.Date.UTC(),
	}
}

// ExpenseModelFromDomain creates a persistence model from a domain Expense
func ExpenseModelFromDomain(e *timetracking.Expense) *ExpenseModel {
	m := &ExpenseModel{
		BillingColumns: BillingColumns{IsBillable: e.IsBillable, IsBilled: e.IsBilled},
		UserID:         e.UserID,
		CustomerID:     e.CustomerID,
		Description:    e.Description,
		Merchant:       e.Merchant,
		Category:       e.Category,
		Amount:         e.Amount,
		Date:           e.Date,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	return m
}
