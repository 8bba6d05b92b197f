package timetracking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TimeEntry is hours worked by a user, optionally for a customer
type TimeEntry struct {
	shared.TenantAggregateRoot
	Billing
	UserID      uuid.UUID
	CustomerID  *uuid.UUID
	Description string
	Hours       decimal.Decimal
	HourlyRate  decimal.Decimal
	Date        time.Time
}

// NewTimeEntry records billable hours; date defaults to now
func NewTimeEntry(tenantID, userID uuid.UUID, customerID *uuid.UUID, description string, hours, rate decimal.Decimal, date time.Time, billable bool) (*TimeEntry, error) {
	if err := validateHours(hours, rate); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = shared.Now()
	}
	return &TimeEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Billing:             Billing{IsBillable: billable},
		UserID:              userID,
		CustomerID:          customerID,
		Description:         description,
		Hours:               hours,
		HourlyRate:          rate,
		Date:                date.UTC(),
	}, nil
}

// LineDescription is the invoice line text for the entry
func (e *TimeEntry) LineDescription() string {
	desc := e.Description
	if desc == "" {
		desc = "Hours worked"
	}
	return fmt.Sprintf("Time: %s (%sh)", desc, e.Hours.String())
}

// MarkBilled flags the entry as invoiced
func (e *TimeEntry) MarkBilled() error {
	if err := e.markBilled(); err != nil {
		return err
	}
	e.Touch()
	return nil
}

// TimeEntryChanges is an edit of an unbilled entry; nil fields are left unchanged
type TimeEntryChanges struct {
	CustomerID  *uuid.UUID
	Description *string
	Hours       *decimal.Decimal
	HourlyRate  *decimal.Decimal
	Date        *time.Time
	IsBillable  *bool
}

// Revise applies changes to an entry that has not been billed
func (e *TimeEntry) Revise(c TimeEntryChanges) error {
	if err := e.ensureEditable("time entries"); err != nil {
		return err
	}
	hours, rate := e.Hours, e.HourlyRate
	if c.Hours != nil {
		hours = *c.Hours
	}
	if c.HourlyRate != nil {
		rate = *c.HourlyRate
	}
	if err := validateHours(hours, rate); err != nil {
		return err
	}
	e.Hours, e.HourlyRate = hours, rate
	if c.CustomerID != nil {
		e.CustomerID = c.CustomerID
	}
	if c.Description != nil {
		e.Description = *c.Description
	}
	if c.Date != nil && !c.Date.IsZero() {
		e.Date = c.Date.UTC()
	}
	if c.IsBillable != nil {
		e.IsBillable = *c.IsBillable
	}
	e.Touch()
	return nil
}

func validateHours(hours, rate decimal.Decimal) error {
	if err := validatePositive("hours", hours); err != nil {
		return err
	}
	if err := validateScale("hours", hours, 2); err != nil {
		return err
	}
	if rate.IsNegative() {
		return shared.NewValidationError("hourly rate cannot be negative")
	}
	return validateScale("hourly rate", rate, 4)
}
