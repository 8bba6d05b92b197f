package timetracking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Expense is money spent on behalf of a customer
type Expense struct {
	shared.TenantAggregateRoot
	Billing
	UserID      uuid.UUID
	CustomerID  *uuid.UUID
	Description string
	Merchant    string
	Category    string
	Amount      decimal.Decimal
	Date        time.Time
}

// NewExpense records an expense; date defaults to now
func NewExpense(tenantID, userID uuid.UUID, customerID *uuid.UUID, category string, amount decimal.Decimal, date time.Time, billable bool) (*Expense, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if category == "" {
		return nil, shared.NewValidationError("category is required")
	}
	if date.IsZero() {
		date = shared.Now()
	}
	return &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Billing:             Billing{IsBillable: billable},
		UserID:              userID,
		CustomerID:          customerID,
		Category:            category,
		Amount:              amount,
		Date:                date.UTC(),
	}, nil
}

// LineDescription is the invoice line text for the expense
func (e *Expense) LineDescription() string {
	label := e.Description
	if label == "" {
		label = e.Merchant
	}
	if label == "" {
		label = e.Category
	}
	return fmt.Sprintf("Expense: %s (%s)", label, e.Date.Format("2006-01-02"))
}

// MarkBilled flags the expense as invoiced
func (e *Expense) MarkBilled() error {
	if err := e.markBilled(); err != nil {
		return err
	}
	e.Touch()
	return nil
}

// ExpenseChanges is an edit of an unbilled expense; nil fields are left unchanged
type ExpenseChanges struct {
	CustomerID  *uuid.UUID
	Description *string
	Merchant    *string
	Category    *string
	Amount      *decimal.Decimal
	Date        *time.Time
	IsBillable  *bool
}

// Revise applies changes to an expense that has not been billed
func (e *Expense) Revise(c ExpenseChanges) error {
	if err := e.ensureEditable("expenses"); err != nil {
		return err
	}
	if c.Amount != nil {
		if err := validateAmount(*c.Amount); err != nil {
			return err
		}
	}
	if c.Category != nil && *c.Category == "" {
		return shared.NewValidationError("category is required")
	}
	if c.Amount != nil {
		e.Amount = *c.Amount
	}
	if c.Category != nil {
		e.Category = *c.Category
	}
	if c.CustomerID != nil {
		e.CustomerID = c.CustomerID
	}
	if c.Description != nil {
		e.Description = *c.Description
	}
	if c.Merchant != nil {
		e.Merchant = *c.Merchant
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

func validateAmount(amount decimal.Decimal) error {
	if err := validatePositive("amount", amount); err != nil {
		return err
	}
	return validateScale("amount", amount, 2)
}
