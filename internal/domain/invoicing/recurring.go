package invoicing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Frequency is the cadence of a recurring profile
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// IsValid checks if the frequency is known
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Advance moves t forward by one period. Month and year steps use calendar
// arithmetic; day 31 in a short month normalizes forward as time.AddDate does.
func (f Frequency) Advance(t time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return t.AddDate(0, 0, 14)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// RecurringProfile generates invoices with pre-computed totals on a cadence
type RecurringProfile struct {
	shared.TenantAggregateRoot
	CustomerID      uuid.UUID
	CustomerName    string
	ProfileName     string
	Frequency       Frequency
	StartDate       time.Time
	EndDate         *time.Time
	NextInvoiceDate time.Time
	Currency        valueobject.Currency
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	Notes           string
	Terms           string
	IsActive        bool
	LastRunAt       *time.Time
}

// NewRecurringProfile creates an active profile whose first cycle is StartDate
func NewRecurringProfile(tenantID, customerID uuid.UUID, name string, freq Frequency, start time.Time, end *time.Time, cur valueobject.Currency, subtotal, tax, total decimal.Decimal) (*RecurringProfile, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if freq == "" {
		freq = FrequencyMonthly
	}
	if !freq.IsValid() {
		return nil, shared.NewValidationError("invalid frequency %q", freq)
	}
	if start.IsZero() {
		return nil, shared.NewValidationError("start date is required")
	}
	if end != nil && end.Before(start) {
		return nil, shared.NewValidationError("end date cannot be before start date")
	}
	if !cur.IsValid() {
		return nil, shared.NewValidationError("invalid currency %q", cur)
	}
	if name == "" {
		return nil, shared.NewValidationError("profile name is required")
	}
	total, err := validateProfileAmounts(subtotal, tax, total)
	if err != nil {
		return nil, err
	}
	return &RecurringProfile{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		ProfileName:         name,
		Frequency:           freq,
		StartDate:           start.UTC(),
		EndDate:             utcPtr(end),
		NextInvoiceDate:     start.UTC(),
		Currency:            cur,
		Subtotal:            subtotal,
		TaxAmount:           tax,
		TotalAmount:         total,
		IsActive:            true,
	}, nil
}

// DefaultProfileName names the nth profile of a tenant
func DefaultProfileName(n int64) string {
	return fmt.Sprintf("Recurring-%d", n)
}

// IsDue reports whether the profile should generate an invoice at now
func (p *RecurringProfile) IsDue(now time.Time) bool {
	if !p.IsActive || p.NextInvoiceDate.After(now) {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(now)
}

// Totals returns the profile amounts as invoice totals.
// Any gap between subtotal + tax and total is carried as discount.
func (p *RecurringProfile) Totals() Totals {
	return Totals{
		Subtotal:  p.Subtotal,
		TaxAmount: p.TaxAmount,
		Discount:  p.Subtotal.Add(p.TaxAmount).Sub(p.TotalAmount),
		Total:     p.TotalAmount,
	}
}

// InvoiceNotes is the note placed on generated invoices
func (p *RecurringProfile) InvoiceNotes() string {
	if p.Notes != "" {
		return fmt.Sprintf("[Auto-generated from %s] %s", p.ProfileName, p.Notes)
	}
	return fmt.Sprintf("Auto-generated from %s", p.ProfileName)
}

// ActivityDetails describes a generation in the invoice activity log
func (p *RecurringProfile) ActivityDetails() string {
	return fmt.Sprintf("Auto-generated from recurring profile %q (%s)", p.ProfileName, p.Frequency)
}

// Cycle is the outcome of one generation step
type Cycle struct {
	DueDate         time.Time
	NextInvoiceDate time.Time
	Deactivated     bool
}

// Advance consumes the current cycle: the invoice is due one period after
// NextInvoiceDate, the schedule moves to that same date, and the profile
// deactivates once the schedule passes EndDate.
func (p *RecurringProfile) Advance(now time.Time) Cycle {
	next := p.Frequency.Advance(p.NextInvoiceDate)
	c := Cycle{DueDate: next, NextInvoiceDate: next}
	p.NextInvoiceDate = next
	if p.EndDate != nil && next.After(*p.EndDate) {
		p.IsActive = false
		c.Deactivated = true
	}
	ran := now.UTC()
	p.LastRunAt = &ran
	p.Touch()
	return c
}

// Pause stops generation
func (p *RecurringProfile) Pause() {
	p.IsActive = false
	p.Touch()
}

// Resume restarts generation
func (p *RecurringProfile) Resume() {
	p.IsActive = true
	p.Touch()
}

// Reschedule changes frequency and dates; nil fields are left unchanged
func (p *RecurringProfile) Reschedule(freq *Frequency, start, end *time.Time) error {
	if freq != nil {
		if !freq.IsValid() {
			return shared.NewValidationError("invalid frequency %q", *freq)
		}
		p.Frequency = *freq
	}
	if start != nil && !start.IsZero() {
		p.StartDate = start.UTC()
		if p.LastRunAt == nil {
			p.NextInvoiceDate = p.StartDate
		}
	}
	if end != nil {
		p.EndDate = utcPtr(end)
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return shared.NewValidationError("end date cannot be before start date")
	}
	p.Touch()
	return nil
}

// Rename changes the profile name
func (p *RecurringProfile) Rename(name string) error {
	if name == "" {
		return shared.NewValidationError("profile name is required")
	}
	p.ProfileName = name
	p.Touch()
	return nil
}

// Reprice replaces the pre-computed amounts. A zero total is derived as subtotal plus tax.
func (p *RecurringProfile) Reprice(subtotal, tax, total decimal.Decimal) error {
	total, err := validateProfileAmounts(subtotal, tax, total)
	if err != nil {
		return err
	}
	p.Subtotal = subtotal
	p.TaxAmount = tax
	p.TotalAmount = total
	p.Touch()
	return nil
}

// validateProfileAmounts checks the pre-computed amounts and derives a zero total
func validateProfileAmounts(subtotal, tax, total decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.IsNegative() || tax.IsNegative() || total.IsNegative() {
		return total, shared.NewValidationError("profile amounts cannot be negative")
	}
	if !HasAmountScale(subtotal) || !HasAmountScale(tax) || !HasAmountScale(total) {
		return total, shared.NewValidationError("profile amounts cannot have more than %d decimal places", AmountScale)
	}
	if total.IsZero() {
		total = subtotal.Add(tax)
	}
	if total.GreaterThan(subtotal.Add(tax)) {
		return total, shared.NewValidationError("total cannot exceed subtotal plus tax")
	}
	return total, nil
}
