package timetracking

import (
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Billing tracks whether a record may be invoiced and whether it has been.
// Billed flips false -> true once and is never cleared.
type Billing struct {
	IsBillable bool
	IsBilled   bool
}

// IsUnbilled reports whether the record can still go on an invoice
func (b Billing) IsUnbilled() bool {
	return b.IsBillable && !b.IsBilled
}

func (b *Billing) markBilled() error {
	if !b.IsBillable {
		return shared.NewConflictError("record is not billable")
	}
	if b.IsBilled {
		return shared.NewConflictError("record is already billed")
	}
	b.IsBilled = true
	return nil
}

func (b Billing) ensureEditable(kind string) error {
	if b.IsBilled {
		return shared.NewConflictError("billed %s cannot be edited", kind)
	}
	return nil
}

func validatePositive(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return shared.NewValidationError("%s must be greater than zero", field)
	}
	return nil
}

// validateScale rejects values with more decimal places than the column keeps
func validateScale(field string, v decimal.Decimal, places int32) error {
	if !v.Equal(v.Round(places)) {
		return shared.NewValidationError("%s cannot have more than %d decimal places", field, places)
	}
	return nil
}
