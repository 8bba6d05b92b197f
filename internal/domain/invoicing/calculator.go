package invoicing

import (
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

const (
	// AmountScale is the number of decimal places money amounts are kept at
	AmountScale int32 = 2
	// InputScale is the most decimal places a quantity, rate or tax rate may carry
	InputScale int32 = 4
)

// LineInput is the priced content of a single line, before it is attached to a document
type LineInput struct {
	ItemID      *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	TaxRate     decimal.Decimal
}

// Totals holds document-level amounts computed from line items
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// RoundAmount rounds half-up to AmountScale
func RoundAmount(v decimal.Decimal) decimal.Decimal {
	return v.Round(AmountScale)
}

// HasAmountScale reports whether v carries no more than AmountScale decimal places
func HasAmountScale(v decimal.Decimal) bool {
	return v.Equal(v.Round(AmountScale))
}

// LineAmount returns quantity * rate rounded to AmountScale
func LineAmount(quantity, rate decimal.Decimal) decimal.Decimal {
	return RoundAmount(quantity.Mul(rate))
}

// LineTax returns amount * taxRate / 100 rounded to AmountScale
func LineTax(amount, taxRate decimal.Decimal) decimal.Decimal {
	return RoundAmount(amount.Mul(taxRate).Div(hundred))
}

// Calculate sums the rounded line amounts and line taxes, so the subtotal
// and tax always equal the sum of the stored lines.
// Total is subtotal + tax; apply a document discount with WithDiscount.
func Calculate(lines []LineInput) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, shared.NewValidationError("at least one line item is required")
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	for i, l := range lines {
		if err := validateLine(i, l); err != nil {
			return Totals{}, err
		}
		amount := LineAmount(l.Quantity, l.Rate)
		subtotal = subtotal.Add(amount)
		tax = tax.Add(LineTax(amount, l.TaxRate))
	}

	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Discount:  decimal.Zero,
		Total:     subtotal.Add(tax),
	}, nil
}

// WithDiscount returns the totals with a document-level discount subtracted from Total.
// The discount may not exceed subtotal plus tax.
func (t Totals) WithDiscount(discount decimal.Decimal) (Totals, error) {
	if discount.IsNegative() {
		return Totals{}, shared.NewValidationError("discount cannot be negative")
	}
	if !HasAmountScale(discount) {
		return Totals{}, shared.NewValidationError("discount cannot have more than %d decimal places", AmountScale)
	}
	if discount.GreaterThan(t.Subtotal.Add(t.TaxAmount)) {
		return Totals{}, shared.NewValidationError("discount cannot exceed subtotal plus tax")
	}
	t.Discount = discount
	t.Total = t.Subtotal.Add(t.TaxAmount).Sub(discount)
	return t, nil
}

// CalculateWithDiscount is Calculate followed by WithDiscount
func CalculateWithDiscount(lines []LineInput, discount decimal.Decimal) (Totals, error) {
	t, err := Calculate(lines)
	if err != nil {
		return Totals{}, err
	}
	return t.WithDiscount(discount)
}

func validateLine(i int, l LineInput) error {
	if !l.Quantity.IsPositive() {
		return shared.NewValidationError("line %d: quantity must be greater than zero", i+1)
	}
	if l.Rate.IsNegative() {
		return shared.NewValidationError("line %d: rate cannot be negative", i+1)
	}
	if l.TaxRate.IsNegative() || l.TaxRate.GreaterThan(hundred) {
		return shared.NewValidationError("line %d: tax rate must be between 0 and 100", i+1)
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{{"quantity", l.Quantity}, {"rate", l.Rate}, {"tax rate", l.TaxRate}} {
		if !f.value.Equal(f.value.Round(InputScale)) {
			return shared.NewValidationError("line %d: %s cannot have more than %d decimal places", i+1, f.name, InputScale)
		}
	}
	return nil
}
