package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a priced line owned by an invoice or quote.
// Items are replaced wholesale on edit; SortOrder is insertion order.
type LineItem struct {
	ID          uuid.UUID
	ItemID      *uuid.UUID // catalog item the line was copied from, reference only
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	TaxRate     decimal.Decimal
	Amount      decimal.Decimal
	SortOrder   int
}

// TaxAmount returns the line's tax
func (l LineItem) TaxAmount() decimal.Decimal {
	return LineTax(l.Amount, l.TaxRate)
}

// Input returns the calculator view of the line
func (l LineItem) Input() LineInput {
	return LineInput{
		ItemID:      l.ItemID,
		Description: l.Description,
		Quantity:    l.Quantity,
		Rate:        l.Rate,
		TaxRate:     l.TaxRate,
	}
}

// BuildLineItems validates inputs and materializes them as ordered line items
func BuildLineItems(inputs []LineInput) ([]LineItem, Totals, error) {
	totals, err := Calculate(inputs)
	if err != nil {
		return nil, Totals{}, err
	}
	items := make([]LineItem, len(inputs))
	for i, in := range inputs {
		items[i] = LineItem{
			ID:          uuid.New(),
			ItemID:      in.ItemID,
			Description: in.Description,
			Quantity:    in.Quantity,
			Rate:        in.Rate,
			TaxRate:     in.TaxRate,
			Amount:      LineAmount(in.Quantity, in.Rate),
			SortOrder:   i,
		}
	}
	return items, totals, nil
}

// CloneLineItems copies lines under fresh IDs, keeping amounts and order
func CloneLineItems(src []LineItem) []LineItem {
	out := make([]LineItem, len(src))
	for i, l := range src {
		l.ID = uuid.New()
		out[i] = l
	}
	return out
}
