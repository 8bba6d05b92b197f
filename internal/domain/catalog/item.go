package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Item is a reusable product or service that line items may copy from
type Item struct {
	shared.TenantAggregateRoot
	Name        string
	SKU         string
	Description string
	Unit        string
	Rate        decimal.Decimal
	TaxRate     decimal.Decimal
}

// NewItem creates a catalog item
func NewItem(tenantID uuid.UUID, name string, rate, taxRate decimal.Decimal) (*Item, error) {
	item := &Item{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := item.Update(name, "", rate, taxRate); err != nil {
		return nil, err
	}
	return item, nil
}

// Update changes the pricing fields
func (i *Item) Update(name, description string, rate, taxRate decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("item name cannot be empty")
	}
	if rate.IsNegative() {
		return shared.NewValidationError("item rate cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return shared.NewValidationError("item tax rate must be between 0 and 100")
	}
	i.Name = name
	if description != "" {
		i.Description = description
	}
	i.Rate = rate
	i.TaxRate = taxRate
	i.Touch()
	return nil
}

// SetSKU sets the stock keeping unit code
func (i *Item) SetSKU(sku string) {
	i.SKU = strings.ToUpper(strings.TrimSpace(sku))
	i.Touch()
}

// LineDescription is the text copied onto a line item
func (i *Item) LineDescription() string {
	if i.Description != "" {
		return i.Description
	}
	return i.Name
}
