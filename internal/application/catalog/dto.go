package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateItemRequest represents a request to create a catalog item
type CreateItemRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	SKU         string          `json:"sku" binding:"max=50"`
	Description string          `json:"description" binding:"max=1000"`
	Unit        string          `json:"unit" binding:"max=20"`
	Rate        decimal.Decimal `json:"rate"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// UpdateItemRequest represents a request to update a catalog item
type UpdateItemRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	SKU         *string          `json:"sku" binding:"omitempty,max=50"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
	Unit        *string          `json:"unit" binding:"omitempty,max=20"`
	Rate        *decimal.Decimal `json:"rate"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

// ItemResponse represents a catalog item in API responses
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Rate        decimal.Decimal `json:"rate"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ToItemResponse converts a domain Item to ItemResponse
func ToItemResponse(i *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:          i.ID,
		TenantID:    i.TenantID,
		Name:        i.Name,
		SKU:         i.SKU,
		Description: i.Description,
		Unit:        i.Unit,
		Rate:        i.Rate,
		TaxRate:     i.TaxRate,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		Version:     i.Version,
	}
}

// ToItemResponses converts a slice of domain items
func ToItemResponses(items []catalog.Item) []ItemResponse {
	responses := make([]ItemResponse, len(items))
	for i := range items {
		responses[i] = ToItemResponse(&items[i])
	}
	return responses
}
