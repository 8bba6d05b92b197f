package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/catalog"
	"github.com/invoicely/backend/internal/domain/shared"
)

// ItemService handles catalog item operations
type ItemService struct {
	itemRepo catalog.ItemRepository
}

// NewItemService creates a new ItemService
func NewItemService(itemRepo catalog.ItemRepository) *ItemService {
	return &ItemService{itemRepo: itemRepo}
}

// Create creates a new catalog item
func (s *ItemService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateItemRequest) (*ItemResponse, error) {
	item, err := catalog.NewItem(tenantID, req.Name, req.Rate, req.TaxRate)
	if err != nil {
		return nil, err
	}
	item.Description = req.Description
	item.Unit = req.Unit
	if req.SKU != "" {
		item.SetSKU(req.SKU)
	}
	item.SetCreatedBy(userID)

	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	response := ToItemResponse(item)
	return &response, nil
}

// GetByID retrieves a catalog item by ID
func (s *ItemService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToItemResponse(item)
	return &response, nil
}

// List retrieves a page of catalog items
func (s *ItemService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[ItemResponse], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
		filter.OrderDir = "asc"
	}
	filter = filter.Normalize()
	items, total, err := s.itemRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToItemResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update updates a catalog item. Line items already copied from it are unchanged.
func (s *ItemService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	name, description, rate, taxRate := item.Name, item.Description, item.Rate, item.TaxRate
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Rate != nil {
		rate = *req.Rate
	}
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	if err := item.Update(name, description, rate, taxRate); err != nil {
		return nil, err
	}
	if req.Description != nil && *req.Description == "" {
		item.Description = ""
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.SKU != nil {
		item.SetSKU(*req.SKU)
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	response := ToItemResponse(item)
	return &response, nil
}

// Delete deletes a catalog item
func (s *ItemService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.itemRepo.Delete(ctx, tenantID, id)
}
