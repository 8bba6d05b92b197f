package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/catalog"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// resolveLines turns requested lines into calculator input, copying
// description, rate and tax rate from referenced catalog items.
// The copy is a snapshot: later item edits do not touch the document.
func resolveLines(ctx context.Context, items catalog.ItemRepository, tenantID uuid.UUID, reqs []LineRequest) ([]invoicing.LineInput, error) {
	if len(reqs) == 0 {
		return nil, shared.NewValidationError("at least one line item is required")
	}

	byID := map[uuid.UUID]catalog.Item{}
	var ids []uuid.UUID
	for _, r := range reqs {
		if r.ItemID != nil {
			ids = append(ids, *r.ItemID)
		}
	}
	if len(ids) > 0 && items != nil {
		found, err := items.FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog items: %w", err)
		}
		for _, it := range found {
			byID[it.ID] = it
		}
	}

	out := make([]invoicing.LineInput, len(reqs))
	for i, r := range reqs {
		in := invoicing.LineInput{
			ItemID:      r.ItemID,
			Description: r.Description,
			Quantity:    r.Quantity,
		}
		var item *catalog.Item
		if r.ItemID != nil {
			it, ok := byID[*r.ItemID]
			if !ok {
				return nil, shared.NewValidationError("line %d: item %s not found", i+1, *r.ItemID)
			}
			item = &it
		}

		switch {
		case r.Rate != nil:
			in.Rate = *r.Rate
		case item != nil:
			in.Rate = item.Rate
		default:
			return nil, shared.NewValidationError("line %d: rate is required", i+1)
		}
		switch {
		case r.TaxRate != nil:
			in.TaxRate = *r.TaxRate
		case item != nil:
			in.TaxRate = item.TaxRate
		default:
			in.TaxRate = decimal.Zero
		}
		if in.Description == "" && item != nil {
			in.Description = item.LineDescription()
		}
		if in.Description == "" {
			return nil, shared.NewValidationError("line %d: description is required", i+1)
		}
		out[i] = in
	}
	return out, nil
}
