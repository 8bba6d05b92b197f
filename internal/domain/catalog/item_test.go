package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	item, err := NewItem(uuid.New(), "Consulting", decimal.NewFromInt(120), decimal.NewFromInt(18))
	require.NoError(t, err)
	assert.Equal(t, "Consulting", item.LineDescription())

	item.Description = "Senior consulting hour"
	assert.Equal(t, "Senior consulting hour", item.LineDescription())

	item.SetSKU(" svc-01 ")
	assert.Equal(t, "SVC-01", item.SKU)
}

func TestNewItem_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		rate    decimal.Decimal
		taxRate decimal.Decimal
	}{
		{"", decimal.NewFromInt(1), decimal.Zero},
		{"Widget", decimal.NewFromInt(-1), decimal.Zero},
		{"Widget", decimal.NewFromInt(1), decimal.NewFromInt(101)},
	}
	for _, tt := range tests {
		_, err := NewItem(uuid.New(), tt.name, tt.rate, tt.taxRate)
		assert.ErrorIs(t, err, shared.ErrValidation)
	}
}
