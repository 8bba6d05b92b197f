package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/catalog"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockItemRepository is a mock implementation of ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Item, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockItemRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Item, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Item), args.Error(1)
}

func (m *MockItemRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Item, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Item), args.Get(1).(int64), args.Error(2)
}

func (m *MockItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func TestItemService_Create(t *testing.T) {
	repo := new(MockItemRepository)
	service := NewItemService(repo)
	ctx := context.Background()

	repo.On("Save", ctx, mock.AnythingOfType("*catalog.Item")).Return(nil)

	result, err := service.Create(ctx, uuid.New(), nil, CreateItemRequest{
		Name:    "Consulting hour",
		SKU:     " cons-1 ",
		Rate:    decimal.NewFromInt(120),
		TaxRate: decimal.NewFromInt(10),
	})

	require.NoError(t, err)
	assert.Equal(t, "CONS-1", result.SKU)
	assert.True(t, result.Rate.Equal(decimal.NewFromInt(120)))
	repo.AssertExpectations(t)
}

func TestItemService_Create_RejectsTaxRateAbove100(t *testing.T) {
	repo := new(MockItemRepository)
	service := NewItemService(repo)

	_, err := service.Create(context.Background(), uuid.New(), nil, CreateItemRequest{
		Name:    "Bad",
		TaxRate: decimal.NewFromInt(101),
	})

	assert.ErrorIs(t, err, shared.ErrValidation)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestItemService_Update_KeepsUnsetFields(t *testing.T) {
	repo := new(MockItemRepository)
	service := NewItemService(repo)
	ctx := context.Background()
	tenantID := uuid.New()

	item, err := catalog.NewItem(tenantID, "Hosting", decimal.NewFromInt(50), decimal.NewFromInt(5))
	require.NoError(t, err)

	rate := decimal.NewFromInt(60)
	repo.On("FindByID", ctx, tenantID, item.ID).Return(item, nil)
	repo.On("Save", ctx, item).Return(nil)

	result, err := service.Update(ctx, tenantID, item.ID, UpdateItemRequest{Rate: &rate})

	require.NoError(t, err)
	assert.Equal(t, "Hosting", result.Name)
	assert.True(t, result.Rate.Equal(rate))
	assert.True(t, result.TaxRate.Equal(decimal.NewFromInt(5)))
}

func TestItemService_List_DefaultsToNameOrder(t *testing.T) {
	repo := new(MockItemRepository)
	service := NewItemService(repo)
	ctx := context.Background()
	tenantID := uuid.New()

	repo.On("FindAll", ctx, tenantID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.OrderBy == "name" && f.OrderDir == "asc"
	})).Return([]catalog.Item{}, int64(0), nil)

	result, err := service.List(ctx, tenantID, shared.Filter{})

	require.NoError(t, err)
	assert.Empty(t, result.Items)
	repo.AssertExpectations(t)
}
