package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListResponse(t *testing.T) {
	page := shared.NewPaginated([]string{"a", "b"}, 45, 2, 20)
	resp := NewListResponse(page.Items, &page)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1",
		[]ValidationDetail{{Field: "amount", Message: "Must be greater than zero"}})

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"VALIDATION_ERROR","message":"Request validation failed",
		"request_id":"req-1","details":[{"field":"amount","message":"Must be greater than zero"}]}}`, string(body))
}

func TestListQuery_Filter(t *testing.T) {
	f := ListQuery{PageSize: 500, OrderDir: "sideways"}.Filter()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
}

func TestDate_JSON(t *testing.T) {
	var body struct {
		Due   Date  `json:"due"`
		Issue *Date `json:"issue"`
		Void  *Date `json:"void"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-03-31","issue":"2024-03-01T10:00:00+02:00","void":null}`), &body))

	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), body.Due.Time)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), *body.Issue.Ptr())
	assert.Nil(t, body.Void.Ptr())

	out, err := json.Marshal(body.Due)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-31"`, string(out))

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"31/03/2024"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`20240331`), &bad))
}

func TestBillingQueries_ToFilter(t *testing.T) {
	f := InvoiceListQuery{Status: "OVERDUE", CustomerID: "9b2f8a52-3f4c-4e0e-9d7e-6d1c1b1f0a11"}.ToFilter()
	require.NotNil(t, f.CustomerID)
	assert.Equal(t, "9b2f8a52-3f4c-4e0e-9d7e-6d1c1b1f0a11", f.CustomerID.String())
	assert.Equal(t, "OVERDUE", string(f.Status))
	assert.Equal(t, 20, f.PageSize)

	p := PaymentListQuery{}.ToFilter()
	assert.Nil(t, p.CustomerID)
	assert.Nil(t, p.InvoiceID)
}
