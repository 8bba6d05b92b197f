package middleware

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

func validInvoiceRequest() dto.CreateInvoiceRequest {
	rate := decimal.NewFromInt(150)
	return dto.CreateInvoiceRequest{
		CustomerID: uuid.New(),
		Items: []dto.LineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(2), Rate: &rate},
		},
		Currency: "eur",
	}
}

func detailFor(details []dto.ValidationDetail, field string) (dto.ValidationDetail, bool) {
	for _, d := range details {
		if d.Field == field {
			return d, true
		}
	}
	return dto.ValidationDetail{}, false
}

func TestRegisterValidations(t *testing.T) {
	v := newTestValidator()

	t.Run("valid request", func(t *testing.T) {
		assert.NoError(t, v.Struct(validInvoiceRequest()))
	})

	t.Run("zero quantity", func(t *testing.T) {
		req := validInvoiceRequest()
		req.Items[0].Quantity = decimal.Zero
		details := ValidationDetails(v.Struct(req))
		d, ok := detailFor(details, "items[0].quantity")
		require.True(t, ok, "%v", details)
		assert.Equal(t, "Must be greater than zero", d.Message)
	})

	t.Run("negative rate and discount", func(t *testing.T) {
		req := validInvoiceRequest()
		neg := decimal.NewFromInt(-1)
		req.Items[0].Rate = &neg
		req.Discount = neg
		details := ValidationDetails(v.Struct(req))
		_, ok := detailFor(details, "items[0].rate")
		assert.True(t, ok, "%v", details)
		d, ok := detailFor(details, "discount")
		require.True(t, ok, "%v", details)
		assert.Equal(t, "Must not be negative", d.Message)
	})

	t.Run("unknown currency", func(t *testing.T) {
		req := validInvoiceRequest()
		req.Currency = "XYZ1"
		d, ok := detailFor(ValidationDetails(v.Struct(req)), "currency")
		require.True(t, ok)
		assert.Equal(t, "Must be an ISO 4217 currency code", d.Message)
	})

	t.Run("missing customer and items", func(t *testing.T) {
		details := ValidationDetails(v.Struct(dto.CreateInvoiceRequest{}))
		d, ok := detailFor(details, "customer_id")
		require.True(t, ok, "%v", details)
		assert.Equal(t, "This field is required", d.Message)
		_, ok = detailFor(details, "items")
		assert.True(t, ok, "%v", details)
	})

	t.Run("status outside the allowed set", func(t *testing.T) {
		req := validInvoiceRequest()
		req.Status = "PAID"
		d, ok := detailFor(ValidationDetails(v.Struct(req)), "status")
		require.True(t, ok)
		assert.Equal(t, "Must be one of: DRAFT SENT", d.Message)
	})
}

func TestValidationDetails_OtherErrors(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("EOF")))
	assert.Nil(t, ValidationDetails(nil))
}

func TestSetupValidator_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		SetupValidator()
		SetupValidator()
	})
}
