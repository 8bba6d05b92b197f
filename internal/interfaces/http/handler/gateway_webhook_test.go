package handler

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

func captureEvent(t *testing.T, paymentID string, amount int64, invoiceID, tenantID, customerID uuid.UUID) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": GatewayEventCaptured,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       paymentID,
					"amount":   amount,
					"currency": "USD",
					"notes": map[string]string{
						"invoiceId":      invoiceID.String(),
						"organizationId": tenantID.String(),
						"customerId":     customerID.String(),
					},
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func signed(secret string, body []byte) map[string]string {
	return map[string]string{GatewaySignatureHeader: hex.EncodeToString(SignGatewayPayload([]byte(secret), body))}
}

func webhookStatus(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Data.Status
}

func TestGatewayWebhook_Capture(t *testing.T) {
	env := newBillingEnv(t)
	customer, detail := env.openInvoice(t, "120.00")

	r := gin.New()
	r.POST("/webhooks/gateway", NewGatewayWebhookHandler(env.payments, webhookSecret).Handle)

	body := captureEvent(t, "pay_001", 5000, detail.Invoice.ID, env.tenantID, customer.ID)
	w := perform(r, http.MethodPost, "/webhooks/gateway", body, signed(webhookSecret, body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", webhookStatus(t, w.Body.Bytes()))

	inv, err := env.repos.Invoices.FindByID(env.ctx, env.tenantID, detail.Invoice.ID)
	require.NoError(t, err)
	assert.True(t, inv.AmountPaid.Equal(decimal.NewFromInt(50)), inv.AmountPaid.String())
	assert.Equal(t, invoicing.InvoiceStatusPartiallyPaid, inv.Status)

	// Gateways redeliver; the second delivery must not pay twice.
	w = perform(r, http.MethodPost, "/webhooks/gateway", body, signed(webhookSecret, body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "duplicate", webhookStatus(t, w.Body.Bytes()))

	inv, err = env.repos.Invoices.FindByID(env.ctx, env.tenantID, detail.Invoice.ID)
	require.NoError(t, err)
	assert.True(t, inv.AmountPaid.Equal(decimal.NewFromInt(50)))
}

func TestGatewayWebhook_Rejections(t *testing.T) {
	env := newBillingEnv(t)
	customer, detail := env.openInvoice(t, "80.00")
	body := captureEvent(t, "pay_002", 1000, detail.Invoice.ID, env.tenantID, customer.ID)

	t.Run("bad signature", func(t *testing.T) {
		r := gin.New()
		r.POST("/hook", NewGatewayWebhookHandler(env.payments, webhookSecret).Handle)

		w := perform(r, http.MethodPost, "/hook", body, signed("other-secret", body))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidSignature, decodeResponse(t, w).Error.Code)

		w = perform(r, http.MethodPost, "/hook", body, map[string]string{GatewaySignatureHeader: "zz-not-hex"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = perform(r, http.MethodPost, "/hook", body, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unset secret rejects everything", func(t *testing.T) {
		r := gin.New()
		r.POST("/hook", NewGatewayWebhookHandler(env.payments, "").Handle)

		w := perform(r, http.MethodPost, "/hook", body, signed("", body))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("other events are ignored", func(t *testing.T) {
		r := gin.New()
		r.POST("/hook", NewGatewayWebhookHandler(env.payments, webhookSecret).Handle)

		refund := []byte(`{"event":"refund.created","payload":{}}`)
		w := perform(r, http.MethodPost, "/hook", refund, signed(webhookSecret, refund))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ignored", webhookStatus(t, w.Body.Bytes()))
	})

	t.Run("malformed payload", func(t *testing.T) {
		r := gin.New()
		r.POST("/hook", NewGatewayWebhookHandler(env.payments, webhookSecret).Handle)

		junk := []byte(`{"event":`)
		w := perform(r, http.MethodPost, "/hook", junk, signed(webhookSecret, junk))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("capture without an organization", func(t *testing.T) {
		r := gin.New()
		r.POST("/hook", NewGatewayWebhookHandler(env.payments, webhookSecret).Handle)

		orphan := captureEvent(t, "pay_003", 1000, detail.Invoice.ID, uuid.Nil, customer.ID)
		w := perform(r, http.MethodPost, "/hook", orphan, signed(webhookSecret, orphan))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		r := gin.New()
		r.POST("/hook", NewGatewayWebhookHandler(env.payments, webhookSecret).Handle)

		missing := captureEvent(t, "pay_004", 1000, uuid.New(), env.tenantID, customer.ID)
		w := perform(r, http.MethodPost, "/hook", missing, signed(webhookSecret, missing))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
