package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Gateway webhook constants
const (
	GatewaySignatureHeader = "X-Razorpay-Signature"
	GatewayEventCaptured   = "payment.captured"
)

// GatewayEvent is the webhook envelope posted by the payment gateway
type GatewayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity GatewayPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// GatewayPayment is the captured payment. Amount is in minor units.
type GatewayPayment struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Notes    struct {
		InvoiceID      string `json:"invoiceId"`
		OrganizationID string `json:"organizationId"`
		CustomerID     string `json:"customerId"`
	} `json:"notes"`
}

// GatewayWebhookHandler applies payments captured by the hosted checkout
type GatewayWebhookHandler struct {
	BaseHandler
	payments *appinvoicing.PaymentService
	secret   []byte
}

// NewGatewayWebhookHandler creates a GatewayWebhookHandler verifying bodies with secret
func NewGatewayWebhookHandler(payments *appinvoicing.PaymentService, secret string) *GatewayWebhookHandler {
	return &GatewayWebhookHandler{payments: payments, secret: []byte(secret)}
}

// Handle handles POST /webhooks/gateway. Events other than a payment capture
// are acknowledged and ignored. A capture already recorded is acknowledged
// without applying it again.
func (h *GatewayWebhookHandler) Handle(c *gin.Context) {
	log := logger.GetGinLogger(c)

	body, err := c.GetRawData()
	if err != nil {
		h.Error(c, dto.ErrCodeBadRequest, "Request body could not be read")
		return
	}
	if !h.verify(body, c.GetHeader(GatewaySignatureHeader)) {
		log.Warn("Gateway webhook signature mismatch")
		h.Error(c, dto.ErrCodeInvalidSignature, "Invalid signature")
		return
	}

	var event GatewayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.Error(c, dto.ErrCodeBadRequest, "Malformed webhook payload")
		return
	}
	if event.Event != GatewayEventCaptured {
		h.Success(c, gin.H{"status": "ignored"})
		return
	}

	entity := event.Payload.Payment.Entity
	capture := appinvoicing.GatewayCapture{
		PaymentID:   entity.ID,
		AmountMinor: entity.Amount,
		Currency:    entity.Currency,
		InvoiceID:   parseNoteID(entity.Notes.InvoiceID),
		TenantID:    parseNoteID(entity.Notes.OrganizationID),
		CustomerID:  parseNoteID(entity.Notes.CustomerID),
	}

	payment, created, err := h.payments.ApplyGatewayCapture(c.Request.Context(), capture)
	if err != nil {
		log.Warn("Gateway capture rejected", zap.String("gateway_payment_id", entity.ID), zap.Error(err))
		h.HandleError(c, err)
		return
	}
	if !created {
		h.Success(c, gin.H{"status": "duplicate"})
		return
	}
	h.Success(c, gin.H{"status": "ok", "payment": dto.ToPaymentResponse(payment)})
}

// verify checks the hex HMAC-SHA256 of body. An unset secret rejects everything.
func (h *GatewayWebhookHandler) verify(body []byte, signature string) bool {
	if len(h.secret) == 0 || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, SignGatewayPayload(h.secret, body))
}

// SignGatewayPayload returns the HMAC-SHA256 of body under secret
func SignGatewayPayload(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

func parseNoteID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
