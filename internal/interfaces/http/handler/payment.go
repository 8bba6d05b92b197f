package handler

import (
	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// PaymentHandler serves payment recording
type PaymentHandler struct {
	BaseHandler
	payments *appinvoicing.PaymentService
}

// NewPaymentHandler creates a PaymentHandler
func NewPaymentHandler(payments *appinvoicing.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Apply handles POST /payments
func (h *PaymentHandler) Apply(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req dto.ApplyPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	payment, err := h.payments.Apply(c.Request.Context(), tenantID, h.Actor(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToPaymentResponse(payment))
}

// Get handles GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	payment, err := h.payments.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToPaymentResponse(payment))
}

// List handles GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var q dto.PaymentListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.payments.List(c.Request.Context(), tenantID, q.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondList(c, dto.ToPaymentResponses(page.Items), page)
}

// UpdateStatus handles PATCH /payments/:id/status
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.UpdatePaymentStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	payment, err := h.payments.UpdateStatus(c.Request.Context(), tenantID, id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToPaymentResponse(payment))
}
