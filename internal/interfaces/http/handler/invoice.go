package handler

import (
	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// InvoiceHandler serves the invoice ledger
type InvoiceHandler struct {
	BaseHandler
	invoices *appinvoicing.InvoiceService
	activity *appinvoicing.ActivityRecorder
}

// NewInvoiceHandler creates an InvoiceHandler
func NewInvoiceHandler(invoices *appinvoicing.InvoiceService, activity *appinvoicing.ActivityRecorder) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, activity: activity}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	detail, err := h.invoices.Create(c.Request.Context(), tenantID, h.Actor(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToInvoiceDetailResponse(detail))
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	detail, err := h.invoices.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToInvoiceDetailResponse(detail))
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var q dto.InvoiceListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	page, err := h.invoices.List(c.Request.Context(), tenantID, q.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondList(c, dto.ToInvoiceResponses(page.Items), page)
}

// Update handles PATCH /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.invoices.Update(c.Request.Context(), tenantID, id, h.Actor(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToInvoiceResponse(inv))
}

// MarkSent handles POST /invoices/:id/send
func (h *InvoiceHandler) MarkSent(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	inv, err := h.invoices.MarkSent(c.Request.Context(), tenantID, id, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToInvoiceResponse(inv))
}

// MarkPaid handles POST /invoices/:id/mark-paid
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	inv, err := h.invoices.MarkPaid(c.Request.Context(), tenantID, id, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToInvoiceResponse(inv))
}

// Delete handles DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.invoices.Remove(c.Request.Context(), tenantID, id, h.Actor(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Activity handles GET /invoices/:id/activity
func (h *InvoiceHandler) Activity(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	logs, err := h.activity.ListForInvoice(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToActivityResponses(logs))
}
