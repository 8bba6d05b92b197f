package handler

import (
	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// QuoteHandler serves the quote ledger
type QuoteHandler struct {
	BaseHandler
	quotes   *appinvoicing.QuoteService
	activity *appinvoicing.ActivityRecorder
}

// NewQuoteHandler creates a QuoteHandler
func NewQuoteHandler(quotes *appinvoicing.QuoteService, activity *appinvoicing.ActivityRecorder) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, activity: activity}
}

// Create handles POST /quotes
func (h *QuoteHandler) Create(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req dto.CreateQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	detail, err := h.quotes.Create(c.Request.Context(), tenantID, h.Actor(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToQuoteDetailResponse(detail))
}

// Get handles GET /quotes/:id
func (h *QuoteHandler) Get(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	detail, err := h.quotes.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToQuoteDetailResponse(detail))
}

// List handles GET /quotes
func (h *QuoteHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var q dto.QuoteListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.quotes.List(c.Request.Context(), tenantID, q.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondList(c, dto.ToQuoteResponses(page.Items), page)
}

// Update handles PATCH /quotes/:id
func (h *QuoteHandler) Update(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.UpdateQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	quote, err := h.quotes.Update(c.Request.Context(), tenantID, id, h.Actor(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToQuoteResponse(quote))
}

// Convert handles POST /quotes/:id/convert. The body is optional.
func (h *QuoteHandler) Convert(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.ConvertQuoteRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.quotes.ConvertToInvoice(c.Request.Context(), tenantID, id, h.Actor(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToInvoiceResponse(inv))
}

// Delete handles DELETE /quotes/:id
func (h *QuoteHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.quotes.Remove(c.Request.Context(), tenantID, id, h.Actor(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Activity handles GET /quotes/:id/activity
func (h *QuoteHandler) Activity(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	logs, err := h.activity.ListForQuote(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToActivityResponses(logs))
}
