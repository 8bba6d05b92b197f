package handler

import (
	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// CreditNoteHandler serves credit notes
type CreditNoteHandler struct {
	BaseHandler
	notes *appinvoicing.CreditNoteService
}

// NewCreditNoteHandler creates a CreditNoteHandler
func NewCreditNoteHandler(notes *appinvoicing.CreditNoteService) *CreditNoteHandler {
	return &CreditNoteHandler{notes: notes}
}

// Create handles POST /credit-notes
func (h *CreditNoteHandler) Create(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req dto.CreateCreditNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cn, err := h.notes.Create(c.Request.Context(), tenantID, h.Actor(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToCreditNoteResponse(cn))
}

// Get handles GET /credit-notes/:id
func (h *CreditNoteHandler) Get(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	cn, err := h.notes.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCreditNoteResponse(cn))
}

// List handles GET /credit-notes
func (h *CreditNoteHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.notes.List(c.Request.Context(), tenantID, q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondList(c, dto.ToCreditNoteResponses(page.Items), page)
}

// Delete handles DELETE /credit-notes/:id
func (h *CreditNoteHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.notes.Remove(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
