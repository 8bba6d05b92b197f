package handler

import (
	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// ConsolidationHandler turns unbilled time and expenses into invoices
type ConsolidationHandler struct {
	BaseHandler
	consolidator *appinvoicing.ConsolidationService
}

// NewConsolidationHandler creates a ConsolidationHandler
func NewConsolidationHandler(consolidator *appinvoicing.ConsolidationService) *ConsolidationHandler {
	return &ConsolidationHandler{consolidator: consolidator}
}

// Consolidate handles POST /invoices/consolidate
func (h *ConsolidationHandler) Consolidate(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req dto.ConsolidateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.consolidator.Consolidate(c.Request.Context(), tenantID, h.Actor(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToConsolidationResponse(result))
}
