package handler

import (
	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// RecurringHandler manages recurring invoice profiles
type RecurringHandler struct {
	BaseHandler
	profiles *appinvoicing.RecurringService
}

// NewRecurringHandler creates a RecurringHandler
func NewRecurringHandler(profiles *appinvoicing.RecurringService) *RecurringHandler {
	return &RecurringHandler{profiles: profiles}
}

// Create handles POST /recurring-profiles
func (h *RecurringHandler) Create(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req dto.CreateRecurringRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.profiles.Create(c.Request.Context(), tenantID, h.Actor(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToRecurringProfileResponse(p))
}

// Get handles GET /recurring-profiles/:id
func (h *RecurringHandler) Get(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	p, err := h.profiles.GetByID(c.Request.Context(), tenantID, id)
	h.respond(c, p, err)
}

// List handles GET /recurring-profiles
func (h *RecurringHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.profiles.List(c.Request.Context(), tenantID, q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondList(c, dto.ToRecurringProfileResponses(page.Items), page)
}

// Update handles PATCH /recurring-profiles/:id
func (h *RecurringHandler) Update(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.UpdateRecurringRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.profiles.Update(c.Request.Context(), tenantID, id, req.ToCommand())
	h.respond(c, p, err)
}

// Pause handles POST /recurring-profiles/:id/pause
func (h *RecurringHandler) Pause(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	p, err := h.profiles.Pause(c.Request.Context(), tenantID, id)
	h.respond(c, p, err)
}

// Resume handles POST /recurring-profiles/:id/resume
func (h *RecurringHandler) Resume(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	p, err := h.profiles.Resume(c.Request.Context(), tenantID, id)
	h.respond(c, p, err)
}

// Delete handles DELETE /recurring-profiles/:id
func (h *RecurringHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.profiles.Remove(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *RecurringHandler) respond(c *gin.Context, p *invoicing.RecurringProfile, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToRecurringProfileResponse(p))
}
