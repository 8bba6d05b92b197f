package handler

import (
	"github.com/gin-gonic/gin"
	appcatalog "github.com/invoicely/backend/internal/application/catalog"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// ItemHandler serves the product/service catalog
type ItemHandler struct {
	BaseHandler
	items *appcatalog.ItemService
}

// NewItemHandler creates an ItemHandler
func NewItemHandler(items *appcatalog.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// Create handles POST /items
func (h *ItemHandler) Create(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req appcatalog.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.items.Create(c.Request.Context(), tenantID, h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Get handles GET /items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	item, err := h.items.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// List handles GET /items
func (h *ItemHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.items.List(c.Request.Context(), tenantID, q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondList(c, page.Items, page)
}

// Update handles PATCH /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req appcatalog.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.items.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete handles DELETE /items/:id
func (h *ItemHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.items.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
