package handler

import (
	"github.com/gin-gonic/gin"
	apptime "github.com/invoicely/backend/internal/application/timetracking"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// BillableHandler records time entries and expenses
type BillableHandler struct {
	BaseHandler
	billables *apptime.Service
}

// NewBillableHandler creates a BillableHandler
func NewBillableHandler(billables *apptime.Service) *BillableHandler {
	return &BillableHandler{billables: billables}
}

// LogTime handles POST /time-entries
func (h *BillableHandler) LogTime(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	userID := h.Actor(c)
	if userID == nil {
		h.Error(c, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	var req dto.LogTimeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := h.billables.LogTime(c.Request.Context(), tenantID, *userID, req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToTimeEntryResponse(entry))
}

// GetTimeEntry handles GET /time-entries/:id
func (h *BillableHandler) GetTimeEntry(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	entry, err := h.billables.GetTimeEntry(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToTimeEntryResponse(entry))
}

// UpdateTimeEntry handles PATCH /time-entries/:id. Billed entries answer 409.
func (h *BillableHandler) UpdateTimeEntry(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.UpdateTimeEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := h.billables.UpdateTimeEntry(c.Request.Context(), tenantID, id, req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToTimeEntryResponse(entry))
}

// ListTimeEntries handles GET /time-entries
func (h *BillableHandler) ListTimeEntries(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var q dto.BillableListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.billables.ListTimeEntries(c.Request.Context(), tenantID, q.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondList(c, dto.ToTimeEntryResponses(page.Items), page)
}

// DeleteTimeEntry handles DELETE /time-entries/:id. Billed entries are kept.
func (h *BillableHandler) DeleteTimeEntry(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.billables.DeleteTimeEntry(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RecordExpense handles POST /expenses
func (h *BillableHandler) RecordExpense(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	userID := h.Actor(c)
	if userID == nil {
		h.Error(c, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	var req dto.RecordExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	expense, err := h.billables.RecordExpense(c.Request.Context(), tenantID, *userID, req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToExpenseResponse(expense))
}

// GetExpense handles GET /expenses/:id
func (h *BillableHandler) GetExpense(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	expense, err := h.billables.GetExpense(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToExpenseResponse(expense))
}

// UpdateExpense handles PATCH /expenses/:id. Billed expenses answer 409.
func (h *BillableHandler) UpdateExpense(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.UpdateExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	expense, err := h.billables.UpdateExpense(c.Request.Context(), tenantID, id, req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToExpenseResponse(expense))
}

// ListExpenses handles GET /expenses
func (h *BillableHandler) ListExpenses(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var q dto.BillableListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.billables.ListExpenses(c.Request.Context(), tenantID, q.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondList(c, dto.ToExpenseResponses(page.Items), page)
}

// DeleteExpense handles DELETE /expenses/:id. Billed expenses are kept.
func (h *BillableHandler) DeleteExpense(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.billables.DeleteExpense(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
