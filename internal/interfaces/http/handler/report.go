package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// ReportHandler serves receivables reports
type ReportHandler struct {
	BaseHandler
	reports *appinvoicing.ReportService
	now     func() time.Time
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(reports *appinvoicing.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports, now: time.Now}
}

// Aging handles GET /reports/aging. as_of (YYYY-MM-DD) defaults to today.
func (h *ReportHandler) Aging(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	asOf := h.now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		t, err := time.Parse(dto.DateLayout, raw)
		if err != nil {
			h.Error(c, dto.ErrCodeValidation, "as_of must be a date (YYYY-MM-DD)")
			return
		}
		asOf = t
	}
	report, err := h.reports.Aging(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// TaxSummary handles GET /reports/tax
func (h *ReportHandler) TaxSummary(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	summary, err := h.reports.TaxSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Sales handles GET /reports/sales
func (h *ReportHandler) Sales(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	summary, err := h.reports.Sales(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Expenses handles GET /reports/expenses
func (h *ReportHandler) Expenses(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	summary, err := h.reports.ExpenseSummary(c.Request.Context(), tenantID, h.now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
