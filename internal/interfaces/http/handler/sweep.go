package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/invoicely/backend/internal/infrastructure/scheduler"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// SweepHandler lets operators inspect and run the background sweeps
type SweepHandler struct {
	BaseHandler
	manager *scheduler.Manager
}

// NewSweepHandler creates a SweepHandler
func NewSweepHandler(manager *scheduler.Manager) *SweepHandler {
	return &SweepHandler{manager: manager}
}

// Statuses handles GET /admin/sweeps
func (h *SweepHandler) Statuses(c *gin.Context) {
	h.Success(c, h.manager.Statuses())
}

// Run handles POST /admin/sweeps/:name/run. The sweep runs synchronously
// and its result is returned.
func (h *SweepHandler) Run(c *gin.Context) {
	s, ok := h.manager.Get(c.Param("name"))
	if !ok {
		h.Error(c, dto.ErrCodeNotFound, "Unknown sweep: "+c.Param("name"))
		return
	}

	result, err := s.RunOnce(c.Request.Context())
	switch {
	case errors.Is(err, scheduler.ErrSweepInProgress), errors.Is(err, scheduler.ErrSweepLocked):
		h.Error(c, dto.ErrCodeConflict, err.Error())
	case err != nil:
		h.HandleError(c, err)
	default:
		h.Success(c, result)
	}
}
