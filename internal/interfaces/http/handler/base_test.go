package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", shared.NewValidationError("discount exceeds total"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"not found", shared.NewNotFoundError("invoice"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped conflict", fmt.Errorf("apply: %w", shared.NewConflictError("invoice is void")), http.StatusConflict, dto.ErrCodeConflict},
		{"concurrency", shared.NewDomainError(shared.CodeConcurrencyConflict, "stale"), http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"storage is hidden", shared.NewDomainError(shared.CodeStorage, "pq: relation missing"), http.StatusInternalServerError, dto.ErrCodeInternal},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := &BaseHandler{}
			r.GET("/x", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := perform(r, http.MethodGet, "/x", nil, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantCode == dto.ErrCodeInternal {
				assert.NotContains(t, resp.Error.Message, "pq:")
			}
		})
	}
}

func TestBaseHandler_Scope(t *testing.T) {
	tenantID := uuid.New()
	h := &BaseHandler{}
	var got uuid.UUID

	r := gin.New()
	r.GET("/anon/:id", func(c *gin.Context) { h.scope(c) })
	authed := r.Group("", withTenant(tenantID))
	authed.GET("/invoices/:id", func(c *gin.Context) {
		if _, id, ok := h.scope(c); ok {
			got = id
			h.NoContent(c)
		}
	})

	id := uuid.New()
	w := perform(r, http.MethodGet, "/invoices/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, id, got)

	w = perform(r, http.MethodGet, "/invoices/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)

	w = perform(r, http.MethodGet, "/anon/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBaseHandler_BindJSON(t *testing.T) {
	type body struct {
		Name string `json:"name" binding:"required"`
	}
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var b body
		if h.BindJSON(c, &b) {
			h.Created(c, b)
		}
	})

	w := perform(r, http.MethodPost, "/x", []byte(`{"name":"ok"}`), nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = perform(r, http.MethodPost, "/x", []byte(`{"name":`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)

	w = perform(r, http.MethodPost, "/x", []byte(`{}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "name", resp.Error.Details[0].Field)
}
