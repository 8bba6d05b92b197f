package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestSystemHandler(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	newRouter := func(checks map[string]Pinger) *gin.Engine {
		h := NewSystemHandler("billing", "1.2.3", checks)
		r := gin.New()
		r.GET("/health", h.Health)
		r.GET("/ready", h.Ready)
		r.GET("/info", h.Info)
		return r
	}

	t.Run("health", func(t *testing.T) {
		w := perform(newRouter(nil), http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		w := perform(newRouter(map[string]Pinger{"database": healthy}), http.MethodGet, "/ready", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		r := newRouter(map[string]Pinger{"database": healthy, "redis": down})
		w := perform(r, http.MethodGet, "/ready", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body struct {
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Checks["database"])
		assert.Equal(t, "connection refused", body.Checks["redis"])
	})

	t.Run("info", func(t *testing.T) {
		w := perform(newRouter(nil), http.MethodGet, "/info", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data SystemInfoResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "billing", resp.Data.Name)
		assert.Equal(t, "1.2.3", resp.Data.Version)
		assert.NotEmpty(t, resp.Data.GoVersion)
	})
}
