package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = RequestIDFrom(c)
		c.Status(http.StatusOK)
	})

	w := perform(r, http.MethodGet, "/", "", nil)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	w = perform(r, http.MethodGet, "/", "", map[string]string{RequestIDHeader: "client-1"})
	assert.Equal(t, "client-1", seen)
	assert.Equal(t, "client-1", w.Header().Get(RequestIDHeader))

	long := strings.Repeat("x", MaxRequestIDLength+1)
	perform(r, http.MethodGet, "/", "", map[string]string{RequestIDHeader: long})
	assert.NotEqual(t, long, seen)
}

func TestCORS(t *testing.T) {
	newRouter := func(origins ...string) *gin.Engine {
		r := gin.New()
		r.Use(CORS(DefaultCORSConfig(origins)))
		r.GET("/invoices", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	t.Run("empty allow list sets no headers", func(t *testing.T) {
		w := perform(newRouter(), http.MethodGet, "/invoices", "", map[string]string{"Origin": "https://evil.example"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("listed origin is echoed", func(t *testing.T) {
		w := perform(newRouter("https://app.example"), http.MethodGet, "/invoices", "", map[string]string{"Origin": "https://app.example"})
		assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), IdempotencyKeyHeader)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("wildcard", func(t *testing.T) {
		w := perform(newRouter("*"), http.MethodGet, "/invoices", "", map[string]string{"Origin": "https://any.example"})
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		w := perform(newRouter("https://app.example"), http.MethodOptions, "/invoices", "", map[string]string{"Origin": "https://app.example"})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestSecure(t *testing.T) {
	r := gin.New()
	r.Use(Secure())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", "", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}
