package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	maxIdempotencyKeyLength   = 200
)

// IdempotencyOption configures the Idempotency middleware
type IdempotencyOption func(*idempotency)

// WithIdempotencyConfig sets the replay and in-flight TTLs
func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotencyOption {
	return func(m *idempotency) { m.config = cfg }
}

// WithIdempotencyLogger sets the logger for store failures
func WithIdempotencyLogger(l *zap.Logger) IdempotencyOption {
	return func(m *idempotency) { m.logger = l }
}

type idempotency struct {
	store  shared.IdempotencyStore
	config shared.IdempotencyConfig
	logger *zap.Logger
}

// Idempotency replays the stored response of a request retried with the same
// Idempotency-Key. Keys are scoped to the tenant and route. Reusing a key with
// a different body is rejected. Requests without the header pass through.
// Store failures fail open.
func Idempotency(store shared.IdempotencyStore, opts ...IdempotencyOption) gin.HandlerFunc {
	m := &idempotency{store: store, config: shared.DefaultIdempotencyConfig(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	if store == nil || !m.config.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return m.handle
}

func (m *idempotency) handle(c *gin.Context) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" || c.Request.Method == http.MethodGet {
		c.Next()
		return
	}
	if len(key) > maxIdempotencyKeyLength {
		abortWith(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortWith(c, dto.ErrCodeRequestTooLarge, "Request body could not be read")
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	ctx := c.Request.Context()
	scoped := m.scopedKey(c, key)
	hash := requestHash(c, body)

	if stored, ok, err := m.store.Get(ctx, scoped); err != nil {
		m.logger.Warn("Idempotency lookup failed", zap.Error(err))
		c.Next()
		return
	} else if ok {
		m.replay(c, stored, hash)
		return
	}

	reserved, err := m.store.Reserve(ctx, scoped, m.config.InFlightTTL)
	if err != nil {
		m.logger.Warn("Idempotency reservation failed", zap.Error(err))
		c.Next()
		return
	}
	if !reserved {
		// Finished between Get and Reserve, or still running
		if stored, ok, _ := m.store.Get(ctx, scoped); ok {
			m.replay(c, stored, hash)
			return
		}
		abortWith(c, dto.ErrCodeIdempotencyInFlight, "A request with this Idempotency-Key is still in progress")
		return
	}

	rec := &recordingWriter{ResponseWriter: c.Writer}
	c.Writer = rec
	c.Next()

	status := rec.Status()
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		err = m.store.Save(ctx, scoped, &shared.StoredResponse{
			StatusCode:  status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
			RequestHash: hash,
			CreatedAt:   time.Now().UTC(),
		}, m.config.TTL)
		if err != nil {
			m.logger.Warn("Idempotency save failed", zap.Error(err))
		}
		return
	}
	if err := m.store.Release(ctx, scoped); err != nil {
		m.logger.Warn("Idempotency release failed", zap.Error(err))
	}
}

func (m *idempotency) replay(c *gin.Context, stored *shared.StoredResponse, hash string) {
	if stored.RequestHash != "" && stored.RequestHash != hash {
		abortWith(c, dto.ErrCodeIdempotencyMismatch, "Idempotency-Key was used with a different request")
		return
	}
	c.Header(IdempotencyReplayedHeader, "true")
	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(stored.StatusCode, contentType, stored.Body)
	c.Abort()
}

func (m *idempotency) scopedKey(c *gin.Context, key string) string {
	scope := "anonymous"
	if tenantID, ok := TenantID(c); ok {
		scope = tenantID.String()
	}
	return scope + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
}

func requestHash(c *gin.Context, body []byte) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func abortWith(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, RequestIDFrom(c)))
}

// recordingWriter tees the response body so it can be stored for replay
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
