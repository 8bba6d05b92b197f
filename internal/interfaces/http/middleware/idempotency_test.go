package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/cache"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotentRouter(store shared.IdempotencyStore, tenantID uuid.UUID, calls *int32, status int) *gin.Engine {
	r := gin.New()
	r.Use(withTenant(tenantID), Idempotency(store))
	r.POST("/payments", func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		c.JSON(status, gin.H{"call": n})
	})
	r.GET("/payments", func(c *gin.Context) {
		atomic.AddInt32(calls, 1)
		c.Status(http.StatusOK)
	})
	return r
}

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	r := newIdempotentRouter(store, uuid.New(), &calls, http.StatusCreated)
	key := map[string]string{IdempotencyKeyHeader: "pay-1"}

	first := perform(r, http.MethodPost, "/payments", `{"amount":"10"}`, key)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(IdempotencyReplayedHeader))

	second := perform(r, http.MethodPost, "/payments", `{"amount":"10"}`, key)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), calls)
}

func TestIdempotency_RejectsReusedKeyWithDifferentBody(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	r := newIdempotentRouter(store, uuid.New(), &calls, http.StatusCreated)
	key := map[string]string{IdempotencyKeyHeader: "pay-1"}

	perform(r, http.MethodPost, "/payments", `{"amount":"10"}`, key)
	w := perform(r, http.MethodPost, "/payments", `{"amount":"99"}`, key)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeIdempotencyMismatch, decodeError(t, w).Code)
	assert.Equal(t, int32(1), calls)
}

func TestIdempotency_KeysAreScopedByTenant(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	key := map[string]string{IdempotencyKeyHeader: "shared-key"}

	perform(newIdempotentRouter(store, uuid.New(), &calls, http.StatusCreated), http.MethodPost, "/payments", `{}`, key)
	w := perform(newIdempotentRouter(store, uuid.New(), &calls, http.StatusCreated), http.MethodPost, "/payments", `{}`, key)

	assert.Empty(t, w.Header().Get(IdempotencyReplayedHeader))
	assert.Equal(t, int32(2), calls)
}

func TestIdempotency_FailedResponseIsNotStored(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	r := newIdempotentRouter(store, uuid.New(), &calls, http.StatusConflict)
	key := map[string]string{IdempotencyKeyHeader: "pay-1"}

	perform(r, http.MethodPost, "/payments", `{}`, key)
	w := perform(r, http.MethodPost, "/payments", `{}`, key)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int32(2), calls)
}

func TestIdempotency_InFlight(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	tenantID := uuid.New()
	var calls int32
	r := newIdempotentRouter(store, tenantID, &calls, http.StatusCreated)

	reserved, err := store.Reserve(context.Background(), tenantID.String()+":POST:/payments:pay-1", time.Minute)
	require.NoError(t, err)
	require.True(t, reserved)

	w := perform(r, http.MethodPost, "/payments", `{}`, map[string]string{IdempotencyKeyHeader: "pay-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeIdempotencyInFlight, decodeError(t, w).Code)
	assert.Equal(t, int32(0), calls)
}

func TestIdempotency_PassThrough(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	r := newIdempotentRouter(store, uuid.New(), &calls, http.StatusCreated)

	perform(r, http.MethodPost, "/payments", `{}`, nil)
	perform(r, http.MethodPost, "/payments", `{}`, nil)
	perform(r, http.MethodGet, "/payments", "", map[string]string{IdempotencyKeyHeader: "k"})
	perform(r, http.MethodGet, "/payments", "", map[string]string{IdempotencyKeyHeader: "k"})
	assert.Equal(t, int32(4), calls)

	w := perform(r, http.MethodPost, "/payments", `{}`, map[string]string{IdempotencyKeyHeader: strings.Repeat("k", 201)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type failingStore struct{ shared.IdempotencyStore }

func (failingStore) Get(context.Context, string) (*shared.StoredResponse, bool, error) {
	return nil, false, errors.New("redis down")
}

func TestIdempotency_StoreFailureFailsOpen(t *testing.T) {
	var calls int32
	r := newIdempotentRouter(failingStore{}, uuid.New(), &calls, http.StatusCreated)

	w := perform(r, http.MethodPost, "/payments", `{}`, map[string]string{IdempotencyKeyHeader: "pay-1"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int32(1), calls)
}

func TestIdempotency_NilStore(t *testing.T) {
	var calls int32
	r := gin.New()
	r.Use(Idempotency(nil))
	r.POST("/", func(c *gin.Context) { atomic.AddInt32(&calls, 1) })
	perform(r, http.MethodPost, "/", `{}`, map[string]string{IdempotencyKeyHeader: "k"})
	assert.Equal(t, int32(1), calls)
}
