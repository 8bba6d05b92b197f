package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/bootstrap"
	"github.com/invoicely/backend/internal/infrastructure/auth"
	"github.com/invoicely/backend/internal/infrastructure/cache"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"github.com/invoicely/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func (a *apiClient) do(method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, apiEnvelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env apiEnvelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func newTestEngine(t *testing.T) (*gin.Engine, *auth.Verifier) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	log := zap.NewNop()
	billing := config.BillingConfig{DefaultCurrency: "USD", QuoteDueDays: 30, ConsolidationDueDays: 30, WebhookSecret: "whsec"}
	services, err := bootstrap.NewServices(db, billing, config.SchedulerConfig{BatchSize: 100}, log)
	require.NoError(t, err)
	sweeps, err := services.Schedulers(config.SchedulerConfig{}, nil, log)
	require.NoError(t, err)

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	verifier := auth.NewVerifier(config.AuthConfig{JWTSecret: "test-secret", Issuer: "billing-test"})
	engine := router.NewEngine(context.Background(), router.EngineConfig{
		Logger:           log,
		HTTP:             config.HTTPConfig{MaxBodySize: 1 << 20},
		ServiceName:      "billing-test",
		Verifier:         verifier,
		IdempotencyStore: store,
	}, services.Handlers(bootstrap.HandlerDeps{
		ServiceName:   "billing-test",
		Version:       "test",
		WebhookSecret: billing.WebhookSecret,
		Sweeps:        sweeps,
	}))
	return engine, verifier
}

func issue(t *testing.T, v *auth.Verifier, tenantID uuid.UUID, role string) string {
	t.Helper()
	token, err := v.Issue(auth.Identity{TenantID: tenantID, UserID: uuid.New(), Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func TestEngine_InvoiceToPaymentFlow(t *testing.T) {
	engine, verifier := newTestEngine(t)
	client := &apiClient{t: t, engine: engine, token: issue(t, verifier, uuid.New(), "accountant")}

	w, env := client.do(http.MethodPost, "/api/v1/customers", map[string]any{"display_name": "Acme Corp"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var customer struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &customer))

	w, env = client.do(http.MethodPost, "/api/v1/invoices", map[string]any{
		"customer_id": customer.ID,
		"due_date":    "2030-01-31",
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "2", "rate": "50"},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var invoice struct {
		ID            uuid.UUID       `json:"id"`
		InvoiceNumber string          `json:"invoice_number"`
		CustomerName  string          `json:"customer_name"`
		TotalAmount   decimal.Decimal `json:"total_amount"`
		Status        string          `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &invoice))
	assert.NotEmpty(t, invoice.InvoiceNumber)
	assert.Equal(t, "Acme Corp", invoice.CustomerName)
	assert.True(t, invoice.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "SENT", invoice.Status)

	payment := map[string]any{
		"invoice_id":  invoice.ID,
		"customer_id": customer.ID,
		"amount":      "100",
		"method":      "BANK_TRANSFER",
	}
	headers := map[string]string{"Idempotency-Key": "pay-1"}
	first, _ := client.do(http.MethodPost, "/api/v1/payments", payment, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	replay, _ := client.do(http.MethodPost, "/api/v1/payments", payment, headers)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	w, env = client.do(http.MethodGet, "/api/v1/invoices/"+invoice.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Status     string            `json:"status"`
		AmountPaid decimal.Decimal   `json:"amount_paid"`
		Payments   []json.RawMessage `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "PAID", detail.Status)
	assert.True(t, detail.AmountPaid.Equal(decimal.NewFromInt(100)))
	assert.Len(t, detail.Payments, 1)
}

func TestEngine_TenantIsolation(t *testing.T) {
	engine, verifier := newTestEngine(t)
	owner := &apiClient{t: t, engine: engine, token: issue(t, verifier, uuid.New(), "accountant")}
	other := &apiClient{t: t, engine: engine, token: issue(t, verifier, uuid.New(), "accountant")}

	w, env := owner.do(http.MethodPost, "/api/v1/customers", map[string]any{"display_name": "Globex"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var customer struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &customer))

	w, env = other.do(http.MethodGet, "/api/v1/customers/"+customer.ID.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestEngine_Authentication(t *testing.T) {
	engine, verifier := newTestEngine(t)

	anonymous := &apiClient{t: t, engine: engine}
	w, env := anonymous.do(http.MethodGet, "/api/v1/invoices", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)

	w, _ = anonymous.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The webhook authenticates by signature, not by bearer token.
	w, env = anonymous.do(http.MethodPost, "/api/v1/webhooks/gateway", map[string]any{"event": "payment.captured"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_SIGNATURE", env.Error.Code)

	tenantID := uuid.New()
	staff := &apiClient{t: t, engine: engine, token: issue(t, verifier, tenantID, "accountant")}
	w, _ = staff.do(http.MethodGet, "/api/v1/admin/sweeps", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := &apiClient{t: t, engine: engine, token: issue(t, verifier, tenantID, router.AdminRole)}
	w, _ = admin.do(http.MethodGet, "/api/v1/admin/sweeps", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = admin.do(http.MethodPost, "/api/v1/admin/sweeps/overdue/run", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Sweep     string `json:"sweep"`
		Processed int    `json:"processed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "overdue", result.Sweep)
	assert.Zero(t, result.Processed)

	w, _ = admin.do(http.MethodPost, "/api/v1/admin/sweeps/nightly/run", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
