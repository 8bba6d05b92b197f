package handler

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
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/partner"
	"github.com/invoicely/backend/internal/infrastructure/persistence"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"github.com/invoicely/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func perform(r http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func withTenant(tenantID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.TenantIDKey, tenantID)
		c.Next()
	}
}

// billingEnv holds real services over an in-memory database
type billingEnv struct {
	ctx      context.Context
	repos    *appinvoicing.Repositories
	invoices *appinvoicing.InvoiceService
	payments *appinvoicing.PaymentService
	tenantID uuid.UUID
}

func newBillingEnv(t *testing.T) *billingEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	repos := persistence.NewRepositories(db)
	scope := persistence.NewGormTransactionScope(db)
	return &billingEnv{
		ctx:      context.Background(),
		repos:    repos,
		invoices: appinvoicing.NewInvoiceService(scope, repos, zap.NewNop()),
		payments: appinvoicing.NewPaymentService(scope, repos, zap.NewNop()),
		tenantID: uuid.New(),
	}
}

// openInvoice creates a SENT invoice for total in USD
func (e *billingEnv) openInvoice(t *testing.T, total string) (*partner.Customer, *appinvoicing.InvoiceDetail) {
	t.Helper()
	customer, err := partner.NewCustomer(e.tenantID, "Initech", "USD")
	require.NoError(t, err)
	require.NoError(t, e.repos.Customers.Save(e.ctx, customer))

	rate := decimal.RequireFromString(total)
	detail, err := e.invoices.Create(e.ctx, e.tenantID, nil, appinvoicing.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Items:      []appinvoicing.LineRequest{{Description: "Retainer", Quantity: decimal.NewFromInt(1), Rate: &rate}},
		DueDate:    time.Now().AddDate(0, 0, 30),
	})
	require.NoError(t, err)
	return customer, detail
}
