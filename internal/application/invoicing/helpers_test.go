package invoicing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/catalog"
	"github.com/invoicely/backend/internal/domain/identity"
	"github.com/invoicely/backend/internal/domain/partner"
	"github.com/invoicely/backend/internal/domain/timetracking"
	"github.com/invoicely/backend/internal/infrastructure/persistence"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the application services to an in-memory database
type testEnv struct {
	ctx      context.Context
	db       *gorm.DB
	repos    *appinvoicing.Repositories
	scope    appinvoicing.TransactionScope
	tenantID uuid.UUID
	userID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))

	return &testEnv{
		ctx:      context.Background(),
		db:       db,
		repos:    persistence.NewRepositories(db),
		scope:    persistence.NewGormTransactionScope(db),
		tenantID: uuid.New(),
		userID:   uuid.New(),
	}
}

func (e *testEnv) customer(t *testing.T, name string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(e.tenantID, name, "USD")
	require.NoError(t, err)
	require.NoError(t, e.repos.Customers.Save(e.ctx, c))
	return c
}

func (e *testEnv) user(t *testing.T, email string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(e.tenantID, email, email, role)
	require.NoError(t, err)
	require.NoError(t, e.repos.Users.Save(e.ctx, u))
	return u
}

func (e *testEnv) item(t *testing.T, name, rate, taxRate string) *catalog.Item {
	t.Helper()
	i, err := catalog.NewItem(e.tenantID, name, dec(rate), dec(taxRate))
	require.NoError(t, err)
	require.NoError(t, e.repos.Items.Save(e.ctx, i))
	return i
}

func (e *testEnv) timeEntry(t *testing.T, customerID *uuid.UUID, hours, rate string, billable bool) *timetracking.TimeEntry {
	t.Helper()
	te, err := timetracking.NewTimeEntry(e.tenantID, e.userID, customerID, "Design work", dec(hours), dec(rate), day(2024, 3, 1), billable)
	require.NoError(t, err)
	require.NoError(t, e.repos.TimeEntries.Save(e.ctx, te))
	return te
}

func (e *testEnv) expense(t *testing.T, customerID *uuid.UUID, amount string) *timetracking.Expense {
	t.Helper()
	ex, err := timetracking.NewExpense(e.tenantID, e.userID, customerID, "Travel", dec(amount), day(2024, 3, 9), true)
	require.NoError(t, err)
	require.NoError(t, e.repos.Expenses.Save(e.ctx, ex))
	return ex
}

func (e *testEnv) invoiceService() *appinvoicing.InvoiceService {
	return appinvoicing.NewInvoiceService(e.scope, e.repos, nil)
}

func (e *testEnv) quoteService() *appinvoicing.QuoteService {
	return appinvoicing.NewQuoteService(e.scope, e.repos, nil)
}

func (e *testEnv) paymentService() *appinvoicing.PaymentService {
	return appinvoicing.NewPaymentService(e.scope, e.repos, nil)
}

// createInvoice issues a SENT invoice with one untaxed line of the given amount
func (e *testEnv) createInvoice(t *testing.T, customerID uuid.UUID, amount string, due time.Time) *appinvoicing.InvoiceDetail {
	t.Helper()
	rate := dec(amount)
	detail, err := e.invoiceService().Create(e.ctx, e.tenantID, &e.userID, appinvoicing.CreateInvoiceRequest{
		CustomerID: customerID,
		Items:      []appinvoicing.LineRequest{{Description: "Services", Quantity: decimal.NewFromInt(1), Rate: &rate}},
		DueDate:    due,
	})
	require.NoError(t, err)
	return detail
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
