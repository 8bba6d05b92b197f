package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func newTestBusinessMetrics(t *testing.T, provider telemetry.ReceivablesMetricsProvider) *telemetry.BusinessMetrics {
	t.Helper()
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:               noop.NewMeterProvider().Meter("test"),
		Logger:              zap.NewNop(),
		ReceivablesProvider: provider,
	})
	require.NoError(t, err)
	return bm
}

func TestNewBusinessMetrics(t *testing.T) {
	bm := newTestBusinessMetrics(t, nil)
	require.NotNil(t, bm)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestBusinessMetrics_Recorders(t *testing.T) {
	bm := newTestBusinessMetrics(t, nil)
	ctx := context.Background()
	tenantID := uuid.New()

	// Should not panic
	bm.RecordInvoiceCreated(ctx, tenantID, telemetry.InvoiceSourceManual, "USD", decimal.RequireFromString("110.25"))
	bm.RecordInvoiceCreated(ctx, tenantID, telemetry.InvoiceSourceRecurring, "EUR", decimal.Zero)
	bm.RecordPayment(ctx, tenantID, "BANK_TRANSFER", telemetry.PaymentStatusSuccess)
	bm.RecordPayment(ctx, tenantID, "GATEWAY", telemetry.PaymentStatusDuplicate)
	bm.RecordSweep(ctx, "overdue", 3, 1, 2*time.Second)
	bm.RecordOutstanding(ctx, tenantID, "USD", decimal.NewFromInt(500))
	bm.RecordOverdueCount(ctx, tenantID, 2)
}

type mockTenantProvider struct {
	tenantIDs []uuid.UUID
	err       error
}

func (m *mockTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	return m.tenantIDs, m.err
}

type mockReceivablesProvider struct {
	outstanding map[string]decimal.Decimal
	overdue     int64
	err         error
	calls       chan uuid.UUID
}

func (m *mockReceivablesProvider) GetOutstandingByCurrency(ctx context.Context, tenantID uuid.UUID) (map[string]decimal.Decimal, error) {
	select {
	case m.calls <- tenantID:
	default:
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.outstanding, nil
}

func (m *mockReceivablesProvider) GetOverdueCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.overdue, nil
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	tenantID := uuid.New()
	provider := &mockReceivablesProvider{
		outstanding: map[string]decimal.Decimal{"USD": decimal.NewFromInt(100)},
		overdue:     5,
		calls:       make(chan uuid.UUID, 1),
	}
	bm := newTestBusinessMetrics(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bm.StartPeriodicCollection(ctx, &mockTenantProvider{tenantIDs: []uuid.UUID{tenantID}}, time.Hour)

	select {
	case got := <-provider.calls:
		assert.Equal(t, tenantID, got)
	case <-time.After(2 * time.Second):
		t.Fatal("collection did not run")
	}
	bm.Stop()
}

func TestBusinessMetrics_PeriodicCollection_ProviderErrors(t *testing.T) {
	provider := &mockReceivablesProvider{err: errors.New("db down"), calls: make(chan uuid.UUID, 1)}
	bm := newTestBusinessMetrics(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bm.StartPeriodicCollection(ctx, &mockTenantProvider{tenantIDs: []uuid.UUID{uuid.New()}}, time.Hour)

	select {
	case <-provider.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("collection did not run")
	}
	bm.Stop()
}

func TestBusinessMetrics_PeriodicCollection_NoProvider(t *testing.T) {
	bm := newTestBusinessMetrics(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bm.StartPeriodicCollection(ctx, &mockTenantProvider{tenantIDs: []uuid.UUID{uuid.New()}}, 50*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	bm.Stop()
}

func TestBusinessMetrics_Stop_Idempotent(t *testing.T) {
	bm := newTestBusinessMetrics(t, nil)

	bm.Stop()
	bm.Stop()
	bm.Stop()
}

func TestBusinessMetrics_StartPeriodicCollection_OnlyOnce(t *testing.T) {
	bm := newTestBusinessMetrics(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tenantProvider := &mockTenantProvider{tenantIDs: []uuid.UUID{}}

	bm.StartPeriodicCollection(ctx, tenantProvider, time.Hour)
	bm.StartPeriodicCollection(ctx, tenantProvider, time.Minute)
	bm.StartPeriodicCollection(ctx, tenantProvider, time.Second)

	bm.Stop()
}

func TestInvoiceSource_Values(t *testing.T) {
	assert.Equal(t, telemetry.InvoiceSource("manual"), telemetry.InvoiceSourceManual)
	assert.Equal(t, telemetry.InvoiceSource("quote"), telemetry.InvoiceSourceQuote)
	assert.Equal(t, telemetry.InvoiceSource("recurring"), telemetry.InvoiceSourceRecurring)
	assert.Equal(t, telemetry.InvoiceSource("consolidation"), telemetry.InvoiceSourceConsolidation)
}

func TestMetricsError_Error(t *testing.T) {
	err := &telemetry.MetricsError{
		Op:  "TestOperation",
		Err: "test error message",
	}

	assert.Equal(t, "TestOperation: test error message", err.Error())
}
