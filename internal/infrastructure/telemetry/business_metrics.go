// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides billing metrics.
// It tracks invoice issuance, payment activity, sweep runs and receivables.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	invoiceCreatedTotal *Counter
	invoiceAmountTotal  *Counter
	paymentTotal        *Counter
	sweepItemsTotal     *Counter

	// Histogram metrics
	sweepDuration *Histogram

	// Gauge metrics (point-in-time values)
	outstandingCents *Gauge
	overdueCount     *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	receivablesProvider ReceivablesMetricsProvider
}

// ReceivablesMetricsProvider provides receivables data for periodic metrics collection.
// This interface allows the telemetry layer to query balances without
// depending on the invoicing domain directly.
type ReceivablesMetricsProvider interface {
	// GetOutstandingByCurrency returns the open balance per currency for a tenant
	GetOutstandingByCurrency(ctx context.Context, tenantID uuid.UUID) (map[string]decimal.Decimal, error)

	// GetOverdueCount returns the number of OVERDUE invoices for a tenant
	GetOverdueCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter               metric.Meter
	Logger              *zap.Logger
	CollectInterval     time.Duration // Default: 5 minutes
	ReceivablesProvider ReceivablesMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:               cfg.Meter,
		logger:              logger,
		stopChan:            make(chan struct{}),
		receivablesProvider: cfg.ReceivablesProvider,
	}

	var err error

	bm.invoiceCreatedTotal, err = NewCounter(
		cfg.Meter,
		"billing_invoice_created_total",
		"Total number of invoices issued",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.invoiceAmountTotal, err = NewCounter(
		cfg.Meter,
		"billing_invoice_amount_total",
		"Total invoiced amount in minor currency units",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"billing_payment_total",
		"Total number of payments recorded",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.sweepItemsTotal, err = NewCounter(
		cfg.Meter,
		"billing_sweep_items_total",
		"Documents handled by background sweeps",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	bm.sweepDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "billing_sweep_duration_seconds",
		Description: "Duration of background sweep runs",
		Unit:        "s",
		Boundaries:  SweepDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.outstandingCents, err = NewGauge(
		cfg.Meter,
		"billing_receivables_outstanding",
		"Open invoice balance in minor currency units",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.overdueCount, err = NewGauge(
		cfg.Meter,
		"billing_invoices_overdue",
		"Number of invoices in OVERDUE status",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Invoice Metrics
// =============================================================================

// InvoiceSource is how an invoice came to exist, for metrics labeling.
type InvoiceSource string

const (
	InvoiceSourceManual        InvoiceSource = "manual"
	InvoiceSourceQuote         InvoiceSource = "quote"
	InvoiceSourceRecurring     InvoiceSource = "recurring"
	InvoiceSourceConsolidation InvoiceSource = "consolidation"
)

// RecordInvoiceCreated records an invoice issuance with its total.
func (bm *BusinessMetrics) RecordInvoiceCreated(ctx context.Context, tenantID uuid.UUID, source InvoiceSource, currency string, total decimal.Decimal) {
	bm.invoiceCreatedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrInvoiceSource.String(string(source)),
	)
	bm.invoiceAmountTotal.Add(ctx, toCents(total),
		AttrTenantID.String(tenantID.String()),
		AttrCurrency.String(currency),
	)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// PaymentStatus represents the outcome of a payment for metrics labeling.
type PaymentStatus string

const (
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusDuplicate PaymentStatus = "duplicate"
)

// RecordPayment records a payment attempt.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, paymentMethod string, status PaymentStatus) {
	bm.paymentTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(paymentMethod),
		AttrPaymentStatus.String(string(status)),
	)
}

// =============================================================================
// Sweep Metrics
// =============================================================================

// RecordSweep records one run of a background sweep.
func (bm *BusinessMetrics) RecordSweep(ctx context.Context, sweep string, processed, failed int, d time.Duration) {
	bm.sweepDuration.RecordDuration(ctx, d, AttrSweep.String(sweep))
	bm.sweepItemsTotal.Add(ctx, int64(processed), AttrSweep.String(sweep), AttrSweepOutcome.String("processed"))
	bm.sweepItemsTotal.Add(ctx, int64(failed), AttrSweep.String(sweep), AttrSweepOutcome.String("failed"))
}

// =============================================================================
// Receivables Metrics
// =============================================================================

// RecordOutstanding records the open balance of a tenant in one currency.
func (bm *BusinessMetrics) RecordOutstanding(ctx context.Context, tenantID uuid.UUID, currency string, amount decimal.Decimal) {
	bm.outstandingCents.Record(ctx, toCents(amount),
		AttrTenantID.String(tenantID.String()),
		AttrCurrency.String(currency),
	)
}

// RecordOverdueCount records the number of overdue invoices of a tenant.
func (bm *BusinessMetrics) RecordOverdueCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.overdueCount.Record(ctx, count, AttrTenantID.String(tenantID.String()))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectReceivablesMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectReceivablesMetrics(ctx, tenantProvider)
		}
	}
}

func (bm *BusinessMetrics) collectReceivablesMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.receivablesProvider == nil {
		bm.logger.Debug("No receivables provider configured, skipping collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantReceivables(ctx, tenantID)
	}
}

func (bm *BusinessMetrics) collectTenantReceivables(ctx context.Context, tenantID uuid.UUID) {
	outstanding, err := bm.receivablesProvider.GetOutstandingByCurrency(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get outstanding balance for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		for currency, amount := range outstanding {
			bm.RecordOutstanding(ctx, tenantID, currency, amount)
		}
	}

	overdue, err := bm.receivablesProvider.GetOverdueCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get overdue count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOverdueCount(ctx, tenantID, overdue)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
