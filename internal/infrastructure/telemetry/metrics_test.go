package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// newManualMeterProvider returns an enabled provider backed by a manual reader.
func newManualMeterProvider(t *testing.T) (*MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return &MeterProvider{
		provider: provider,
		logger:   zap.NewNop(),
		config:   MetricsConfig{Enabled: true, ServiceName: "billing-ledger"},
	}, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{ServiceName: "billing-ledger"}, nil)
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("noop"))
	assert.NoError(t, mp.ForceFlush(context.Background()))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestCounterAndHistogram(t *testing.T) {
	mp, reader := newManualMeterProvider(t)
	meter := mp.Meter("test")
	ctx := context.Background()

	counter, err := NewCounter(meter, "invoices_created_total", "Invoices created", "{invoice}")
	require.NoError(t, err)
	counter.Inc(ctx, AttrInvoiceSource.String("manual"))
	counter.Add(ctx, 2, AttrInvoiceSource.String("manual"))

	hist, err := NewHistogram(meter, HistogramOpts{
		Name:       "sweep_duration_seconds",
		Unit:       "s",
		Boundaries: SweepDurationBuckets,
	})
	require.NoError(t, err)
	hist.RecordDuration(ctx, 1500*time.Millisecond, AttrSweep.String("overdue"))

	metrics := collect(t, reader)

	sum := metrics["invoices_created_total"].Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	h := metrics["sweep_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(1), h.DataPoints[0].Count)
	assert.InDelta(t, 1.5, h.DataPoints[0].Sum, 1e-9)
	assert.Equal(t, SweepDurationBuckets, h.DataPoints[0].Bounds)
}

func TestGauge(t *testing.T) {
	mp, reader := newManualMeterProvider(t)
	ctx := context.Background()

	g, err := NewGauge(mp.Meter("test"), "invoices_overdue", "Overdue invoices", "{invoice}")
	require.NoError(t, err)
	g.Record(ctx, 4, AttrTenantID.String("t-1"))
	g.Record(ctx, 2, AttrTenantID.String("t-1"))

	gauge := collect(t, reader)["invoices_overdue"].Data.(metricdata.Gauge[int64])
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(2), gauge.DataPoints[0].Value)
}
