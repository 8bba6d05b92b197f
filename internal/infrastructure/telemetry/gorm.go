package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

// otelAfterPrefix names the otelgorm callbacks that end the query span;
// span annotations must run before them.
const otelAfterPrefix = "otel:after_"

type queryStartKey struct{}

type registerFunc func(name string, fn func(*gorm.DB)) error

type gormProcessor struct {
	op     string // empty for Row/Raw, resolved from the SQL text
	name   string
	before registerFunc
	after  registerFunc
}

// gormProcessors lists the GORM processors. When ahead is set, after
// callbacks are ordered before the callback named ahead+name.
func gormProcessors(db *gorm.DB, ahead string) []gormProcessor {
	cb := db.Callback()
	next := func(name string) string {
		if ahead == "" {
			return ""
		}
		return ahead + name
	}
	return []gormProcessor{
		{"INSERT", "create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Before(next("create")).Register},
		{"SELECT", "query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Before(next("query")).Register},
		{"UPDATE", "update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Before(next("update")).Register},
		{"DELETE", "delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Before(next("delete")).Register},
		{"", "row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Before(next("row")).Register},
		{"", "raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Before(next("raw")).Register},
	}
}

// registerTimed installs a start-time callback before each processor and
// after(op, elapsed) behind it. Callback names are prefixed with prefix.
func registerTimed(db *gorm.DB, prefix, ahead string, after func(tx *gorm.DB, op string, elapsed time.Duration)) error {
	markStart := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tx.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
	}

	for _, p := range gormProcessors(db, ahead) {
		if err := p.before(prefix+":before_"+p.name, markStart); err != nil {
			return err
		}
		op := p.op
		if err := p.after(prefix+":after_"+p.name, func(tx *gorm.DB) {
			var elapsed time.Duration
			if tx.Statement.Context != nil {
				if start, ok := tx.Statement.Context.Value(queryStartKey{}).(time.Time); ok {
					elapsed = time.Since(start)
				}
			}
			resolved := op
			if resolved == "" {
				resolved = operationOf(tx.Statement.SQL.String())
			}
			after(tx, resolved, elapsed)
		}); err != nil {
			return err
		}
	}
	return nil
}

// operationOf classifies a raw statement by its leading keyword.
func operationOf(stmt string) string {
	stmt = strings.ToUpper(strings.TrimSpace(stmt))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(stmt, op) {
			return op
		}
	}
	if strings.HasPrefix(stmt, "WITH") {
		return "SELECT"
	}
	return "OTHER"
}

// DBTracingConfig controls otelgorm span creation.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig keeps query variables out of spans.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: defaultSlowQueryThreshold,
		DBSystem:        "postgresql",
	}
}

// RegisterDBTracing installs otelgorm plus a callback that annotates each
// query span with the table, row count, failure status and a slow_query flag.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQueryThreshold
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := registerTimed(db, "billing_trace", otelAfterPrefix, func(tx *gorm.DB, _ string, elapsed time.Duration) {
		annotateQuerySpan(tx, elapsed, cfg.SlowQueryThresh)
	}); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateQuerySpan(tx *gorm.DB, elapsed, slow time.Duration) {
	if tx.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(tx.Statement.Context)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	if elapsed > slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

// DBMetricsConfig controls query and pool metrics.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DBMetrics records per-query counters and periodic connection pool gauges.
type DBMetrics struct {
	queries     *Counter
	duration    *Histogram
	slowQueries *Counter
	pool        *Gauge
	poolMax     *Gauge

	cfg    DBMetricsConfig
	logger *zap.Logger
	sqlDB  *sql.DB

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the instruments on mp's "db.client" meter.
func NewDBMetrics(mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	meter := mp.Meter("db.client")
	m := &DBMetrics{cfg: cfg, logger: logger, stop: make(chan struct{})}

	var err error
	if m.queries, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueries, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the configured threshold", "{query}"); err != nil {
		return nil, err
	}
	if m.pool, err = NewGauge(meter, "db_pool_connections", "Pool connections by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolMax, err = NewGauge(meter, "db_pool_connections_max", "Maximum open connections", "{connection}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordQuery records one completed statement.
func (m *DBMetrics) RecordQuery(ctx context.Context, op, table string, elapsed time.Duration) {
	if op == "" {
		op = "OTHER"
	}
	m.queries.Inc(ctx, AttrDBOperation.String(op))
	m.duration.RecordDuration(ctx, elapsed, AttrDBOperation.String(op))
	if elapsed > m.cfg.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueries.Inc(ctx, AttrDBTable.String(table))
	}
}

// Register installs the query callbacks on db and remembers its pool.
func (m *DBMetrics) Register(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	m.sqlDB = sqlDB

	return registerTimed(db, "billing_metrics", "", func(tx *gorm.DB, op string, elapsed time.Duration) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		m.RecordQuery(ctx, op, tx.Statement.Table, elapsed)
	})
}

// StartPoolStats samples sql.DB pool statistics until ctx ends or Stop is called.
func (m *DBMetrics) StartPoolStats(ctx context.Context) {
	if m.sqlDB == nil {
		m.logger.Warn("Pool stats not started: metrics are not registered on a database")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.PoolStatsInterval)
		defer ticker.Stop()

		m.samplePool(ctx)
		for {
			select {
			case <-ticker.C:
				m.samplePool(ctx)
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) samplePool(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.pool.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.pool.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.pool.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop ends pool sampling. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}

// RegisterDBMetrics wires DBMetrics onto db when metrics are exported.
// It returns nil metrics when disabled.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || mp == nil || !mp.IsEnabled() {
		return nil, nil
	}
	m, err := NewDBMetrics(mp, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := m.Register(db); err != nil {
		return nil, err
	}
	return m, nil
}
