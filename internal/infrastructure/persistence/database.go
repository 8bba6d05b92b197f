package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database owns the GORM handle and its connection pool.
type Database struct {
	DB *gorm.DB
}

type dbOptions struct {
	logger      *zap.Logger
	logLevel    gormlogger.LogLevel
	slowQuery   time.Duration
	prepareStmt bool
	dialector   gorm.Dialector
}

// DatabaseOption configures Open.
type DatabaseOption func(*dbOptions)

// WithQueryLogger routes GORM statement logs into l at the named level
// ("silent", "error", "warn", "info").
func WithQueryLogger(l *zap.Logger, level string, slowQuery time.Duration) DatabaseOption {
	return func(o *dbOptions) {
		o.logger = l
		o.logLevel = logger.MapGormLogLevel(level)
		o.slowQuery = slowQuery
	}
}

// WithPreparedStatements toggles GORM's prepared statement cache.
func WithPreparedStatements(enabled bool) DatabaseOption {
	return func(o *dbOptions) { o.prepareStmt = enabled }
}

// WithDialector replaces the PostgreSQL dialector built from the config.
func WithDialector(d gorm.Dialector) DatabaseOption {
	return func(o *dbOptions) { o.dialector = d }
}

// Open connects to PostgreSQL, sizes the pool and verifies the connection.
func Open(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	o := &dbOptions{logLevel: gormlogger.Silent, prepareStmt: true}
	for _, opt := range opts {
		opt(o)
	}

	gcfg := &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		PrepareStmt:            o.prepareStmt,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
	if o.logger != nil {
		gcfg.Logger = logger.NewGormLogger(o.logger, o.logLevel, logger.WithSlowThreshold(o.slowQuery))
	}

	dialector := o.dialector
	if dialector == nil {
		dialector = postgres.Open(cfg.DSN())
	}
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{DB: db}, nil
}

// Instrument installs query tracing and, when mp exports metrics, query and
// pool metrics. The returned DBMetrics is nil when metrics are off.
func (d *Database) Instrument(tracing telemetry.DBTracingConfig, mp *telemetry.MeterProvider, metrics telemetry.DBMetricsConfig, log *zap.Logger) (*telemetry.DBMetrics, error) {
	if err := telemetry.RegisterDBTracing(d.DB, tracing, log); err != nil {
		return nil, fmt.Errorf("register db tracing: %w", err)
	}
	m, err := telemetry.RegisterDBMetrics(d.DB, mp, metrics, log)
	if err != nil {
		return nil, fmt.Errorf("register db metrics: %w", err)
	}
	return m, nil
}

// SQL returns the underlying pool.
func (d *Database) SQL() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// Ping checks the connection.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats reports connection pool statistics.
func (d *Database) Stats() (sql.DBStats, error) {
	sqlDB, err := d.SQL()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// Close closes the pool.
func (d *Database) Close() error {
	sqlDB, err := d.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTenant scopes a query to one tenant. A nil tenant id panics: every
// billing table is tenant-partitioned and an unscoped read leaks data.
func (d *Database) WithTenant(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	if tenantID == uuid.Nil {
		panic("persistence: WithTenant called with nil tenant id")
	}
	return d.DB.WithContext(ctx).Where("tenant_id = ?", tenantID)
}
