package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReceivablesMetricsProvider implements ReceivablesMetricsProvider using GORM.
// It aggregates the invoices table directly.
type GormReceivablesMetricsProvider struct {
	db *gorm.DB
}

// NewGormReceivablesMetricsProvider creates a new GormReceivablesMetricsProvider.
func NewGormReceivablesMetricsProvider(db *gorm.DB) *GormReceivablesMetricsProvider {
	return &GormReceivablesMetricsProvider{db: db}
}

// GetOutstandingByCurrency returns the open balance per currency for a tenant.
func (p *GormReceivablesMetricsProvider) GetOutstandingByCurrency(ctx context.Context, tenantID uuid.UUID) (map[string]decimal.Decimal, error) {
	type result struct {
		Currency    string          `gorm:"column:currency"`
		Outstanding decimal.Decimal `gorm:"column:outstanding"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("invoices").
		Select("currency, COALESCE(SUM(balance_due), 0) AS outstanding").
		Where("tenant_id = ? AND balance_due > 0 AND status NOT IN ?", tenantID, []string{"VOID", "DRAFT"}).
		Group("currency").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[string]decimal.Decimal, len(results))
	for _, r := range results {
		m[r.Currency] = r.Outstanding
	}
	return m, nil
}

// GetOverdueCount returns the number of OVERDUE invoices for a tenant.
func (p *GormReceivablesMetricsProvider) GetOverdueCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("invoices").
		Where("tenant_id = ? AND status = ?", tenantID, "OVERDUE").
		Count(&count).Error
	return count, err
}

// GormTenantProvider implements TenantProvider using GORM.
// A tenant is active when it owns at least one customer.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all tenant IDs that own customers.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("customers").
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}
