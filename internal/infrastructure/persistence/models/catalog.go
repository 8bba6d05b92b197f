package models

import (
	"github.com/invoicely/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ItemModel is the persistence model for catalog items
type ItemModel struct {
	TenantAggregateModel
	Name        string          `gorm:"type:varchar(200);not null"`
	SKU         string          `gorm:"type:varchar(50);index"`
	Description string          `gorm:"type:text"`
	Unit        string          `gorm:"type:varchar(20)"`
	Rate        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item
func (m *ItemModel) ToDomain() *catalog.Item {
	return &catalog.Item{
		TenantAggregateRoot: m.tenantRoot(),
		Name:                m.Name,
		SKU:                 m.SKU,
		Description:         m.Description,
		Unit:                m.Unit,
		Rate:                m.Rate,
		TaxRate:             m.TaxRate,
	}
}

// ItemModelFromDomain creates a persistence model from a domain Item
func ItemModelFromDomain(i *catalog.Item) *ItemModel {
	m := &ItemModel{
		Name:        i.Name,
		SKU:         i.SKU,
		Description: i.Description,
		Unit:        i.Unit,
		Rate:        i.Rate,
		TaxRate:     i.TaxRate,
	}
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	return m
}
