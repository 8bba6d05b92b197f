package models

import (
	"github.com/invoicely/backend/internal/domain/partner"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
)

// CustomerModel is the persistence model for the Customer aggregate root
type CustomerModel struct {
	TenantAggregateModel
	DisplayName    string `gorm:"type:varchar(200);not null"`
	CompanyName    string `gorm:"type:varchar(200)"`
	Email          string `gorm:"type:varchar(200);index"`
	Phone          string `gorm:"type:varchar(50)"`
	BillingAddress string `gorm:"type:text"`
	Currency       string `gorm:"type:varchar(3);not null;default:'USD'"`
	Notes          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		TenantAggregateRoot: m.tenantRoot(),
		DisplayName:         m.DisplayName,
		CompanyName:         m.CompanyName,
		Email:               m.Email,
		Phone:               m.Phone,
		BillingAddress:      m.BillingAddress,
		Currency:            valueobject.Currency(m.Currency),
		Notes:               m.Notes,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{
		DisplayName:    c.DisplayName,
		CompanyName:    c.CompanyName,
		Email:          c.Email,
		Phone:          c.Phone,
		BillingAddress: c.BillingAddress,
		Currency:       c.Currency.String(),
		Notes:          c.Notes,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}
