// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, TenantAggregateModel)
// - partner.go, catalog.go, identity.go: customers, catalog items, organization members
// - invoicing.go: invoices, quotes, payments, credit notes, recurring profiles, sequences
// - timetracking.go: time entries and expenses
// - activity.go: activity log and notifications
package models

// All returns every model, in dependency order, for AutoMigrate in tests
func All() []any {
	return []any{
		&CustomerModel{},
		&ItemModel{},
		&UserModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&QuoteModel{},
		&QuoteItemModel{},
		&PaymentModel{},
		&CreditNoteModel{},
		&RecurringProfileModel{},
		&DocumentSequenceModel{},
		&TimeEntryModel{},
		&ExpenseModel{},
		&ActivityLogModel{},
		&NotificationModel{},
	}
}
