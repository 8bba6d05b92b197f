package persistence

import (
	"context"

	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/identity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/partner"
	"github.com/invoicely/backend/internal/domain/timetracking"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinvoicing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// NewRepositories builds the non-transactional repository set on db
func NewRepositories(db *gorm.DB) *appinvoicing.Repositories {
	r := &gormTransactionalRepositories{tx: db}
	return &appinvoicing.Repositories{
		Invoices:      r.InvoiceRepo(),
		Quotes:        r.QuoteRepo(),
		Payments:      r.PaymentRepo(),
		CreditNotes:   r.CreditNoteRepo(),
		Recurring:     r.RecurringRepo(),
		Sequences:     r.SequenceRepo(),
		Customers:     r.CustomerRepo(),
		Users:         r.UserRepo(),
		TimeEntries:   r.TimeEntryRepo(),
		Expenses:      r.ExpenseRepo(),
		Activity:      r.ActivityRepo(),
		Notifications: r.NotificationRepo(),
		Items:         NewGormItemRepository(db),
	}
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// QuoteRepo returns the quote repository scoped to the current transaction.
func (r *gormTransactionalRepositories) QuoteRepo() invoicing.QuoteRepository {
	return NewGormQuoteRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() invoicing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// CreditNoteRepo returns the credit note repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CreditNoteRepo() invoicing.CreditNoteRepository {
	return NewGormCreditNoteRepository(r.tx)
}

// RecurringRepo returns the recurring profile repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RecurringRepo() invoicing.RecurringProfileRepository {
	return NewGormRecurringProfileRepository(r.tx)
}

// SequenceRepo returns the document sequence allocator scoped to the current transaction.
func (r *gormTransactionalRepositories) SequenceRepo() invoicing.SequenceAllocator {
	return NewGormDocumentSequenceRepository(r.tx)
}

// CustomerRepo returns the customer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// UserRepo returns the user repository scoped to the current transaction.
func (r *gormTransactionalRepositories) UserRepo() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

// TimeEntryRepo returns the time entry repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TimeEntryRepo() timetracking.TimeEntryRepository {
	return NewGormTimeEntryRepository(r.tx)
}

// ExpenseRepo returns the expense repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ExpenseRepo() timetracking.ExpenseRepository {
	return NewGormExpenseRepository(r.tx)
}

// ActivityRepo returns the activity log repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ActivityRepo() activity.LogRepository {
	return NewGormActivityLogRepository(r.tx)
}

// NotificationRepo returns the notification repository scoped to the current transaction.
func (r *gormTransactionalRepositories) NotificationRepo() activity.NotificationRepository {
	return NewGormNotificationRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinvoicing.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinvoicing.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
