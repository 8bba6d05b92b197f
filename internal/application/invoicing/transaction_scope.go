package invoicing

import (
	"context"

	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/catalog"
	"github.com/invoicely/backend/internal/domain/identity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/partner"
	"github.com/invoicely/backend/internal/domain/timetracking"
)

// TransactionScope provides transactional access to billing repositories.
// Every repository handed to fn shares one database transaction, which is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all billing repositories within a transaction.
//
// Documents and their line items are one aggregate: InvoiceRepo and QuoteRepo
// persist items together with the header. SequenceRepo must be used from the
// same transaction as the insert that consumes the number.
type TransactionalRepositories interface {
	InvoiceRepo() invoicing.InvoiceRepository
	QuoteRepo() invoicing.QuoteRepository
	PaymentRepo() invoicing.PaymentRepository
	CreditNoteRepo() invoicing.CreditNoteRepository
	RecurringRepo() invoicing.RecurringProfileRepository
	SequenceRepo() invoicing.SequenceAllocator
	CustomerRepo() partner.CustomerRepository
	UserRepo() identity.UserRepository
	TimeEntryRepo() timetracking.TimeEntryRepository
	ExpenseRepo() timetracking.ExpenseRepository
	ActivityRepo() activity.LogRepository
	NotificationRepo() activity.NotificationRepository
}

// Repositories is a plain set of repositories. It is used by the read paths of
// the services and, wrapped in NoOpTransactionScope, by unit tests.
type Repositories struct {
	Invoices      invoicing.InvoiceRepository
	Quotes        invoicing.QuoteRepository
	Payments      invoicing.PaymentRepository
	CreditNotes   invoicing.CreditNoteRepository
	Recurring     invoicing.RecurringProfileRepository
	Sequences     invoicing.SequenceAllocator
	Customers     partner.CustomerRepository
	Users         identity.UserRepository
	TimeEntries   timetracking.TimeEntryRepository
	Expenses      timetracking.ExpenseRepository
	Activity      activity.LogRepository
	Notifications activity.NotificationRepository
	Items         catalog.ItemRepository
}

func (r *Repositories) InvoiceRepo() invoicing.InvoiceRepository            { return r.Invoices }
func (r *Repositories) QuoteRepo() invoicing.QuoteRepository                { return r.Quotes }
func (r *Repositories) PaymentRepo() invoicing.PaymentRepository            { return r.Payments }
func (r *Repositories) CreditNoteRepo() invoicing.CreditNoteRepository      { return r.CreditNotes }
func (r *Repositories) RecurringRepo() invoicing.RecurringProfileRepository { return r.Recurring }
func (r *Repositories) SequenceRepo() invoicing.SequenceAllocator           { return r.Sequences }
func (r *Repositories) CustomerRepo() partner.CustomerRepository            { return r.Customers }
func (r *Repositories) UserRepo() identity.UserRepository                   { return r.Users }
func (r *Repositories) TimeEntryRepo() timetracking.TimeEntryRepository     { return r.TimeEntries }
func (r *Repositories) ExpenseRepo() timetracking.ExpenseRepository         { return r.Expenses }
func (r *Repositories) ActivityRepo() activity.LogRepository                { return r.Activity }
func (r *Repositories) NotificationRepo() activity.NotificationRepository   { return r.Notifications }

// NoOpTransactionScope runs fn against fixed repositories without a transaction.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos TransactionalRepositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos TransactionalRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn directly with the stored repositories.
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*Repositories)(nil)
)
