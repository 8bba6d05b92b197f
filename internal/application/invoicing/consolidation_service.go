package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
	"github.com/invoicely/backend/internal/domain/timetracking"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConsolidatedInvoiceNote is the note placed on invoices built from billable records
const ConsolidatedInvoiceNote = "Auto-generated from billable time & expenses"

// ConsolidationResult is the invoice built from billable records and what it billed
type ConsolidationResult struct {
	Invoice      *invoicing.Invoice
	TimeEntryIDs []uuid.UUID
	ExpenseIDs   []uuid.UUID
}

// ConsolidationService turns unbilled time entries and expenses into one invoice
type ConsolidationService struct {
	scope           TransactionScope
	repos           *Repositories
	recorder        *ActivityRecorder
	logger          *zap.Logger
	defaultCurrency valueobject.Currency
	dueDays         int
	businessMetrics *telemetry.BusinessMetrics
}

// NewConsolidationService creates a new ConsolidationService
func NewConsolidationService(scope TransactionScope, repos *Repositories, logger *zap.Logger) *ConsolidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsolidationService{
		scope:           scope,
		repos:           repos,
		recorder:        NewActivityRecorder(repos.Activity),
		logger:          logger,
		defaultCurrency: valueobject.DefaultCurrency,
		dueDays:         30,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *ConsolidationService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetDefaults sets the fallback currency and the due days of consolidated invoices
func (s *ConsolidationService) SetDefaults(cur valueobject.Currency, dueDays int) {
	s.defaultCurrency = cur
	s.dueDays = dueDays
}

// Consolidate builds one invoice from the selected records and marks them billed
// in the same transaction. Records that are not billable, already billed or in
// another tenant are dropped.
func (s *ConsolidationService) Consolidate(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req ConsolidateRequest) (*ConsolidationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "consolidation", "consolidate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrItemsCount, len(req.TimeEntryIDs)+len(req.ExpenseIDs),
	)

	if req.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer is required")
	}
	if len(req.TimeEntryIDs) == 0 && len(req.ExpenseIDs) == 0 {
		return nil, shared.NewValidationError("Select at least one time entry or expense")
	}

	var result *ConsolidationResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindByID(ctx, tenantID, req.CustomerID)
		if err != nil {
			return err
		}

		var entries []timetracking.TimeEntry
		if len(req.TimeEntryIDs) > 0 {
			if entries, err = repos.TimeEntryRepo().FindUnbilledByIDs(ctx, tenantID, req.TimeEntryIDs); err != nil {
				return err
			}
		}
		var expenses []timetracking.Expense
		if len(req.ExpenseIDs) > 0 {
			if expenses, err = repos.ExpenseRepo().FindUnbilledByIDs(ctx, tenantID, req.ExpenseIDs); err != nil {
				return err
			}
		}
		if len(entries) == 0 && len(expenses) == 0 {
			return shared.NewValidationError("No eligible billable entries found")
		}

		lines, entryIDs, expenseIDs, err := billableLines(req.CustomerID, entries, expenses)
		if err != nil {
			return err
		}
		if err := flagBilled(entries, expenses); err != nil {
			return err
		}

		number, err := invoicing.NewNumberingAuthority(repos.SequenceRepo()).Next(ctx, tenantID, invoicing.DocumentTypeInvoice)
		if err != nil {
			return err
		}
		cur := customer.Currency
		if !cur.IsValid() {
			cur = s.defaultCurrency
		}
		inv, err := invoicing.NewInvoice(invoicing.NewInvoiceInput{
			TenantID:      tenantID,
			CustomerID:    customer.ID,
			CustomerName:  customer.DisplayName,
			InvoiceNumber: number,
			DueDate:       defaultDueDate(shared.Now(), s.dueDays),
			Currency:      cur,
			Notes:         ConsolidatedInvoiceNote,
			CreatedBy:     userID,
		}, lines, decimal.Zero)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return err
		}

		if err := markAllBilled(ctx, repos.TimeEntryRepo().MarkBilled, tenantID, entryIDs, "time entries"); err != nil {
			return err
		}
		if err := markAllBilled(ctx, repos.ExpenseRepo().MarkBilled, tenantID, expenseIDs, "expenses"); err != nil {
			return err
		}

		if err := s.recorder.Record(ctx, repos.ActivityRepo(), activity.ForInvoice(tenantID, inv.ID, activity.ActionCreated,
			fmt.Sprintf("Invoice %s created from %d time entries and %d expenses", inv.InvoiceNumber, len(entryIDs), len(expenseIDs)), userID)); err != nil {
			return err
		}
		result = &ConsolidationResult{Invoice: inv, TimeEntryIDs: entryIDs, ExpenseIDs: expenseIDs}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, result.Invoice.ID.String(),
		telemetry.SpanAttrInvoiceNumber, result.Invoice.InvoiceNumber,
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordInvoiceCreated(ctx, tenantID, telemetry.InvoiceSourceConsolidation, result.Invoice.Currency.String(), result.Invoice.TotalAmount)
	}
	s.logger.Info("Billable records consolidated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", result.Invoice.InvoiceNumber),
		zap.Int("time_entries", len(result.TimeEntryIDs)),
		zap.Int("expenses", len(result.ExpenseIDs)),
	)
	return result, nil
}

// billableLines builds one line per record: hours at the hourly rate for time,
// a single unit at the amount for expenses. Every record must belong to the
// requested customer or to none.
func billableLines(customerID uuid.UUID, entries []timetracking.TimeEntry, expenses []timetracking.Expense) ([]invoicing.LineInput, []uuid.UUID, []uuid.UUID, error) {
	lines := make([]invoicing.LineInput, 0, len(entries)+len(expenses))
	entryIDs := make([]uuid.UUID, 0, len(entries))
	expenseIDs := make([]uuid.UUID, 0, len(expenses))

	for i := range entries {
		e := &entries[i]
		if err := checkRecordCustomer(customerID, e.CustomerID); err != nil {
			return nil, nil, nil, err
		}
		lines = append(lines, invoicing.LineInput{
			Description: e.LineDescription(),
			Quantity:    e.Hours,
			Rate:        e.HourlyRate,
			TaxRate:     decimal.Zero,
		})
		entryIDs = append(entryIDs, e.ID)
	}
	for i := range expenses {
		e := &expenses[i]
		if err := checkRecordCustomer(customerID, e.CustomerID); err != nil {
			return nil, nil, nil, err
		}
		lines = append(lines, invoicing.LineInput{
			Description: e.LineDescription(),
			Quantity:    decimal.NewFromInt(1),
			Rate:        e.Amount,
			TaxRate:     decimal.Zero,
		})
		expenseIDs = append(expenseIDs, e.ID)
	}
	return lines, entryIDs, expenseIDs, nil
}

func checkRecordCustomer(requested uuid.UUID, recorded *uuid.UUID) error {
	if recorded != nil && *recorded != requested {
		return shared.NewValidationError("selected records belong to a different customer")
	}
	return nil
}

// flagBilled applies the billed transition to the loaded records; the guarded
// bulk update in markAllBilled persists it
func flagBilled(entries []timetracking.TimeEntry, expenses []timetracking.Expense) error {
	for i := range entries {
		if err := entries[i].MarkBilled(); err != nil {
			return err
		}
	}
	for i := range expenses {
		if err := expenses[i].MarkBilled(); err != nil {
			return err
		}
	}
	return nil
}

// markAllBilled fails when a record was billed concurrently after it was loaded
func markAllBilled(ctx context.Context, mark func(context.Context, uuid.UUID, []uuid.UUID) (int64, error), tenantID uuid.UUID, ids []uuid.UUID, what string) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := mark(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return shared.NewConflictError("%d of %d %s were already billed", int64(len(ids))-n, len(ids), what)
	}
	return nil
}
