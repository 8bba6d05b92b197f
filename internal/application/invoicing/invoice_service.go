package invoicing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceService is the invoice ledger: creation, edits, status changes and removal
type InvoiceService struct {
	scope           TransactionScope
	repos           *Repositories
	recorder        *ActivityRecorder
	logger          *zap.Logger
	defaultCurrency valueobject.Currency
	businessMetrics *telemetry.BusinessMetrics
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(scope TransactionScope, repos *Repositories, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		scope:           scope,
		repos:           repos,
		recorder:        NewActivityRecorder(repos.Activity),
		logger:          logger,
		defaultCurrency: valueobject.DefaultCurrency,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *InvoiceService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetDefaultCurrency sets the currency used when a request names none
func (s *InvoiceService) SetDefaultCurrency(cur valueobject.Currency) {
	s.defaultCurrency = cur
}

// Create prices the lines, allocates a number and stores the invoice
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateInvoiceRequest) (*InvoiceDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrItemsCount, len(req.Items),
	)

	lines, err := resolveLines(ctx, s.repos.Items, tenantID, req.Items)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	cur, err := parseCurrency(req.Currency, s.defaultCurrency)
	if err != nil {
		return nil, err
	}

	var detail *InvoiceDetail
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindByID(ctx, tenantID, req.CustomerID)
		if err != nil {
			return err
		}
		number, err := invoicing.NewNumberingAuthority(repos.SequenceRepo()).Next(ctx, tenantID, invoicing.DocumentTypeInvoice)
		if err != nil {
			return err
		}
		in := invoicing.NewInvoiceInput{
			TenantID:      tenantID,
			CustomerID:    customer.ID,
			CustomerName:  customer.DisplayName,
			InvoiceNumber: number,
			DueDate:       req.DueDate,
			Currency:      cur,
			Notes:         req.Notes,
			Terms:         req.Terms,
			Status:        invoicing.InvoiceStatus(strings.ToUpper(req.Status)),
			CreatedBy:     userID,
		}
		if req.IssueDate != nil {
			in.IssueDate = *req.IssueDate
		}
		inv, err := invoicing.NewInvoice(in, lines, req.Discount)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, repos.ActivityRepo(),
			activity.ForInvoice(tenantID, inv.ID, activity.ActionCreated, fmt.Sprintf("Invoice %s created", inv.InvoiceNumber), userID)); err != nil {
			return err
		}
		detail = &InvoiceDetail{Invoice: inv, Customer: customer}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, detail.Invoice.ID.String(),
		telemetry.SpanAttrInvoiceNumber, detail.Invoice.InvoiceNumber,
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordInvoiceCreated(ctx, tenantID, telemetry.InvoiceSourceManual, detail.Invoice.Currency.String(), detail.Invoice.TotalAmount)
	}
	s.logger.Info("Invoice created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", detail.Invoice.InvoiceNumber),
		zap.String("total", detail.Invoice.TotalAmount.String()),
	)
	return detail, nil
}

// Update applies a partial edit under a row lock and records exactly one activity entry
func (s *InvoiceService) Update(ctx context.Context, tenantID, id uuid.UUID, userID *uuid.UUID, req UpdateInvoiceRequest) (*invoicing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, id.String(),
	)

	var lines []invoicing.LineInput
	if req.Items != nil {
		var err error
		if lines, err = resolveLines(ctx, s.repos.Items, tenantID, req.Items); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	var updated *invoicing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoiceRepo := repos.InvoiceRepo()
		inv, err := invoiceRepo.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}

		if req.Currency != nil {
			cur, err := parseCurrency(*req.Currency, inv.Currency)
			if err != nil {
				return err
			}
			if cur != inv.Currency {
				if err := inv.ChangeCurrency(cur); err != nil {
					return err
				}
			}
		}

		statusBefore := inv.Status
		itemsReplaced := false
		switch {
		case lines != nil:
			discount := inv.DiscountAmount
			if req.Discount != nil {
				discount = *req.Discount
			}
			if err := inv.ReplaceItems(lines, discount); err != nil {
				return err
			}
			itemsReplaced = true
		case req.Discount != nil:
			if err := inv.ApplyDiscount(*req.Discount); err != nil {
				return err
			}
		}
		if req.DueDate != nil {
			if err := inv.SetDueDate(*req.DueDate); err != nil {
				return err
			}
		}
		if req.Notes != nil || req.Terms != nil {
			inv.SetNotes(req.Notes, req.Terms)
		}

		action := activity.ActionUpdated
		details := fmt.Sprintf("Invoice %s updated", inv.InvoiceNumber)
		if inv.Status == invoicing.InvoiceStatusPaid && statusBefore != invoicing.InvoiceStatusPaid {
			details = fmt.Sprintf("Invoice %s updated and settled by payments already received", inv.InvoiceNumber)
		}
		if req.Status != nil {
			target := invoicing.InvoiceStatus(strings.ToUpper(*req.Status))
			if target != inv.Status {
				if err := inv.TransitionTo(target); err != nil {
					return err
				}
				action = invoiceStatusAction(target)
				details = fmt.Sprintf("Invoice %s marked %s", inv.InvoiceNumber, strings.ToLower(string(target)))
			}
		}

		if err := invoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		if itemsReplaced {
			if err := invoiceRepo.ReplaceItems(ctx, inv); err != nil {
				return err
			}
		}
		if err := s.recorder.Record(ctx, repos.ActivityRepo(), activity.ForInvoice(tenantID, inv.ID, action, details, userID)); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceStatus, string(updated.Status))
	return updated, nil
}

// MarkPaid settles the invoice in full
func (s *InvoiceService) MarkPaid(ctx context.Context, tenantID, id uuid.UUID, userID *uuid.UUID) (*invoicing.Invoice, error) {
	status := string(invoicing.InvoiceStatusPaid)
	return s.Update(ctx, tenantID, id, userID, UpdateInvoiceRequest{Status: &status})
}

// MarkSent moves the invoice to SENT
func (s *InvoiceService) MarkSent(ctx context.Context, tenantID, id uuid.UUID, userID *uuid.UUID) (*invoicing.Invoice, error) {
	status := string(invoicing.InvoiceStatusSent)
	return s.Update(ctx, tenantID, id, userID, UpdateInvoiceRequest{Status: &status})
}

// Remove deletes an invoice that has no payments. The "deleted" activity
// entry is written first and outlives the invoice.
func (s *InvoiceService) Remove(ctx context.Context, tenantID, id uuid.UUID, userID *uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "remove")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, id.String(),
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		payments, err := repos.PaymentRepo().CountByInvoice(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if payments > 0 {
			return shared.NewConflictError("invoice %s has %d payment(s) and cannot be deleted", inv.InvoiceNumber, payments)
		}
		if err := s.recorder.Record(ctx, repos.ActivityRepo(),
			activity.ForInvoice(tenantID, inv.ID, activity.ActionDeleted, fmt.Sprintf("Invoice %s deleted", inv.InvoiceNumber), userID)); err != nil {
			return err
		}
		return repos.InvoiceRepo().Delete(ctx, tenantID, id)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("Invoice deleted", zap.String("tenant_id", tenantID.String()), zap.String("invoice_id", id.String()))
	return nil
}

// GetByID returns the invoice with its items, customer, payments and activity
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceDetail, error) {
	inv, err := s.repos.Invoices.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	detail := &InvoiceDetail{Invoice: inv}
	if detail.Customer, err = s.repos.Customers.FindByID(ctx, tenantID, inv.CustomerID); err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if detail.Payments, err = s.repos.Payments.FindByInvoice(ctx, tenantID, id); err != nil {
		return nil, err
	}
	if detail.Activity, err = s.recorder.ListForInvoice(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) (*shared.Paginated[invoicing.Invoice], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.NewValidationError("invalid invoice status %q", filter.Status)
	}
	filter.Filter = filter.Filter.Normalize()
	invoices, total, err := s.repos.Invoices.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(invoices, total, filter.Page, filter.PageSize)
	return &page, nil
}

func parseCurrency(code string, fallback valueobject.Currency) (valueobject.Currency, error) {
	if strings.TrimSpace(code) == "" {
		return fallback, nil
	}
	cur, err := valueobject.ParseCurrency(code)
	if err != nil {
		return "", shared.NewValidationError("%s", err.Error())
	}
	return cur, nil
}

// defaultDueDate is the due date used when a conversion or consolidation names none
func defaultDueDate(now time.Time, days int) time.Time {
	if days <= 0 {
		days = 30
	}
	return now.AddDate(0, 0, days)
}
