package invoicing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// QuoteService is the quote ledger, including conversion into invoices
type QuoteService struct {
	scope           TransactionScope
	repos           *Repositories
	recorder        *ActivityRecorder
	logger          *zap.Logger
	defaultCurrency valueobject.Currency
	dueDays         int
	businessMetrics *telemetry.BusinessMetrics
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(scope TransactionScope, repos *Repositories, logger *zap.Logger) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{
		scope:           scope,
		repos:           repos,
		recorder:        NewActivityRecorder(repos.Activity),
		logger:          logger,
		defaultCurrency: valueobject.DefaultCurrency,
		dueDays:         30,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *QuoteService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetDefaults sets the fallback currency and the due days of converted invoices
func (s *QuoteService) SetDefaults(cur valueobject.Currency, dueDays int) {
	s.defaultCurrency = cur
	s.dueDays = dueDays
}

// Create prices the lines and stores a DRAFT quote
func (s *QuoteService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateQuoteRequest) (*QuoteDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "create")
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

	var detail *QuoteDetail
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindByID(ctx, tenantID, req.CustomerID)
		if err != nil {
			return err
		}
		number, err := invoicing.NewNumberingAuthority(repos.SequenceRepo()).Next(ctx, tenantID, invoicing.DocumentTypeQuote)
		if err != nil {
			return err
		}
		in := invoicing.NewQuoteInput{
			TenantID:     tenantID,
			CustomerID:   customer.ID,
			CustomerName: customer.DisplayName,
			QuoteNumber:  number,
			ExpiryDate:   req.ExpiryDate,
			Currency:     cur,
			Notes:        req.Notes,
			Terms:        req.Terms,
			CreatedBy:    userID,
		}
		if req.IssueDate != nil {
			in.IssueDate = *req.IssueDate
		}
		q, err := invoicing.NewQuote(in, lines, req.Discount)
		if err != nil {
			return err
		}
		if err := repos.QuoteRepo().Create(ctx, q); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, repos.ActivityRepo(),
			activity.ForQuote(tenantID, q.ID, activity.ActionCreated, fmt.Sprintf("Quote %s created", q.QuoteNumber), userID)); err != nil {
			return err
		}
		detail = &QuoteDetail{Quote: q, Customer: customer}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return detail, nil
}

// Update applies a partial edit. Converted quotes are read-only.
func (s *QuoteService) Update(ctx context.Context, tenantID, id uuid.UUID, userID *uuid.UUID, req UpdateQuoteRequest) (*invoicing.Quote, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrQuoteID, id.String(),
	)

	var lines []invoicing.LineInput
	if req.Items != nil {
		var err error
		if lines, err = resolveLines(ctx, s.repos.Items, tenantID, req.Items); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	var updated *invoicing.Quote
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		quoteRepo := repos.QuoteRepo()
		q, err := quoteRepo.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if q.Status == invoicing.QuoteStatusConverted {
			return shared.NewConflictError("quote %s is already converted", q.QuoteNumber)
		}

		itemsReplaced := false
		switch {
		case lines != nil:
			discount := q.DiscountAmount
			if req.Discount != nil {
				discount = *req.Discount
			}
			if err := q.ReplaceItems(lines, discount); err != nil {
				return err
			}
			itemsReplaced = true
		case req.Discount != nil:
			if err := q.ApplyDiscount(*req.Discount); err != nil {
				return err
			}
		}

		var cur *valueobject.Currency
		if req.Currency != nil {
			c, err := parseCurrency(*req.Currency, q.Currency)
			if err != nil {
				return err
			}
			cur = &c
		}
		if cur != nil || req.ExpiryDate != nil || req.Notes != nil || req.Terms != nil {
			if err := q.UpdateHeader(req.ExpiryDate, cur, req.Notes, req.Terms); err != nil {
				return err
			}
		}

		action := activity.ActionUpdated
		details := fmt.Sprintf("Quote %s updated", q.QuoteNumber)
		if req.Status != nil {
			target := invoicing.QuoteStatus(strings.ToUpper(*req.Status))
			if target == invoicing.QuoteStatusConverted {
				return shared.NewValidationError("use quote conversion to convert a quote")
			}
			if target != q.Status {
				if err := q.TransitionTo(target); err != nil {
					return err
				}
				action = quoteStatusAction(target)
				details = fmt.Sprintf("Quote %s marked %s", q.QuoteNumber, strings.ToLower(string(target)))
			}
		}

		if err := quoteRepo.Update(ctx, q); err != nil {
			return err
		}
		if itemsReplaced {
			if err := quoteRepo.ReplaceItems(ctx, q); err != nil {
				return err
			}
		}
		if err := s.recorder.Record(ctx, repos.ActivityRepo(), activity.ForQuote(tenantID, q.ID, action, details, userID)); err != nil {
			return err
		}
		updated = q
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return updated, nil
}

// Remove deletes a quote that was not converted
func (s *QuoteService) Remove(ctx context.Context, tenantID, id uuid.UUID, userID *uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "remove")
	defer span.End()

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		q, err := repos.QuoteRepo().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := q.CanBeDeleted(); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, repos.ActivityRepo(),
			activity.ForQuote(tenantID, q.ID, activity.ActionDeleted, fmt.Sprintf("Quote %s deleted", q.QuoteNumber), userID)); err != nil {
			return err
		}
		return repos.QuoteRepo().Delete(ctx, tenantID, id)
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// ConvertToInvoice turns the quote into a SENT invoice with identical amounts
// and lines. The quote becomes CONVERTED; a second conversion is a Conflict.
func (s *QuoteService) ConvertToInvoice(ctx context.Context, tenantID, quoteID uuid.UUID, userID *uuid.UUID, req ConvertQuoteRequest) (*invoicing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "convert_to_invoice")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrQuoteID, quoteID.String(),
	)

	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = defaultDueDate(shared.Now(), s.dueDays)
	}

	var inv *invoicing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		quoteRepo := repos.QuoteRepo()
		q, err := quoteRepo.FindByIDForUpdate(ctx, tenantID, quoteID)
		if err != nil {
			return err
		}
		if q.Status == invoicing.QuoteStatusConverted {
			return shared.NewConflictError("quote %s is already converted", q.QuoteNumber)
		}
		if !q.Status.CanTransitionTo(invoicing.QuoteStatusConverted) {
			return shared.NewConflictError("quote %s is %s and cannot be converted", q.QuoteNumber, q.Status)
		}

		number, err := invoicing.NewNumberingAuthority(repos.SequenceRepo()).Next(ctx, tenantID, invoicing.DocumentTypeInvoice)
		if err != nil {
			return err
		}
		inv, err = invoicing.NewInvoiceFromTotals(invoicing.NewInvoiceInput{
			TenantID:             tenantID,
			CustomerID:           q.CustomerID,
			CustomerName:         q.CustomerName,
			InvoiceNumber:        number,
			DueDate:              dueDate,
			Currency:             q.Currency,
			Notes:                q.Notes,
			Terms:                q.Terms,
			Status:               invoicing.InvoiceStatusSent,
			ConvertedFromQuoteID: &q.ID,
			CreatedBy:            userID,
		}, invoicing.CloneLineItems(q.Items), q.Totals())
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return err
		}

		if err := q.MarkConverted(); err != nil {
			return err
		}
		if err := quoteRepo.Update(ctx, q); err != nil {
			return err
		}

		if err := s.recorder.Record(ctx, repos.ActivityRepo(), activity.ForQuote(tenantID, q.ID, activity.ActionConverted,
			fmt.Sprintf("Quote %s converted to invoice %s", q.QuoteNumber, inv.InvoiceNumber), userID)); err != nil {
			return err
		}
		return s.recorder.Record(ctx, repos.ActivityRepo(), activity.ForInvoice(tenantID, inv.ID, activity.ActionCreated,
			fmt.Sprintf("Invoice %s created from quote %s", inv.InvoiceNumber, q.QuoteNumber), userID))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, inv.ID.String(),
		telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber,
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordInvoiceCreated(ctx, tenantID, telemetry.InvoiceSourceQuote, inv.Currency.String(), inv.TotalAmount)
	}
	s.logger.Info("Quote converted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("quote_id", quoteID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
	)
	return inv, nil
}

// GetByID returns the quote with its customer and activity
func (s *QuoteService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*QuoteDetail, error) {
	q, err := s.repos.Quotes.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	detail := &QuoteDetail{Quote: q}
	if detail.Customer, err = s.repos.Customers.FindByID(ctx, tenantID, q.CustomerID); err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if detail.Activity, err = s.recorder.ListForQuote(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns a page of quotes
func (s *QuoteService) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.QuoteFilter) (*shared.Paginated[invoicing.Quote], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.NewValidationError("invalid quote status %q", filter.Status)
	}
	filter.Filter = filter.Filter.Normalize()
	quotes, total, err := s.repos.Quotes.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(quotes, total, filter.Page, filter.PageSize)
	return &page, nil
}
