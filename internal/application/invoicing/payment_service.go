package invoicing

import (
	"context"
	"errors"
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

// PaymentService records payments and applies them to invoices
type PaymentService struct {
	scope           TransactionScope
	repos           *Repositories
	recorder        *ActivityRecorder
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(scope TransactionScope, repos *Repositories, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		scope:    scope,
		repos:    repos,
		recorder: NewActivityRecorder(repos.Activity),
		logger:   logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *PaymentService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Apply records a payment. With an invoice it raises AmountPaid, re-derives
// the balance and status, and logs the payment on the invoice, all in one
// transaction. Without one it is stored as unapplied customer credit.
func (s *PaymentService) Apply(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req ApplyPaymentRequest) (*invoicing.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "apply")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
		telemetry.SpanAttrPaymentMethod, req.Method,
	)

	method := invoicing.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method)))
	payment, err := s.apply(ctx, tenantID, userID, req, method)
	if err != nil {
		telemetry.RecordError(span, err)
		if s.businessMetrics != nil && !errors.Is(err, invoicing.ErrDuplicatePaymentReference) {
			s.businessMetrics.RecordPayment(ctx, tenantID, string(method), telemetry.PaymentStatusFailed)
		}
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, payment.ID.String(),
		telemetry.SpanAttrReference, payment.Reference,
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordPayment(ctx, tenantID, string(payment.Method), telemetry.PaymentStatusSuccess)
	}
	s.logger.Info("Payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("amount", payment.Amount.String()),
		zap.Bool("unapplied", payment.IsUnapplied()),
	)
	return payment, nil
}

func (s *PaymentService) apply(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req ApplyPaymentRequest, method invoicing.PaymentMethod) (*invoicing.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewValidationError("payment amount must be greater than zero")
	}

	var payment *invoicing.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customerID := req.CustomerID
		var inv *invoicing.Invoice

		if req.InvoiceID != nil {
			var err error
			inv, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, *req.InvoiceID)
			if err != nil {
				return err
			}
			if customerID == uuid.Nil {
				customerID = inv.CustomerID
			}
			if customerID != inv.CustomerID {
				return shared.NewValidationError("payment customer does not match invoice %s", inv.InvoiceNumber)
			}
			if req.Currency != "" && !strings.EqualFold(strings.TrimSpace(req.Currency), inv.Currency.String()) {
				return shared.NewValidationError("payment currency %s does not match invoice %s currency %s",
					strings.ToUpper(req.Currency), inv.InvoiceNumber, inv.Currency)
			}
			if err := inv.ApplyPayment(req.Amount); err != nil {
				return err
			}
		} else {
			if customerID == uuid.Nil {
				return shared.NewValidationError("customer is required")
			}
			if _, err := repos.CustomerRepo().FindByID(ctx, tenantID, customerID); err != nil {
				return err
			}
		}

		// checked under the invoice row lock, so concurrent deliveries of one capture serialize here
		reference := strings.TrimSpace(req.Reference)
		if method == invoicing.PaymentMethodGateway && reference != "" {
			exists, err := repos.PaymentRepo().ExistsByReference(ctx, tenantID, method, reference)
			if err != nil {
				return err
			}
			if exists {
				return invoicing.DuplicatePaymentReferenceError(reference)
			}
		}

		number, err := invoicing.NewNumberingAuthority(repos.SequenceRepo()).Next(ctx, tenantID, invoicing.DocumentTypePayment)
		if err != nil {
			return err
		}
		p, err := invoicing.NewPayment(tenantID, customerID, req.InvoiceID, number, req.Amount, method)
		if err != nil {
			return err
		}
		p.Reference = reference
		p.Notes = req.Notes
		if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
			p.PaymentDate = req.PaymentDate.UTC()
		}
		p.SetCreatedBy(userID)
		if err := repos.PaymentRepo().Create(ctx, p); err != nil {
			return err
		}

		if inv != nil {
			if err := repos.InvoiceRepo().Update(ctx, inv); err != nil {
				return err
			}
			amount := valueobject.MustNewMoney(p.Amount, inv.Currency)
			if err := s.recorder.Record(ctx, repos.ActivityRepo(), activity.ForInvoice(tenantID, inv.ID, activity.ActionPaymentReceived,
				fmt.Sprintf("Payment %s of %s received", p.PaymentNumber, amount.String()), userID)); err != nil {
				return err
			}
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ApplyGatewayCapture records a captured gateway payment against its invoice.
// A capture whose gateway payment ID was already recorded is ignored and
// reported with created=false.
func (s *PaymentService) ApplyGatewayCapture(ctx context.Context, capture GatewayCapture) (payment *invoicing.Payment, created bool, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "gateway_capture")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, capture.TenantID.String(),
		telemetry.SpanAttrInvoiceID, capture.InvoiceID.String(),
		telemetry.SpanAttrReference, capture.PaymentID,
	)

	if capture.TenantID == uuid.Nil || capture.InvoiceID == uuid.Nil {
		return nil, false, shared.NewValidationError("gateway capture must name an organization and an invoice")
	}
	if capture.PaymentID == "" {
		return nil, false, shared.NewValidationError("gateway payment id is required")
	}
	if capture.AmountMinor <= 0 {
		return nil, false, shared.NewValidationError("payment amount must be greater than zero")
	}

	if strings.TrimSpace(capture.Currency) == "" {
		return nil, false, shared.NewValidationError("gateway capture currency is required")
	}
	cur, err := valueobject.ParseCurrency(capture.Currency)
	if err != nil {
		return nil, false, shared.NewValidationError("%s", err.Error())
	}

	invoiceID := capture.InvoiceID
	payment, err = s.Apply(ctx, capture.TenantID, nil, ApplyPaymentRequest{
		InvoiceID:  &invoiceID,
		CustomerID: capture.CustomerID,
		Amount:     cur.FromMinorUnits(capture.AmountMinor),
		Method:     string(invoicing.PaymentMethodGateway),
		Reference:  capture.PaymentID,
		Notes:      "Captured by payment gateway",
		Currency:   cur.String(),
	})
	if errors.Is(err, invoicing.ErrDuplicatePaymentReference) {
		telemetry.AddEvent(span, "duplicate_capture")
		if s.businessMetrics != nil {
			s.businessMetrics.RecordPayment(ctx, capture.TenantID, string(invoicing.PaymentMethodGateway), telemetry.PaymentStatusDuplicate)
		}
		s.logger.Info("Gateway capture already recorded",
			zap.String("tenant_id", capture.TenantID.String()),
			zap.String("gateway_payment_id", capture.PaymentID),
		)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payment, true, nil
}

// UpdateStatus changes the settlement status of a recorded payment
func (s *PaymentService) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (*invoicing.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "update_status")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPaymentID, id.String(),
	)

	p, err := s.repos.Payments.FindByID(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := p.UpdateStatus(invoicing.PaymentStatus(strings.ToUpper(status))); err != nil {
		return nil, err
	}
	if err := s.repos.Payments.UpdateStatus(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return p, nil
}

// GetByID returns a payment
func (s *PaymentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Payment, error) {
	return s.repos.Payments.FindByID(ctx, tenantID, id)
}

// List returns a page of payments
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.PaymentFilter) (*shared.Paginated[invoicing.Payment], error) {
	if filter.Method != "" && !filter.Method.IsValid() {
		return nil, shared.NewValidationError("invalid payment method %q", filter.Method)
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.NewValidationError("invalid payment status %q", filter.Status)
	}
	filter.Filter = filter.Filter.Normalize()
	payments, total, err := s.repos.Payments.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(payments, total, filter.Page, filter.PageSize)
	return &page, nil
}
