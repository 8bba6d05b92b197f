package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CreditNoteService issues credit notes. Credit notes do not change invoice balances.
type CreditNoteService struct {
	scope  TransactionScope
	repos  *Repositories
	logger *zap.Logger
}

// NewCreditNoteService creates a new CreditNoteService
func NewCreditNoteService(scope TransactionScope, repos *Repositories, logger *zap.Logger) *CreditNoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditNoteService{scope: scope, repos: repos, logger: logger}
}

// Create numbers and stores a credit note
func (s *CreditNoteService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateCreditNoteRequest) (*invoicing.CreditNote, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "credit_note", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var note *invoicing.CreditNote
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.CustomerRepo().FindByID(ctx, tenantID, req.CustomerID); err != nil {
			return err
		}
		if req.InvoiceID != nil {
			inv, err := repos.InvoiceRepo().FindByID(ctx, tenantID, *req.InvoiceID)
			if err != nil {
				return err
			}
			if inv.CustomerID != req.CustomerID {
				return shared.NewValidationError("credit note customer does not match invoice %s", inv.InvoiceNumber)
			}
		}
		number, err := invoicing.NewNumberingAuthority(repos.SequenceRepo()).Next(ctx, tenantID, invoicing.DocumentTypeCreditNote)
		if err != nil {
			return err
		}
		n, err := invoicing.NewCreditNote(tenantID, req.CustomerID, req.InvoiceID, number, req.Amount, req.Date)
		if err != nil {
			return err
		}
		n.Reason = req.Reason
		n.Notes = req.Notes
		n.SetCreatedBy(userID)
		if err := repos.CreditNoteRepo().Create(ctx, n); err != nil {
			return err
		}
		note = n
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Credit note issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("credit_note_number", note.CreditNoteNumber),
	)
	return note, nil
}

// GetByID returns a credit note
func (s *CreditNoteService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.CreditNote, error) {
	return s.repos.CreditNotes.FindByID(ctx, tenantID, id)
}

// List returns a page of credit notes
func (s *CreditNoteService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[invoicing.CreditNote], error) {
	filter = filter.Normalize()
	notes, total, err := s.repos.CreditNotes.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(notes, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Remove deletes a credit note
func (s *CreditNoteService) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repos.CreditNotes.Delete(ctx, tenantID, id)
}
