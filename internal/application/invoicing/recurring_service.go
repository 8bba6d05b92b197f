package invoicing

import (
	"context"
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

// SweepRecurring is the name of the recurring generation sweep
const SweepRecurring = "recurring"

// DefaultSweepBatchSize bounds how many records one sweep run selects
const DefaultSweepBatchSize = 500

// RecurringService manages recurring profiles and generates their invoices
type RecurringService struct {
	scope           TransactionScope
	repos           *Repositories
	recorder        *ActivityRecorder
	logger          *zap.Logger
	defaultCurrency valueobject.Currency
	batchSize       int
	businessMetrics *telemetry.BusinessMetrics
}

// NewRecurringService creates a new RecurringService
func NewRecurringService(scope TransactionScope, repos *Repositories, logger *zap.Logger) *RecurringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecurringService{
		scope:           scope,
		repos:           repos,
		recorder:        NewActivityRecorder(repos.Activity),
		logger:          logger,
		defaultCurrency: valueobject.DefaultCurrency,
		batchSize:       DefaultSweepBatchSize,
	}
}

// SetBatchSize bounds how many records one run selects
func (s *RecurringService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *RecurringService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetDefaultCurrency sets the currency used when a request names none
func (s *RecurringService) SetDefaultCurrency(cur valueobject.Currency) {
	s.defaultCurrency = cur
}

// Create stores an active profile. An empty name becomes "Recurring-<n>".
func (s *RecurringService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateRecurringRequest) (*invoicing.RecurringProfile, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
	)

	cur, err := parseCurrency(req.Currency, s.defaultCurrency)
	if err != nil {
		return nil, err
	}

	var profile *invoicing.RecurringProfile
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindByID(ctx, tenantID, req.CustomerID)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(req.ProfileName)
		if name == "" {
			n, err := repos.RecurringRepo().CountByTenant(ctx, tenantID)
			if err != nil {
				return err
			}
			name = invoicing.DefaultProfileName(n + 1)
		}
		p, err := invoicing.NewRecurringProfile(tenantID, customer.ID, name,
			invoicing.Frequency(strings.ToLower(req.Frequency)), req.StartDate, req.EndDate, cur,
			req.Subtotal, req.TaxAmount, req.TotalAmount)
		if err != nil {
			return err
		}
		p.CustomerName = customer.DisplayName
		p.Notes = req.Notes
		p.Terms = req.Terms
		p.SetCreatedBy(userID)
		if err := repos.RecurringRepo().Create(ctx, p); err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrProfileID, profile.ID.String())
	return profile, nil
}

// Update applies a partial edit, including pause and resume through IsActive
func (s *RecurringService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateRecurringRequest) (*invoicing.RecurringProfile, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrProfileID, id.String(),
	)

	var profile *invoicing.RecurringProfile
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.RecurringRepo().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if req.ProfileName != nil {
			if err := p.Rename(strings.TrimSpace(*req.ProfileName)); err != nil {
				return err
			}
		}
		var freq *invoicing.Frequency
		if req.Frequency != nil {
			f := invoicing.Frequency(strings.ToLower(*req.Frequency))
			freq = &f
		}
		if freq != nil || req.StartDate != nil || req.EndDate != nil {
			if err := p.Reschedule(freq, req.StartDate, req.EndDate); err != nil {
				return err
			}
		}
		if req.Subtotal != nil || req.TaxAmount != nil || req.TotalAmount != nil {
			subtotal, tax, total := p.Subtotal, p.TaxAmount, p.TotalAmount
			if req.Subtotal != nil {
				subtotal = *req.Subtotal
			}
			if req.TaxAmount != nil {
				tax = *req.TaxAmount
			}
			if req.TotalAmount != nil {
				total = *req.TotalAmount
			} else if req.Subtotal != nil || req.TaxAmount != nil {
				total = subtotal.Add(tax)
			}
			if err := p.Reprice(subtotal, tax, total); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			p.Notes = *req.Notes
		}
		if req.Terms != nil {
			p.Terms = *req.Terms
		}
		if req.IsActive != nil {
			if *req.IsActive {
				p.Resume()
			} else {
				p.Pause()
			}
		}
		if err := repos.RecurringRepo().Update(ctx, p); err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return profile, nil
}

// Pause stops a profile from generating invoices
func (s *RecurringService) Pause(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.RecurringProfile, error) {
	active := false
	return s.Update(ctx, tenantID, id, UpdateRecurringRequest{IsActive: &active})
}

// Resume restarts a paused profile
func (s *RecurringService) Resume(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.RecurringProfile, error) {
	active := true
	return s.Update(ctx, tenantID, id, UpdateRecurringRequest{IsActive: &active})
}

// Remove deletes a profile. Invoices it generated are kept.
func (s *RecurringService) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repos.Recurring.Delete(ctx, tenantID, id)
}

// GetByID returns a profile
func (s *RecurringService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.RecurringProfile, error) {
	return s.repos.Recurring.FindByID(ctx, tenantID, id)
}

// List returns a page of profiles
func (s *RecurringService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[invoicing.RecurringProfile], error) {
	filter = filter.Normalize()
	profiles, total, err := s.repos.Recurring.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(profiles, total, filter.Page, filter.PageSize)
	return &page, nil
}

// RunDue generates one DRAFT invoice for every profile due at now, each in its
// own transaction. A failing profile is logged and the run continues.
func (s *RecurringService) RunDue(ctx context.Context, now time.Time) (*SweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "run_due")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrSweep, SweepRecurring)

	start := time.Now()
	now = now.UTC()
	result := &SweepResult{Sweep: SweepRecurring}

	due, err := s.repos.Recurring.FindDue(ctx, now, s.batchSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result.Selected = len(due)

	for i := range due {
		if err := ctx.Err(); err != nil {
			return finishSweep(ctx, s.businessMetrics, result, start), err
		}
		p := &due[i]
		generated, err := s.generate(ctx, p.TenantID, p.ID, now)
		switch {
		case err != nil:
			result.Failed++
			s.logger.Error("Recurring invoice generation failed",
				zap.String("tenant_id", p.TenantID.String()),
				zap.String("profile_id", p.ID.String()),
				zap.String("profile_name", p.ProfileName),
				zap.Error(err),
			)
		case generated == nil:
			result.Skipped++
		default:
			result.Processed++
			if s.businessMetrics != nil {
				s.businessMetrics.RecordInvoiceCreated(ctx, p.TenantID, telemetry.InvoiceSourceRecurring, generated.Currency.String(), generated.TotalAmount)
			}
			s.logger.Info("Recurring invoice generated",
				zap.String("tenant_id", p.TenantID.String()),
				zap.String("profile_id", p.ID.String()),
				zap.String("invoice_number", generated.InvoiceNumber),
			)
		}
	}
	return finishSweep(ctx, s.businessMetrics, result, start), nil
}

func finishSweep(ctx context.Context, bm *telemetry.BusinessMetrics, result *SweepResult, start time.Time) *SweepResult {
	result.Duration = time.Since(start)
	if bm != nil {
		bm.RecordSweep(ctx, result.Sweep, result.Processed, result.Failed, result.Duration)
	}
	return result
}

// generate runs one cycle of a profile. It returns nil without error when the
// profile is no longer due, e.g. because another instance already ran it.
func (s *RecurringService) generate(ctx context.Context, tenantID, profileID uuid.UUID, now time.Time) (*invoicing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "generate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrProfileID, profileID.String(),
	)

	var inv *invoicing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.RecurringRepo().FindByIDForUpdate(ctx, tenantID, profileID)
		if err != nil {
			return err
		}
		if !p.IsDue(now) {
			return nil
		}

		number, err := invoicing.NewNumberingAuthority(repos.SequenceRepo()).Next(ctx, tenantID, invoicing.DocumentTypeInvoice)
		if err != nil {
			return err
		}
		totals := p.Totals()
		cycle := p.Advance(now)
		created, err := invoicing.NewInvoiceFromTotals(invoicing.NewInvoiceInput{
			TenantID:           tenantID,
			CustomerID:         p.CustomerID,
			CustomerName:       p.CustomerName,
			InvoiceNumber:      number,
			IssueDate:          now,
			DueDate:            cycle.DueDate,
			Currency:           p.Currency,
			Notes:              p.InvoiceNotes(),
			Terms:              p.Terms,
			Status:             invoicing.InvoiceStatusDraft,
			RecurringProfileID: &p.ID,
		}, nil, totals)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Create(ctx, created); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, repos.ActivityRepo(),
			activity.ForInvoice(tenantID, created.ID, activity.ActionCreated, p.ActivityDetails(), nil)); err != nil {
			return err
		}
		if err := repos.RecurringRepo().Update(ctx, p); err != nil {
			return err
		}
		if cycle.Deactivated {
			telemetry.AddEvent(span, "profile_deactivated")
		}
		inv = created
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return inv, nil
}
