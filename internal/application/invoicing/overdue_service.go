package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/identity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SweepOverdue is the name of the overdue sweep
const SweepOverdue = "overdue"

// DefaultLocale formats amounts in notification messages
const DefaultLocale = "en-US"

// OverdueService flags past-due invoices and notifies the tenant's managers
type OverdueService struct {
	scope           TransactionScope
	repos           *Repositories
	recorder        *ActivityRecorder
	logger          *zap.Logger
	locale          string
	batchSize       int
	businessMetrics *telemetry.BusinessMetrics
}

// NewOverdueService creates a new OverdueService
func NewOverdueService(scope TransactionScope, repos *Repositories, logger *zap.Logger) *OverdueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueService{
		scope:     scope,
		repos:     repos,
		recorder:  NewActivityRecorder(repos.Activity),
		logger:    logger,
		locale:    DefaultLocale,
		batchSize: DefaultSweepBatchSize,
	}
}

// SetBatchSize bounds how many records one run selects
func (s *OverdueService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *OverdueService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetLocale sets the BCP 47 locale of notification amounts
func (s *OverdueService) SetLocale(locale string) {
	if locale != "" {
		s.locale = locale
	}
}

// RunSweep moves every open invoice due before now to OVERDUE, each in its own
// transaction. A failing invoice is logged and the sweep continues.
func (s *OverdueService) RunSweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "overdue", "run_sweep")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrSweep, SweepOverdue)

	start := time.Now()
	now = now.UTC()
	result := &SweepResult{Sweep: SweepOverdue}

	refs, err := s.repos.Invoices.FindOverdueCandidates(ctx, now, s.batchSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result.Selected = len(refs)

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return finishSweep(ctx, s.businessMetrics, result, start), err
		}
		flagged, err := s.flag(ctx, ref.TenantID, ref.ID, now)
		switch {
		case err != nil:
			result.Failed++
			s.logger.Error("Overdue flagging failed",
				zap.String("tenant_id", ref.TenantID.String()),
				zap.String("invoice_id", ref.ID.String()),
				zap.Error(err),
			)
		case !flagged:
			result.Skipped++
		default:
			result.Processed++
		}
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrProcessed, result.Processed,
		telemetry.SpanAttrFailed, result.Failed,
	)
	s.logger.Info("Overdue sweep finished",
		zap.Int("selected", result.Selected),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
	)
	return finishSweep(ctx, s.businessMetrics, result, start), nil
}

// flag marks one invoice overdue. It reports false when the invoice stopped
// being a candidate after it was selected.
func (s *OverdueService) flag(ctx context.Context, tenantID, invoiceID uuid.UUID, now time.Time) (bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "overdue", "flag")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
	)

	flagged := false
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if !inv.IsOverdueCandidate(now) {
			return nil
		}
		days, err := inv.MarkOverdue(now)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Update(ctx, inv); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, repos.ActivityRepo(), activity.ForInvoice(tenantID, inv.ID, activity.ActionOverdue,
			fmt.Sprintf("Invoice is %d days past due", days), nil)); err != nil {
			return err
		}
		if err := s.notify(ctx, repos, inv); err != nil {
			return err
		}
		flagged = true
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return false, err
	}
	return flagged, nil
}

func (s *OverdueService) notify(ctx context.Context, repos TransactionalRepositories, inv *invoicing.Invoice) error {
	users, err := repos.UserRepo().FindActiveByRoles(ctx, inv.TenantID, identity.NotificationRoles)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}
	title := fmt.Sprintf("Invoice %s is overdue", inv.InvoiceNumber)
	message := fmt.Sprintf("Invoice for %s - %s is past due.", inv.CustomerName, inv.Balance().Format(s.locale))

	notifications := make([]*activity.Notification, 0, len(users))
	for _, u := range users {
		n, err := activity.NewNotification(inv.TenantID, u.ID, activity.NotificationTypeOverdue, title, message)
		if err != nil {
			return err
		}
		notifications = append(notifications, n)
	}
	return repos.NotificationRepo().CreateBatch(ctx, notifications)
}
