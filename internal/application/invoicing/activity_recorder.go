package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/invoicing"
)

// ActivityRecorder appends audit entries for invoices and quotes
type ActivityRecorder struct {
	repo activity.LogRepository
}

// NewActivityRecorder creates an ActivityRecorder reading from repo
func NewActivityRecorder(repo activity.LogRepository) *ActivityRecorder {
	return &ActivityRecorder{repo: repo}
}

// Record appends an entry using repo, normally the transaction-scoped
// repository of the write it describes
func (r *ActivityRecorder) Record(ctx context.Context, repo activity.LogRepository, e activity.Entry) error {
	if repo == nil {
		repo = r.repo
	}
	log, err := activity.NewLog(e)
	if err != nil {
		return err
	}
	if err := repo.Append(ctx, log); err != nil {
		return fmt.Errorf("failed to record %s activity: %w", e.Action, err)
	}
	return nil
}

// ListForInvoice returns the invoice's activity, newest first
func (r *ActivityRecorder) ListForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]activity.Log, error) {
	return r.repo.ListForInvoice(ctx, tenantID, invoiceID)
}

// ListForQuote returns the quote's activity, newest first
func (r *ActivityRecorder) ListForQuote(ctx context.Context, tenantID, quoteID uuid.UUID) ([]activity.Log, error) {
	return r.repo.ListForQuote(ctx, tenantID, quoteID)
}

// invoiceStatusAction maps a status change to the activity it records.
// Changes without a dedicated action are recorded as updated.
func invoiceStatusAction(status invoicing.InvoiceStatus) activity.Action {
	switch status {
	case invoicing.InvoiceStatusSent:
		return activity.ActionSent
	case invoicing.InvoiceStatusViewed:
		return activity.ActionViewed
	case invoicing.InvoiceStatusPaid:
		return activity.ActionPaid
	case invoicing.InvoiceStatusOverdue:
		return activity.ActionOverdue
	case invoicing.InvoiceStatusVoid:
		return activity.ActionVoided
	default:
		return activity.ActionUpdated
	}
}

func quoteStatusAction(status invoicing.QuoteStatus) activity.Action {
	switch status {
	case invoicing.QuoteStatusSent:
		return activity.ActionSent
	case invoicing.QuoteStatusAccepted:
		return activity.ActionAccepted
	case invoicing.QuoteStatusDeclined:
		return activity.ActionDeclined
	case invoicing.QuoteStatusConverted:
		return activity.ActionConverted
	default:
		return activity.ActionUpdated
	}
}
