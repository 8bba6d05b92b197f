package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/timetracking"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
)

// ReportService builds receivables and expense reports
type ReportService struct {
	invoices invoicing.InvoiceRepository
	expenses timetracking.ExpenseRepository
}

// NewReportService creates a new ReportService
func NewReportService(invoices invoicing.InvoiceRepository, expenses timetracking.ExpenseRepository) *ReportService {
	return &ReportService{invoices: invoices, expenses: expenses}
}

// Aging buckets open balances by days past due at now
func (s *ReportService) Aging(ctx context.Context, tenantID uuid.UUID, now time.Time) (*invoicing.AgingReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "aging")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	open, err := s.invoices.FindOutstanding(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	report := invoicing.BuildAgingReport(open, now.UTC())
	return &report, nil
}

// TaxSummary totals tax per rate across the tenant's issued invoices
func (s *ReportService) TaxSummary(ctx context.Context, tenantID uuid.UUID) (*invoicing.TaxSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "tax_summary")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	all, err := s.invoices.FindAllWithItems(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	summary := invoicing.BuildTaxSummary(all)
	return &summary, nil
}

// Sales totals invoiced, collected and outstanding amounts
func (s *ReportService) Sales(ctx context.Context, tenantID uuid.UUID) (*invoicing.SalesSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "sales")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	all, err := s.invoices.FindAllWithItems(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	summary := invoicing.BuildSalesSummary(all)
	return &summary, nil
}

// ExpenseSummary totals expenses overall, per category and for the six months up to now
func (s *ReportService) ExpenseSummary(ctx context.Context, tenantID uuid.UUID, now time.Time) (*timetracking.ExpenseSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "expense_summary")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	expenses, err := s.expenses.FindAllByTenant(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	summary := timetracking.BuildExpenseSummary(expenses, now)
	return &summary, nil
}
