package invoicing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgingBucket names a days-past-due band
type AgingBucket string

const (
	AgingCurrent AgingBucket = "current"
	Aging1To30   AgingBucket = "1-30"
	Aging31To60  AgingBucket = "31-60"
	Aging61To90  AgingBucket = "61-90"
	Aging90Plus  AgingBucket = "90+"
)

// AgingBuckets lists the bands in report order
var AgingBuckets = []AgingBucket{AgingCurrent, Aging1To30, Aging31To60, Aging61To90, Aging90Plus}

// BucketFor places a days-past-due count in its band
func BucketFor(daysPastDue int) AgingBucket {
	switch {
	case daysPastDue <= 0:
		return AgingCurrent
	case daysPastDue <= 30:
		return Aging1To30
	case daysPastDue <= 60:
		return Aging31To60
	case daysPastDue <= 90:
		return Aging61To90
	default:
		return Aging90Plus
	}
}

// AgingEntry is one open invoice in the aging report
type AgingEntry struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	DueDate       time.Time       `json:"due_date"`
	DaysOverdue   int             `json:"days_overdue"`
}

// AgingReport groups open balances by days past due
type AgingReport struct {
	Buckets          map[AgingBucket][]AgingEntry    `json:"buckets"`
	Totals           map[AgingBucket]decimal.Decimal `json:"totals"`
	TotalOutstanding decimal.Decimal                 `json:"total_outstanding"`
}

// BuildAgingReport buckets invoices with a positive balance. Entries keep due-date order.
func BuildAgingReport(invoices []Invoice, now time.Time) AgingReport {
	r := AgingReport{
		Buckets:          make(map[AgingBucket][]AgingEntry, len(AgingBuckets)),
		Totals:           make(map[AgingBucket]decimal.Decimal, len(AgingBuckets)),
		TotalOutstanding: decimal.Zero,
	}
	for _, b := range AgingBuckets {
		r.Buckets[b] = []AgingEntry{}
		r.Totals[b] = decimal.Zero
	}

	open := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.BalanceDue.IsPositive() {
			open = append(open, inv)
		}
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].DueDate.Before(open[j].DueDate) })

	for _, inv := range open {
		days := DaysBetween(inv.DueDate, now)
		b := BucketFor(days)
		r.Buckets[b] = append(r.Buckets[b], AgingEntry{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			CustomerName:  inv.CustomerName,
			BalanceDue:    inv.BalanceDue,
			DueDate:       inv.DueDate,
			DaysOverdue:   days,
		})
		r.Totals[b] = r.Totals[b].Add(inv.BalanceDue)
		r.TotalOutstanding = r.TotalOutstanding.Add(inv.BalanceDue)
	}
	return r
}

// TaxRateSummary aggregates lines sharing a tax rate
type TaxRateSummary struct {
	Rate          decimal.Decimal `json:"rate"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Count         int             `json:"count"`
}

// TaxSummary totals tax across invoices and per distinct non-zero rate
type TaxSummary struct {
	TotalTaxCollected decimal.Decimal  `json:"total_tax_collected"`
	ByRate            []TaxRateSummary `json:"by_rate"`
	InvoiceCount      int              `json:"invoice_count"`
}

// BuildTaxSummary sums invoice tax and groups line taxes by rate, ordered by rate
func BuildTaxSummary(invoices []Invoice) TaxSummary {
	s := TaxSummary{TotalTaxCollected: decimal.Zero, ByRate: []TaxRateSummary{}, InvoiceCount: len(invoices)}
	byRate := make(map[string]*TaxRateSummary)
	for _, inv := range invoices {
		s.TotalTaxCollected = s.TotalTaxCollected.Add(inv.TaxAmount)
		for _, item := range inv.Items {
			if !item.TaxRate.IsPositive() {
				continue
			}
			key := item.TaxRate.String()
			agg, ok := byRate[key]
			if !ok {
				agg = &TaxRateSummary{Rate: item.TaxRate, TaxableAmount: decimal.Zero, TaxAmount: decimal.Zero}
				byRate[key] = agg
			}
			agg.TaxableAmount = agg.TaxableAmount.Add(item.Amount)
			agg.TaxAmount = agg.TaxAmount.Add(item.TaxAmount())
			agg.Count++
		}
	}
	for _, agg := range byRate {
		s.ByRate = append(s.ByRate, *agg)
	}
	sort.Slice(s.ByRate, func(i, j int) bool { return s.ByRate[i].Rate.LessThan(s.ByRate[j].Rate) })
	return s
}

// SalesSummary totals billed, collected and outstanding amounts
type SalesSummary struct {
	TotalRevenue     decimal.Decimal       `json:"total_revenue"`
	TotalPaid        decimal.Decimal       `json:"total_paid"`
	TotalOutstanding decimal.Decimal       `json:"total_outstanding"`
	InvoiceCount     int                   `json:"invoice_count"`
	ByStatus         map[InvoiceStatus]int `json:"by_status"`
}

// BuildSalesSummary aggregates invoice totals and counts per status
func BuildSalesSummary(invoices []Invoice) SalesSummary {
	s := SalesSummary{
		TotalRevenue:     decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		InvoiceCount:     len(invoices),
		ByStatus:         make(map[InvoiceStatus]int),
	}
	for _, inv := range invoices {
		s.TotalRevenue = s.TotalRevenue.Add(inv.TotalAmount)
		s.TotalPaid = s.TotalPaid.Add(inv.AmountPaid)
		s.TotalOutstanding = s.TotalOutstanding.Add(inv.BalanceDue)
		s.ByStatus[inv.Status]++
	}
	return s
}
