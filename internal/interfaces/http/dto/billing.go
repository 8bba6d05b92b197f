package dto

import (
	"time"

	"github.com/google/uuid"
	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	apppartner "github.com/invoicely/backend/internal/application/partner"
	"github.com/invoicely/backend/internal/domain/activity"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// LineItemRequest is one requested invoice or quote line
type LineItemRequest struct {
	ItemID      *uuid.UUID       `json:"item_id"`
	Description string           `json:"description" binding:"max=500"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"decimal_gt0"`
	Rate        *decimal.Decimal `json:"rate" binding:"omitempty,decimal_gte0"`
	TaxRate     *decimal.Decimal `json:"tax_rate" binding:"omitempty,decimal_gte0"`
}

func lineRequests(items []LineItemRequest) []appinvoicing.LineRequest {
	if items == nil {
		return nil
	}
	out := make([]appinvoicing.LineRequest, len(items))
	for i, it := range items {
		out[i] = appinvoicing.LineRequest{
			ItemID:      it.ItemID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			TaxRate:     it.TaxRate,
		}
	}
	return out
}

// CreateInvoiceRequest is the body of POST /invoices
type CreateInvoiceRequest struct {
	CustomerID uuid.UUID         `json:"customer_id" binding:"required"`
	Items      []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	IssueDate  *Date             `json:"issue_date"`
	DueDate    Date              `json:"due_date"`
	Discount   decimal.Decimal   `json:"discount" binding:"decimal_gte0"`
	Notes      string            `json:"notes" binding:"max=2000"`
	Terms      string            `json:"terms" binding:"max=2000"`
	Currency   string            `json:"currency" binding:"omitempty,currency"`
	Status     string            `json:"status" binding:"omitempty,oneof=DRAFT SENT"`
}

// ToCommand converts the body to the service request
func (r CreateInvoiceRequest) ToCommand() appinvoicing.CreateInvoiceRequest {
	return appinvoicing.CreateInvoiceRequest{
		CustomerID: r.CustomerID,
		Items:      lineRequests(r.Items),
		IssueDate:  r.IssueDate.Ptr(),
		DueDate:    r.DueDate.Time,
		Discount:   r.Discount,
		Notes:      r.Notes,
		Terms:      r.Terms,
		Currency:   r.Currency,
		Status:     r.Status,
	}
}

// UpdateInvoiceRequest is the body of PATCH /invoices/:id
type UpdateInvoiceRequest struct {
	Items    []LineItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	DueDate  *Date             `json:"due_date"`
	Discount *decimal.Decimal  `json:"discount" binding:"omitempty,decimal_gte0"`
	Notes    *string           `json:"notes" binding:"omitempty,max=2000"`
	Terms    *string           `json:"terms" binding:"omitempty,max=2000"`
	Currency *string           `json:"currency" binding:"omitempty,currency"`
	Status   *string           `json:"status"`
}

// ToCommand converts the body to the service request
func (r UpdateInvoiceRequest) ToCommand() appinvoicing.UpdateInvoiceRequest {
	return appinvoicing.UpdateInvoiceRequest{
		Items:    lineRequests(r.Items),
		DueDate:  r.DueDate.Ptr(),
		Discount: r.Discount,
		Notes:    r.Notes,
		Terms:    r.Terms,
		Currency: r.Currency,
		Status:   r.Status,
	}
}

// InvoiceListQuery filters GET /invoices
type InvoiceListQuery struct {
	ListQuery
	Status     string `form:"status"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
}

// ToFilter converts the query into the repository filter
func (q InvoiceListQuery) ToFilter() invoicing.InvoiceFilter {
	return invoicing.InvoiceFilter{
		Filter:     q.ListQuery.Filter(),
		Status:     invoicing.InvoiceStatus(q.Status),
		CustomerID: optionalUUID(q.CustomerID),
	}
}

// LineItemResponse is one priced line
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ItemID      *uuid.UUID      `json:"item_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Amount      decimal.Decimal `json:"amount"`
	SortOrder   int             `json:"sort_order"`
}

func toLineItemResponses(items []invoicing.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, len(items))
	for i, it := range items {
		out[i] = LineItemResponse{
			ID:          it.ID,
			ItemID:      it.ItemID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			TaxRate:     it.TaxRate,
			Amount:      it.Amount,
			SortOrder:   it.SortOrder,
		}
	}
	return out
}

// InvoiceResponse is an invoice with its lines
type InvoiceResponse struct {
	ID                   uuid.UUID          `json:"id"`
	TenantID             uuid.UUID          `json:"tenant_id"`
	InvoiceNumber        string             `json:"invoice_number"`
	CustomerID           uuid.UUID          `json:"customer_id"`
	CustomerName         string             `json:"customer_name"`
	IssueDate            Date               `json:"issue_date"`
	DueDate              Date               `json:"due_date"`
	Subtotal             decimal.Decimal    `json:"subtotal"`
	TaxAmount            decimal.Decimal    `json:"tax_amount"`
	DiscountAmount       decimal.Decimal    `json:"discount_amount"`
	TotalAmount          decimal.Decimal    `json:"total_amount"`
	AmountPaid           decimal.Decimal    `json:"amount_paid"`
	BalanceDue           decimal.Decimal    `json:"balance_due"`
	Currency             string             `json:"currency"`
	Status               string             `json:"status"`
	Notes                string             `json:"notes,omitempty"`
	Terms                string             `json:"terms,omitempty"`
	ConvertedFromQuoteID *uuid.UUID         `json:"converted_from_quote_id,omitempty"`
	RecurringProfileID   *uuid.UUID         `json:"recurring_profile_id,omitempty"`
	Items                []LineItemResponse `json:"items"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	Version              int                `json:"version"`
}

// ToInvoiceResponse maps an invoice
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                   inv.ID,
		TenantID:             inv.TenantID,
		InvoiceNumber:        inv.InvoiceNumber,
		CustomerID:           inv.CustomerID,
		CustomerName:         inv.CustomerName,
		IssueDate:            NewDate(inv.IssueDate),
		DueDate:              NewDate(inv.DueDate),
		Subtotal:             inv.Subtotal,
		TaxAmount:            inv.TaxAmount,
		DiscountAmount:       inv.DiscountAmount,
		TotalAmount:          inv.TotalAmount,
		AmountPaid:           inv.AmountPaid,
		BalanceDue:           inv.BalanceDue,
		Currency:             inv.Currency.String(),
		Status:               inv.Status.String(),
		Notes:                inv.Notes,
		Terms:                inv.Terms,
		ConvertedFromQuoteID: inv.ConvertedFromQuoteID,
		RecurringProfileID:   inv.RecurringProfileID,
		Items:                toLineItemResponses(inv.Items),
		CreatedAt:            inv.CreatedAt,
		UpdatedAt:            inv.UpdatedAt,
		Version:              inv.Version,
	}
}

// ToInvoiceResponses maps a page of invoices
func ToInvoiceResponses(invoices []invoicing.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out
}

// InvoiceDetailResponse is an invoice with its customer, payments and activity
type InvoiceDetailResponse struct {
	InvoiceResponse
	Customer *apppartner.CustomerResponse `json:"customer,omitempty"`
	Payments []PaymentResponse            `json:"payments"`
	Activity []ActivityResponse           `json:"activity"`
}

// ToInvoiceDetailResponse maps an invoice detail
func ToInvoiceDetailResponse(d *appinvoicing.InvoiceDetail) InvoiceDetailResponse {
	resp := InvoiceDetailResponse{
		InvoiceResponse: ToInvoiceResponse(d.Invoice),
		Payments:        ToPaymentResponses(d.Payments),
		Activity:        ToActivityResponses(d.Activity),
	}
	if d.Customer != nil {
		c := apppartner.ToCustomerResponse(d.Customer)
		resp.Customer = &c
	}
	return resp
}

// CreateQuoteRequest is the body of POST /quotes
type CreateQuoteRequest struct {
	CustomerID uuid.UUID         `json:"customer_id" binding:"required"`
	Items      []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	IssueDate  *Date             `json:"issue_date"`
	ExpiryDate *Date             `json:"expiry_date"`
	Discount   decimal.Decimal   `json:"discount" binding:"decimal_gte0"`
	Notes      string            `json:"notes" binding:"max=2000"`
	Terms      string            `json:"terms" binding:"max=2000"`
	Currency   string            `json:"currency" binding:"omitempty,currency"`
}

// ToCommand converts the body to the service request
func (r CreateQuoteRequest) ToCommand() appinvoicing.CreateQuoteRequest {
	return appinvoicing.CreateQuoteRequest{
		CustomerID: r.CustomerID,
		Items:      lineRequests(r.Items),
		IssueDate:  r.IssueDate.Ptr(),
		ExpiryDate: r.ExpiryDate.Ptr(),
		Discount:   r.Discount,
		Notes:      r.Notes,
		Terms:      r.Terms,
		Currency:   r.Currency,
	}
}

// UpdateQuoteRequest is the body of PATCH /quotes/:id
type UpdateQuoteRequest struct {
	Items      []LineItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	ExpiryDate *Date             `json:"expiry_date"`
	Discount   *decimal.Decimal  `json:"discount" binding:"omitempty,decimal_gte0"`
	Notes      *string           `json:"notes" binding:"omitempty,max=2000"`
	Terms      *string           `json:"terms" binding:"omitempty,max=2000"`
	Currency   *string           `json:"currency" binding:"omitempty,currency"`
	Status     *string           `json:"status"`
}

// ToCommand converts the body to the service request
func (r UpdateQuoteRequest) ToCommand() appinvoicing.UpdateQuoteRequest {
	return appinvoicing.UpdateQuoteRequest{
		Items:      lineRequests(r.Items),
		ExpiryDate: r.ExpiryDate.Ptr(),
		Discount:   r.Discount,
		Notes:      r.Notes,
		Terms:      r.Terms,
		Currency:   r.Currency,
		Status:     r.Status,
	}
}

// ConvertQuoteRequest is the optional body of POST /quotes/:id/convert
type ConvertQuoteRequest struct {
	DueDate *Date `json:"due_date"`
}

// ToCommand converts the body to the service request
func (r ConvertQuoteRequest) ToCommand() appinvoicing.ConvertQuoteRequest {
	var cmd appinvoicing.ConvertQuoteRequest
	if due := r.DueDate.Ptr(); due != nil {
		cmd.DueDate = *due
	}
	return cmd
}

// QuoteListQuery filters GET /quotes
type QuoteListQuery struct {
	ListQuery
	Status     string `form:"status"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
}

// ToFilter converts the query into the repository filter
func (q QuoteListQuery) ToFilter() invoicing.QuoteFilter {
	return invoicing.QuoteFilter{
		Filter:     q.ListQuery.Filter(),
		Status:     invoicing.QuoteStatus(q.Status),
		CustomerID: optionalUUID(q.CustomerID),
	}
}

// QuoteResponse is a quote with its lines
type QuoteResponse struct {
	ID             uuid.UUID          `json:"id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	QuoteNumber    string             `json:"quote_number"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	CustomerName   string             `json:"customer_name"`
	IssueDate      Date               `json:"issue_date"`
	ExpiryDate     *Date              `json:"expiry_date,omitempty"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	Currency       string             `json:"currency"`
	Status         string             `json:"status"`
	Notes          string             `json:"notes,omitempty"`
	Terms          string             `json:"terms,omitempty"`
	Items          []LineItemResponse `json:"items"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Version        int                `json:"version"`
}

// ToQuoteResponse maps a quote
func ToQuoteResponse(q *invoicing.Quote) QuoteResponse {
	return QuoteResponse{
		ID:             q.ID,
		TenantID:       q.TenantID,
		QuoteNumber:    q.QuoteNumber,
		CustomerID:     q.CustomerID,
		CustomerName:   q.CustomerName,
		IssueDate:      NewDate(q.IssueDate),
		ExpiryDate:     DatePtr(q.ExpiryDate),
		Subtotal:       q.Subtotal,
		TaxAmount:      q.TaxAmount,
		DiscountAmount: q.DiscountAmount,
		TotalAmount:    q.TotalAmount,
		Currency:       q.Currency.String(),
		Status:         string(q.Status),
		Notes:          q.Notes,
		Terms:          q.Terms,
		Items:          toLineItemResponses(q.Items),
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
		Version:        q.Version,
	}
}

// ToQuoteResponses maps a page of quotes
func ToQuoteResponses(quotes []invoicing.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		out[i] = ToQuoteResponse(&quotes[i])
	}
	return out
}

// QuoteDetailResponse is a quote with its customer and activity
type QuoteDetailResponse struct {
	QuoteResponse
	Customer *apppartner.CustomerResponse `json:"customer,omitempty"`
	Activity []ActivityResponse           `json:"activity"`
}

// ToQuoteDetailResponse maps a quote detail
func ToQuoteDetailResponse(d *appinvoicing.QuoteDetail) QuoteDetailResponse {
	resp := QuoteDetailResponse{
		QuoteResponse: ToQuoteResponse(d.Quote),
		Activity:      ToActivityResponses(d.Activity),
	}
	if d.Customer != nil {
		c := apppartner.ToCustomerResponse(d.Customer)
		resp.Customer = &c
	}
	return resp
}

// ApplyPaymentRequest is the body of POST /payments
type ApplyPaymentRequest struct {
	InvoiceID   *uuid.UUID      `json:"invoice_id"`
	CustomerID  uuid.UUID       `json:"customer_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Method      string          `json:"method" binding:"required"`
	Reference   string          `json:"reference" binding:"max=200"`
	PaymentDate *Date           `json:"payment_date"`
	Notes       string          `json:"notes" binding:"max=2000"`
}

// ToCommand converts the body to the service request
func (r ApplyPaymentRequest) ToCommand() appinvoicing.ApplyPaymentRequest {
	return appinvoicing.ApplyPaymentRequest{
		InvoiceID:   r.InvoiceID,
		CustomerID:  r.CustomerID,
		Amount:      r.Amount,
		Method:      r.Method,
		Reference:   r.Reference,
		PaymentDate: r.PaymentDate.Ptr(),
		Notes:       r.Notes,
	}
}

// UpdatePaymentStatusRequest is the body of PATCH /payments/:id/status
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PaymentListQuery filters GET /payments
type PaymentListQuery struct {
	ListQuery
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	InvoiceID  string `form:"invoice_id" binding:"omitempty,uuid"`
	Method     string `form:"method"`
	Status     string `form:"status"`
}

// ToFilter converts the query into the repository filter
func (q PaymentListQuery) ToFilter() invoicing.PaymentFilter {
	return invoicing.PaymentFilter{
		Filter:     q.ListQuery.Filter(),
		CustomerID: optionalUUID(q.CustomerID),
		InvoiceID:  optionalUUID(q.InvoiceID),
		Method:     invoicing.PaymentMethod(q.Method),
		Status:     invoicing.PaymentStatus(q.Status),
	}
}

// PaymentResponse is a recorded payment
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	PaymentNumber string          `json:"payment_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	InvoiceID     *uuid.UUID      `json:"invoice_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Status        string          `json:"status"`
	Reference     string          `json:"reference,omitempty"`
	PaymentDate   Date            `json:"payment_date"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToPaymentResponse maps a payment
func ToPaymentResponse(p *invoicing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		PaymentNumber: p.PaymentNumber,
		CustomerID:    p.CustomerID,
		InvoiceID:     p.InvoiceID,
		Amount:        p.Amount,
		Method:        string(p.Method),
		Status:        string(p.Status),
		Reference:     p.Reference,
		PaymentDate:   NewDate(p.PaymentDate),
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

// ToPaymentResponses maps payments
func ToPaymentResponses(payments []invoicing.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out
}

// CreateCreditNoteRequest is the body of POST /credit-notes
type CreateCreditNoteRequest struct {
	CustomerID uuid.UUID       `json:"customer_id" binding:"required"`
	InvoiceID  *uuid.UUID      `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Reason     string          `json:"reason" binding:"max=500"`
	Notes      string          `json:"notes" binding:"max=2000"`
	Date       *Date           `json:"date"`
}

// ToCommand converts the body to the service request
func (r CreateCreditNoteRequest) ToCommand() appinvoicing.CreateCreditNoteRequest {
	return appinvoicing.CreateCreditNoteRequest{
		CustomerID: r.CustomerID,
		InvoiceID:  r.InvoiceID,
		Amount:     r.Amount,
		Reason:     r.Reason,
		Notes:      r.Notes,
		Date:       r.Date.Ptr(),
	}
}

// CreditNoteResponse is an issued credit note
type CreditNoteResponse struct {
	ID               uuid.UUID       `json:"id"`
	CreditNoteNumber string          `json:"credit_note_number"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	InvoiceID        *uuid.UUID      `json:"invoice_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Reason           string          `json:"reason,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	Date             Date            `json:"date"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToCreditNoteResponse maps a credit note
func ToCreditNoteResponse(cn *invoicing.CreditNote) CreditNoteResponse {
	return CreditNoteResponse{
		ID:               cn.ID,
		CreditNoteNumber: cn.CreditNoteNumber,
		CustomerID:       cn.CustomerID,
		InvoiceID:        cn.InvoiceID,
		Amount:           cn.Amount,
		Reason:           cn.Reason,
		Notes:            cn.Notes,
		Date:             NewDate(cn.Date),
		CreatedAt:        cn.CreatedAt,
	}
}

// ToCreditNoteResponses maps credit notes
func ToCreditNoteResponses(notes []invoicing.CreditNote) []CreditNoteResponse {
	out := make([]CreditNoteResponse, len(notes))
	for i := range notes {
		out[i] = ToCreditNoteResponse(&notes[i])
	}
	return out
}

// ConsolidateRequest is the body of POST /billables/consolidate
type ConsolidateRequest struct {
	CustomerID   uuid.UUID   `json:"customer_id" binding:"required"`
	TimeEntryIDs []uuid.UUID `json:"time_entry_ids"`
	ExpenseIDs   []uuid.UUID `json:"expense_ids"`
}

// ToCommand converts the body to the service request
func (r ConsolidateRequest) ToCommand() appinvoicing.ConsolidateRequest {
	return appinvoicing.ConsolidateRequest{
		CustomerID:   r.CustomerID,
		TimeEntryIDs: r.TimeEntryIDs,
		ExpenseIDs:   r.ExpenseIDs,
	}
}

// ConsolidationResponse is the invoice built from billables and what it consumed
type ConsolidationResponse struct {
	Invoice      InvoiceResponse `json:"invoice"`
	TimeEntryIDs []uuid.UUID     `json:"time_entry_ids"`
	ExpenseIDs   []uuid.UUID     `json:"expense_ids"`
}

// ToConsolidationResponse maps a consolidation result
func ToConsolidationResponse(r *appinvoicing.ConsolidationResult) ConsolidationResponse {
	return ConsolidationResponse{
		Invoice:      ToInvoiceResponse(r.Invoice),
		TimeEntryIDs: r.TimeEntryIDs,
		ExpenseIDs:   r.ExpenseIDs,
	}
}

// CreateRecurringRequest is the body of POST /recurring-profiles
type CreateRecurringRequest struct {
	CustomerID  uuid.UUID       `json:"customer_id" binding:"required"`
	ProfileName string          `json:"profile_name" binding:"max=200"`
	Frequency   string          `json:"frequency" binding:"required,oneof=weekly biweekly monthly quarterly yearly"`
	StartDate   Date            `json:"start_date"`
	EndDate     *Date           `json:"end_date"`
	Currency    string          `json:"currency" binding:"omitempty,currency"`
	Subtotal    decimal.Decimal `json:"subtotal" binding:"decimal_gte0"`
	TaxAmount   decimal.Decimal `json:"tax_amount" binding:"decimal_gte0"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"decimal_gte0"`
	Notes       string          `json:"notes" binding:"max=2000"`
	Terms       string          `json:"terms" binding:"max=2000"`
}

// ToCommand converts the body to the service request
func (r CreateRecurringRequest) ToCommand() appinvoicing.CreateRecurringRequest {
	return appinvoicing.CreateRecurringRequest{
		CustomerID:  r.CustomerID,
		ProfileName: r.ProfileName,
		Frequency:   r.Frequency,
		StartDate:   r.StartDate.Time,
		EndDate:     r.EndDate.Ptr(),
		Currency:    r.Currency,
		Subtotal:    r.Subtotal,
		TaxAmount:   r.TaxAmount,
		TotalAmount: r.TotalAmount,
		Notes:       r.Notes,
		Terms:       r.Terms,
	}
}

// UpdateRecurringRequest is the body of PATCH /recurring-profiles/:id
type UpdateRecurringRequest struct {
	ProfileName *string          `json:"profile_name" binding:"omitempty,max=200"`
	Frequency   *string          `json:"frequency" binding:"omitempty,oneof=weekly biweekly monthly quarterly yearly"`
	StartDate   *Date            `json:"start_date"`
	EndDate     *Date            `json:"end_date"`
	Subtotal    *decimal.Decimal `json:"subtotal" binding:"omitempty,decimal_gte0"`
	TaxAmount   *decimal.Decimal `json:"tax_amount" binding:"omitempty,decimal_gte0"`
	TotalAmount *decimal.Decimal `json:"total_amount" binding:"omitempty,decimal_gte0"`
	Notes       *string          `json:"notes" binding:"omitempty,max=2000"`
	Terms       *string          `json:"terms" binding:"omitempty,max=2000"`
	IsActive    *bool            `json:"is_active"`
}

// ToCommand converts the body to the service request
func (r UpdateRecurringRequest) ToCommand() appinvoicing.UpdateRecurringRequest {
	return appinvoicing.UpdateRecurringRequest{
		ProfileName: r.ProfileName,
		Frequency:   r.Frequency,
		StartDate:   r.StartDate.Ptr(),
		EndDate:     r.EndDate.Ptr(),
		Subtotal:    r.Subtotal,
		TaxAmount:   r.TaxAmount,
		TotalAmount: r.TotalAmount,
		Notes:       r.Notes,
		Terms:       r.Terms,
		IsActive:    r.IsActive,
	}
}

// RecurringProfileResponse is a recurring invoice profile
type RecurringProfileResponse struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	ProfileName     string          `json:"profile_name"`
	Frequency       string          `json:"frequency"`
	StartDate       Date            `json:"start_date"`
	EndDate         *Date           `json:"end_date,omitempty"`
	NextInvoiceDate Date            `json:"next_invoice_date"`
	Currency        string          `json:"currency"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Notes           string          `json:"notes,omitempty"`
	Terms           string          `json:"terms,omitempty"`
	IsActive        bool            `json:"is_active"`
	LastRunAt       *time.Time      `json:"last_run_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Version         int             `json:"version"`
}

// ToRecurringProfileResponse maps a recurring profile
func ToRecurringProfileResponse(p *invoicing.RecurringProfile) RecurringProfileResponse {
	return RecurringProfileResponse{
		ID:              p.ID,
		CustomerID:      p.CustomerID,
		CustomerName:    p.CustomerName,
		ProfileName:     p.ProfileName,
		Frequency:       string(p.Frequency),
		StartDate:       NewDate(p.StartDate),
		EndDate:         DatePtr(p.EndDate),
		NextInvoiceDate: NewDate(p.NextInvoiceDate),
		Currency:        p.Currency.String(),
		Subtotal:        p.Subtotal,
		TaxAmount:       p.TaxAmount,
		TotalAmount:     p.TotalAmount,
		Notes:           p.Notes,
		Terms:           p.Terms,
		IsActive:        p.IsActive,
		LastRunAt:       p.LastRunAt,
		CreatedAt:       p.CreatedAt,
		Version:         p.Version,
	}
}

// ToRecurringProfileResponses maps recurring profiles
func ToRecurringProfileResponses(profiles []invoicing.RecurringProfile) []RecurringProfileResponse {
	out := make([]RecurringProfileResponse, len(profiles))
	for i := range profiles {
		out[i] = ToRecurringProfileResponse(&profiles[i])
	}
	return out
}

// ActivityResponse is one activity feed entry
type ActivityResponse struct {
	ID        uuid.UUID  `json:"id"`
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
	QuoteID   *uuid.UUID `json:"quote_id,omitempty"`
	Action    string     `json:"action"`
	Details   string     `json:"details,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToActivityResponses maps activity entries
func ToActivityResponses(logs []activity.Log) []ActivityResponse {
	out := make([]ActivityResponse, len(logs))
	for i, l := range logs {
		out[i] = ActivityResponse{
			ID:        l.ID,
			InvoiceID: l.InvoiceID,
			QuoteID:   l.QuoteID,
			Action:    string(l.Action),
			Details:   l.Details,
			UserID:    l.UserID,
			CreatedAt: l.CreatedAt,
		}
	}
	return out
}

// NotificationListQuery filters GET /notifications
type NotificationListQuery struct {
	ListQuery
	UnreadOnly bool `form:"unread_only"`
}

// MarkNotificationsReadRequest is the body of POST /notifications/read
type MarkNotificationsReadRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// NotificationResponse is one in-app notification
type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ToNotificationResponses maps notifications
func ToNotificationResponses(items []activity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(items))
	for i, n := range items {
		out[i] = NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	}
	return out
}

// optionalUUID parses a query parameter already checked by the uuid binding rule
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
