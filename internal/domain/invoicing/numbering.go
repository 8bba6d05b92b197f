package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DocumentType identifies a numbered document series
type DocumentType string

const (
	DocumentTypeInvoice    DocumentType = "INVOICE"
	DocumentTypeQuote      DocumentType = "QUOTE"
	DocumentTypePayment    DocumentType = "PAYMENT"
	DocumentTypeCreditNote DocumentType = "CREDIT_NOTE"
)

// IsValid checks if the document type is known
func (t DocumentType) IsValid() bool {
	_, ok := documentPrefixes[t]
	return ok
}

// Prefix returns the number prefix, e.g. INV
func (t DocumentType) Prefix() string {
	return documentPrefixes[t]
}

var documentPrefixes = map[DocumentType]string{
	DocumentTypeInvoice:    "INV",
	DocumentTypeQuote:      "QT",
	DocumentTypePayment:    "PAY",
	DocumentTypeCreditNote: "CN",
}

// FormatNumber renders an ordinal as PREFIX-00001. Ordinals above 99999 print in full.
func FormatNumber(t DocumentType, ordinal int64) string {
	return fmt.Sprintf("%s-%05d", t.Prefix(), ordinal)
}

// SequenceAllocator hands out the next ordinal for a (tenant, document type) series.
// Implementations must serialize allocation per key inside the caller's transaction,
// so an aborted transaction releases nothing and two callers never get the same value.
type SequenceAllocator interface {
	NextValue(ctx context.Context, tenantID uuid.UUID, docType DocumentType) (int64, error)
	// PeekValue returns the value the next allocation would return without consuming it
	PeekValue(ctx context.Context, tenantID uuid.UUID, docType DocumentType) (int64, error)
}

// NumberingAuthority formats allocated ordinals into document numbers
type NumberingAuthority struct {
	allocator SequenceAllocator
}

// NewNumberingAuthority creates a numbering authority over an allocator
func NewNumberingAuthority(allocator SequenceAllocator) *NumberingAuthority {
	return &NumberingAuthority{allocator: allocator}
}

// Next allocates and formats the next number in the series
func (n *NumberingAuthority) Next(ctx context.Context, tenantID uuid.UUID, docType DocumentType) (string, error) {
	if !docType.IsValid() {
		return "", fmt.Errorf("unknown document type %q", docType)
	}
	v, err := n.allocator.NextValue(ctx, tenantID, docType)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", docType.Prefix(), err)
	}
	return FormatNumber(docType, v), nil
}
