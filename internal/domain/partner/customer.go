package partner

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
)

// Customer is a billable party of a tenant
type Customer struct {
	shared.TenantAggregateRoot
	DisplayName    string
	CompanyName    string
	Email          string
	Phone          string
	BillingAddress string
	Currency       valueobject.Currency
	Notes          string
}

// NewCustomer creates a customer billed in cur
func NewCustomer(tenantID uuid.UUID, displayName string, cur valueobject.Currency) (*Customer, error) {
	displayName = strings.TrimSpace(displayName)
	if err := validateDisplayName(displayName); err != nil {
		return nil, err
	}
	if !cur.IsValid() {
		return nil, shared.NewValidationError("invalid currency %q", cur)
	}
	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DisplayName:         displayName,
		Currency:            cur,
	}, nil
}

// Rename changes the display and company names
func (c *Customer) Rename(displayName, companyName string) error {
	displayName = strings.TrimSpace(displayName)
	if err := validateDisplayName(displayName); err != nil {
		return err
	}
	c.DisplayName = displayName
	c.CompanyName = strings.TrimSpace(companyName)
	c.Touch()
	return nil
}

// SetContact sets email and phone; empty values clear them
func (c *Customer) SetContact(email, phone string) error {
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	c.Email = email
	c.Phone = phone
	c.Touch()
	return nil
}

// SetBillingAddress sets the free-form billing address
func (c *Customer) SetBillingAddress(address string) {
	c.BillingAddress = address
	c.Touch()
}

func validateDisplayName(name string) error {
	if name == "" {
		return shared.NewValidationError("customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("customer name cannot exceed 200 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewValidationError("phone number cannot exceed 50 characters")
	}
	if !phoneRegex.MatchString(phone) {
		return shared.NewValidationError("invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewValidationError("email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewValidationError("invalid email format")
	}
	return nil
}
