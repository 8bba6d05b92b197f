package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/partner"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/domain/shared/valueobject"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo    partner.CustomerRepository
	defaultCurrency valueobject.Currency
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository) *CustomerService {
	return &CustomerService{
		customerRepo:    customerRepo,
		defaultCurrency: valueobject.DefaultCurrency,
	}
}

// SetDefaultCurrency sets the currency of customers created without one
func (s *CustomerService) SetDefaultCurrency(cur valueobject.Currency) {
	s.defaultCurrency = cur
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	cur := s.defaultCurrency
	if req.Currency != "" {
		parsed, err := valueobject.ParseCurrency(req.Currency)
		if err != nil {
			return nil, shared.NewValidationError("%s", err.Error())
		}
		cur = parsed
	}

	customer, err := partner.NewCustomer(tenantID, req.DisplayName, cur)
	if err != nil {
		return nil, err
	}
	if req.CompanyName != "" {
		if err := customer.Rename(customer.DisplayName, req.CompanyName); err != nil {
			return nil, err
		}
	}
	if req.Email != "" || req.Phone != "" {
		if err := customer.SetContact(req.Email, req.Phone); err != nil {
			return nil, err
		}
	}
	if req.BillingAddress != "" {
		customer.SetBillingAddress(req.BillingAddress)
	}
	customer.Notes = req.Notes
	customer.SetCreatedBy(userID)

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves a page of customers
func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, filter CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}.Normalize()

	customers, total, err := s.customerRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToCustomerResponses(customers), total, f.Page, f.PageSize)
	return &page, nil
}

// Update updates a customer. Existing documents keep the name they were issued with.
func (s *CustomerService) Update(ctx context.Context, tenantID, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil || req.CompanyName != nil {
		displayName := customer.DisplayName
		if req.DisplayName != nil {
			displayName = *req.DisplayName
		}
		companyName := customer.CompanyName
		if req.CompanyName != nil {
			companyName = *req.CompanyName
		}
		if err := customer.Rename(displayName, companyName); err != nil {
			return nil, err
		}
	}

	if req.Email != nil || req.Phone != nil {
		email := customer.Email
		if req.Email != nil {
			email = *req.Email
		}
		phone := customer.Phone
		if req.Phone != nil {
			phone = *req.Phone
		}
		if err := customer.SetContact(email, phone); err != nil {
			return nil, err
		}
	}

	if req.BillingAddress != nil {
		customer.SetBillingAddress(*req.BillingAddress)
	}
	if req.Notes != nil {
		customer.Notes = *req.Notes
		customer.Touch()
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// Delete deletes a customer that no document or billable record references
func (s *CustomerService) Delete(ctx context.Context, tenantID, customerID uuid.UUID) error {
	if _, err := s.customerRepo.FindByID(ctx, tenantID, customerID); err != nil {
		return err
	}

	referenced, err := s.customerRepo.IsReferenced(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	if referenced {
		return shared.NewConflictError("customer has invoices, quotes, payments or billable records and cannot be deleted")
	}

	return s.customerRepo.Delete(ctx, tenantID, customerID)
}
