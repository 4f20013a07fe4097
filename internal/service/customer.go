package service

import (
	"context"
	"time"

	"github.com/finvoice/finvoice/internal/api/dto"
	"github.com/finvoice/finvoice/internal/cache"
	"github.com/finvoice/finvoice/internal/domain/customer"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, req *dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error)
	UpdateCustomer(ctx context.Context, id string, req *dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id string) error
	ListCustomers(ctx context.Context, filter *customer.CustomerFilter) (*dto.ListCustomersResponse, error)
}

type customerService struct {
	ServiceParams
}

func NewCustomerService(params ServiceParams) CustomerService {
	return &customerService{ServiceParams: params}
}

func (s *customerService) CreateCustomer(ctx context.Context, req *dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := req.ToCustomer(ctx)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.CustomerRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.Logger.Infow("created customer", "customer_id", c.ID, "user_id", c.UserID)
	return &dto.CustomerResponse{Customer: c}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	c, err := s.CustomerRepo.Get(ctx, types.GetUserID(ctx), id)
	if err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: c}, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, req *dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	c, err := s.CustomerRepo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Address != nil {
		c.Address = *req.Address
	}
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = userID

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.CustomerRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: c}, nil
}

// DeleteCustomer removes a customer. Customers with invoices cannot be
// deleted; the invoices have to go first. The row lock is held across the
// check and the delete, and invoice creation takes the same lock, so an
// invoice created at the same time cannot slip past the guard.
func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	userID := types.GetUserID(ctx)
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.CustomerRepo.GetForUpdate(ctx, userID, id); err != nil {
			return err
		}

		count, err := s.InvoiceRepo.CountByCustomer(ctx, userID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ierr.NewError("customer has invoices").
				WithHint("Cannot delete a customer that has invoices").
				WithReportableDetails(map[string]any{"invoice_count": count}).
				Mark(ierr.ErrConflict)
		}

		return s.CustomerRepo.Delete(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	s.Logger.Infow("deleted customer", "customer_id", id, "user_id", userID)
	return nil
}

func (s *customerService) ListCustomers(ctx context.Context, filter *customer.CustomerFilter) (*dto.ListCustomersResponse, error) {
	if filter == nil {
		filter = &customer.CustomerFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	customers, err := s.CustomerRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.CustomerRepo.Count(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListCustomersResponse{
		Items: make([]*dto.CustomerResponse, len(customers)),
	}
	for i, c := range customers {
		resp.Items[i] = &dto.CustomerResponse{Customer: c}
	}
	resp.Pagination = types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset())
	return resp, nil
}

func (s *customerService) invalidateDashboard(ctx context.Context) {
	if s.Cache != nil {
		s.Cache.DeleteByPrefix(ctx, cache.GenerateKey(cache.PrefixDashboard, types.GetUserID(ctx)))
	}
}
