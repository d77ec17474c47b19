// internal/service/customer.go
package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/osfield/osfield/internal/authz"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/repository"
)

// CustomerService manages an organization's customers. All operations are
// management-gated (owner, manager or platform admin).
type CustomerService struct {
	repos    *repository.Repositories
	validate *validator.Validate
}

func NewCustomerService(repos *repository.Repositories) *CustomerService {
	return &CustomerService{
		repos:    repos,
		validate: validator.New(),
	}
}

func (s *CustomerService) List(ctx context.Context, actor *model.User) ([]*model.Customer, error) {
	if actor == nil {
		return nil, domain.Denied(domain.ReasonNotAuthenticated, "authentication required")
	}
	if err := authz.CanManageOrg(actor, actor.OrganizationID); err != nil {
		return nil, err
	}
	return s.repos.Customers.FindByOrganization(ctx, actor.OrganizationID)
}

type CustomerInput struct {
	Name     string `json:"name" validate:"required"`
	Document string `json:"document" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (s *CustomerService) Create(ctx context.Context, actor *model.User, input CustomerInput) (*model.Customer, error) {
	if actor == nil {
		return nil, domain.Denied(domain.ReasonNotAuthenticated, "authentication required")
	}
	if err := authz.CanManageOrg(actor, actor.OrganizationID); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	customer := &model.Customer{
		OrganizationID: actor.OrganizationID,
		Name:           input.Name,
		Document:       input.Document,
		Email:          input.Email,
		Phone:          input.Phone,
		Address:        input.Address,
		Active:         true,
	}
	if err := s.repos.Customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Customer, error) {
	customer, err := s.repos.Customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanManageOrg(actor, customer.OrganizationID); err != nil {
		return nil, err
	}
	return customer, nil
}

type UpdateCustomerInput struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (s *CustomerService) Update(ctx context.Context, actor *model.User, id uuid.UUID, input UpdateCustomerInput) (*model.Customer, error) {
	customer, err := s.repos.Customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanManageOrg(actor, customer.OrganizationID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		customer.Name = *input.Name
	}
	if input.Email != nil {
		customer.Email = *input.Email
	}
	if input.Phone != nil {
		customer.Phone = *input.Phone
	}
	if input.Address != nil {
		customer.Address = *input.Address
	}

	if err := s.repos.Customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Deactivate soft-deletes a customer; existing orders keep their reference.
func (s *CustomerService) Deactivate(ctx context.Context, actor *model.User, id uuid.UUID) error {
	customer, err := s.repos.Customers.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanManageOrg(actor, customer.OrganizationID); err != nil {
		return err
	}

	customer.Active = false
	return s.repos.Customers.Update(ctx, customer)
}
