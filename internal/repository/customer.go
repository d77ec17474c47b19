// internal/repository/customer.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a customer after checking the per-organization document
// uniqueness inside one transaction, mirroring the unique index so the caller
// gets a domain error instead of a driver error.
func (r *CustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Customer{}).
			Where("organization_id = ? AND document = ?", customer.OrganizationID, customer.Document).
			Count(&count).Error; err != nil {
			return fmt.Errorf("checking document uniqueness: %w", err)
		}
		if count > 0 {
			return domain.ErrDocumentAlreadyExists
		}

		if err := tx.Create(customer).Error; err != nil {
			return fmt.Errorf("creating customer: %w", err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, domain.ErrDocumentAlreadyExists) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("finding customer: %w", err)
	}
	return &customer, nil
}

func (r *CustomerRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Customer, error) {
	var customers []*model.Customer
	result := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("name ASC").
		Find(&customers)
	if result.Error != nil {
		return nil, fmt.Errorf("finding customers: %w", result.Error)
	}
	return customers, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *model.Customer) error {
	if err := r.db.WithContext(ctx).Save(customer).Error; err != nil {
		return fmt.Errorf("updating customer: %w", err)
	}
	return nil
}
