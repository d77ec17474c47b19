// internal/repository/service_order.go
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

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *model.ServiceOrder) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("creating service order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error) {
	var order model.ServiceOrder
	err := r.db.WithContext(ctx).
		Preload("AssignedTo").
		Preload("Customer").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("finding service order: %w", err)
	}
	return &order, nil
}

// OrderFilter narrows FindByOrganization. AssignedToID restricts the result
// to one assignee, which is how visibility is enforced for users without the
// see-all flag.
type OrderFilter struct {
	Status       model.Status
	AssignedToID *uuid.UUID
	CustomerID   *uuid.UUID
}

func (r *OrderRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID, filter OrderFilter) ([]*model.ServiceOrder, error) {
	q := r.db.WithContext(ctx).
		Preload("AssignedTo").
		Preload("Customer").
		Where("organization_id = ?", orgID)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}

	var orders []*model.ServiceOrder
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("finding service orders: %w", err)
	}
	return orders, nil
}

// UpdateVersioned persists the order only if nobody else updated it since it
// was read. The row's version must still equal order.Version; on success the
// stored version is bumped and order.Version reflects the new value. A stale
// write returns domain.ErrVersionConflict and changes nothing.
func (r *OrderRepository) UpdateVersioned(ctx context.Context, order *model.ServiceOrder) error {
	previous := order.Version
	order.Version = previous + 1

	result := r.db.WithContext(ctx).
		Model(&model.ServiceOrder{}).
		Where("id = ? AND version = ?", order.ID, previous).
		Select("*").
		Omit("id", "created_at", "AssignedTo", "Customer").
		Updates(order)
	if result.Error != nil {
		order.Version = previous
		return fmt.Errorf("updating service order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		order.Version = previous
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.ServiceOrder{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting service order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
