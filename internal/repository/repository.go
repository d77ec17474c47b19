// internal/repository/repository.go
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles every repository over a single gorm handle. Atomic
// lifecycle operations (status change + event append, transfer + event
// append) run through InTx so the state change and its timeline record are
// never observable separately.
type Repositories struct {
	db *gorm.DB

	Users     *UserRepository
	Orgs      *OrganizationRepository
	Customers *CustomerRepository
	Orders    *OrderRepository
	Events    *TimelineEventRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:        db,
		Users:     NewUserRepository(db),
		Orgs:      NewOrganizationRepository(db),
		Customers: NewCustomerRepository(db),
		Orders:    NewOrderRepository(db),
		Events:    NewTimelineEventRepository(db),
	}
}

// InTx runs fn with a repository set bound to one database transaction.
// Returning an error rolls everything back.
func (r *Repositories) InTx(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
