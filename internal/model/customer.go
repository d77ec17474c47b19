// internal/model/customer.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a client of an organization. Document (tax id) is unique per
// organization, not globally.
type Customer struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_customers_org_document" json:"organization_id"`
	Name           string    `gorm:"type:text;not null" json:"name"`
	Document       string    `gorm:"type:text;not null;uniqueIndex:idx_customers_org_document" json:"document"`
	Email          string    `gorm:"type:text" json:"email"`
	Phone          string    `gorm:"type:text" json:"phone"`
	Address        string    `gorm:"type:text" json:"address"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
