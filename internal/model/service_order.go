// internal/model/service_order.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the closed set of service-order states. The wire values are kept
// as the product's original Portuguese vocabulary because clients and stored
// rows depend on them.
type Status string

const (
	StatusPending    Status = "pendente"
	StatusInProgress Status = "em_andamento"
	// StatusCompleted is recorded when an order is closed on or before its
	// scheduled date; StatusClosedLate when the scheduled date had already
	// passed. The engine picks between the two, never the caller.
	StatusCompleted  Status = "concluida"
	StatusClosedLate Status = "encerrada"
	StatusRejected   Status = "reprovada"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusClosedLate, StatusRejected:
		return true
	}
	return false
}

// Closed reports whether the status is one of the two terminal closing states.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusClosedLate
}

type Priority string

const (
	PriorityLow    Priority = "baixa"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ServiceOrder is the central work item. Transfer history is not embedded
// here; it is derived from timeline events of type "transferencia" so there is
// a single source of truth.
type ServiceOrder struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	Title          string     `gorm:"type:text;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Status         Status     `gorm:"type:text;not null;default:'pendente'" json:"status"`
	Priority       Priority   `gorm:"type:text;not null;default:'media'" json:"priority"`
	AssignedToID   *uuid.UUID `gorm:"type:uuid;index" json:"assigned_to_id"`
	AssignedByID   uuid.UUID  `gorm:"type:uuid;not null" json:"assigned_by_id"`
	CustomerID     *uuid.UUID `gorm:"type:uuid" json:"customer_id"`
	ScheduledDate  *time.Time `json:"scheduled_date"`
	ClosingReason  string     `gorm:"type:text" json:"closing_reason"`
	ReopenReason   string     `gorm:"type:text" json:"reopen_reason"`
	// ClosedAt is stamped the first time the order reaches a closed state and
	// kept on reopen for audit.
	ClosedAt *time.Time `json:"closed_at"`
	// Version guards concurrent read-modify-write cycles; a stale update is
	// rejected with a retryable conflict instead of silently lost.
	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AssignedTo *User     `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Customer   *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL" json:"customer,omitempty"`
}

func (o *ServiceOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
