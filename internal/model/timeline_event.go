// internal/model/timeline_event.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventType is the closed set of timeline event kinds. Each type has a fixed
// metadata shape (see Metadata) so consumers can pattern-match exhaustively.
type EventType string

const (
	EventCreation   EventType = "criacao"
	EventAssignment EventType = "atribuicao"    // {responsavel:{id,nome}}
	EventStatus     EventType = "status"        // {statusAnterior,status}
	EventComment    EventType = "comentario"    // {texto}
	EventTime       EventType = "tempo"         // {tempo,descricao}
	EventFile       EventType = "arquivo"       // {arquivo:{nome,url}}
	EventClosing    EventType = "fechamento"    // {statusAnterior,status,motivo}
	EventTransfer   EventType = "transferencia" // {de:{id,nome},para:{id,nome},texto}
	EventRejection  EventType = "rejeicao"      // {statusAnterior,status,motivo}
	EventReopening  EventType = "reabertura"    // {statusAnterior,status,motivo}
)

// Metadata is the event-type-specific payload, stored as a JSON column.
type Metadata map[string]any

// Scan implements the sql.Scanner interface.
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan, storing driver.Value type %T into type %T", value, m)
	}

	return json.Unmarshal(raw, m)
}

// Value implements the driver.Valuer interface.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// TimelineEvent is an immutable fact about one lifecycle action on a service
// order. Events are appended in the same transaction as the action they
// record and are never updated or deleted; corrections are modeled as new
// compensating events.
type TimelineEvent struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceOrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"service_order_id"`
	ActorID        uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`
	Type           EventType `gorm:"type:text;not null" json:"type"`
	Description    string    `gorm:"type:text" json:"description"`
	Metadata       Metadata  `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (e *TimelineEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// UserRef is the {id,nome} shape embedded in assignment and transfer
// metadata.
type UserRef struct {
	ID   uuid.UUID `json:"id"`
	Nome string    `json:"nome"`
}

// Ref converts a user into the metadata shape.
func Ref(u *User) map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{"id": u.ID.String(), "nome": u.Name}
}
