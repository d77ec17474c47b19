// internal/service/timeline.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osfield/osfield/internal/authz"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/repository"
)

// TimelineService is the read side of the event log plus the append paths
// that are not status transitions: comments, time entries and attachments.
// Anyone who can read an order can read its timeline and comment on it.
type TimelineService struct {
	repos *repository.Repositories
}

func NewTimelineService(repos *repository.Repositories) *TimelineService {
	return &TimelineService{repos: repos}
}

// List returns the order's events newest first; an order without events
// yields an empty list, not an error.
func (s *TimelineService) List(ctx context.Context, actor *model.User, orderID uuid.UUID) ([]*model.TimelineEvent, error) {
	if _, err := s.readableOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.repos.Events.ListByOrder(ctx, orderID)
}

// TransferRecord is one reassignment, reconstructed from a "transferencia"
// event. From is nil when the order had no assignee before the transfer.
type TransferRecord struct {
	Date   time.Time      `json:"date"`
	From   *model.UserRef `json:"from,omitempty"`
	To     model.UserRef  `json:"to"`
	Reason string         `json:"reason"`
}

// TransferHistory derives the order's reassignment history from the event
// log, oldest first. There is no embedded copy on the order row; the event
// log is the single source of truth.
func (s *TimelineService) TransferHistory(ctx context.Context, actor *model.User, orderID uuid.UUID) ([]TransferRecord, error) {
	if _, err := s.readableOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}

	events, err := s.repos.Events.ListByOrderAndType(ctx, orderID, model.EventTransfer)
	if err != nil {
		return nil, err
	}

	records := make([]TransferRecord, 0, len(events))
	for _, event := range events {
		record := TransferRecord{Date: event.CreatedAt}
		if text, ok := event.Metadata["texto"].(string); ok {
			record.Reason = text
		}
		record.From = userRef(event.Metadata["de"])
		if to := userRef(event.Metadata["para"]); to != nil {
			record.To = *to
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *TimelineService) AddComment(ctx context.Context, actor *model.User, orderID uuid.UUID, text string) (*model.TimelineEvent, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: comment text required", domain.ErrInvalidInput)
	}
	return s.append(ctx, actor, orderID, &model.TimelineEvent{
		Type:        model.EventComment,
		Description: "Comentário adicionado",
		Metadata:    model.Metadata{"texto": text},
	})
}

// AddTimeEntry records worked minutes against the order.
func (s *TimelineService) AddTimeEntry(ctx context.Context, actor *model.User, orderID uuid.UUID, minutes int, description string) (*model.TimelineEvent, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: time entry must be positive", domain.ErrInvalidInput)
	}
	return s.append(ctx, actor, orderID, &model.TimelineEvent{
		Type:        model.EventTime,
		Description: fmt.Sprintf("Tempo registrado: %d min", minutes),
		Metadata:    model.Metadata{"tempo": minutes, "descricao": description},
	})
}

func (s *TimelineService) AddAttachment(ctx context.Context, actor *model.User, orderID uuid.UUID, name, url string) (*model.TimelineEvent, error) {
	if name == "" || url == "" {
		return nil, fmt.Errorf("%w: attachment name and url required", domain.ErrInvalidInput)
	}
	return s.append(ctx, actor, orderID, &model.TimelineEvent{
		Type:        model.EventFile,
		Description: fmt.Sprintf("Arquivo anexado: %s", name),
		Metadata:    model.Metadata{"arquivo": map[string]any{"nome": name, "url": url}},
	})
}

// BillingSummary totals the minutes recorded in "tempo" events.
type BillingSummary struct {
	ServiceOrderID uuid.UUID `json:"service_order_id"`
	TotalMinutes   int       `json:"total_minutes"`
	Entries        int       `json:"entries"`
}

func (s *TimelineService) Billing(ctx context.Context, actor *model.User, orderID uuid.UUID) (*BillingSummary, error) {
	if _, err := s.readableOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}

	events, err := s.repos.Events.ListByOrderAndType(ctx, orderID, model.EventTime)
	if err != nil {
		return nil, err
	}

	summary := &BillingSummary{ServiceOrderID: orderID, Entries: len(events)}
	for _, event := range events {
		// JSON round-trips numbers as float64.
		switch v := event.Metadata["tempo"].(type) {
		case float64:
			summary.TotalMinutes += int(v)
		case int:
			summary.TotalMinutes += v
		}
	}
	return summary, nil
}

func (s *TimelineService) append(ctx context.Context, actor *model.User, orderID uuid.UUID, event *model.TimelineEvent) (*model.TimelineEvent, error) {
	if _, err := s.readableOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}

	event.ServiceOrderID = orderID
	event.ActorID = actor.ID
	if err := s.repos.Events.Append(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *TimelineService) readableOrder(ctx context.Context, actor *model.User, orderID uuid.UUID) (*model.ServiceOrder, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccessOrder(actor, order, authz.OpRead); err != nil {
		return nil, err
	}
	return order, nil
}

// userRef decodes the {id,nome} shape out of event metadata, tolerating both
// in-memory maps and values that round-tripped through the JSON column.
func userRef(value any) *model.UserRef {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	var ref model.UserRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil
	}
	if ref.ID == uuid.Nil {
		return nil
	}
	return &ref
}
