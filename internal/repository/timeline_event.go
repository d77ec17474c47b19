// internal/repository/timeline_event.go
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/osfield/osfield/internal/model"
)

// TimelineEventRepository is append-only by contract: there is no update and
// no delete. Corrections are recorded as new compensating events.
type TimelineEventRepository struct {
	db *gorm.DB
}

func NewTimelineEventRepository(db *gorm.DB) *TimelineEventRepository {
	return &TimelineEventRepository{db: db}
}

func (r *TimelineEventRepository) Append(ctx context.Context, event *model.TimelineEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("appending timeline event: %w", err)
	}
	return nil
}

// ListByOrder returns the order's events newest first. No events is an empty
// slice, not an error.
func (r *TimelineEventRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.TimelineEvent, error) {
	events := []*model.TimelineEvent{}
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("service_order_id = ?", orderID).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("listing timeline events: %w", err)
	}
	return events, nil
}

// ListByOrderAndType returns matching events oldest first, which is the
// natural order for reconstructing transfer history.
func (r *TimelineEventRepository) ListByOrderAndType(ctx context.Context, orderID uuid.UUID, eventType model.EventType) ([]*model.TimelineEvent, error) {
	events := []*model.TimelineEvent{}
	err := r.db.WithContext(ctx).
		Where("service_order_id = ? AND type = ?", orderID, eventType).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("listing timeline events by type: %w", err)
	}
	return events, nil
}
