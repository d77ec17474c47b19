// internal/service/transfer.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/osfield/osfield/internal/authz"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/repository"
)

type TransferInput struct {
	AssignedToID uuid.UUID `json:"assignedToId"`
	Reason       string    `json:"reason"`
}

// Transfer reassigns an order to another team member. Preconditions are
// checked in a fixed order and the first failure wins: write authorization,
// valid target (active, same organization), target differs from the current
// assignee, non-empty reason. A transfer to the current assignee is rejected
// rather than silently accepted.
//
// The assignee change and the "transferencia" timeline event commit
// atomically; provenance lives only in the event log and transfer history is
// derived from it.
func (s *OrderService) Transfer(ctx context.Context, actor *model.User, orderID uuid.UUID, input TransferInput) (*model.ServiceOrder, error) {
	var updated *model.ServiceOrder
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := authz.CanAccessOrder(actor, order, authz.OpTransfer); err != nil {
			return err
		}

		if input.AssignedToID == uuid.Nil {
			return domain.ErrAssigneeInvalid
		}
		target, err := lookupAssignee(ctx, tx, order.OrganizationID, input.AssignedToID)
		if err != nil {
			return err
		}

		if order.AssignedToID != nil && *order.AssignedToID == target.ID {
			return domain.ErrSameAssignee
		}

		if input.Reason == "" {
			return domain.ErrTransferReasonRequired
		}

		previous := order.AssignedTo
		if previous == nil && order.AssignedToID != nil {
			previous, err = tx.Users.FindByID(ctx, *order.AssignedToID)
			if err != nil {
				return err
			}
		}

		order.AssignedToID = &target.ID
		order.AssignedByID = actor.ID
		if err := tx.Orders.UpdateVersioned(ctx, order); err != nil {
			return err
		}
		order.AssignedTo = target

		metadata := model.Metadata{
			"de":    model.Ref(previous),
			"para":  model.Ref(target),
			"texto": input.Reason,
		}

		description := fmt.Sprintf("Transferida para %s", target.Name)
		if previous != nil {
			description = fmt.Sprintf("Transferida de %s para %s", previous.Name, target.Name)
		}

		event := &model.TimelineEvent{
			ServiceOrderID: order.ID,
			ActorID:        actor.ID,
			Type:           model.EventTransfer,
			Description:    description,
			Metadata:       metadata,
		}
		if err := tx.Events.Append(ctx, event); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
