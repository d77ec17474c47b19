// internal/service/order.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/osfield/osfield/internal/authz"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/repository"
)

// OrderService owns the service-order lifecycle: creation, general edits,
// the status state machine and (in transfer.go) the transfer workflow. Every
// mutation and the timeline event that records it commit in one transaction.
type OrderService struct {
	repos    *repository.Repositories
	validate *validator.Validate
}

func NewOrderService(repos *repository.Repositories) *OrderService {
	return &OrderService{
		repos:    repos,
		validate: validator.New(),
	}
}

type CreateOrderInput struct {
	Title         string     `json:"title" validate:"required"`
	Description   string     `json:"description"`
	Priority      string     `json:"priority"`
	CustomerID    *uuid.UUID `json:"customer_id"`
	AssignedToID  *uuid.UUID `json:"assigned_to_id"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	// OrganizationID is honored only when the caller is a platform admin;
	// everyone else creates orders in their own organization.
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// Create opens a new order in status "pendente" and records the creation
// event, plus an assignment event when the order is pre-assigned.
func (s *OrderService) Create(ctx context.Context, actor *model.User, input CreateOrderInput) (*model.ServiceOrder, error) {
	if actor == nil {
		return nil, domain.Denied(domain.ReasonNotAuthenticated, "authentication required")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	orgID := actor.OrganizationID
	if input.OrganizationID != nil && actor.Role == model.RoleAdmin {
		orgID = *input.OrganizationID
	}

	if err := authz.CanManageOrg(actor, orgID); err != nil {
		return nil, err
	}

	priority := model.PriorityMedium
	if input.Priority != "" {
		priority = model.Priority(input.Priority)
		if !priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, input.Priority)
		}
	}

	if input.CustomerID != nil {
		customer, err := s.repos.Customers.FindByID(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer.OrganizationID != orgID {
			return nil, domain.ErrCustomerOtherOrg
		}
	}

	var assignee *model.User
	if input.AssignedToID != nil {
		var err error
		assignee, err = s.lookupAssignee(ctx, orgID, *input.AssignedToID)
		if err != nil {
			return nil, err
		}
	}

	order := &model.ServiceOrder{
		OrganizationID: orgID,
		Title:          input.Title,
		Description:    input.Description,
		Status:         model.StatusPending,
		Priority:       priority,
		AssignedToID:   input.AssignedToID,
		AssignedByID:   actor.ID,
		CustomerID:     input.CustomerID,
		ScheduledDate:  input.ScheduledDate,
	}

	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}

		creation := &model.TimelineEvent{
			ServiceOrderID: order.ID,
			ActorID:        actor.ID,
			Type:           model.EventCreation,
			Description:    fmt.Sprintf("Ordem de serviço criada: %s", order.Title),
		}
		if err := tx.Events.Append(ctx, creation); err != nil {
			return err
		}

		if assignee != nil {
			assignment := &model.TimelineEvent{
				ServiceOrderID: order.ID,
				ActorID:        actor.ID,
				Type:           model.EventAssignment,
				Description:    fmt.Sprintf("Atribuída a %s", assignee.Name),
				Metadata:       model.Metadata{"responsavel": model.Ref(assignee)},
			}
			if err := tx.Events.Append(ctx, assignment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns one order after a read-authorization check.
func (s *OrderService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.ServiceOrder, error) {
	order, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccessOrder(actor, order, authz.OpRead); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns the orders the actor may see. Users without management power
// or the see-all flag only see orders assigned to them.
func (s *OrderService) List(ctx context.Context, actor *model.User, filter repository.OrderFilter) ([]*model.ServiceOrder, error) {
	if actor == nil {
		return nil, domain.Denied(domain.ReasonNotAuthenticated, "authentication required")
	}
	if !actor.Role.Manages() && !actor.SeeAllOrders {
		filter.AssignedToID = &actor.ID
	}
	return s.repos.Orders.FindByOrganization(ctx, actor.OrganizationID, filter)
}

type UpdateOrderInput struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Priority      *string    `json:"priority"`
	CustomerID    *uuid.UUID `json:"customer_id"`
	AssignedToID  *uuid.UUID `json:"assigned_to_id"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

// Update applies a general field edit. The update is all-or-nothing: every
// referenced customer and assignee is validated before any field changes, and
// a concurrent write on the same order fails with a retryable conflict.
// Reassignment through this path is restricted to owner/manager/admin even
// when the caller is the current assignee.
func (s *OrderService) Update(ctx context.Context, actor *model.User, id uuid.UUID, input UpdateOrderInput) (*model.ServiceOrder, error) {
	var updated *model.ServiceOrder
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := authz.CanAccessOrder(actor, order, authz.OpEdit); err != nil {
			return err
		}

		var newAssignee *model.User
		assigneeChanged := false
		if input.AssignedToID != nil {
			current := uuid.Nil
			if order.AssignedToID != nil {
				current = *order.AssignedToID
			}
			if *input.AssignedToID != current {
				if !actor.Role.Manages() {
					return domain.Denied(domain.ReasonInsufficientRole, "only managers may change the assignee")
				}
				newAssignee, err = s.lookupAssigneeTx(ctx, tx, order.OrganizationID, *input.AssignedToID)
				if err != nil {
					return err
				}
				assigneeChanged = true
			}
		}

		if input.Title != nil {
			if *input.Title == "" {
				return fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
			}
			order.Title = *input.Title
		}
		if input.Description != nil {
			order.Description = *input.Description
		}
		if input.Priority != nil {
			priority := model.Priority(*input.Priority)
			if !priority.Valid() {
				return fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, *input.Priority)
			}
			order.Priority = priority
		}
		if input.CustomerID != nil {
			customer, err := tx.Customers.FindByID(ctx, *input.CustomerID)
			if err != nil {
				return err
			}
			if customer.OrganizationID != order.OrganizationID {
				return domain.ErrCustomerOtherOrg
			}
			order.CustomerID = input.CustomerID
		}
		if input.ScheduledDate != nil {
			order.ScheduledDate = input.ScheduledDate
		}
		if assigneeChanged {
			order.AssignedToID = input.AssignedToID
			order.AssignedByID = actor.ID
			order.AssignedTo = newAssignee
		}

		if err := tx.Orders.UpdateVersioned(ctx, order); err != nil {
			return err
		}

		if assigneeChanged {
			event := &model.TimelineEvent{
				ServiceOrderID: order.ID,
				ActorID:        actor.ID,
				Type:           model.EventAssignment,
				Description:    fmt.Sprintf("Atribuída a %s", newAssignee.Name),
				Metadata:       model.Metadata{"responsavel": model.Ref(newAssignee)},
			}
			if err := tx.Events.Append(ctx, event); err != nil {
				return err
			}
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an order. Owner, manager or admin only; the assignee alone
// is never enough.
func (s *OrderService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	order, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanAccessOrder(actor, order, authz.OpDelete); err != nil {
		return err
	}
	return s.repos.Orders.Delete(ctx, id)
}

type UpdateStatusInput struct {
	Status        string `json:"status" validate:"required"`
	ClosingReason string `json:"closingReason"`
	ReopenReason  string `json:"reopenReason"`
}

// UpdateStatus drives the status state machine. Only the transitions below
// are accepted; anything else is rejected before any mutation:
//
//	pendente              -> em_andamento
//	em_andamento          -> concluida | encerrada  (engine decides which)
//	concluida | encerrada -> reprovada              (needs a reason)
//	concluida | encerrada -> pendente               (reopen, needs a reason)
//
// Closing after the scheduled date records "encerrada" instead of
// "concluida" regardless of what the caller asked for. ClosedAt is stamped on
// the first close and deliberately kept on reopen, so it always reflects the
// first closing.
func (s *OrderService) UpdateStatus(ctx context.Context, actor *model.User, id uuid.UUID, input UpdateStatusInput) (*model.ServiceOrder, error) {
	requested := model.Status(input.Status)
	if !requested.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	var updated *model.ServiceOrder
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := authz.CanAccessOrder(actor, order, authz.OpStatus); err != nil {
			return err
		}

		previous := order.Status
		now := time.Now()

		var (
			eventType   model.EventType
			description string
			reason      string
		)

		switch {
		case previous == model.StatusPending && requested == model.StatusInProgress:
			order.Status = model.StatusInProgress
			eventType = model.EventStatus
			description = "Atendimento iniciado"

		case previous == model.StatusInProgress && requested.Closed():
			if input.ClosingReason == "" {
				return domain.ErrClosingReasonRequired
			}
			// The engine, not the caller, picks the terminal status.
			target := model.StatusCompleted
			if order.ScheduledDate != nil && order.ScheduledDate.Before(now) {
				target = model.StatusClosedLate
			}
			order.Status = target
			order.ClosingReason = input.ClosingReason
			if order.ClosedAt == nil {
				order.ClosedAt = &now
			}
			reason = input.ClosingReason
			eventType = model.EventClosing
			description = fmt.Sprintf("Ordem fechada: %s", input.ClosingReason)

		case previous.Closed() && requested == model.StatusRejected:
			if input.ClosingReason == "" {
				return domain.ErrRejectionReasonRequired
			}
			order.Status = model.StatusRejected
			order.ClosingReason = input.ClosingReason
			reason = input.ClosingReason
			eventType = model.EventRejection
			description = fmt.Sprintf("Ordem reprovada: %s", input.ClosingReason)

		case previous.Closed() && requested == model.StatusPending:
			if input.ReopenReason == "" {
				return domain.ErrReopenReasonRequired
			}
			order.Status = model.StatusPending
			order.ReopenReason = input.ReopenReason
			reason = input.ReopenReason
			eventType = model.EventReopening
			description = fmt.Sprintf("Ordem reaberta: %s", input.ReopenReason)

		default:
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, previous, requested)
		}

		if err := tx.Orders.UpdateVersioned(ctx, order); err != nil {
			return err
		}

		metadata := model.Metadata{
			"statusAnterior": string(previous),
			"status":         string(order.Status),
		}
		if reason != "" {
			metadata["motivo"] = reason
		}

		event := &model.TimelineEvent{
			ServiceOrderID: order.ID,
			ActorID:        actor.ID,
			Type:           eventType,
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

// lookupAssignee validates that a prospective assignee exists, is active and
// belongs to the given organization.
func (s *OrderService) lookupAssignee(ctx context.Context, orgID, userID uuid.UUID) (*model.User, error) {
	return lookupAssignee(ctx, s.repos, orgID, userID)
}

func (s *OrderService) lookupAssigneeTx(ctx context.Context, tx *repository.Repositories, orgID, userID uuid.UUID) (*model.User, error) {
	return lookupAssignee(ctx, tx, orgID, userID)
}

func lookupAssignee(ctx context.Context, repos *repository.Repositories, orgID, userID uuid.UUID) (*model.User, error) {
	user, err := repos.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrAssigneeInvalid
		}
		return nil, err
	}
	if !user.Active || user.OrganizationID != orgID {
		return nil, domain.ErrAssigneeInvalid
	}
	return user, nil
}
