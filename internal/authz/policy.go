// internal/authz/policy.go

// Package authz decides whether an authenticated user may perform an
// operation on an organization-scoped resource. Decisions are pure functions
// over the resolved user and the target resource; they never touch the
// database. Rules are evaluated in a fixed order and the first failure wins:
//
//  1. the platform admin is always allowed;
//  2. the resource's organization must match the user's, regardless of role;
//  3. a per-operation role gate, with an assignee carve-out for order
//     read/edit/status/transfer;
//  4. an owner user record is modifiable only by a platform admin.
//
// Every denial carries a stable reason code so handlers can map it to a
// distinct response without string-matching the message.
package authz

import (
	"github.com/google/uuid"

	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
)

// Operation classifies what the caller is trying to do to a service order.
type Operation string

const (
	OpRead     Operation = "read"
	OpEdit     Operation = "edit"
	OpStatus   Operation = "status"
	OpTransfer Operation = "transfer"
	OpDelete   Operation = "delete"
)

// CanAccessOrder authorizes an operation on a service order.
func CanAccessOrder(user *model.User, order *model.ServiceOrder, op Operation) error {
	if user == nil {
		return domain.Denied(domain.ReasonNotAuthenticated, "authentication required")
	}
	if user.Role == model.RoleAdmin {
		return nil
	}
	if order.OrganizationID != user.OrganizationID {
		return domain.Denied(domain.ReasonWrongOrganization, "service order belongs to another organization")
	}

	switch user.Role {
	case model.RoleOwner, model.RoleManager:
		return nil
	case model.RoleTechnician, model.RoleAssistant:
		assigned := order.AssignedToID != nil && *order.AssignedToID == user.ID
		switch op {
		case OpRead:
			if user.SeeAllOrders || assigned {
				return nil
			}
		case OpEdit, OpStatus, OpTransfer:
			if assigned {
				return nil
			}
		case OpDelete:
			// Never the assignee alone.
		}
		return domain.Denied(domain.ReasonInsufficientRole, "role does not permit this operation")
	case model.RoleAdmin:
		return nil
	}

	return domain.Denied(domain.ReasonInsufficientRole, "unknown role")
}

// CanManageOrg authorizes team and customer management plus order creation
// inside an organization: owner, manager or platform admin only.
func CanManageOrg(user *model.User, orgID uuid.UUID) error {
	if user == nil {
		return domain.Denied(domain.ReasonNotAuthenticated, "authentication required")
	}
	if user.Role == model.RoleAdmin {
		return nil
	}
	if orgID != user.OrganizationID {
		return domain.Denied(domain.ReasonWrongOrganization, "resource belongs to another organization")
	}
	if !user.Role.Manages() {
		return domain.Denied(domain.ReasonInsufficientRole, "role does not permit management operations")
	}
	return nil
}

// CanModifyUser authorizes changes to another user record. An owner record is
// a protected subject: only the platform admin may touch it.
func CanModifyUser(actor, subject *model.User) error {
	if actor == nil {
		return domain.Denied(domain.ReasonNotAuthenticated, "authentication required")
	}
	if actor.Role == model.RoleAdmin {
		return nil
	}
	if subject.OrganizationID != actor.OrganizationID {
		return domain.Denied(domain.ReasonWrongOrganization, "user belongs to another organization")
	}
	if !actor.Role.Manages() {
		return domain.Denied(domain.ReasonInsufficientRole, "role does not permit team management")
	}
	if subject.Role == model.RoleOwner {
		return domain.Denied(domain.ReasonProtectedSubject, "owner accounts can only be changed by a platform admin")
	}
	return nil
}
