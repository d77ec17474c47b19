// internal/service/team.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/osfield/osfield/internal/authz"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/email"
	"github.com/osfield/osfield/internal/email/mailer"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/repository"
)

// TeamService manages an organization's members. Members are deactivated,
// never hard-deleted, so timeline events keep resolving their actors.
type TeamService struct {
	repos    *repository.Repositories
	hasher   PasswordHasher
	mail     *email.Service
	baseURL  string
	validate *validator.Validate
}

// PasswordHasher is the subset of the auth hasher the team service needs.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

func NewTeamService(repos *repository.Repositories, hasher PasswordHasher, mail *email.Service, baseURL string) *TeamService {
	return &TeamService{
		repos:    repos,
		hasher:   hasher,
		mail:     mail,
		baseURL:  baseURL,
		validate: validator.New(),
	}
}

// List returns the actor's organization members. Management-only.
func (s *TeamService) List(ctx context.Context, actor *model.User) ([]*model.User, error) {
	if actor == nil {
		return nil, domain.Denied(domain.ReasonNotAuthenticated, "authentication required")
	}
	if err := authz.CanManageOrg(actor, actor.OrganizationID); err != nil {
		return nil, err
	}
	return s.repos.Users.FindByOrganization(ctx, actor.OrganizationID)
}

type AddMemberInput struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Role         string `json:"role" validate:"required"`
	SeeAllOrders bool   `json:"see_all_orders"`
}

// Add creates a member in the actor's organization and sends an invite
// email. Owner and admin accounts cannot be created through this path.
func (s *TeamService) Add(ctx context.Context, actor *model.User, input AddMemberInput) (*model.User, error) {
	if actor == nil {
		return nil, domain.Denied(domain.ReasonNotAuthenticated, "authentication required")
	}
	if err := authz.CanManageOrg(actor, actor.OrganizationID); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	role := model.Role(input.Role)
	switch role {
	case model.RoleManager, model.RoleTechnician, model.RoleAssistant:
	default:
		return nil, domain.ErrInvalidRole
	}

	taken, err := s.repos.Users.EmailTaken(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		OrganizationID: actor.OrganizationID,
		Name:           input.Name,
		Email:          input.Email,
		PasswordHash:   hash,
		Role:           role,
		SeeAllOrders:   input.SeeAllOrders,
		Active:         true,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	// The invite is best effort: a mail outage must not undo the member.
	if s.mail != nil {
		org, err := s.repos.Orgs.FindByID(ctx, actor.OrganizationID)
		orgName := ""
		if err == nil {
			orgName = org.Name
		}
		if err := mailer.SendTeamInvite(s.mail, user.Email, user.Name, orgName, s.baseURL); err != nil {
			slog.WarnContext(ctx, "failed to send invite email", "error", err, "email", user.Email)
		}
	}

	return user, nil
}

type UpdateMemberInput struct {
	Name         *string `json:"name"`
	Role         *string `json:"role"`
	SeeAllOrders *bool   `json:"see_all_orders"`
}

// Update edits a member record. The protected-subject rule applies: owner
// records are only touchable by a platform admin.
func (s *TeamService) Update(ctx context.Context, actor *model.User, id uuid.UUID, input UpdateMemberInput) (*model.User, error) {
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanModifyUser(actor, user); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		user.Name = *input.Name
	}
	if input.Role != nil {
		role := model.Role(*input.Role)
		switch role {
		case model.RoleManager, model.RoleTechnician, model.RoleAssistant:
			user.Role = role
		default:
			return nil, domain.ErrInvalidRole
		}
	}
	if input.SeeAllOrders != nil {
		user.SeeAllOrders = *input.SeeAllOrders
	}

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate soft-deletes a member.
func (s *TeamService) Deactivate(ctx context.Context, actor *model.User, id uuid.UUID) error {
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanModifyUser(actor, user); err != nil {
		return err
	}

	user.Active = false
	return s.repos.Users.Update(ctx, user)
}
