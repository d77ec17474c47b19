package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osfield/osfield/internal/auth"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/service"
)

func newTeamService(env *testEnv) *service.TeamService {
	return service.NewTeamService(env.repos, auth.NewPasswordHasher(), nil, "http://localhost:8080")
}

func TestTeamAdd(t *testing.T) {
	env := newTestEnv(t)
	svc := newTeamService(env)
	ctx := context.Background()

	t.Run("manager adds a technician", func(t *testing.T) {
		member, err := svc.Add(ctx, env.manager, service.AddMemberInput{
			Name:     "Novo Técnico",
			Email:    "novo@oficina.example",
			Password: "senha-segura",
			Role:     string(model.RoleTechnician),
		})
		require.NoError(t, err)
		assert.Equal(t, env.org.ID, member.OrganizationID)
		assert.Equal(t, model.RoleTechnician, member.Role)
		assert.True(t, member.Active)
		assert.NotEqual(t, "senha-segura", member.PasswordHash)
	})

	t.Run("owner and admin roles cannot be handed out", func(t *testing.T) {
		for _, role := range []model.Role{model.RoleOwner, model.RoleAdmin} {
			_, err := svc.Add(ctx, env.manager, service.AddMemberInput{
				Name:     "Pretendente",
				Email:    "pretendente@oficina.example",
				Password: "senha-segura",
				Role:     string(role),
			})
			assert.ErrorIs(t, err, domain.ErrInvalidRole, "role %s", role)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := svc.Add(ctx, env.manager, service.AddMemberInput{
			Name:     "Duplicado",
			Email:    env.techA.Email,
			Password: "senha-segura",
			Role:     string(model.RoleTechnician),
		})
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})

	t.Run("technician cannot manage the team", func(t *testing.T) {
		_, err := svc.Add(ctx, env.techA, service.AddMemberInput{
			Name:     "Colega",
			Email:    "colega@oficina.example",
			Password: "senha-segura",
			Role:     string(model.RoleTechnician),
		})
		var denied *domain.AccessDenied
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.ReasonInsufficientRole, denied.Reason)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		_, err := svc.Add(ctx, env.manager, service.AddMemberInput{
			Name:     "Fraca",
			Email:    "fraca@oficina.example",
			Password: "curta",
			Role:     string(model.RoleTechnician),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestTeamUpdateAndDeactivate(t *testing.T) {
	env := newTestEnv(t)
	svc := newTeamService(env)
	ctx := context.Background()

	t.Run("manager promotes a technician", func(t *testing.T) {
		role := string(model.RoleManager)
		updated, err := svc.Update(ctx, env.manager, env.techA.ID, service.UpdateMemberInput{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, model.RoleManager, updated.Role)
	})

	t.Run("owner record cannot be touched by the organization itself", func(t *testing.T) {
		name := "Tentativa"
		_, err := svc.Update(ctx, env.manager, env.owner.ID, service.UpdateMemberInput{Name: &name})
		var denied *domain.AccessDenied
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.ReasonProtectedSubject, denied.Reason)

		err = svc.Deactivate(ctx, env.manager, env.owner.ID)
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.ReasonProtectedSubject, denied.Reason)
	})

	t.Run("platform admin may touch the owner", func(t *testing.T) {
		name := "Dona Renomeada"
		updated, err := svc.Update(ctx, env.admin, env.owner.ID, service.UpdateMemberInput{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Dona Renomeada", updated.Name)
	})

	t.Run("deactivation is soft", func(t *testing.T) {
		require.NoError(t, svc.Deactivate(ctx, env.manager, env.techB.ID))

		stored, err := env.repos.Users.FindByID(ctx, env.techB.ID)
		require.NoError(t, err)
		assert.False(t, stored.Active)
	})

	t.Run("cross-organization member is out of reach", func(t *testing.T) {
		name := "Invasão"
		_, err := svc.Update(ctx, env.otherOwner, env.techA.ID, service.UpdateMemberInput{Name: &name})
		var denied *domain.AccessDenied
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.ReasonWrongOrganization, denied.Reason)
	})
}
