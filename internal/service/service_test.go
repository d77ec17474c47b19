package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/repository"
)

// newTestRepos opens a fresh in-memory database per test. The database name
// is randomized so parallel tests never share state.
func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Organization{},
		&model.User{},
		&model.Customer{},
		&model.ServiceOrder{},
		&model.TimelineEvent{},
	))

	return repository.New(db)
}

// testEnv is a seeded tenant with one user per role, plus a second tenant to
// exercise cross-organization rules.
type testEnv struct {
	repos *repository.Repositories

	org       *model.Organization
	owner     *model.User
	manager   *model.User
	techA     *model.User
	techB     *model.User
	assistant *model.User

	otherOrg   *model.Organization
	otherOwner *model.User

	admin *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repos := newTestRepos(t)
	ctx := context.Background()

	env := &testEnv{repos: repos}

	env.org = &model.Organization{Name: "Oficina Central", OwnerID: uuid.New()}
	require.NoError(t, repos.Orgs.Create(ctx, env.org))

	env.otherOrg = &model.Organization{Name: "Concorrente", OwnerID: uuid.New()}
	require.NoError(t, repos.Orgs.Create(ctx, env.otherOrg))

	env.owner = seedUser(t, repos, env.org.ID, "dona@oficina.example", model.RoleOwner)
	env.manager = seedUser(t, repos, env.org.ID, "gerente@oficina.example", model.RoleManager)
	env.techA = seedUser(t, repos, env.org.ID, "tecnico.a@oficina.example", model.RoleTechnician)
	env.techB = seedUser(t, repos, env.org.ID, "tecnico.b@oficina.example", model.RoleTechnician)
	env.assistant = seedUser(t, repos, env.org.ID, "auxiliar@oficina.example", model.RoleAssistant)
	env.otherOwner = seedUser(t, repos, env.otherOrg.ID, "dono@concorrente.example", model.RoleOwner)
	env.admin = seedUser(t, repos, env.org.ID, "admin@plataforma.example", model.RoleAdmin)

	env.org.OwnerID = env.owner.ID
	require.NoError(t, repos.Orgs.Update(ctx, env.org))
	env.otherOrg.OwnerID = env.otherOwner.ID
	require.NoError(t, repos.Orgs.Update(ctx, env.otherOrg))

	return env
}

func seedUser(t *testing.T, repos *repository.Repositories, orgID uuid.UUID, email string, role model.Role) *model.User {
	t.Helper()

	user := &model.User{
		OrganizationID: orgID,
		Name:           email,
		Email:          email,
		PasswordHash:   "x",
		Role:           role,
		Active:         true,
	}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}
