package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/service"
)

func TestCustomers(t *testing.T) {
	env := newTestEnv(t)
	svc := service.NewCustomerService(env.repos)
	ctx := context.Background()

	t.Run("manager registers a customer", func(t *testing.T) {
		customer, err := svc.Create(ctx, env.manager, service.CustomerInput{
			Name:     "Condomínio Jardim",
			Document: "12.345.678/0001-90",
			Email:    "sindico@jardim.example",
		})
		require.NoError(t, err)
		assert.Equal(t, env.org.ID, customer.OrganizationID)
		assert.True(t, customer.Active)
	})

	t.Run("document is unique within the organization", func(t *testing.T) {
		_, err := svc.Create(ctx, env.manager, service.CustomerInput{
			Name:     "Outro com mesmo CNPJ",
			Document: "12.345.678/0001-90",
		})
		assert.ErrorIs(t, err, domain.ErrDocumentAlreadyExists)
	})

	t.Run("another organization may reuse the document", func(t *testing.T) {
		customer, err := svc.Create(ctx, env.otherOwner, service.CustomerInput{
			Name:     "Mesmo CNPJ, outra oficina",
			Document: "12.345.678/0001-90",
		})
		require.NoError(t, err)
		assert.Equal(t, env.otherOrg.ID, customer.OrganizationID)
	})

	t.Run("technician cannot manage customers", func(t *testing.T) {
		_, err := svc.Create(ctx, env.techA, service.CustomerInput{
			Name:     "Sem permissão",
			Document: "000",
		})
		var denied *domain.AccessDenied
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.ReasonInsufficientRole, denied.Reason)

		_, err = svc.List(ctx, env.techA)
		require.ErrorAs(t, err, &denied)
	})

	t.Run("listing is scoped to the organization", func(t *testing.T) {
		customers, err := svc.List(ctx, env.manager)
		require.NoError(t, err)
		require.Len(t, customers, 1)
		assert.Equal(t, "Condomínio Jardim", customers[0].Name)
	})

	t.Run("customer of another organization is unreachable", func(t *testing.T) {
		mine, err := svc.List(ctx, env.manager)
		require.NoError(t, err)
		require.NotEmpty(t, mine)

		_, err = svc.Get(ctx, env.otherOwner, mine[0].ID)
		var denied *domain.AccessDenied
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.ReasonWrongOrganization, denied.Reason)
	})

	t.Run("deactivation is soft", func(t *testing.T) {
		customers, err := svc.List(ctx, env.manager)
		require.NoError(t, err)
		require.NotEmpty(t, customers)

		require.NoError(t, svc.Deactivate(ctx, env.manager, customers[0].ID))

		stored, err := svc.Get(ctx, env.manager, customers[0].ID)
		require.NoError(t, err)
		assert.False(t, stored.Active)
	})
}
