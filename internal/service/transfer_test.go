package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/service"
)

func TestTransfer(t *testing.T) {
	env := newTestEnv(t)
	orders := service.NewOrderService(env.repos)
	timeline := service.NewTimelineService(env.repos)
	ctx := context.Background()

	newOrder := func(t *testing.T, assignee *uuid.UUID) *model.ServiceOrder {
		t.Helper()
		order, err := orders.Create(ctx, env.manager, service.CreateOrderInput{
			Title:        "Ordem transferível",
			AssignedToID: assignee,
		})
		require.NoError(t, err)
		return order
	}

	t.Run("assignee change and event commit together", func(t *testing.T) {
		order := newOrder(t, &env.techA.ID)

		updated, err := orders.Transfer(ctx, env.manager, order.ID, service.TransferInput{
			AssignedToID: env.techB.ID,
			Reason:       "Técnico A de férias",
		})
		require.NoError(t, err)
		require.NotNil(t, updated.AssignedToID)
		assert.Equal(t, env.techB.ID, *updated.AssignedToID)
		assert.Equal(t, env.manager.ID, updated.AssignedByID)

		events, err := env.repos.Events.ListByOrderAndType(ctx, order.ID, model.EventTransfer)
		require.NoError(t, err)
		require.Len(t, events, 1)

		de, ok := events[0].Metadata["de"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, env.techA.ID.String(), de["id"])
		para, ok := events[0].Metadata["para"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, env.techB.ID.String(), para["id"])
		assert.Equal(t, "Técnico A de férias", events[0].Metadata["texto"])
	})

	t.Run("first assignment of an unassigned order has no source", func(t *testing.T) {
		order := newOrder(t, nil)

		_, err := orders.Transfer(ctx, env.manager, order.ID, service.TransferInput{
			AssignedToID: env.techA.ID,
			Reason:       "Primeira atribuição via transferência",
		})
		require.NoError(t, err)

		history, err := timeline.TransferHistory(ctx, env.manager, order.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Nil(t, history[0].From)
		assert.Equal(t, env.techA.ID, history[0].To.ID)
	})

	t.Run("transfer to the current assignee is rejected before the reason check", func(t *testing.T) {
		order := newOrder(t, &env.techA.ID)

		_, err := orders.Transfer(ctx, env.manager, order.ID, service.TransferInput{
			AssignedToID: env.techA.ID,
		})
		assert.ErrorIs(t, err, domain.ErrSameAssignee)
	})

	t.Run("missing reason is rejected", func(t *testing.T) {
		order := newOrder(t, &env.techA.ID)

		_, err := orders.Transfer(ctx, env.manager, order.ID, service.TransferInput{
			AssignedToID: env.techB.ID,
		})
		assert.ErrorIs(t, err, domain.ErrTransferReasonRequired)
	})

	t.Run("target outside the organization is rejected", func(t *testing.T) {
		order := newOrder(t, &env.techA.ID)

		_, err := orders.Transfer(ctx, env.manager, order.ID, service.TransferInput{
			AssignedToID: env.otherOwner.ID,
			Reason:       "Não pode",
		})
		assert.ErrorIs(t, err, domain.ErrAssigneeInvalid)
	})

	t.Run("inactive target is rejected", func(t *testing.T) {
		order := newOrder(t, &env.techA.ID)
		inactive := seedUser(t, env.repos, env.org.ID, "saiu@oficina.example", model.RoleTechnician)
		inactive.Active = false
		require.NoError(t, env.repos.Users.Update(ctx, inactive))

		_, err := orders.Transfer(ctx, env.manager, order.ID, service.TransferInput{
			AssignedToID: inactive.ID,
			Reason:       "Não pode",
		})
		assert.ErrorIs(t, err, domain.ErrAssigneeInvalid)
	})

	t.Run("nil target is rejected", func(t *testing.T) {
		order := newOrder(t, &env.techA.ID)

		_, err := orders.Transfer(ctx, env.manager, order.ID, service.TransferInput{
			Reason: "Sem destino",
		})
		assert.ErrorIs(t, err, domain.ErrAssigneeInvalid)
	})

	t.Run("uninvolved technician may not transfer", func(t *testing.T) {
		order := newOrder(t, &env.techA.ID)

		_, err := orders.Transfer(ctx, env.techB, order.ID, service.TransferInput{
			AssignedToID: env.techB.ID,
			Reason:       "Quero essa",
		})
		var denied *domain.AccessDenied
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.ReasonInsufficientRole, denied.Reason)
	})

	t.Run("the assignee may transfer their own order", func(t *testing.T) {
		order := newOrder(t, &env.techA.ID)

		updated, err := orders.Transfer(ctx, env.techA, order.ID, service.TransferInput{
			AssignedToID: env.techB.ID,
			Reason:       "Preciso de ajuda",
		})
		require.NoError(t, err)
		assert.Equal(t, env.techB.ID, *updated.AssignedToID)
	})

	t.Run("history is derived from the event log, oldest first", func(t *testing.T) {
		order := newOrder(t, &env.techA.ID)

		_, err := orders.Transfer(ctx, env.manager, order.ID, service.TransferInput{
			AssignedToID: env.techB.ID,
			Reason:       "Primeira troca",
		})
		require.NoError(t, err)
		_, err = orders.Transfer(ctx, env.manager, order.ID, service.TransferInput{
			AssignedToID: env.techA.ID,
			Reason:       "Segunda troca",
		})
		require.NoError(t, err)

		history, err := timeline.TransferHistory(ctx, env.manager, order.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "Primeira troca", history[0].Reason)
		assert.Equal(t, env.techB.ID, history[0].To.ID)
		assert.Equal(t, "Segunda troca", history[1].Reason)
		require.NotNil(t, history[1].From)
		assert.Equal(t, env.techB.ID, history[1].From.ID)
	})
}
