package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/service"
)

func TestTimeline(t *testing.T) {
	env := newTestEnv(t)
	orders := service.NewOrderService(env.repos)
	timeline := service.NewTimelineService(env.repos)
	ctx := context.Background()

	order, err := orders.Create(ctx, env.manager, service.CreateOrderInput{
		Title:        "Ordem com histórico",
		AssignedToID: &env.techA.ID,
	})
	require.NoError(t, err)

	t.Run("events come back newest first with their actors", func(t *testing.T) {
		base := time.Now().Add(-time.Hour)
		for i, text := range []string{"primeiro", "segundo", "terceiro"} {
			when := base.Add(time.Duration(i) * time.Minute)
			require.NoError(t, env.repos.Events.Append(ctx, &model.TimelineEvent{
				ServiceOrderID: order.ID,
				ActorID:        env.techA.ID,
				Type:           model.EventComment,
				Description:    "Comentário adicionado",
				Metadata:       model.Metadata{"texto": text},
				CreatedAt:      when,
			}))
		}

		events, err := timeline.List(ctx, env.techA, order.ID)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(events), 3)

		var comments []*model.TimelineEvent
		for _, e := range events {
			if e.Type == model.EventComment {
				comments = append(comments, e)
			}
		}
		require.Len(t, comments, 3)
		assert.Equal(t, "terceiro", comments[0].Metadata["texto"])
		assert.Equal(t, "primeiro", comments[2].Metadata["texto"])
		require.NotNil(t, comments[0].Actor)
		assert.Equal(t, env.techA.ID, comments[0].Actor.ID)
	})

	t.Run("an order without events yields an empty list", func(t *testing.T) {
		bare, err := orders.Create(ctx, env.manager, service.CreateOrderInput{Title: "Nova"})
		require.NoError(t, err)

		events, err := env.repos.Events.ListByOrderAndType(ctx, bare.ID, model.EventComment)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("reader outside the assignment cannot see the timeline", func(t *testing.T) {
		_, err := timeline.List(ctx, env.techB, order.ID)
		var denied *domain.AccessDenied
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.ReasonInsufficientRole, denied.Reason)

		_, err = timeline.List(ctx, env.otherOwner, order.ID)
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.ReasonWrongOrganization, denied.Reason)
	})
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	orders := service.NewOrderService(env.repos)
	timeline := service.NewTimelineService(env.repos)
	ctx := context.Background()

	order, err := orders.Create(ctx, env.manager, service.CreateOrderInput{
		Title:        "Comentada",
		AssignedToID: &env.techA.ID,
	})
	require.NoError(t, err)

	t.Run("assignee can comment", func(t *testing.T) {
		event, err := timeline.AddComment(ctx, env.techA, order.ID, "Peça encomendada")
		require.NoError(t, err)
		assert.Equal(t, model.EventComment, event.Type)
		assert.Equal(t, "Peça encomendada", event.Metadata["texto"])
		assert.Equal(t, env.techA.ID, event.ActorID)
	})

	t.Run("empty comment is rejected", func(t *testing.T) {
		_, err := timeline.AddComment(ctx, env.techA, order.ID, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("commenting needs read access", func(t *testing.T) {
		_, err := timeline.AddComment(ctx, env.techB, order.ID, "Intruso")
		var denied *domain.AccessDenied
		require.ErrorAs(t, err, &denied)
	})
}

func TestTimeEntriesAndBilling(t *testing.T) {
	env := newTestEnv(t)
	orders := service.NewOrderService(env.repos)
	timeline := service.NewTimelineService(env.repos)
	ctx := context.Background()

	order, err := orders.Create(ctx, env.manager, service.CreateOrderInput{
		Title:        "Faturável",
		AssignedToID: &env.techA.ID,
	})
	require.NoError(t, err)

	t.Run("non-positive minutes are rejected", func(t *testing.T) {
		_, err := timeline.AddTimeEntry(ctx, env.techA, order.ID, 0, "nada")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = timeline.AddTimeEntry(ctx, env.techA, order.ID, -30, "negativo")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("billing sums the recorded minutes", func(t *testing.T) {
		_, err := timeline.AddTimeEntry(ctx, env.techA, order.ID, 90, "Diagnóstico")
		require.NoError(t, err)
		_, err = timeline.AddTimeEntry(ctx, env.techA, order.ID, 45, "Reparo")
		require.NoError(t, err)

		summary, err := timeline.Billing(ctx, env.manager, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 135, summary.TotalMinutes)
		assert.Equal(t, 2, summary.Entries)
		assert.Equal(t, order.ID, summary.ServiceOrderID)
	})

	t.Run("billing of an order without entries is zero", func(t *testing.T) {
		empty, err := orders.Create(ctx, env.manager, service.CreateOrderInput{Title: "Vazia"})
		require.NoError(t, err)

		summary, err := timeline.Billing(ctx, env.manager, empty.ID)
		require.NoError(t, err)
		assert.Zero(t, summary.TotalMinutes)
		assert.Zero(t, summary.Entries)
	})
}

func TestAttachments(t *testing.T) {
	env := newTestEnv(t)
	orders := service.NewOrderService(env.repos)
	timeline := service.NewTimelineService(env.repos)
	ctx := context.Background()

	order, err := orders.Create(ctx, env.manager, service.CreateOrderInput{
		Title:        "Com anexos",
		AssignedToID: &env.techA.ID,
	})
	require.NoError(t, err)

	t.Run("attachment records name and url", func(t *testing.T) {
		event, err := timeline.AddAttachment(ctx, env.techA, order.ID, "laudo.pdf", "https://files.example/laudo.pdf")
		require.NoError(t, err)
		assert.Equal(t, model.EventFile, event.Type)

		file, ok := event.Metadata["arquivo"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "laudo.pdf", file["nome"])
		assert.Equal(t, "https://files.example/laudo.pdf", file["url"])
	})

	t.Run("name and url are both required", func(t *testing.T) {
		_, err := timeline.AddAttachment(ctx, env.techA, order.ID, "", "https://files.example/x")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = timeline.AddAttachment(ctx, env.techA, order.ID, "x.pdf", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
