package services

import (
	"context"
	"testing"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetComponent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.install(t, fixedNow.AddDate(0, -1, 0), 1000)
	h.store.addReading(h.bikeID, fixedNow, 2500)

	view, err := h.component.GetComponent(ctx, h.ref(c.ID), domain.ViewOptions{})
	require.NoError(t, err)
	assert.Equal(t, c.ID, view.ID)
	require.NotNil(t, view.Wear)
	assert.Equal(t, 50, view.Wear.PercentWear)

	ref := h.ref(c.ID)
	ref.OwnerID = uuid.New()
	_, err = h.component.GetComponent(ctx, ref, domain.ViewOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListComponents(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	older := h.install(t, fixedNow.AddDate(0, -2, 0), 0)
	newer := h.install(t, fixedNow.AddDate(0, -1, 0), 0)
	require.NoError(t, h.lifecycle.SoftDelete(ctx, h.ref(older.ID), nil, nil))

	views, err := h.component.ListComponents(ctx, h.bikeID, h.owner, false, domain.ViewOptions{})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, older.ID, views[1].ID)

	views, err = h.component.ListComponents(ctx, h.bikeID, h.owner, true, domain.ViewOptions{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, newer.ID, views[0].ID)

	_, err = h.component.ListComponents(ctx, uuid.New(), h.owner, false, domain.ViewOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPageComponents(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.install(t, fixedNow.AddDate(0, -i-1, 0), 0)
	}

	filter := domain.ComponentFilter{BikeID: h.bikeID, OwnerID: h.owner, SortBy: domain.SortInstalledAt, Desc: true}

	t.Run("invalid window", func(t *testing.T) {
		for _, f := range []domain.ComponentFilter{
			{BikeID: h.bikeID, OwnerID: h.owner, Limit: 0},
			{BikeID: h.bikeID, OwnerID: h.owner, Limit: 101},
			{BikeID: h.bikeID, OwnerID: h.owner, Limit: 10, Offset: -1},
		} {
			_, err := h.component.PageComponents(ctx, f, domain.ViewOptions{})
			assert.ErrorIs(t, err, domain.ErrValidation)
		}
	})

	t.Run("second page", func(t *testing.T) {
		f := filter
		f.Limit, f.Offset = 2, 2

		page, err := h.component.PageComponents(ctx, f, domain.ViewOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 2, page.Size)
		assert.Equal(t, 5, page.TotalElements)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, "installedAt,DESC", page.Sort)
		assert.Len(t, page.Content, 2)
	})

	t.Run("past the end", func(t *testing.T) {
		f := filter
		f.Limit, f.Offset = 10, 20

		page, err := h.component.PageComponents(ctx, f, domain.ViewOptions{})
		require.NoError(t, err)
		assert.Empty(t, page.Content)
		assert.Equal(t, 5, page.TotalElements)
	})
}

func TestUpdateComponent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.install(t, fixedNow.AddDate(0, -1, 0), 0)
	eventsBefore := len(h.store.events)

	label, position := "Front pads", "front"
	updated, err := h.component.UpdateComponent(ctx, h.ref(c.ID), domain.ComponentUpdate{
		Label:            &label,
		Position:         &position,
		LifespanOverride: decPtr(4000),
	})
	require.NoError(t, err)
	assert.Equal(t, label, *updated.Label)
	assert.Equal(t, domain.PositionFront, updated.Position)
	assert.True(t, updated.LifespanOverride.Equal(*decPtr(4000)))
	assert.Len(t, h.store.events, eventsBefore)

	_, err = h.component.UpdateComponent(ctx, h.ref(c.ID), domain.ComponentUpdate{Price: decPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	currency := "EURO"
	_, err = h.component.UpdateComponent(ctx, h.ref(c.ID), domain.ComponentUpdate{Currency: &currency})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.install(t, fixedNow.AddDate(0, -1, 0), 0)
	require.NoError(t, h.lifecycle.SoftDelete(ctx, h.ref(c.ID), nil, nil))
	require.NoError(t, h.lifecycle.Restore(ctx, h.ref(c.ID), nil))

	events, err := h.component.History(ctx, h.ref(c.ID))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventInstalled, events[0].Type)
	assert.Equal(t, domain.EventRemoved, events[1].Type)
	assert.Equal(t, domain.EventRestored, events[2].Type)

	_, err = h.component.History(ctx, h.ref(uuid.New()))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
