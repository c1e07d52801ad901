package amqp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "component.installed", RoutingKey(domain.EventInstalled))
	assert.Equal(t, "component.hard_deleted", RoutingKey(domain.EventHardDeleted))
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "webike.components"}

	event := &domain.ComponentEvent{
		ID:          uuid.New(),
		ComponentID: uuid.New(),
		BikeID:      uuid.New(),
		UserID:      uuid.New(),
		Type:        domain.EventRemoved,
		At:          time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
		RecordedAt:  time.Date(2025, 9, 1, 10, 0, 1, 0, time.UTC),
	}

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, ch.sent, 1)

	sent := ch.sent[0]
	assert.Equal(t, "webike.components", sent.exchange)
	assert.Equal(t, "component.removed", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, event.ID.String(), sent.msg.MessageId)
	assert.Equal(t, "REMOVED", sent.msg.Type)

	var body domain.ComponentEvent
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, event.ComponentID, body.ComponentID)
	assert.Equal(t, domain.EventRemoved, body.Type)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.Publish(context.Background(), &domain.ComponentEvent{}))
	assert.NoError(t, p.Close())
}
