package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSender — мок отправителя сообщений.
type mockSender struct {
	SendFunc func(ctx context.Context, topic string, key, value []byte) error
}

func (m *mockSender) Send(ctx context.Context, topic string, key, value []byte) error {
	return m.SendFunc(ctx, topic, key, value)
}

func TestPublishOrderCreated(t *testing.T) {
	var gotTopic string
	var gotKey, gotValue []byte

	sender := &mockSender{
		SendFunc: func(_ context.Context, topic string, key, value []byte) error {
			gotTopic = topic
			gotKey = key
			gotValue = value
			return nil
		},
	}

	e := NewEmitter(sender, "order-created")
	err := e.PublishOrderCreated(context.Background(), "order-1", "user-1", "tenant-1")
	require.NoError(t, err)

	assert.Equal(t, "order-created", gotTopic)
	assert.Equal(t, "order-1", string(gotKey), "ключ партиционирования — order id")

	var event map[string]string
	require.NoError(t, json.Unmarshal(gotValue, &event))
	assert.Equal(t, "order-1", event["order_id"])
	assert.Equal(t, "user-1", event["user_id"])
	assert.Equal(t, "tenant-1", event["tenant_id"])
	assert.NotEmpty(t, event["timestamp"])
}

func TestPublishOrderCreated_SendError(t *testing.T) {
	sendErr := errors.New("брокер недоступен")
	sender := &mockSender{
		SendFunc: func(_ context.Context, _ string, _, _ []byte) error {
			return sendErr
		},
	}

	e := NewEmitter(sender, "order-created")
	err := e.PublishOrderCreated(context.Background(), "order-1", "user-1", "tenant-1")

	assert.ErrorIs(t, err, sendErr)
}

func TestNopEmitter(t *testing.T) {
	assert.NoError(t, NopEmitter{}.PublishOrderCreated(context.Background(), "order-1", "user-1", "tenant-1"))
}
