// Package events публикует доменные события checkout в Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/checkout-service/pkg/logger"
)

// MessageSender отправляет сообщение в топик. Реализуется pkg/kafka.Producer;
// в тестах подменяется моком.
type MessageSender interface {
	Send(ctx context.Context, topic string, key []byte, value []byte) error
}

// orderCreatedEvent — payload события создания заказа.
type orderCreatedEvent struct {
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
	TenantID  string `json:"tenant_id"`
	Timestamp string `json:"timestamp"`
}

// Emitter публикует событие OrderCreated.
// Доставка best-effort (at-most-once): гарантированную доставку обеспечивает
// транзакционный outbox в Order Service, не оркестратор.
type Emitter struct {
	sender MessageSender
	topic  string
}

// NewEmitter создаёт emitter для указанного топика.
func NewEmitter(sender MessageSender, topic string) *Emitter {
	return &Emitter{
		sender: sender,
		topic:  topic,
	}
}

// PublishOrderCreated публикует событие создания заказа (ключ = order id).
func (e *Emitter) PublishOrderCreated(ctx context.Context, orderID, userID, tenantID string) error {
	payload, err := json.Marshal(orderCreatedEvent{
		OrderID:   orderID,
		UserID:    userID,
		TenantID:  tenantID,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("ошибка сериализации события OrderCreated: %w", err)
	}

	if err := e.sender.Send(ctx, e.topic, []byte(orderID), payload); err != nil {
		return fmt.Errorf("ошибка публикации события OrderCreated: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("order_id", orderID).
		Str("topic", e.topic).
		Msg("Событие OrderCreated опубликовано")

	return nil
}

// NopEmitter — заглушка публикации, когда Kafka отключена конфигурацией.
type NopEmitter struct{}

// PublishOrderCreated ничего не делает.
func (NopEmitter) PublishOrderCreated(_ context.Context, _, _, _ string) error {
	return nil
}
