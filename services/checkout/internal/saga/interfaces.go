package saga

import (
	"context"

	"example.com/checkout-service/services/checkout/internal/client"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// Интерфейсы зависимостей саги. Реализуются адаптерами из internal/client;
// в тестах подменяются моками.

// CartGateway — операции с корзиной.
type CartGateway interface {
	GetCart(ctx context.Context, p domain.Principal) (domain.CartSnapshot, error)
	ClearCart(ctx context.Context, p domain.Principal) error
}

// AddressGateway — чтение адреса доставки.
type AddressGateway interface {
	GetAddress(ctx context.Context, p domain.Principal, addressID string) (domain.Address, error)
}

// InventoryGateway — резервирование и освобождение остатков.
type InventoryGateway interface {
	Reserve(ctx context.Context, p domain.Principal, orderID string, items []domain.ReservationItem) error
	Release(ctx context.Context, p domain.Principal, reservationID string) error
}

// PaymentGateway — проведение, возврат и поиск платежей.
type PaymentGateway interface {
	Process(ctx context.Context, p domain.Principal, in client.ProcessPaymentInput) (string, error)
	Refund(ctx context.Context, p domain.Principal, paymentID, reason string) error
	LookupByTransactionID(ctx context.Context, p domain.Principal, txnID string) (string, error)
}

// OrderGateway — создание и поиск заказов.
type OrderGateway interface {
	Create(ctx context.Context, p domain.Principal, in client.CreateOrderInput) (domain.OrderProjection, error)
	GetByPayment(ctx context.Context, p domain.Principal, paymentID string) (domain.OrderProjection, error)
}

// StockPicker — подбор складских локаций под позиции корзины.
type StockPicker interface {
	PickAll(ctx context.Context, p domain.Principal, items []domain.CartItem) ([]domain.ReservationItem, error)
}

// Pricer — расчёт стоимости заказа.
type Pricer interface {
	Quote(cart domain.CartSnapshot) (domain.PriceQuote, error)
}

// EventPublisher — публикация события OrderCreated (best-effort).
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, orderID, userID, tenantID string) error
}
