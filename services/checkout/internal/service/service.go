// Package service — фасад бизнес-операций checkout.
// Связывает сагу, расчёт стоимости и вспомогательные операции
// в единый интерфейс для HTTP слоя.
package service

import (
	"context"

	"example.com/checkout-service/services/checkout/internal/domain"
	"example.com/checkout-service/services/checkout/internal/saga"
)

// ShippingQuoter возвращает доступные варианты доставки.
type ShippingQuoter interface {
	ShippingOptions() []domain.ShippingOption
}

// CheckoutService — фасад операций checkout.
type CheckoutService struct {
	engine   *saga.Engine
	shipping ShippingQuoter
}

// NewCheckoutService создаёт фасад поверх движка саги.
func NewCheckoutService(engine *saga.Engine, shipping ShippingQuoter) *CheckoutService {
	return &CheckoutService{
		engine:   engine,
		shipping: shipping,
	}
}

// InitiateCheckout возвращает сводку заказа без изменения состояния:
// позиции корзины, адрес, расчёт стоимости, проверка доступности остатков.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutSummary, error) {
	return s.engine.Initiate(ctx, p, in)
}

// CompleteCheckout запускает сагу завершения checkout.
func (s *CheckoutService) CompleteCheckout(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutComplete, error) {
	return s.engine.Complete(ctx, p, in)
}

// CancelCheckout освобождает резерв, если он указан.
func (s *CheckoutService) CancelCheckout(ctx context.Context, p domain.Principal, reservationID string) error {
	return s.engine.Cancel(ctx, p, reservationID)
}

// ValidateAddress проверяет минимальную полноту адреса:
// улица, город и страна обязательны.
func (s *CheckoutService) ValidateAddress(_ context.Context, street, city, country string) domain.AddressValidation {
	return domain.ValidateAddressFields(street, city, country)
}

// CalculateShipping возвращает варианты доставки STANDARD и EXPRESS.
func (s *CheckoutService) CalculateShipping(_ context.Context) []domain.ShippingOption {
	return s.shipping.ShippingOptions()
}
