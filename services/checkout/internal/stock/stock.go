// Package stock выбирает складскую локацию под каждую позицию заказа.
package stock

import (
	"context"

	"example.com/checkout-service/pkg/logger"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// StockProvider возвращает остатки SKU по локациям.
type StockProvider interface {
	GetStockLocations(ctx context.Context, p domain.Principal, sku string) ([]domain.StockLocation, error)
}

// Locator подбирает локации с достаточным остатком.
// Выбор advisory: авторитетная проверка — вызов резервирования.
type Locator struct {
	provider StockProvider
}

// NewLocator создаёт локатор поверх Inventory Service.
func NewLocator(provider StockProvider) *Locator {
	return &Locator{provider: provider}
}

// Pick возвращает первую локацию с availableQty >= requiredQty.
// Порядок перебора задан сервером и не пересортировывается.
// Если подходящей локации нет — InsufficientStock.
func (l *Locator) Pick(ctx context.Context, p domain.Principal, sku string, requiredQty int) (string, error) {
	locations, err := l.provider.GetStockLocations(ctx, p, sku)
	if err != nil {
		return "", err
	}

	for _, loc := range locations {
		if loc.AvailableQty >= requiredQty {
			return loc.LocationID, nil
		}
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("sku", sku).
		Int("required_qty", requiredQty).
		Int("locations_checked", len(locations)).
		Msg("Нет локации с достаточным остатком")

	return "", domain.ErrInsufficientStock(sku)
}

// PickAll подбирает локации для всех позиций корзины.
// Используется сагой перед резервированием и initiate как availability probe.
func (l *Locator) PickAll(ctx context.Context, p domain.Principal, items []domain.CartItem) ([]domain.ReservationItem, error) {
	reservation := make([]domain.ReservationItem, 0, len(items))

	for _, item := range items {
		locationID, err := l.Pick(ctx, p, item.SKU, item.Quantity)
		if err != nil {
			return nil, err
		}

		reservation = append(reservation, domain.ReservationItem{
			SKU:        item.SKU,
			LocationID: locationID,
			Quantity:   item.Quantity,
		})
	}

	return reservation, nil
}
