// Package pricing рассчитывает стоимость заказа из снимка корзины.
// Расчёт детерминирован и не имеет side-effects.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"example.com/checkout-service/services/checkout/internal/domain"
)

// Calculator считает субтотал, скидку, налог, доставку и итог.
// Политики намеренно простые и легко заменяемые:
// налог зарезервирован (всегда 0), доставка — фиксированная ставка.
type Calculator struct {
	shippingCost    decimal.Decimal
	defaultCurrency string
}

// NewCalculator создаёт калькулятор с фиксированной ставкой доставки.
func NewCalculator(shippingCost decimal.Decimal, defaultCurrency string) *Calculator {
	return &Calculator{
		shippingCost:    shippingCost,
		defaultCurrency: defaultCurrency,
	}
}

// Quote рассчитывает стоимость заказа:
// total = subtotal - discount + tax + shipping.
// Субтотал и скидка берутся из корзины как есть.
func (c *Calculator) Quote(cart domain.CartSnapshot) (domain.PriceQuote, error) {
	currency := cart.Currency
	if currency == "" {
		currency = c.defaultCurrency
	}

	quote := domain.PriceQuote{
		Subtotal: cart.Subtotal,
		Discount: cart.DiscountAmount,
		Tax:      decimal.Zero,
		Shipping: c.shippingCost,
		Currency: currency,
	}
	quote.Total = quote.Subtotal.Sub(quote.Discount).Add(quote.Tax).Add(quote.Shipping)

	if err := quote.Validate(); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("ошибка расчёта стоимости: %w", err)
	}

	return quote, nil
}

// Коэффициент и сроки вариантов доставки.
var expressFactor = decimal.NewFromFloat(1.5)

const (
	standardDays = 5
	expressDays  = 2
)

// ShippingOptions возвращает доступные варианты доставки:
// STANDARD — базовая ставка, EXPRESS — 1.5x базовой ставки.
func (c *Calculator) ShippingOptions() []domain.ShippingOption {
	return []domain.ShippingOption{
		{
			Method:        domain.ShippingMethodStandard,
			Cost:          c.shippingCost,
			Currency:      c.defaultCurrency,
			EstimatedDays: standardDays,
		},
		{
			Method:        domain.ShippingMethodExpress,
			Cost:          c.shippingCost.Mul(expressFactor),
			Currency:      c.defaultCurrency,
			EstimatedDays: expressDays,
		},
	}
}
