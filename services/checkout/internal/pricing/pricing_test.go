package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/checkout-service/services/checkout/internal/domain"
)

func newTestCalculator() *Calculator {
	return NewCalculator(decimal.RequireFromString("10.00"), "INR")
}

// =====================================
// Тесты Quote
// =====================================

func TestQuote(t *testing.T) {
	tests := []struct {
		name      string
		cart      domain.CartSnapshot
		wantTotal string
	}{
		{
			name: "корзина без скидки",
			cart: domain.CartSnapshot{
				Subtotal:       decimal.RequireFromString("100.00"),
				DiscountAmount: decimal.Zero,
				Currency:       "INR",
			},
			wantTotal: "110.00",
		},
		{
			name: "корзина со скидкой",
			cart: domain.CartSnapshot{
				Subtotal:       decimal.RequireFromString("100.00"),
				DiscountAmount: decimal.RequireFromString("15.00"),
				Currency:       "INR",
			},
			wantTotal: "95.00",
		},
		{
			name: "скидка равна субтоталу — остаётся доставка",
			cart: domain.CartSnapshot{
				Subtotal:       decimal.RequireFromString("50.00"),
				DiscountAmount: decimal.RequireFromString("50.00"),
				Currency:       "INR",
			},
			wantTotal: "10.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := newTestCalculator().Quote(tt.cart)
			require.NoError(t, err)

			assert.True(t, quote.Total.Equal(decimal.RequireFromString(tt.wantTotal)),
				"ожидалось %s, получено %s", tt.wantTotal, quote.Total)
			assert.True(t, quote.Subtotal.Equal(tt.cart.Subtotal))
			assert.True(t, quote.Discount.Equal(tt.cart.DiscountAmount))
			assert.True(t, quote.Tax.IsZero(), "налог зарезервирован и всегда 0")
			assert.Equal(t, "INR", quote.Currency)
			assert.NoError(t, quote.Validate())
		})
	}
}

func TestQuote_CurrencyFallback(t *testing.T) {
	quote, err := newTestCalculator().Quote(domain.CartSnapshot{
		Subtotal: decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "INR", quote.Currency)
}

func TestQuote_DiscountExceedsSubtotal(t *testing.T) {
	_, err := newTestCalculator().Quote(domain.CartSnapshot{
		Subtotal:       decimal.RequireFromString("10.00"),
		DiscountAmount: decimal.RequireFromString("20.00"),
		Currency:       "INR",
	})
	assert.Error(t, err)
}

// =====================================
// Тесты ShippingOptions
// =====================================

func TestShippingOptions(t *testing.T) {
	options := newTestCalculator().ShippingOptions()
	require.Len(t, options, 2)

	standard := options[0]
	assert.Equal(t, domain.ShippingMethodStandard, standard.Method)
	assert.True(t, standard.Cost.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, 5, standard.EstimatedDays)

	express := options[1]
	assert.Equal(t, domain.ShippingMethodExpress, express.Method)
	assert.True(t, express.Cost.Equal(decimal.RequireFromString("15.00")), "EXPRESS = 1.5x базовой ставки")
	assert.Equal(t, 2, express.EstimatedDays)
	assert.Equal(t, "INR", express.Currency)
}
