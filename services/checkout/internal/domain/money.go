package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Ошибки денежной арифметики.
var (
	// ErrCurrencyMismatch возвращается при операции над суммами в разных валютах.
	ErrCurrencyMismatch = errors.New("операция над разными валютами")

	// ErrNegativeAmount возвращается, когда сумма не может быть отрицательной.
	ErrNegativeAmount = errors.New("сумма не может быть отрицательной")
)

// Money — денежная сумма с валютой.
// Использует decimal арифметику: плавающая точка для денег запрещена.
type Money struct {
	Amount   decimal.Decimal // Сумма с произвольной точностью
	Currency string          // ISO 4217 код валюты (INR, USD, EUR)
}

// NewMoney создаёт денежную сумму.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// MoneyFromString парсит денежную сумму из строки ("10.00").
func MoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("невалидная сумма %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// Add складывает суммы. Возвращает ошибку при несовпадении валют.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s и %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub вычитает сумму. Возвращает ошибку при несовпадении валют.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s и %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// MulFactor умножает сумму на коэффициент (например 1.5 для EXPRESS доставки).
func (m Money) MulFactor(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// IsNegative возвращает true для отрицательной суммы.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// Equal сравнивает суммы по значению и валюте.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// String возвращает строковое представление "110.00 INR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

// PriceQuote — результат расчёта стоимости заказа.
// total = subtotal - discount + tax + shipping; все поля в одной валюте.
type PriceQuote struct {
	Subtotal decimal.Decimal // Сумма позиций корзины
	Discount decimal.Decimal // Скидка из корзины
	Tax      decimal.Decimal // Налог (пока всегда 0, зарезервировано)
	Shipping decimal.Decimal // Стоимость доставки
	Total    decimal.Decimal // Итоговая сумма
	Currency string          // Валюта всех полей
}

// Validate проверяет инварианты расчёта:
// скидка не больше subtotal, налог и доставка неотрицательны,
// total сходится с формулой.
func (q PriceQuote) Validate() error {
	if q.Subtotal.IsNegative() {
		return fmt.Errorf("subtotal: %w", ErrNegativeAmount)
	}
	if q.Discount.IsNegative() {
		return fmt.Errorf("discount: %w", ErrNegativeAmount)
	}
	if q.Tax.IsNegative() {
		return fmt.Errorf("tax: %w", ErrNegativeAmount)
	}
	if q.Shipping.IsNegative() {
		return fmt.Errorf("shipping: %w", ErrNegativeAmount)
	}
	if q.Discount.GreaterThan(q.Subtotal) {
		return errors.New("скидка превышает сумму позиций")
	}

	expected := q.Subtotal.Sub(q.Discount).Add(q.Tax).Add(q.Shipping)
	if !q.Total.Equal(expected) {
		return fmt.Errorf("итоговая сумма %s не сходится с расчётной %s",
			q.Total.String(), expected.String())
	}

	return nil
}

// TotalMoney возвращает итоговую сумму как Money.
func (q PriceQuote) TotalMoney() Money {
	return Money{Amount: q.Total, Currency: q.Currency}
}
