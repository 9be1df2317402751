package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Principal — аутентифицированный пользователь запроса.
// Передаётся явно через все вызовы адаптеров; глобального состояния
// с токеном в процессе нет — под конкурентной нагрузкой это приводит
// к перемешиванию токенов между арендаторами.
type Principal struct {
	UserID   string // ID пользователя из JWT claims
	TenantID string // ID арендатора (multi-tenancy)
	Token    string // Bearer токен, прокидывается в нижестоящие сервисы
}

// CheckoutInput — параметры операций initiate/complete checkout.
type CheckoutInput struct {
	ShippingAddressID           string // Адрес доставки (обязателен для complete)
	PaymentMethodID             string // Сохранённый платёжный инструмент (опционально)
	PaymentGatewayTransactionID string // Transaction id платёжного шлюза (retry путь)
	CartID                      string // Корзина (опционально; по умолчанию текущая корзина пользователя)
}

// CartItem — позиция корзины.
type CartItem struct {
	ProductID  string          // ID товара
	Name       string          // Название товара
	SKU        string          // Единица складского учёта
	Quantity   int             // Количество единиц
	UnitPrice  decimal.Decimal // Цена за единицу
	TotalPrice decimal.Decimal // Стоимость позиции
}

// CartSnapshot — снимок корзины на момент начала саги.
// Никогда не кэшируется между вызовами саги.
type CartSnapshot struct {
	Items          []CartItem      // Позиции корзины
	Subtotal       decimal.Decimal // Сумма позиций
	DiscountAmount decimal.Decimal // Скидка
	Currency       string          // Валюта всех сумм
}

// IsEmpty возвращает true для корзины без позиций.
func (c CartSnapshot) IsEmpty() bool {
	return len(c.Items) == 0
}

// Address — адрес доставки. Источник истины — Address Service.
type Address struct {
	ID       string // Идентификатор адреса
	Line1    string // Улица, дом
	City     string // Город
	State    string // Регион
	Postcode string // Почтовый индекс
	Country  string // Страна
}

// StockLocation — остаток товара в одной складской локации.
type StockLocation struct {
	LocationID   string // Идентификатор локации
	AvailableQty int    // Доступное количество
}

// ReservationItem — позиция запроса резервирования.
type ReservationItem struct {
	SKU        string // Единица складского учёта
	LocationID string // Выбранная локация
	Quantity   int    // Количество к резервированию
}

// OrderProjection — проекция заказа из Order Service
// (создание заказа или поиск по платежу).
type OrderProjection struct {
	OrderID     string          // ID заказа (присвоен Order Service)
	OrderNumber string          // Человекочитаемый номер заказа
	Total       decimal.Decimal // Итоговая сумма
	Currency    string          // Валюта
}

// CheckoutSummary — сводка для initiate checkout (dry-run, без side-effects).
type CheckoutSummary struct {
	Items   []CartItem // Позиции корзины
	Address Address    // Адрес доставки
	Quote   PriceQuote // Расчёт стоимости
}

// CheckoutComplete — результат успешного завершения саги.
type CheckoutComplete struct {
	OrderID     string          // ID заказа
	OrderNumber string          // Номер заказа
	PaymentID   string          // ID платежа
	Total       decimal.Decimal // Итоговая сумма
	Currency    string          // Валюта
	Status      string          // Всегда "PLACED"
	CreatedAt   time.Time       // Момент завершения
}

// StatusPlaced — терминальный успешный статус саги.
const StatusPlaced = "PLACED"

// AddressValidation — результат проверки адреса.
type AddressValidation struct {
	Valid                bool     // Адрес пригоден для доставки
	SuggestedCorrections []string // Подсказки по исправлению
}

// ValidateAddressFields проверяет минимальную полноту адреса:
// улица, город и страна обязательны.
func ValidateAddressFields(street, city, country string) AddressValidation {
	var corrections []string

	if strings.TrimSpace(street) == "" {
		corrections = append(corrections, "street is required")
	}
	if strings.TrimSpace(city) == "" {
		corrections = append(corrections, "city is required")
	}
	if strings.TrimSpace(country) == "" {
		corrections = append(corrections, "country is required")
	}

	return AddressValidation{
		Valid:                len(corrections) == 0,
		SuggestedCorrections: corrections,
	}
}

// Способы доставки.
const (
	ShippingMethodStandard = "STANDARD"
	ShippingMethodExpress  = "EXPRESS"
)

// ShippingOption — вариант доставки с ценой и сроком.
type ShippingOption struct {
	Method        string          // STANDARD / EXPRESS
	Cost          decimal.Decimal // Стоимость
	Currency      string          // Валюта
	EstimatedDays int             // Ожидаемый срок в днях
}
