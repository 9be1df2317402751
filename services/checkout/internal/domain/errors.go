// Package domain содержит бизнес-сущности и доменные ошибки Checkout Service.
package domain

import (
	"errors"
	"fmt"
)

// ErrorCode — машинно-читаемый код доменной ошибки.
// Handler слой транслирует код в HTTP статус.
type ErrorCode string

// Коды доменных ошибок процесса checkout.
const (
	// CodeEmptyCart — корзина пуста и retry не разрешим по transaction id.
	CodeEmptyCart ErrorCode = "EMPTY_CART"

	// CodeAddressRequired — не указан адрес доставки.
	CodeAddressRequired ErrorCode = "ADDRESS_REQUIRED"

	// CodeAddressNotFound — адрес доставки не найден.
	CodeAddressNotFound ErrorCode = "ADDRESS_NOT_FOUND"

	// CodeAddressForbidden — адрес принадлежит другому пользователю.
	CodeAddressForbidden ErrorCode = "ADDRESS_FORBIDDEN"

	// CodeInsufficientStock — ни одна локация не имеет достаточно товара,
	// либо Inventory Service отклонил резервирование.
	CodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"

	// CodePaymentDeclined — платёж отклонён платёжным сервисом или шлюзом.
	CodePaymentDeclined ErrorCode = "PAYMENT_DECLINED"

	// CodePaymentTimeout — вызов payment process превысил таймаут.
	// Платёж может всё ещё обрабатываться.
	CodePaymentTimeout ErrorCode = "PAYMENT_TIMEOUT"

	// CodeOrderCreationFailed — Order Service отклонил создание заказа
	// или вернул некорректное тело ответа.
	CodeOrderCreationFailed ErrorCode = "ORDER_CREATION_FAILED"

	// CodeOrderNotFound — заказ по платежу не найден (после всех попыток).
	CodeOrderNotFound ErrorCode = "ORDER_NOT_FOUND"

	// CodeUpstreamContract — в ответе нижестоящего сервиса отсутствует
	// обязательное поле.
	CodeUpstreamContract ErrorCode = "UPSTREAM_CONTRACT_ERROR"

	// CodeAuthTokenMissing — bearer токен не был прокинут во внутренний вызов.
	CodeAuthTokenMissing ErrorCode = "AUTH_TOKEN_MISSING"

	// CodeUnexpected — любая иная ошибка.
	CodeUnexpected ErrorCode = "UNEXPECTED_ERROR"
)

// Error — доменная ошибка с кодом и пользовательским сообщением.
// Message идёт наружу в API ответ, поэтому формулировки — на языке клиента.
type Error struct {
	Code    ErrorCode // Код для маппинга в HTTP статус
	Message string    // Пользовательское сообщение
	Err     error     // Исходная ошибка (для логов, наружу не уходит)
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает исходную ошибку для errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError создаёт доменную ошибку с кодом и сообщением.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError оборачивает исходную ошибку в доменную с кодом и сообщением.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf извлекает код доменной ошибки.
// Для не-доменных ошибок возвращает CodeUnexpected.
func CodeOf(err error) ErrorCode {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnexpected
}

// IsCode проверяет, имеет ли ошибка указанный доменный код.
func IsCode(err error, code ErrorCode) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ErrEmptyCart создаёт ошибку пустой корзины.
func ErrEmptyCart() *Error {
	return NewError(CodeEmptyCart, "Cart is empty")
}

// ErrAddressRequired создаёт ошибку отсутствующего адреса доставки.
func ErrAddressRequired() *Error {
	return NewError(CodeAddressRequired, "Shipping address is required")
}

// ErrInsufficientStock создаёт ошибку нехватки товара для указанного SKU.
func ErrInsufficientStock(sku string) *Error {
	return NewError(CodeInsufficientStock, fmt.Sprintf("Insufficient stock for SKU %s", sku))
}
