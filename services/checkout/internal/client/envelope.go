// Package client содержит HTTP адаптеры к нижестоящим сервисам
// (Cart, Address, Inventory, Payment, Order).
//
// Все сервисы отвечают единым конвертом { data, message, status, timestamp }.
// Декодеры устойчивы к вариациям имён полей (snake_case / camelCase)
// и принимают числа как JSON number или string. Неизвестные поля игнорируются.
package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"example.com/checkout-service/services/checkout/internal/domain"
)

// envelope — единый конверт ответов нижестоящих сервисов.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Status  string          `json:"status"`
}

// decodeEnvelope извлекает поле data из конверта.
// Если конверта нет (сервис вернул сущность напрямую) — возвращает тело как есть.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("невалидный JSON ответа: %w", err)
	}

	if len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data, nil
	}

	return body, nil
}

// fields — распакованный JSON объект для выборки полей по алиасам.
type fields map[string]json.RawMessage

// decodeFields распаковывает JSON объект в map полей.
func decodeFields(raw json.RawMessage) (fields, error) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("ожидался JSON объект: %w", err)
	}
	return f, nil
}

// pickString возвращает первое непустое строковое поле из списка алиасов.
// Числовые значения конвертируются в строку (id иногда приходит числом).
func (f fields) pickString(aliases ...string) (string, bool) {
	for _, name := range aliases {
		raw, ok := f[name]
		if !ok || string(raw) == "null" {
			continue
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if strings.TrimSpace(s) != "" {
				return s, true
			}
			continue
		}

		// Число как идентификатор — приводим к строке.
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String(), true
		}
	}
	return "", false
}

// pickDecimal возвращает первое числовое поле из списка алиасов.
// Принимает JSON number и string ("10.00").
func (f fields) pickDecimal(aliases ...string) (decimal.Decimal, bool) {
	for _, name := range aliases {
		raw, ok := f[name]
		if !ok || string(raw) == "null" {
			continue
		}

		var d decimal.Decimal
		if err := json.Unmarshal(raw, &d); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// pickInt возвращает первое целочисленное поле из списка алиасов.
func (f fields) pickInt(aliases ...string) (int, bool) {
	d, ok := f.pickDecimal(aliases...)
	if !ok {
		return 0, false
	}
	return int(d.IntPart()), true
}

// pickArray возвращает первое поле-массив из списка алиасов.
func (f fields) pickArray(aliases ...string) ([]json.RawMessage, bool) {
	for _, name := range aliases {
		raw, ok := f[name]
		if !ok || string(raw) == "null" {
			continue
		}

		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err == nil {
			return arr, true
		}
	}
	return nil, false
}

// decodeJSONList распаковывает JSON массив.
func decodeJSONList(data []byte, out interface{}) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("ожидался JSON массив: %w", err)
	}
	return nil
}

// contractError создаёт ошибку контракта: обязательное поле отсутствует
// в ответе нижестоящего сервиса. Плейсхолдеры не подставляются.
func contractError(service, field string) *domain.Error {
	return domain.NewError(domain.CodeUpstreamContract,
		fmt.Sprintf("Invalid response from %s: missing %s", service, field))
}
