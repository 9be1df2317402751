package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"example.com/checkout-service/pkg/httpclient"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// PaymentClient — адаптер Payment Service.
type PaymentClient struct {
	http            *httpclient.Client
	defaultCurrency string
}

// NewPaymentClient создаёт адаптер Payment Service.
func NewPaymentClient(http *httpclient.Client, defaultCurrency string) *PaymentClient {
	return &PaymentClient{
		http:            http,
		defaultCurrency: defaultCurrency,
	}
}

// ProcessPaymentInput — параметры обработки платежа.
type ProcessPaymentInput struct {
	Amount                      decimal.Decimal
	Currency                    string
	OrderID                     string
	PaymentMethodID             string // Сохранённый инструмент (опционально)
	PaymentGatewayTransactionID string // Transaction id шлюза (опционально)
}

// processRequest — тело запроса payment process.
type processRequest struct {
	Amount                      decimal.Decimal `json:"amount"`
	Currency                    string          `json:"currency"`
	OrderID                     string          `json:"order_id"`
	PaymentMethodID             string          `json:"payment_method_id,omitempty"`
	PaymentGatewayTransactionID string          `json:"payment_gateway_transaction_id,omitempty"`
}

// refundRequest — тело запроса возврата платежа.
type refundRequest struct {
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

// Process проводит платёж и возвращает payment id.
// Контракт Payment Service: вызов идемпотентен по payment_gateway_transaction_id —
// повтор с тем же transaction id возвращает существующий платёж, а не создаёт новый.
func (c *PaymentClient) Process(ctx context.Context, p domain.Principal, in ProcessPaymentInput) (string, error) {
	req := processRequest{
		Amount:                      in.Amount,
		Currency:                    in.Currency,
		OrderID:                     in.OrderID,
		PaymentMethodID:             in.PaymentMethodID,
		PaymentGatewayTransactionID: in.PaymentGatewayTransactionID,
	}

	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.SetBody(req).Post("/api/v1/payment/process")
	})
	if err != nil {
		if isTimeout(err) {
			return "", domain.WrapError(domain.CodePaymentTimeout,
				"Payment request timed out; the payment may still be processing", err)
		}
		return "", fmt.Errorf("ошибка вызова payment process: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusOK || resp.StatusCode() == http.StatusCreated:
		// Разбираем ниже.
	case resp.StatusCode() == http.StatusPaymentRequired ||
		resp.StatusCode() == http.StatusBadRequest ||
		resp.StatusCode() == http.StatusUnprocessableEntity:
		return "", domain.WrapError(domain.CodePaymentDeclined,
			"Payment was declined",
			fmt.Errorf("payment service вернул статус %d", resp.StatusCode()))
	default:
		return "", fmt.Errorf("payment service вернул статус %d", resp.StatusCode())
	}

	return parsePaymentID(resp.Body())
}

// LookupByTransactionID ищет существующий платёж по transaction id шлюза.
// Payment Service не предоставляет отдельного read endpoint, поэтому
// используется идемпотентный process с нулевой суммой: сервис возвращает
// существующий платёж вместо создания нового.
// Возвращает пустую строку, если платёж не найден.
func (c *PaymentClient) LookupByTransactionID(ctx context.Context, p domain.Principal, txnID string) (string, error) {
	paymentID, err := c.Process(ctx, p, ProcessPaymentInput{
		Amount:                      decimal.Zero,
		Currency:                    c.defaultCurrency,
		PaymentGatewayTransactionID: txnID,
	})
	if err != nil {
		// Отклонённый lookup означает "платежа нет", а не сбой.
		if domain.IsCode(err, domain.CodePaymentDeclined) {
			return "", nil
		}
		return "", err
	}

	return paymentID, nil
}

// Refund возвращает платёж. Компенсирующее действие саги.
func (c *PaymentClient) Refund(ctx context.Context, p domain.Principal, paymentID, reason string) error {
	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.SetBody(refundRequest{PaymentID: paymentID, Reason: reason}).
			Post("/api/v1/payment/refund")
	})
	if err != nil {
		return fmt.Errorf("ошибка возврата платежа %s: %w", paymentID, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("payment service вернул статус %d при возврате платежа %s",
			resp.StatusCode(), paymentID)
	}

	return nil
}

// parsePaymentID извлекает payment id из ответа с учётом алиасов.
func parsePaymentID(body []byte) (string, error) {
	data, err := decodeEnvelope(body)
	if err != nil {
		return "", err
	}

	f, err := decodeFields(data)
	if err != nil {
		return "", err
	}

	paymentID, ok := f.pickString("payment_id", "id", "paymentId")
	if !ok {
		return "", contractError("payment service", "payment id")
	}

	return paymentID, nil
}

// isTimeout определяет, является ли ошибка таймаутом сети или контекста.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
