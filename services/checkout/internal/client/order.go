package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"example.com/checkout-service/pkg/httpclient"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// OrderClient — адаптер Order Service.
type OrderClient struct {
	http *httpclient.Client
}

// NewOrderClient создаёт адаптер Order Service.
func NewOrderClient(http *httpclient.Client) *OrderClient {
	return &OrderClient{http: http}
}

// CreateOrderInput — параметры создания заказа.
type CreateOrderInput struct {
	ShippingAddressID string
	PaymentID         string
	Items             []domain.CartItem
	Quote             domain.PriceQuote
}

// createOrderRequest — тело запроса создания заказа.
type createOrderRequest struct {
	ShippingAddressID string                   `json:"shipping_address_id"`
	PaymentID         string                   `json:"payment_id"`
	Items             []createOrderRequestItem `json:"items"`
	Subtotal          decimal.Decimal          `json:"subtotal"`
	DiscountAmount    decimal.Decimal          `json:"discount_amount"`
	TaxAmount         decimal.Decimal          `json:"tax_amount"`
	ShippingCost      decimal.Decimal          `json:"shipping_cost"`
	Total             decimal.Decimal          `json:"total"`
	Currency          string                   `json:"currency"`
}

// createOrderRequestItem — позиция запроса создания заказа.
type createOrderRequestItem struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Create создаёт заказ из оплаченной корзины.
func (c *OrderClient) Create(ctx context.Context, p domain.Principal, in CreateOrderInput) (domain.OrderProjection, error) {
	req := createOrderRequest{
		ShippingAddressID: in.ShippingAddressID,
		PaymentID:         in.PaymentID,
		Items:             make([]createOrderRequestItem, len(in.Items)),
		Subtotal:          in.Quote.Subtotal,
		DiscountAmount:    in.Quote.Discount,
		TaxAmount:         in.Quote.Tax,
		ShippingCost:      in.Quote.Shipping,
		Total:             in.Quote.Total,
		Currency:          in.Quote.Currency,
	}
	for i, item := range in.Items {
		req.Items[i] = createOrderRequestItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			SKU:        item.SKU,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		}
	}

	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.SetBody(req).Post("/api/v1/order")
	})
	if err != nil {
		return domain.OrderProjection{}, domain.WrapError(domain.CodeOrderCreationFailed,
			"Order creation failed", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return domain.OrderProjection{}, domain.WrapError(domain.CodeOrderCreationFailed,
			"Order creation failed",
			fmt.Errorf("order service вернул статус %d", resp.StatusCode()))
	}

	order, err := parseOrder(resp.Body())
	if err != nil {
		// Некорректное тело при успешном статусе — тоже сбой создания заказа.
		return domain.OrderProjection{}, domain.WrapError(domain.CodeOrderCreationFailed,
			"Order creation failed", err)
	}

	return order, nil
}

// GetByPayment возвращает проекцию заказа по payment id.
// 404 транслируется в OrderNotFound: вызывающий код повторяет запрос,
// пока заказ не станет видим из read replica.
func (c *OrderClient) GetByPayment(ctx context.Context, p domain.Principal, paymentID string) (domain.OrderProjection, error) {
	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.SetPathParam("paymentId", paymentID).
			Get("/api/v1/order/by-payment/{paymentId}")
	})
	if err != nil {
		return domain.OrderProjection{}, fmt.Errorf("ошибка поиска заказа по платежу %s: %w", paymentID, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		// Разбираем ниже.
	case http.StatusNotFound:
		return domain.OrderProjection{}, domain.NewError(domain.CodeOrderNotFound,
			"Order not found for the payment")
	default:
		return domain.OrderProjection{}, fmt.Errorf("order service вернул статус %d", resp.StatusCode())
	}

	return parseOrder(resp.Body())
}

// parseOrder извлекает проекцию заказа с учётом алиасов полей.
// Отсутствие order number — ошибка контракта: плейсхолдер не подставляется,
// клиент не должен увидеть сфабрикованный номер заказа.
func parseOrder(body []byte) (domain.OrderProjection, error) {
	data, err := decodeEnvelope(body)
	if err != nil {
		return domain.OrderProjection{}, err
	}

	f, err := decodeFields(data)
	if err != nil {
		return domain.OrderProjection{}, err
	}

	order := domain.OrderProjection{}

	order.OrderID, _ = f.pickString("id", "order_id", "orderId")
	if order.OrderID == "" {
		return domain.OrderProjection{}, contractError("order service", "order id")
	}

	order.OrderNumber, _ = f.pickString("order_number", "orderNumber")
	if order.OrderNumber == "" {
		return domain.OrderProjection{}, contractError("order service", "order number")
	}

	order.Total, _ = f.pickDecimal("total", "total_amount", "totalAmount")
	order.Currency, _ = f.pickString("currency")

	return order, nil
}
