// Package handler содержит HTTP обработчики checkout API.
package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"example.com/checkout-service/services/checkout/internal/domain"
)

// === Envelope ===

// Envelope — единый конверт всех ответов API.
type Envelope struct {
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message"`
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
}

// respond отправляет ответ в едином конверте.
func respond(c *gin.Context, httpStatus int, data interface{}, message string) {
	status := "success"
	if httpStatus >= 400 {
		status = "error"
	}

	c.JSON(httpStatus, Envelope{
		Data:      data,
		Message:   message,
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// === Request DTOs ===

// CheckoutRequest — запрос initiate/complete checkout.
// shipping_address_id не помечен binding:"required": при идемпотентном
// retry запрос может содержать только transaction id.
type CheckoutRequest struct {
	ShippingAddressID           string `json:"shipping_address_id"`
	PaymentMethodID             string `json:"payment_method_id"`
	PaymentGatewayTransactionID string `json:"payment_gateway_transaction_id"`
	CartID                      string `json:"cart_id"`
}

// toInput преобразует wire DTO в доменный ввод.
func (r CheckoutRequest) toInput() domain.CheckoutInput {
	return domain.CheckoutInput{
		ShippingAddressID:           r.ShippingAddressID,
		PaymentMethodID:             r.PaymentMethodID,
		PaymentGatewayTransactionID: r.PaymentGatewayTransactionID,
		CartID:                      r.CartID,
	}
}

// AddressValidationRequest — запрос проверки адреса.
type AddressValidationRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// ShippingCalculationRequest — запрос расчёта доставки.
type ShippingCalculationRequest struct {
	AddressID string `json:"address_id"`
}

// === Response DTOs ===

// CartItemResponse — позиция корзины в ответе.
type CartItemResponse struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// AddressResponse — адрес доставки в ответе.
type AddressResponse struct {
	ID       string `json:"id"`
	Line1    string `json:"line1"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// CheckoutSummaryResponse — ответ initiate checkout.
type CheckoutSummaryResponse struct {
	Items           []CartItemResponse `json:"items"`
	ShippingAddress AddressResponse    `json:"shipping_address"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	ShippingCost    decimal.Decimal    `json:"shipping_cost"`
	Total           decimal.Decimal    `json:"total"`
	Currency        string             `json:"currency"`
}

// CheckoutCompleteResponse — ответ complete checkout.
type CheckoutCompleteResponse struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	PaymentID   string          `json:"payment_id"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
}

// AddressValidationResponse — ответ проверки адреса.
type AddressValidationResponse struct {
	Valid                bool     `json:"valid"`
	SuggestedCorrections []string `json:"suggested_corrections,omitempty"`
}

// ShippingOptionResponse — вариант доставки в ответе.
type ShippingOptionResponse struct {
	Method        string          `json:"method"`
	Cost          decimal.Decimal `json:"cost"`
	Currency      string          `json:"currency"`
	EstimatedDays int             `json:"estimated_days"`
}

// ShippingCalculationResponse — ответ расчёта доставки.
type ShippingCalculationResponse struct {
	Options []ShippingOptionResponse `json:"options"`
}

// === Преобразования domain -> response ===

// summaryToResponse собирает ответ initiate из доменной сводки.
func summaryToResponse(s domain.CheckoutSummary) CheckoutSummaryResponse {
	items := make([]CartItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = CartItemResponse{
			ProductID:  item.ProductID,
			Name:       item.Name,
			SKU:        item.SKU,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		}
	}

	return CheckoutSummaryResponse{
		Items: items,
		ShippingAddress: AddressResponse{
			ID:       s.Address.ID,
			Line1:    s.Address.Line1,
			City:     s.Address.City,
			State:    s.Address.State,
			Postcode: s.Address.Postcode,
			Country:  s.Address.Country,
		},
		Subtotal:       s.Quote.Subtotal,
		DiscountAmount: s.Quote.Discount,
		TaxAmount:      s.Quote.Tax,
		ShippingCost:   s.Quote.Shipping,
		Total:          s.Quote.Total,
		Currency:       s.Quote.Currency,
	}
}

// completeToResponse собирает ответ complete из доменного результата.
func completeToResponse(r domain.CheckoutComplete) CheckoutCompleteResponse {
	return CheckoutCompleteResponse{
		OrderID:     r.OrderID,
		OrderNumber: r.OrderNumber,
		PaymentID:   r.PaymentID,
		Total:       r.Total,
		Currency:    r.Currency,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}
