package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/checkout-service/services/checkout/internal/domain"
)

// =====================================
// Мок CheckoutService
// =====================================

type MockCheckoutService struct {
	InitiateCheckoutFunc  func(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutSummary, error)
	CompleteCheckoutFunc  func(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutComplete, error)
	CancelCheckoutFunc    func(ctx context.Context, p domain.Principal, reservationID string) error
	ValidateAddressFunc   func(ctx context.Context, street, city, country string) domain.AddressValidation
	CalculateShippingFunc func(ctx context.Context) []domain.ShippingOption
}

func (m *MockCheckoutService) InitiateCheckout(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutSummary, error) {
	return m.InitiateCheckoutFunc(ctx, p, in)
}

func (m *MockCheckoutService) CompleteCheckout(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutComplete, error) {
	return m.CompleteCheckoutFunc(ctx, p, in)
}

func (m *MockCheckoutService) CancelCheckout(ctx context.Context, p domain.Principal, reservationID string) error {
	return m.CancelCheckoutFunc(ctx, p, reservationID)
}

func (m *MockCheckoutService) ValidateAddress(ctx context.Context, street, city, country string) domain.AddressValidation {
	return m.ValidateAddressFunc(ctx, street, city, country)
}

func (m *MockCheckoutService) CalculateShipping(ctx context.Context) []domain.ShippingOption {
	return m.CalculateShippingFunc(ctx)
}

// =====================================
// Вспомогательные функции
// =====================================

// setupTestRouter создаёт тестовый роутер с фейковой аутентификацией.
func setupTestRouter(service CheckoutService, principal *domain.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()

	// Фейковый auth middleware вместо валидации JWT
	router.Use(func(c *gin.Context) {
		if principal != nil {
			c.Set("principal", *principal)
		}
		c.Next()
	})

	h := NewCheckoutHandler(service)
	v1 := router.Group("/api/v1/checkout")
	{
		v1.POST("/initiate", h.Initiate)
		v1.POST("/complete", h.Complete)
		v1.POST("/cancel", h.Cancel)
		v1.POST("/address/validate", h.ValidateAddress)
		v1.POST("/shipping/calculate", h.CalculateShipping)
	}

	return router
}

func testPrincipal() *domain.Principal {
	return &domain.Principal{UserID: "user-1", TenantID: "tenant-1", Token: "token-1"}
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func validCheckoutComplete() domain.CheckoutComplete {
	return domain.CheckoutComplete{
		OrderID:     "order-1",
		OrderNumber: "ORD-1",
		PaymentID:   "payment-1",
		Total:       decimal.RequireFromString("110.00"),
		Currency:    "INR",
		Status:      domain.StatusPlaced,
		CreatedAt:   time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
}

// =====================================
// Тесты Initiate
// =====================================

func TestInitiate_Success(t *testing.T) {
	service := &MockCheckoutService{
		InitiateCheckoutFunc: func(_ context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutSummary, error) {
			assert.Equal(t, "user-1", p.UserID)
			assert.Equal(t, "addr-1", in.ShippingAddressID)

			return domain.CheckoutSummary{
				Items: []domain.CartItem{
					{SKU: "SKU1", Name: "Widget", Quantity: 2,
						UnitPrice:  decimal.RequireFromString("50.00"),
						TotalPrice: decimal.RequireFromString("100.00")},
				},
				Address: domain.Address{ID: "addr-1", City: "Mumbai", Country: "IN"},
				Quote: domain.PriceQuote{
					Subtotal: decimal.RequireFromString("100.00"),
					Shipping: decimal.RequireFromString("10.00"),
					Total:    decimal.RequireFromString("110.00"),
					Currency: "INR",
				},
			}, nil
		},
	}

	router := setupTestRouter(service, testPrincipal())
	w := performRequest(router, http.MethodPost, "/api/v1/checkout/initiate",
		gin.H{"shipping_address_id": "addr-1"})

	assert.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "Checkout summary", env.Message)
	assert.NotEmpty(t, env.Timestamp)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "110", data["total"])
	assert.Equal(t, "INR", data["currency"])

	addr, ok := data["shipping_address"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Mumbai", addr["city"])
}

func TestInitiate_InvalidBody(t *testing.T) {
	router := setupTestRouter(&MockCheckoutService{}, testPrincipal())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/initiate",
		bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Invalid request body", env.Message)
}

func TestInitiate_NoPrincipal(t *testing.T) {
	router := setupTestRouter(&MockCheckoutService{}, nil)
	w := performRequest(router, http.MethodPost, "/api/v1/checkout/initiate",
		gin.H{"shipping_address_id": "addr-1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// =====================================
// Тесты Complete
// =====================================

func TestComplete_Success(t *testing.T) {
	service := &MockCheckoutService{
		CompleteCheckoutFunc: func(_ context.Context, _ domain.Principal, in domain.CheckoutInput) (domain.CheckoutComplete, error) {
			assert.Equal(t, "TXN-1", in.PaymentGatewayTransactionID)
			return validCheckoutComplete(), nil
		},
	}

	router := setupTestRouter(service, testPrincipal())
	w := performRequest(router, http.MethodPost, "/api/v1/checkout/complete", gin.H{
		"shipping_address_id":            "addr-1",
		"payment_gateway_transaction_id": "TXN-1",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "Order placed", env.Message)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "order-1", data["order_id"])
	assert.Equal(t, "ORD-1", data["order_number"])
	assert.Equal(t, "payment-1", data["payment_id"])
	assert.Equal(t, "PLACED", data["status"])
	assert.Equal(t, "2026-08-24T12:00:00Z", data["created_at"])
}

func TestComplete_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "пустая корзина",
			err:         domain.ErrEmptyCart(),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Cart is empty",
		},
		{
			name:        "нет адреса",
			err:         domain.ErrAddressRequired(),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Shipping address is required",
		},
		{
			name:        "адрес не найден",
			err:         domain.NewError(domain.CodeAddressNotFound, "Shipping address not found"),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Shipping address not found",
		},
		{
			name:        "чужой адрес",
			err:         domain.NewError(domain.CodeAddressForbidden, "Shipping address belongs to another user"),
			wantStatus:  http.StatusForbidden,
			wantMessage: "Shipping address belongs to another user",
		},
		{
			name:        "нехватка товара",
			err:         domain.ErrInsufficientStock("SKU1"),
			wantStatus:  http.StatusConflict,
			wantMessage: "Insufficient stock for SKU SKU1",
		},
		{
			name:        "платёж отклонён",
			err:         domain.NewError(domain.CodePaymentDeclined, "Payment was declined"),
			wantStatus:  http.StatusPaymentRequired,
			wantMessage: "Payment was declined",
		},
		{
			name:        "таймаут платежа",
			err:         domain.NewError(domain.CodePaymentTimeout, "Payment request timed out; the payment may still be processing"),
			wantStatus:  http.StatusGatewayTimeout,
			wantMessage: "Payment request timed out; the payment may still be processing",
		},
		{
			name:        "сбой создания заказа",
			err:         domain.NewError(domain.CodeOrderCreationFailed, "Order creation failed"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Order creation failed",
		},
		{
			name:        "ошибка контракта",
			err:         domain.NewError(domain.CodeUpstreamContract, "Invalid response from order service: missing order number"),
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Invalid response from order service: missing order number",
		},
		{
			name:        "неожиданная ошибка с контекстом прогресса",
			err:         domain.NewError(domain.CodeUnexpected, "Inventory reserved but payment failed. Please try again."),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Inventory reserved but payment failed. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockCheckoutService{
				CompleteCheckoutFunc: func(_ context.Context, _ domain.Principal, _ domain.CheckoutInput) (domain.CheckoutComplete, error) {
					return domain.CheckoutComplete{}, tt.err
				},
			}

			router := setupTestRouter(service, testPrincipal())
			w := performRequest(router, http.MethodPost, "/api/v1/checkout/complete",
				gin.H{"shipping_address_id": "addr-1"})

			assert.Equal(t, tt.wantStatus, w.Code)

			env := decodeEnvelope(t, w)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, tt.wantMessage, env.Message)
			assert.Nil(t, env.Data, "детали исходной ошибки наружу не уходят")
		})
	}
}

// =====================================
// Тесты Cancel
// =====================================

func TestCancel(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantResID string
	}{
		{name: "camelCase параметр", query: "?reservationId=res-1", wantResID: "res-1"},
		{name: "snake_case параметр", query: "?reservation_id=res-2", wantResID: "res-2"},
		{name: "без резерва", query: "", wantResID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotResID string
			service := &MockCheckoutService{
				CancelCheckoutFunc: func(_ context.Context, _ domain.Principal, reservationID string) error {
					gotResID = reservationID
					return nil
				},
			}

			router := setupTestRouter(service, testPrincipal())
			w := performRequest(router, http.MethodPost, "/api/v1/checkout/cancel"+tt.query, nil)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Empty(t, w.Body.String(), "204 без тела")
			assert.Equal(t, tt.wantResID, gotResID)
		})
	}
}

// =====================================
// Тесты ValidateAddress и CalculateShipping
// =====================================

func TestValidateAddress(t *testing.T) {
	service := &MockCheckoutService{
		ValidateAddressFunc: func(_ context.Context, street, city, country string) domain.AddressValidation {
			return domain.ValidateAddressFields(street, city, country)
		},
	}

	router := setupTestRouter(service, testPrincipal())
	w := performRequest(router, http.MethodPost, "/api/v1/checkout/address/validate",
		gin.H{"city": "Mumbai", "country": "IN"})

	assert.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["valid"])
	assert.Equal(t, []interface{}{"street is required"}, data["suggested_corrections"])
}

func TestCalculateShipping(t *testing.T) {
	service := &MockCheckoutService{
		CalculateShippingFunc: func(_ context.Context) []domain.ShippingOption {
			return []domain.ShippingOption{
				{Method: domain.ShippingMethodStandard, Cost: decimal.RequireFromString("10.00"), Currency: "INR", EstimatedDays: 5},
				{Method: domain.ShippingMethodExpress, Cost: decimal.RequireFromString("15.00"), Currency: "INR", EstimatedDays: 2},
			}
		},
	}

	router := setupTestRouter(service, testPrincipal())
	w := performRequest(router, http.MethodPost, "/api/v1/checkout/shipping/calculate",
		gin.H{"address_id": "addr-1"})

	assert.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)

	options, ok := data["options"].([]interface{})
	require.True(t, ok)
	require.Len(t, options, 2)

	standard := options[0].(map[string]interface{})
	assert.Equal(t, "STANDARD", standard["method"])
	assert.Equal(t, float64(5), standard["estimated_days"])
}
