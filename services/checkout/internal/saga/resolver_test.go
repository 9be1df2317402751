package saga

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/checkout-service/services/checkout/internal/domain"
)

// =====================================
// Вспомогательные функции
// =====================================

// newTestResolver создаёт resolver с нулевым backoff для быстрых тестов.
func newTestResolver(payment *mockPayment, order *mockOrder) *Resolver {
	r := NewResolver(payment, order)
	r.backoff = func(int) time.Duration { return 0 }
	return r
}

func resolvedOrder() domain.OrderProjection {
	return domain.OrderProjection{
		OrderID:     "order-1",
		OrderNumber: "ORD-1",
		Total:       decimal.RequireFromString("110.00"),
		Currency:    "INR",
	}
}

// =====================================
// Тесты Resolve
// =====================================

func TestResolve_Success(t *testing.T) {
	payment := &mockPayment{
		LookupFunc: func(_ context.Context, _ domain.Principal, txnID string) (string, error) {
			assert.Equal(t, "TXN-1", txnID)
			return "payment-1", nil
		},
	}
	order := &mockOrder{
		GetByPaymentFunc: func(_ context.Context, _ domain.Principal, paymentID string) (domain.OrderProjection, error) {
			assert.Equal(t, "payment-1", paymentID)
			return resolvedOrder(), nil
		},
	}

	r := newTestResolver(payment, order)

	result, err := r.Resolve(context.Background(), testPrincipal(), "TXN-1")
	require.NoError(t, err)

	assert.Equal(t, "order-1", result.OrderID)
	assert.Equal(t, "ORD-1", result.OrderNumber)
	assert.Equal(t, "payment-1", result.PaymentID)
	assert.True(t, result.Total.Equal(decimal.RequireFromString("110.00")))
	assert.Equal(t, "INR", result.Currency)
	assert.Equal(t, domain.StatusPlaced, result.Status)
	assert.Equal(t, 1, order.getByPayCalls)
}

func TestResolve_PaymentNotFound(t *testing.T) {
	// Платежа по transaction id нет — корзина действительно пуста.
	payment := &mockPayment{
		LookupFunc: func(_ context.Context, _ domain.Principal, _ string) (string, error) {
			return "", nil
		},
	}
	order := &mockOrder{}

	r := newTestResolver(payment, order)

	_, err := r.Resolve(context.Background(), testPrincipal(), "TXN-1")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeEmptyCart))
	assert.Zero(t, order.getByPayCalls, "поиск заказа не выполнялся")
}

func TestResolve_OrderVisibleAfterRetry(t *testing.T) {
	// Гонка: платёж записан, заказ виден только со второй попытки.
	payment := &mockPayment{
		LookupFunc: func(_ context.Context, _ domain.Principal, _ string) (string, error) {
			return "payment-1", nil
		},
	}

	attempts := 0
	order := &mockOrder{
		GetByPaymentFunc: func(_ context.Context, _ domain.Principal, _ string) (domain.OrderProjection, error) {
			attempts++
			if attempts == 1 {
				return domain.OrderProjection{}, domain.NewError(domain.CodeOrderNotFound, "Order not found for the payment")
			}
			return resolvedOrder(), nil
		},
	}

	r := newTestResolver(payment, order)

	result, err := r.Resolve(context.Background(), testPrincipal(), "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", result.OrderID)
	assert.Equal(t, 2, attempts)
}

func TestResolve_OrderNeverVisible(t *testing.T) {
	payment := &mockPayment{
		LookupFunc: func(_ context.Context, _ domain.Principal, _ string) (string, error) {
			return "payment-1", nil
		},
	}
	order := &mockOrder{
		GetByPaymentFunc: func(_ context.Context, _ domain.Principal, _ string) (domain.OrderProjection, error) {
			return domain.OrderProjection{}, domain.NewError(domain.CodeOrderNotFound, "Order not found for the payment")
		},
	}

	r := newTestResolver(payment, order)

	_, err := r.Resolve(context.Background(), testPrincipal(), "TXN-1")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeOrderNotFound))
	assert.Equal(t, resolverMaxAttempts, order.getByPayCalls, "ровно три попытки")
}

func TestResolve_NonRetryableErrorStopsLoop(t *testing.T) {
	payment := &mockPayment{
		LookupFunc: func(_ context.Context, _ domain.Principal, _ string) (string, error) {
			return "payment-1", nil
		},
	}
	order := &mockOrder{
		GetByPaymentFunc: func(_ context.Context, _ domain.Principal, _ string) (domain.OrderProjection, error) {
			return domain.OrderProjection{}, domain.NewError(domain.CodeUpstreamContract, "Invalid response from order-service: missing order_number")
		},
	}

	r := newTestResolver(payment, order)

	_, err := r.Resolve(context.Background(), testPrincipal(), "TXN-1")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeUpstreamContract))
	assert.Equal(t, 1, order.getByPayCalls, "не-retryable ошибка останавливает цикл")
}

func TestResolve_ContextCancelledDuringBackoff(t *testing.T) {
	payment := &mockPayment{
		LookupFunc: func(_ context.Context, _ domain.Principal, _ string) (string, error) {
			return "payment-1", nil
		},
	}
	order := &mockOrder{
		GetByPaymentFunc: func(_ context.Context, _ domain.Principal, _ string) (domain.OrderProjection, error) {
			return domain.OrderProjection{}, domain.NewError(domain.CodeOrderNotFound, "Order not found for the payment")
		},
	}

	r := NewResolver(payment, order) // Штатный backoff 0/200/400ms

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, testPrincipal(), "TXN-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, order.getByPayCalls, "первая попытка без задержки, вторая прервана")
}

func TestResolve_Deterministic(t *testing.T) {
	// Два вызова с одним transaction id возвращают один и тот же заказ.
	payment := &mockPayment{
		LookupFunc: func(_ context.Context, _ domain.Principal, _ string) (string, error) {
			return "payment-1", nil
		},
	}
	order := &mockOrder{
		GetByPaymentFunc: func(_ context.Context, _ domain.Principal, _ string) (domain.OrderProjection, error) {
			return resolvedOrder(), nil
		},
	}

	r := newTestResolver(payment, order)

	first, err := r.Resolve(context.Background(), testPrincipal(), "TXN-1")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), testPrincipal(), "TXN-1")
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)
	assert.Equal(t, first.PaymentID, second.PaymentID)
}
