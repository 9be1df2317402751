package saga

import (
	"context"
	"time"

	"example.com/checkout-service/pkg/logger"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// Параметры retry цикла поиска заказа по платежу.
// Задержки 0ms, 200ms, 400ms покрывают окно, в котором платёж уже записан,
// а строка заказа ещё не видна из read replica.
const (
	resolverMaxAttempts = 3
	resolverBackoffStep = 200 * time.Millisecond
)

// Resolver обрабатывает идемпотентный retry завершения checkout.
// Если клиент повторяет запрос с тем же payment gateway transaction id
// (сеть моргнула после клиентской оплаты), resolver находит уже созданный
// заказ и восстанавливает успешный ответ, не перезапуская сагу.
type Resolver struct {
	payment PaymentGateway
	order   OrderGateway

	// backoff вычисляет задержку перед попыткой (подменяется в тестах).
	backoff func(attempt int) time.Duration
}

// NewResolver создаёт resolver поверх Payment и Order адаптеров.
func NewResolver(payment PaymentGateway, order OrderGateway) *Resolver {
	return &Resolver{
		payment: payment,
		order:   order,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * resolverBackoffStep
		},
	}
}

// Resolve восстанавливает ответ по transaction id шлюза.
// Два вызова с одним transaction id и одним principal возвращают
// один и тот же orderId и orderNumber.
func (r *Resolver) Resolve(ctx context.Context, p domain.Principal, txnID string) (domain.CheckoutComplete, error) {
	log := logger.FromContext(ctx)

	paymentID, err := r.payment.LookupByTransactionID(ctx, p, txnID)
	if err != nil {
		return domain.CheckoutComplete{}, err
	}

	// Платежа нет — retry не разрешим, запрос действительно пустой.
	if paymentID == "" {
		log.Info().Msg("Платёж по transaction id не найден, retry не разрешим")
		return domain.CheckoutComplete{}, domain.ErrEmptyCart()
	}

	order, err := r.findOrder(ctx, p, paymentID)
	if err != nil {
		return domain.CheckoutComplete{}, err
	}

	log.Info().
		Str("order_id", order.OrderID).
		Str("payment_id", paymentID).
		Msg("Retry разрешён: найден существующий заказ")

	return domain.CheckoutComplete{
		OrderID:     order.OrderID,
		OrderNumber: order.OrderNumber,
		PaymentID:   paymentID,
		Total:       order.Total,
		Currency:    order.Currency,
		Status:      domain.StatusPlaced,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// findOrder ищет заказ по платежу с повторами.
// Повторяется только OrderNotFound; остальные ошибки поднимаются сразу.
func (r *Resolver) findOrder(ctx context.Context, p domain.Principal, paymentID string) (domain.OrderProjection, error) {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < resolverMaxAttempts; attempt++ {
		if delay := r.backoff(attempt); delay > 0 {
			// Отмена контекста прерывает ожидание.
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return domain.OrderProjection{}, ctx.Err()
			}
		}

		order, err := r.order.GetByPayment(ctx, p, paymentID)
		if err == nil {
			return order, nil
		}

		if !domain.IsCode(err, domain.CodeOrderNotFound) {
			return domain.OrderProjection{}, err
		}

		lastErr = err
		log.Debug().
			Str("payment_id", paymentID).
			Int("attempt", attempt+1).
			Msg("Заказ по платежу ещё не виден, повтор")
	}

	return domain.OrderProjection{}, lastErr
}
