package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/checkout-service/pkg/logger"
	"example.com/checkout-service/pkg/metrics"
	"example.com/checkout-service/services/checkout/internal/client"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// Причина возврата платежа при компенсации.
const refundReason = "Checkout failed"

// Имена шагов саги для метрик.
const (
	stepReserve      = "reserve"
	stepPay          = "pay"
	stepCreateOrder  = "create_order"
	stepClearCart    = "clear_cart"
	stepPublishEvent = "publish_event"
)

// Engine оркестрирует сагу завершения checkout.
// Stateless: всё состояние запроса живёт в State на стеке вызова.
type Engine struct {
	cart      CartGateway
	address   AddressGateway
	inventory InventoryGateway
	payment   PaymentGateway
	order     OrderGateway
	stock     StockPicker
	pricer    Pricer
	events    EventPublisher
	resolver  *Resolver
}

// Dependencies — зависимости саги.
type Dependencies struct {
	Cart      CartGateway
	Address   AddressGateway
	Inventory InventoryGateway
	Payment   PaymentGateway
	Order     OrderGateway
	Stock     StockPicker
	Pricer    Pricer
	Events    EventPublisher
}

// NewEngine создаёт движок саги.
func NewEngine(deps Dependencies) *Engine {
	return &Engine{
		cart:      deps.Cart,
		address:   deps.Address,
		inventory: deps.Inventory,
		payment:   deps.Payment,
		order:     deps.Order,
		stock:     deps.Stock,
		pricer:    deps.Pricer,
		events:    deps.Events,
		resolver:  NewResolver(deps.Payment, deps.Order),
	}
}

// Complete выполняет прямой конвейер саги:
// validate -> price -> reserve -> pay -> create order -> clear cart -> publish.
// При сбое шагов 2-6 запускается каскад компенсаций в обратном порядке,
// ограниченный реально созданными артефактами.
func (e *Engine) Complete(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutComplete, error) {
	log := logger.FromContext(ctx)

	cart, err := e.cart.GetCart(ctx, p)
	if err != nil {
		return domain.CheckoutComplete{}, classify(err, NewState())
	}

	// Retry путь: transaction id шлюза есть, а корзина пуста — значит
	// первый вызов уже прошёл и очистил корзину. Непустая корзина
	// означает активный checkout, short-circuit не применяется.
	if in.PaymentGatewayTransactionID != "" && cart.IsEmpty() {
		log.Info().Msg("Обнаружен retry по transaction id, запуск idempotency resolver")
		return e.resolver.Resolve(ctx, p, in.PaymentGatewayTransactionID)
	}

	state := NewState()

	result, err := e.runPipeline(ctx, p, in, cart, state)
	if err != nil {
		// Компенсации идут на отвязанном контексте: обрыв клиента
		// не должен оставить висящий резерв или невозвращённый платёж.
		e.compensate(context.WithoutCancel(ctx), p, state, err)
		return domain.CheckoutComplete{}, classify(err, state)
	}

	return result, nil
}

// runPipeline выполняет шаги саги по порядку.
// Все side-effects одного вызова строго упорядочены; параллелизма внутри саги нет.
func (e *Engine) runPipeline(ctx context.Context, p domain.Principal, in domain.CheckoutInput, cart domain.CartSnapshot, state *State) (domain.CheckoutComplete, error) {
	log := logger.FromContext(ctx)

	// Шаг 1: валидация.
	if cart.IsEmpty() {
		return domain.CheckoutComplete{}, domain.ErrEmptyCart()
	}
	if in.ShippingAddressID == "" {
		return domain.CheckoutComplete{}, domain.ErrAddressRequired()
	}

	if _, err := e.address.GetAddress(ctx, p, in.ShippingAddressID); err != nil {
		return domain.CheckoutComplete{}, err
	}

	// Шаг 2: расчёт стоимости.
	quote, err := e.pricer.Quote(cart)
	if err != nil {
		return domain.CheckoutComplete{}, err
	}

	// Шаг 3: подбор локаций и резервирование.
	// tempOrderID — идентификатор, который оркестратор передаёт Inventory;
	// он же становится reservation handle. Order Service позже присвоит
	// заказу собственный id — это независимые идентификаторы.
	reservationItems, err := e.stock.PickAll(ctx, p, cart.Items)
	if err != nil {
		metrics.RecordSagaStep(stepReserve, "error")
		return domain.CheckoutComplete{}, err
	}

	tempOrderID := uuid.New().String()
	if err := e.inventory.Reserve(ctx, p, tempOrderID, reservationItems); err != nil {
		metrics.RecordSagaStep(stepReserve, "error")
		return domain.CheckoutComplete{}, err
	}
	state.MarkReserved(tempOrderID)
	metrics.RecordSagaStep(stepReserve, "success")

	log.Info().
		Str("reservation_id", tempOrderID).
		Int("items_count", len(reservationItems)).
		Msg("Резерв создан")

	// Шаг 4: платёж.
	paymentID, err := e.payment.Process(ctx, p, client.ProcessPaymentInput{
		Amount:                      quote.Total,
		Currency:                    quote.Currency,
		OrderID:                     tempOrderID,
		PaymentMethodID:             in.PaymentMethodID,
		PaymentGatewayTransactionID: in.PaymentGatewayTransactionID,
	})
	if err != nil {
		metrics.RecordSagaStep(stepPay, "error")
		return domain.CheckoutComplete{}, err
	}
	state.MarkPaid(paymentID)
	metrics.RecordSagaStep(stepPay, "success")

	log.Info().
		Str("payment_id", paymentID).
		Msg("Платёж проведён")

	// Шаг 5: создание заказа.
	order, err := e.order.Create(ctx, p, client.CreateOrderInput{
		ShippingAddressID: in.ShippingAddressID,
		PaymentID:         paymentID,
		Items:             cart.Items,
		Quote:             quote,
	})
	if err != nil {
		metrics.RecordSagaStep(stepCreateOrder, "error")
		return domain.CheckoutComplete{}, err
	}
	state.MarkOrderCreated(order.OrderID, order.OrderNumber)
	metrics.RecordSagaStep(stepCreateOrder, "success")

	log.Info().
		Str("order_id", order.OrderID).
		Str("order_number", order.OrderNumber).
		Msg("Заказ создан")

	// Шаг 6: очистка корзины (best-effort).
	if err := e.cart.ClearCart(ctx, p); err != nil {
		metrics.RecordSagaStep(stepClearCart, "error")
		log.Warn().Err(err).Msg("Не удалось очистить корзину после создания заказа")
	} else {
		metrics.RecordSagaStep(stepClearCart, "success")
	}

	// Шаг 7: публикация события OrderCreated (best-effort).
	if err := e.events.PublishOrderCreated(ctx, order.OrderID, p.UserID, p.TenantID); err != nil {
		metrics.RecordSagaStep(stepPublishEvent, "error")
		log.Warn().Err(err).Str("order_id", order.OrderID).
			Msg("Не удалось опубликовать событие OrderCreated")
	} else {
		metrics.RecordSagaStep(stepPublishEvent, "success")
	}

	return domain.CheckoutComplete{
		OrderID:     order.OrderID,
		OrderNumber: order.OrderNumber,
		PaymentID:   paymentID,
		Total:       quote.Total,
		Currency:    quote.Currency,
		Status:      domain.StatusPlaced,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// compensate откатывает созданные артефакты в обратном хронологическом порядке.
// Если заказ создан — платёж и резерв принадлежат заказу, откат не выполняется.
// Ошибки компенсаций логируются и никогда не подменяют исходную ошибку.
func (e *Engine) compensate(ctx context.Context, p domain.Principal, state *State, cause error) {
	log := logger.FromContext(ctx)

	if state.OrderID() != "" {
		log.Error().Err(cause).
			Str("order_id", state.OrderID()).
			Msg("Сбой после создания заказа: компенсации не выполняются, заказ владеет артефактами")
		return
	}

	if state.OwesRefund() {
		if err := e.payment.Refund(ctx, p, state.PaymentID(), refundReason); err != nil {
			metrics.RecordCompensation("refund_payment", "error")
			log.Error().Err(err).
				Str("payment_id", state.PaymentID()).
				Msg("Компенсация не удалась: возврат платежа")
		} else {
			metrics.RecordCompensation("refund_payment", "success")
			log.Info().
				Str("payment_id", state.PaymentID()).
				Msg("Компенсация: платёж возвращён")
		}
	}

	if state.OwesRelease() {
		if err := e.inventory.Release(ctx, p, state.ReservationID()); err != nil {
			metrics.RecordCompensation("release_inventory", "error")
			log.Error().Err(err).
				Str("reservation_id", state.ReservationID()).
				Msg("Компенсация не удалась: освобождение резерва")
		} else {
			metrics.RecordCompensation("release_inventory", "success")
			log.Info().
				Str("reservation_id", state.ReservationID()).
				Msg("Компенсация: резерв освобождён")
		}
	}
}

// classify транслирует ошибку шага в доменную.
// Бизнес-ошибки поднимаются без изменений; неожиданные оборачиваются
// с сообщением, зависящим от прогресса саги — оно помогает поддержке
// понять, какие артефакты уже созданы.
func classify(err error, state *State) error {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case state.OrderID() != "":
		return domain.WrapError(domain.CodeUnexpected,
			fmt.Sprintf("Order created but completion had warnings. Order id %s.", state.OrderID()), err)
	case state.PaymentID() != "":
		return domain.WrapError(domain.CodeUnexpected,
			fmt.Sprintf("Payment processed; order creation failed. Contact support with payment id %s.", state.PaymentID()), err)
	case state.ReservationID() != "":
		return domain.WrapError(domain.CodeUnexpected,
			"Inventory reserved but payment failed. Please try again.", err)
	default:
		return domain.WrapError(domain.CodeUnexpected, "Checkout failed. Please try again.", err)
	}
}

// Initiate выполняет dry-run: валидация, адрес, расчёт стоимости
// и проверка доступности остатков. Состояние системы не меняется.
func (e *Engine) Initiate(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutSummary, error) {
	cart, err := e.cart.GetCart(ctx, p)
	if err != nil {
		return domain.CheckoutSummary{}, classify(err, NewState())
	}

	if cart.IsEmpty() {
		return domain.CheckoutSummary{}, domain.ErrEmptyCart()
	}
	if in.ShippingAddressID == "" {
		return domain.CheckoutSummary{}, domain.ErrAddressRequired()
	}

	address, err := e.address.GetAddress(ctx, p, in.ShippingAddressID)
	if err != nil {
		return domain.CheckoutSummary{}, err
	}

	quote, err := e.pricer.Quote(cart)
	if err != nil {
		return domain.CheckoutSummary{}, classify(err, NewState())
	}

	// Availability probe: убеждаемся, что под каждую позицию есть локация.
	// Резервирование не выполняется.
	if _, err := e.stock.PickAll(ctx, p, cart.Items); err != nil {
		return domain.CheckoutSummary{}, err
	}

	return domain.CheckoutSummary{
		Items:   cart.Items,
		Address: address,
		Quote:   quote,
	}, nil
}

// Cancel освобождает резерв, если он указан. Без резерва — no-op.
func (e *Engine) Cancel(ctx context.Context, p domain.Principal, reservationID string) error {
	if reservationID == "" {
		return nil
	}

	if err := e.inventory.Release(ctx, p, reservationID); err != nil {
		return fmt.Errorf("ошибка отмены checkout: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("reservation_id", reservationID).
		Msg("Checkout отменён, резерв освобождён")

	return nil
}
