// Package saga реализует сагу завершения checkout: прямой конвейер
// reserve -> pay -> create order -> clear cart -> publish event
// и каскад компенсаций при сбое любого шага.
package saga

// State — скретчпад одного вызова саги.
// Отслеживает артефакты, требующие отката: резерв, платёж, заказ.
// Живёт только в рамках одного вызова; персистентности нет.
type State struct {
	reservationID string
	paymentID     string
	orderID       string
	orderNumber   string
}

// NewState создаёт пустое состояние саги.
func NewState() *State {
	return &State{}
}

// MarkReserved фиксирует успешное резервирование.
// reservationID — это order id, который оркестратор передал Inventory Service;
// он не зависит от идентификатора, который позже присвоит Order Service.
// Поле устанавливается ровно один раз и не откатывается.
func (s *State) MarkReserved(reservationID string) {
	if s.reservationID == "" {
		s.reservationID = reservationID
	}
}

// MarkPaid фиксирует успешный платёж.
func (s *State) MarkPaid(paymentID string) {
	if s.paymentID == "" {
		s.paymentID = paymentID
	}
}

// MarkOrderCreated фиксирует успешное создание заказа.
func (s *State) MarkOrderCreated(orderID, orderNumber string) {
	if s.orderID == "" {
		s.orderID = orderID
		s.orderNumber = orderNumber
	}
}

// ReservationID возвращает идентификатор резерва ("" если резерва нет).
func (s *State) ReservationID() string {
	return s.reservationID
}

// PaymentID возвращает идентификатор платежа ("" если платежа нет).
func (s *State) PaymentID() string {
	return s.paymentID
}

// OrderID возвращает идентификатор заказа ("" если заказ не создан).
func (s *State) OrderID() string {
	return s.orderID
}

// OrderNumber возвращает номер заказа ("" если заказ не создан).
func (s *State) OrderNumber() string {
	return s.orderNumber
}

// OwesRefund возвращает true, если при сбое нужно вернуть платёж.
// Платёж возвращается только пока заказ не создан: созданный заказ
// владеет платежом, и возврат здесь недопустим.
func (s *State) OwesRefund() bool {
	return s.paymentID != "" && s.orderID == ""
}

// OwesRelease возвращает true, если при сбое нужно освободить резерв.
// Резерв освобождается всегда, когда он был создан, а заказ — нет.
func (s *State) OwesRelease() bool {
	return s.reservationID != "" && s.orderID == ""
}
