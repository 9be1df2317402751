package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/checkout-service/pkg/logger"
	"example.com/checkout-service/services/checkout/internal/domain"
	"example.com/checkout-service/services/checkout/internal/middleware"
)

// CheckoutService — бизнес-операции checkout.
// Реализуется service.CheckoutService; в тестах подменяется моком.
type CheckoutService interface {
	InitiateCheckout(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutSummary, error)
	CompleteCheckout(ctx context.Context, p domain.Principal, in domain.CheckoutInput) (domain.CheckoutComplete, error)
	CancelCheckout(ctx context.Context, p domain.Principal, reservationID string) error
	ValidateAddress(ctx context.Context, street, city, country string) domain.AddressValidation
	CalculateShipping(ctx context.Context) []domain.ShippingOption
}

// CheckoutHandler — HTTP обработчик операций checkout.
type CheckoutHandler struct {
	service CheckoutService
}

// NewCheckoutHandler создаёт обработчик checkout.
func NewCheckoutHandler(service CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// principal извлекает Principal; при отсутствии отвечает 401.
func (h *CheckoutHandler) principal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromGin(c)
	if !ok {
		log := logger.FromContext(c.Request.Context())
		log.Warn().
			Msg("Principal не найден в контексте — auth middleware не отработал")
		respond(c, http.StatusUnauthorized, nil, "Authorization required")
		return domain.Principal{}, false
	}
	return p, true
}

// Initiate возвращает сводку заказа без изменения состояния.
// POST /api/v1/checkout/initiate
func (h *CheckoutHandler) Initiate(c *gin.Context) {
	ctx := c.Request.Context()

	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, nil, "Invalid request body")
		return
	}

	summary, err := h.service.InitiateCheckout(ctx, p, req.toInput())
	if err != nil {
		HandleError(c, err)
		return
	}

	respond(c, http.StatusOK, summaryToResponse(summary), "Checkout summary")
}

// Complete запускает сагу завершения checkout.
// POST /api/v1/checkout/complete
func (h *CheckoutHandler) Complete(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, nil, "Invalid request body")
		return
	}

	result, err := h.service.CompleteCheckout(ctx, p, req.toInput())
	if err != nil {
		HandleError(c, err)
		return
	}

	// Payload заказа в логи не пишется — только идентификаторы.
	log.Info().
		Str("order_id", result.OrderID).
		Str("order_number", result.OrderNumber).
		Msg("Checkout завершён")

	respond(c, http.StatusCreated, completeToResponse(result), "Order placed")
}

// Cancel освобождает резерв, если он указан.
// POST /api/v1/checkout/cancel?reservationId=...
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	p, ok := h.principal(c)
	if !ok {
		return
	}

	reservationID := c.Query("reservationId")
	if reservationID == "" {
		reservationID = c.Query("reservation_id")
	}

	if err := h.service.CancelCheckout(ctx, p, reservationID); err != nil {
		HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ValidateAddress проверяет минимальную полноту адреса.
// POST /api/v1/checkout/address/validate
func (h *CheckoutHandler) ValidateAddress(c *gin.Context) {
	ctx := c.Request.Context()

	if _, ok := h.principal(c); !ok {
		return
	}

	var req AddressValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, nil, "Invalid request body")
		return
	}

	result := h.service.ValidateAddress(ctx, req.Street, req.City, req.Country)

	respond(c, http.StatusOK, AddressValidationResponse{
		Valid:                result.Valid,
		SuggestedCorrections: result.SuggestedCorrections,
	}, "Address validated")
}

// CalculateShipping возвращает варианты доставки.
// POST /api/v1/checkout/shipping/calculate
func (h *CheckoutHandler) CalculateShipping(c *gin.Context) {
	ctx := c.Request.Context()

	if _, ok := h.principal(c); !ok {
		return
	}

	var req ShippingCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, nil, "Invalid request body")
		return
	}

	options := h.service.CalculateShipping(ctx)

	resp := ShippingCalculationResponse{
		Options: make([]ShippingOptionResponse, len(options)),
	}
	for i, opt := range options {
		resp.Options[i] = ShippingOptionResponse{
			Method:        opt.Method,
			Cost:          opt.Cost,
			Currency:      opt.Currency,
			EstimatedDays: opt.EstimatedDays,
		}
	}

	respond(c, http.StatusOK, resp, "Shipping options calculated")
}
