package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/checkout-service/pkg/logger"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// codeToStatus — маппинг доменных кодов в HTTP статусы.
var codeToStatus = map[domain.ErrorCode]int{
	domain.CodeEmptyCart:           http.StatusBadRequest,
	domain.CodeAddressRequired:     http.StatusBadRequest,
	domain.CodeAddressNotFound:     http.StatusNotFound,
	domain.CodeAddressForbidden:    http.StatusForbidden,
	domain.CodeInsufficientStock:   http.StatusConflict,
	domain.CodePaymentDeclined:     http.StatusPaymentRequired,
	domain.CodePaymentTimeout:      http.StatusGatewayTimeout,
	domain.CodeOrderCreationFailed: http.StatusInternalServerError,
	domain.CodeOrderNotFound:       http.StatusNotFound,
	domain.CodeUpstreamContract:    http.StatusBadGateway,
	domain.CodeAuthTokenMissing:    http.StatusInternalServerError,
	domain.CodeUnexpected:          http.StatusInternalServerError,
}

// HandleError транслирует доменную ошибку в HTTP ответ.
// Наружу уходит только пользовательское сообщение; исходная цепочка
// ошибок остаётся в логах.
func HandleError(c *gin.Context, err error) {
	log := logger.FromContext(c.Request.Context())

	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		// Не доменная ошибка — не должна сюда попадать, но защищаемся.
		log.Error().Err(err).Msg("Необработанная ошибка checkout")
		respond(c, http.StatusInternalServerError, nil, "Internal server error")
		return
	}

	status, ok := codeToStatus[domainErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	logEvent := log.Warn()
	if status >= 500 {
		logEvent = log.Error()
	}
	logEvent.
		Err(err).
		Str("error_code", string(domainErr.Code)).
		Int("http_status", status).
		Msg("Checkout завершился ошибкой")

	respond(c, status, nil, domainErr.Message)
}
