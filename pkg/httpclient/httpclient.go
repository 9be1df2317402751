// Package httpclient предоставляет устойчивый HTTP клиент для вызовов
// нижестоящих сервисов: таймауты, пул соединений, повторы идемпотентных
// запросов и Circuit Breaker для защиты от каскадных сбоев.
//
// Состояния Circuit Breaker:
//   - Closed: нормальная работа, запросы проходят
//   - Open: сервис недоступен, запросы отклоняются мгновенно (без ожидания timeout)
//   - Half-Open: пробный период, пропускаем часть запросов для проверки восстановления
//
// Использование:
//
//	cart := httpclient.New(httpclient.Config{Name: "cart-service", BaseURL: url})
//	resp, err := cart.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
//	    return r.Get("/api/v1/cart")
//	})
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"

	"example.com/checkout-service/pkg/logger"
)

// ErrUnavailable возвращается, когда Circuit Breaker открыт и запрос
// отклонён без обращения к сервису.
var ErrUnavailable = errors.New("сервис временно недоступен (circuit breaker open)")

// errServerStatus - внутренний маркер ответа 5xx.
// Для breaker это сбой, но вызывающему коду возвращается сам ответ.
var errServerStatus = errors.New("ответ сервера 5xx")

// BreakerSettings - настройки Circuit Breaker.
type BreakerSettings struct {
	MaxRequests  uint32        // Макс. запросов в Half-Open состоянии (по умолчанию 1)
	Interval     time.Duration // Интервал сброса счётчика в Closed (по умолчанию 60s)
	Timeout      time.Duration // Время в Open до перехода в Half-Open (по умолчанию 30s)
	FailureRatio float64       // Доля ошибок для перехода в Open (по умолчанию 0.5)
	MinRequests  uint32        // Мин. запросов для расчёта ratio (по умолчанию 5)
}

// DefaultBreakerSettings возвращает настройки по умолчанию.
// Оптимизированы для микросервисов с быстрым восстановлением.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// Config содержит параметры клиента для одного нижестоящего сервиса.
type Config struct {
	Name          string          // Имя сервиса (для логов и breaker)
	BaseURL       string          // Базовый URL сервиса
	Timeout       time.Duration   // Таймаут одного запроса (по умолчанию 10s)
	RetryCount    int             // Количество повторов идемпотентных запросов (по умолчанию 2)
	RetryWaitTime time.Duration   // Начальная пауза между повторами (по умолчанию 100ms)
	Breaker       BreakerSettings // Настройки Circuit Breaker
}

// Client - устойчивый HTTP клиент к одному нижестоящему сервису.
// Полностью реентерабелен: один экземпляр обслуживает все запросы процесса.
type Client struct {
	name string
	rest *resty.Client
	cb   *gobreaker.CircuitBreaker[*resty.Response]
}

// New создаёт клиент для нижестоящего сервиса.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 2
	}
	if cfg.RetryWaitTime <= 0 {
		cfg.RetryWaitTime = 100 * time.Millisecond
	}
	if cfg.Breaker == (BreakerSettings{}) {
		cfg.Breaker = DefaultBreakerSettings()
	}

	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Повторяем только идемпотентные методы: POST может создать
			// дубликат побочного эффекта.
			if r == nil || r.Request == nil {
				return false
			}
			method := r.Request.Method
			if method != http.MethodGet && method != http.MethodHead {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	cb := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,

		// Открываем breaker, если доля ошибок >= FailureRatio
		// и было >= MinRequests запросов.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.Breaker.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.Breaker.FailureRatio
		},

		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log := logger.With().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Logger()

			switch to {
			case gobreaker.StateOpen:
				log.Warn().Msg("Circuit Breaker ОТКРЫТ — сервис недоступен")
			case gobreaker.StateHalfOpen:
				log.Info().Msg("Circuit Breaker ПОЛУОТКРЫТ — пробуем восстановить")
			case gobreaker.StateClosed:
				log.Info().Msg("Circuit Breaker ЗАКРЫТ — сервис восстановлен")
			}
		},
	})

	return &Client{
		name: cfg.Name,
		rest: rest,
		cb:   cb,
	}
}

// Name возвращает имя нижестоящего сервиса.
func (c *Client) Name() string {
	return c.name
}

// State возвращает текущее состояние Circuit Breaker.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

// Do выполняет запрос через Circuit Breaker.
// fn получает подготовленный запрос с привязанным контекстом.
// Ответы 4xx считаются бизнес-результатом (breaker их не учитывает),
// транспортные ошибки и 5xx учитываются как сбои.
// Вызывающий код сам интерпретирует статус ответа.
func (c *Client) Do(ctx context.Context, fn func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		resp, err := fn(c.rest.R().SetContext(ctx))
		if err != nil {
			return resp, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	// Breaker открыт — мгновенный отказ без обращения к сервису.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", c.name, ErrUnavailable)
	}

	// 5xx учтён как сбой breaker, но ответ отдаём вызывающему коду.
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}

	return resp, err
}
