// Package main — точка входа Checkout Service.
// Stateless оркестратор саги завершения заказа: проводит распределённую
// транзакцию через Cart, Address, Inventory, Payment и Order сервисы
// и компенсирует частичные сбои.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/checkout-service/pkg/jwt"
	"example.com/checkout-service/pkg/kafka"
	"example.com/checkout-service/pkg/logger"
	"example.com/checkout-service/pkg/metrics"
	"example.com/checkout-service/services/checkout/internal/client"
	"example.com/checkout-service/services/checkout/internal/config"
	"example.com/checkout-service/services/checkout/internal/events"
	"example.com/checkout-service/services/checkout/internal/handler"
	"example.com/checkout-service/services/checkout/internal/middleware"
	"example.com/checkout-service/services/checkout/internal/pricing"
	"example.com/checkout-service/services/checkout/internal/saga"
	"example.com/checkout-service/services/checkout/internal/service"
	"example.com/checkout-service/services/checkout/internal/stock"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка загрузки конфигурации")
	}

	// Инициализируем логгер
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})

	logger.Info().
		Str("service", cfg.App.Name).
		Str("env", cfg.App.Env).
		Msg("Запуск Checkout Service")

	// === Observability: Metrics ===

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr(), "checkout")
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Ошибка Metrics Server")
			}
		}()
	}

	// === Инициализация зависимостей ===

	// Redis клиент (rate limiting)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Ошибка закрытия Redis")
		}
	}()

	// Проверяем подключение к Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("Не удалось подключиться к Redis")
	}
	cancel()
	logger.Info().Str("addr", cfg.Redis.Addr()).Msg("Подключено к Redis")

	// JWT Manager (валидация по публичному ключу)
	jwtManager, err := jwt.NewManager(jwt.Config{
		PublicKeyPath: cfg.JWT.PublicKeyPath,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка инициализации JWT Manager")
	}

	// Kafka Producer для события OrderCreated.
	// Публикация best-effort: без Kafka сервис работает, события не уходят.
	var emitter saga.EventPublisher = events.NopEmitter{}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
		if err != nil {
			logger.Fatal().Err(err).Msg("Ошибка создания Kafka Producer")
		}
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error().Err(err).Msg("Ошибка закрытия Kafka Producer")
			}
		}()
		emitter = events.NewEmitter(producer, cfg.Checkout.OrderCreatedTopic)
	}

	// HTTP адаптеры к нижестоящим сервисам
	clients := client.New(client.Config{
		CartURL:         cfg.Services.CartURL,
		AddressURL:      cfg.Services.AddressURL,
		InventoryURL:    cfg.Services.InventoryURL,
		PaymentURL:      cfg.Services.PaymentURL,
		OrderURL:        cfg.Services.OrderURL,
		RequestTimeout:  cfg.Services.RequestTimeout,
		DefaultCurrency: cfg.Checkout.DefaultCurrency,
	})

	// Расчёт стоимости
	shippingCost, err := cfg.Checkout.ShippingCostDecimal()
	if err != nil {
		logger.Fatal().Err(err).Msg("Невалидная конфигурация стоимости доставки")
	}
	calculator := pricing.NewCalculator(shippingCost, cfg.Checkout.DefaultCurrency)

	// Движок саги
	engine := saga.NewEngine(saga.Dependencies{
		Cart:      clients.Cart,
		Address:   clients.Address,
		Inventory: clients.Inventory,
		Payment:   clients.Payment,
		Order:     clients.Order,
		Stock:     stock.NewLocator(clients.Inventory),
		Pricer:    calculator,
		Events:    emitter,
	})

	checkoutService := service.NewCheckoutService(engine, calculator)

	// === Инициализация middleware ===

	tracingMW := middleware.NewTracingMiddleware()

	var rateLimitMW *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		rateLimitMW = middleware.NewRateLimitMiddleware(middleware.RateLimitConfig{
			Redis:  redisClient,
			Limit:  cfg.RateLimit.RequestsLimit,
			Window: cfg.RateLimit.Window,
		})
		logger.Info().
			Int("limit", cfg.RateLimit.RequestsLimit).
			Dur("window", cfg.RateLimit.Window).
			Msg("Rate limiting включён")
	}

	authMW := middleware.NewAuthMiddleware(jwtManager, cfg.Checkout.CustomerRole)

	// === Настройка роутера ===

	router := handler.NewRouter(handler.RouterConfig{
		Service:     checkoutService,
		AuthMW:      authMW,
		RateLimitMW: rateLimitMW,
		TracingMW:   tracingMW,
		ReadinessCheck: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		Debug: cfg.IsDevelopment(),
	})

	// === HTTP сервер ===

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr()).
			Msg("HTTP сервер запущен")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Ошибка HTTP сервера")
		}
	}()

	// === Graceful Shutdown ===

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Получен сигнал завершения, останавливаем сервер...")

	// Даём 30 секунд на завершение текущих саг:
	// обрыв посреди саги оставляет висящие резервы.
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Ошибка при остановке сервера")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Ошибка остановки Metrics Server")
		}
	}

	logger.Info().Msg("Checkout Service остановлен")
}
