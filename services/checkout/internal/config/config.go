// Package config содержит конфигурацию Checkout Service.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config содержит полную конфигурацию Checkout Service.
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Services  ServicesConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Checkout  CheckoutConfig
}

// AppConfig — общие настройки приложения.
type AppConfig struct {
	Name      string `env:"APP_NAME" envDefault:"checkout-service"`
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// HTTPConfig — настройки HTTP сервера.
type HTTPConfig struct {
	Host         string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port         int           `env:"HTTP_PORT" envDefault:"8088"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Addr возвращает адрес HTTP сервера.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServicesConfig — базовые URL нижестоящих сервисов.
// Оркестратор stateless: всё состояние живёт в этих сервисах.
type ServicesConfig struct {
	CartURL      string `env:"CART_SERVICE_URL" envDefault:"http://localhost:8087"`
	CatalogURL   string `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8084"`
	InventoryURL string `env:"INVENTORY_SERVICE_URL" envDefault:"http://localhost:8085"`
	PromoURL     string `env:"PROMO_SERVICE_URL" envDefault:"http://localhost:8086"`
	PaymentURL   string `env:"PAYMENT_SERVICE_URL" envDefault:"http://localhost:8089"`
	OrderURL     string `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8090"`
	AddressURL   string `env:"ADDRESS_SERVICE_URL" envDefault:"http://localhost:8083"`

	// Таймаут одного запроса к нижестоящему сервису.
	RequestTimeout time.Duration `env:"SERVICES_REQUEST_TIMEOUT" envDefault:"10s"`
}

// RedisConfig — настройки подключения к Redis (rate limiting).
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Addr возвращает адрес Redis сервера.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig — настройки валидации JWT токенов.
// Checkout Service использует только публичный ключ для верификации.
type JWTConfig struct {
	PublicKeyPath string `env:"JWT_PUBLIC_KEY_PATH,required"` // Путь к публичному ключу
	Issuer        string `env:"JWT_ISSUER" envDefault:"order-system"`
}

// KafkaConfig — настройки подключения к Kafka.
type KafkaConfig struct {
	Enabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	Brokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

// RateLimitConfig — настройки ограничения запросов.
type RateLimitConfig struct {
	Enabled       bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsLimit int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"` // Количество запросов
	Window        time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`    // Временное окно
}

// MetricsConfig — настройки Prometheus метрик.
type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"` // Включить metrics endpoint
	Port    int  `env:"METRICS_PORT" envDefault:"9090"`    // Порт для /metrics
}

// Addr возвращает адрес для Metrics HTTP сервера.
func (c MetricsConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// CheckoutConfig — параметры самого процесса checkout.
type CheckoutConfig struct {
	DefaultCurrency   string `env:"CHECKOUT_DEFAULT_CURRENCY" envDefault:"INR"`
	ShippingCost      string `env:"CHECKOUT_SHIPPING_COST" envDefault:"10.00"` // Стоимость стандартной доставки
	OrderCreatedTopic string `env:"CHECKOUT_ORDER_CREATED_TOPIC" envDefault:"order-created"`
	CustomerRole      string `env:"CHECKOUT_CUSTOMER_ROLE" envDefault:"CUSTOMER"`
}

// ShippingCostDecimal возвращает стоимость доставки как decimal.
// Деньги никогда не проходят через float.
func (c CheckoutConfig) ShippingCostDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.ShippingCost)
	if err != nil {
		return decimal.Zero, fmt.Errorf("невалидная стоимость доставки %q: %w", c.ShippingCost, err)
	}
	return d, nil
}

// Load загружает конфигурацию из переменных окружения.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку, если файл не найден)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	if _, err := cfg.Checkout.ShippingCostDecimal(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment возвращает true в режиме разработки.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
