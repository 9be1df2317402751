package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/etc/keys/jwt_public.pem")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "checkout-service", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.True(t, cfg.IsDevelopment())

	assert.Equal(t, "0.0.0.0:8088", cfg.HTTP.Addr())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, ":9090", cfg.Metrics.Addr())

	assert.Equal(t, "http://localhost:8087", cfg.Services.CartURL)
	assert.Equal(t, "http://localhost:8090", cfg.Services.OrderURL)

	assert.Equal(t, "INR", cfg.Checkout.DefaultCurrency)
	assert.Equal(t, "order-created", cfg.Checkout.OrderCreatedTopic)
	assert.Equal(t, "CUSTOMER", cfg.Checkout.CustomerRole)

	shipping, err := cfg.Checkout.ShippingCostDecimal()
	require.NoError(t, err)
	assert.Equal(t, "10.00", shipping.StringFixed(2))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/etc/keys/jwt_public.pem")
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("CHECKOUT_DEFAULT_CURRENCY", "USD")
	t.Setenv("CHECKOUT_SHIPPING_COST", "4.99")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr())
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "USD", cfg.Checkout.DefaultCurrency)

	shipping, err := cfg.Checkout.ShippingCostDecimal()
	require.NoError(t, err)
	assert.Equal(t, "4.99", shipping.StringFixed(2))
}

func TestLoad_MissingPublicKeyPath(t *testing.T) {
	// t.Setenv регистрирует восстановление, Unsetenv делает переменную отсутствующей
	t.Setenv("JWT_PUBLIC_KEY_PATH", "")
	require.NoError(t, os.Unsetenv("JWT_PUBLIC_KEY_PATH"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidShippingCost(t *testing.T) {
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/etc/keys/jwt_public.pem")
	t.Setenv("CHECKOUT_SHIPPING_COST", "free")

	_, err := Load()
	assert.Error(t, err)
}
