package client

import (
	"time"

	"github.com/go-resty/resty/v2"

	"example.com/checkout-service/pkg/httpclient"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// Config — параметры создания набора адаптеров.
type Config struct {
	CartURL      string
	AddressURL   string
	InventoryURL string
	PaymentURL   string
	OrderURL     string

	RequestTimeout  time.Duration // Таймаут одного запроса
	DefaultCurrency string        // Валюта по умолчанию при отсутствии в ответе
}

// Clients — набор адаптеров ко всем нижестоящим сервисам.
// Процессный singleton, полностью реентерабелен между запросами.
type Clients struct {
	Cart      *CartClient
	Address   *AddressClient
	Inventory *InventoryClient
	Payment   *PaymentClient
	Order     *OrderClient
}

// New создаёт адаптеры с общими настройками устойчивости:
// каждый сервис получает собственный Circuit Breaker.
func New(cfg Config) *Clients {
	build := func(name, baseURL string) *httpclient.Client {
		return httpclient.New(httpclient.Config{
			Name:    name,
			BaseURL: baseURL,
			Timeout: cfg.RequestTimeout,
		})
	}

	return &Clients{
		Cart:      NewCartClient(build("cart-service", cfg.CartURL), cfg.DefaultCurrency),
		Address:   NewAddressClient(build("address-service", cfg.AddressURL)),
		Inventory: NewInventoryClient(build("inventory-service", cfg.InventoryURL)),
		Payment:   NewPaymentClient(build("payment-service", cfg.PaymentURL), cfg.DefaultCurrency),
		Order:     NewOrderClient(build("order-service", cfg.OrderURL)),
	}
}

// withAuth прикрепляет к запросу bearer токен и заголовок арендатора.
// Токен берётся из Principal запроса — никогда из глобального состояния.
func withAuth(r *resty.Request, p domain.Principal) (*resty.Request, error) {
	if p.Token == "" {
		return nil, domain.NewError(domain.CodeAuthTokenMissing,
			"Internal error: auth token was not propagated")
	}

	return r.
		SetHeader("Authorization", "Bearer "+p.Token).
		SetHeader("X-Tenant-Id", p.TenantID), nil
}
