package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"example.com/checkout-service/pkg/httpclient"
	"example.com/checkout-service/pkg/logger"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// CartClient — адаптер Cart Service.
type CartClient struct {
	http            *httpclient.Client
	defaultCurrency string
}

// NewCartClient создаёт адаптер Cart Service.
func NewCartClient(http *httpclient.Client, defaultCurrency string) *CartClient {
	return &CartClient{
		http:            http,
		defaultCurrency: defaultCurrency,
	}
}

// GetCart возвращает свежий снимок корзины пользователя.
// Снимок никогда не кэшируется между вызовами саги.
func (c *CartClient) GetCart(ctx context.Context, p domain.Principal) (domain.CartSnapshot, error) {
	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.Get("/api/v1/cart")
	})
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("ошибка запроса корзины: %w", err)
	}

	// Пустая корзина может приходить как 404.
	if resp.StatusCode() == http.StatusNotFound {
		return domain.CartSnapshot{Currency: c.defaultCurrency}, nil
	}

	if resp.StatusCode() != http.StatusOK {
		return domain.CartSnapshot{}, fmt.Errorf("cart service вернул статус %d", resp.StatusCode())
	}

	return c.parseCart(resp.Body())
}

// ClearCart очищает корзину пользователя после создания заказа.
// Вызывается best-effort: ошибка логируется вызывающим кодом, но сагу не роняет.
func (c *CartClient) ClearCart(ctx context.Context, p domain.Principal) error {
	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.Delete("/api/v1/cart")
	})
	if err != nil {
		return fmt.Errorf("ошибка очистки корзины: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("cart service вернул статус %d при очистке", resp.StatusCode())
	}

	return nil
}

// parseCart разбирает снимок корзины с учётом алиасов полей.
// Отсутствующие необязательные поля получают значения по умолчанию.
func (c *CartClient) parseCart(body []byte) (domain.CartSnapshot, error) {
	data, err := decodeEnvelope(body)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	f, err := decodeFields(data)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	snapshot := domain.CartSnapshot{}

	snapshot.Currency, _ = f.pickString("currency")
	if snapshot.Currency == "" {
		snapshot.Currency = c.defaultCurrency
	}

	snapshot.Subtotal, _ = f.pickDecimal("subtotal", "sub_total", "subTotal")
	snapshot.DiscountAmount, _ = f.pickDecimal("discount_amount", "discountAmount", "discount")

	rawItems, ok := f.pickArray("items", "cart_items", "cartItems")
	if !ok {
		return snapshot, nil
	}

	for i, rawItem := range rawItems {
		item, err := parseCartItem(rawItem)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("Пропущена нечитаемая позиция корзины")
			continue
		}
		snapshot.Items = append(snapshot.Items, item)
	}

	// Subtotal не пришёл — восстанавливаем из позиций.
	if snapshot.Subtotal.IsZero() && len(snapshot.Items) > 0 {
		sum := decimal.Zero
		for _, item := range snapshot.Items {
			sum = sum.Add(item.TotalPrice)
		}
		snapshot.Subtotal = sum
	}

	return snapshot, nil
}

// parseCartItem разбирает одну позицию корзины.
func parseCartItem(raw []byte) (domain.CartItem, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.CartItem{}, err
	}

	item := domain.CartItem{}

	item.ProductID, _ = f.pickString("product_id", "productId", "id")
	item.SKU, _ = f.pickString("sku", "product_sku", "productSku")

	item.Name, _ = f.pickString("name", "product_name", "productName")
	if item.Name == "" {
		item.Name = "Unknown Product"
	}

	qty, ok := f.pickInt("quantity", "qty")
	if !ok || qty <= 0 {
		return domain.CartItem{}, fmt.Errorf("позиция без количества")
	}
	item.Quantity = qty

	item.UnitPrice, _ = f.pickDecimal("unit_price", "unitPrice", "price")

	item.TotalPrice, ok = f.pickDecimal("total_price", "totalPrice", "total")
	if !ok {
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	}

	return item, nil
}
