package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"example.com/checkout-service/pkg/httpclient"
	"example.com/checkout-service/pkg/logger"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// InventoryClient — адаптер Inventory Service.
type InventoryClient struct {
	http *httpclient.Client
}

// NewInventoryClient создаёт адаптер Inventory Service.
func NewInventoryClient(http *httpclient.Client) *InventoryClient {
	return &InventoryClient{http: http}
}

// reserveRequest — тело запроса резервирования.
type reserveRequest struct {
	OrderID string               `json:"order_id"`
	Items   []reserveRequestItem `json:"items"`
}

// reserveRequestItem — позиция запроса резервирования.
type reserveRequestItem struct {
	SKU        string `json:"sku"`
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
}

// releaseRequest — тело запроса освобождения резерва.
type releaseRequest struct {
	ReservationID string `json:"reservation_id"`
}

// GetStockLocations возвращает остатки SKU по складским локациям.
// Порядок списка задан сервером и сохраняется — он определяет выбор локации.
func (c *InventoryClient) GetStockLocations(ctx context.Context, p domain.Principal, sku string) ([]domain.StockLocation, error) {
	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.SetPathParam("sku", sku).Get("/api/v1/inventory/stock/{sku}/locations")
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса остатков SKU %s: %w", sku, err)
	}

	// Нет данных по SKU — нет и подходящих локаций.
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("inventory service вернул статус %d", resp.StatusCode())
	}

	return parseStockLocations(resp.Body())
}

// Reserve резервирует позиции под указанный order id.
// Отказ сервиса транслируется в InsufficientStock: авторитетная
// проверка остатков — именно этот вызов, а не предшествующий поиск локаций.
func (c *InventoryClient) Reserve(ctx context.Context, p domain.Principal, orderID string, items []domain.ReservationItem) error {
	req := reserveRequest{
		OrderID: orderID,
		Items:   make([]reserveRequestItem, len(items)),
	}
	for i, item := range items {
		req.Items[i] = reserveRequestItem{
			SKU:        item.SKU,
			LocationID: item.LocationID,
			Quantity:   item.Quantity,
		}
	}

	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.SetBody(req).Post("/api/v1/inventory/reserve")
	})
	if err != nil {
		return fmt.Errorf("ошибка резервирования: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return domain.WrapError(domain.CodeInsufficientStock,
			"Unable to reserve inventory for the order",
			fmt.Errorf("inventory service вернул статус %d", resp.StatusCode()))
	}

	return nil
}

// Release освобождает резерв. Компенсирующее действие саги.
func (c *InventoryClient) Release(ctx context.Context, p domain.Principal, reservationID string) error {
	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.SetBody(releaseRequest{ReservationID: reservationID}).
			Post("/api/v1/inventory/release")
	})
	if err != nil {
		return fmt.Errorf("ошибка освобождения резерва %s: %w", reservationID, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("inventory service вернул статус %d при освобождении резерва %s",
			resp.StatusCode(), reservationID)
	}

	return nil
}

// parseStockLocations разбирает список локаций с учётом алиасов полей.
func parseStockLocations(body []byte) ([]domain.StockLocation, error) {
	data, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	f, err := decodeFields(data)
	if err != nil {
		// data может быть массивом напрямую, без объекта-обёртки.
		return parseStockLocationList(data)
	}

	rawList, ok := f.pickArray("locations", "stock_locations", "stockLocations")
	if !ok {
		return nil, nil
	}

	locations := make([]domain.StockLocation, 0, len(rawList))
	for i, raw := range rawList {
		loc, err := parseStockLocation(raw)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("Пропущена нечитаемая локация")
			continue
		}
		locations = append(locations, loc)
	}

	return locations, nil
}

// parseStockLocationList разбирает data-массив локаций.
func parseStockLocationList(data []byte) ([]domain.StockLocation, error) {
	var rawList []fields
	if err := decodeJSONList(data, &rawList); err != nil {
		return nil, err
	}

	locations := make([]domain.StockLocation, 0, len(rawList))
	for _, f := range rawList {
		loc, err := stockLocationFromFields(f)
		if err != nil {
			continue
		}
		locations = append(locations, loc)
	}

	return locations, nil
}

// parseStockLocation разбирает одну локацию.
func parseStockLocation(raw []byte) (domain.StockLocation, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.StockLocation{}, err
	}
	return stockLocationFromFields(f)
}

// stockLocationFromFields собирает локацию из распакованных полей.
func stockLocationFromFields(f fields) (domain.StockLocation, error) {
	loc := domain.StockLocation{}

	id, ok := f.pickString("location_id", "locationId", "id")
	if !ok {
		return domain.StockLocation{}, fmt.Errorf("локация без идентификатора")
	}
	loc.LocationID = id

	qty, ok := f.pickInt("available_qty", "availableQty", "available", "available_quantity")
	if !ok {
		return domain.StockLocation{}, fmt.Errorf("локация без остатка")
	}
	loc.AvailableQty = qty

	return loc, nil
}
