package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"example.com/checkout-service/pkg/httpclient"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// AddressClient — адаптер Address Service.
type AddressClient struct {
	http *httpclient.Client
}

// NewAddressClient создаёт адаптер Address Service.
func NewAddressClient(http *httpclient.Client) *AddressClient {
	return &AddressClient{http: http}
}

// GetAddress возвращает адрес доставки по идентификатору.
// 404 — адрес не найден; 403 — адрес принадлежит другому пользователю.
func (c *AddressClient) GetAddress(ctx context.Context, p domain.Principal, addressID string) (domain.Address, error) {
	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		r, err := withAuth(r, p)
		if err != nil {
			return nil, err
		}
		return r.SetPathParam("id", addressID).Get("/api/v1/address/{id}")
	})
	if err != nil {
		return domain.Address{}, fmt.Errorf("ошибка запроса адреса: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		// Разбираем ниже.
	case http.StatusNotFound:
		return domain.Address{}, domain.NewError(domain.CodeAddressNotFound,
			"Shipping address not found")
	case http.StatusForbidden:
		return domain.Address{}, domain.NewError(domain.CodeAddressForbidden,
			"Shipping address belongs to another user")
	default:
		return domain.Address{}, fmt.Errorf("address service вернул статус %d", resp.StatusCode())
	}

	return parseAddress(resp.Body(), addressID)
}

// parseAddress разбирает адрес с учётом алиасов полей.
func parseAddress(body []byte, addressID string) (domain.Address, error) {
	data, err := decodeEnvelope(body)
	if err != nil {
		return domain.Address{}, err
	}

	f, err := decodeFields(data)
	if err != nil {
		return domain.Address{}, err
	}

	addr := domain.Address{}

	addr.ID, _ = f.pickString("id", "address_id", "addressId")
	if addr.ID == "" {
		addr.ID = addressID
	}

	addr.Line1, _ = f.pickString("line1", "address_line1", "street", "addressLine1")
	addr.City, _ = f.pickString("city")
	addr.State, _ = f.pickString("state", "region")
	addr.Postcode, _ = f.pickString("postcode", "zip_code", "zipCode", "pincode")
	addr.Country, _ = f.pickString("country")

	return addr, nil
}
