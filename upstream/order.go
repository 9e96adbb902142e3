package upstream

import (
	"context"
	"fmt"

	"medicart/models"
)

// PlaceOrder creates an order against inventory for the given delivery
// address. The address id is validated here, before any network call, the
// same way the storefront client did.
func (c *Client) PlaceOrder(ctx context.Context, addressID int64) (models.Order, error) {
	if addressID <= 0 {
		return models.Order{}, fmt.Errorf("invalid address id: %d (must be > 0)", addressID)
	}

	var order models.Order
	err := c.postJSON(ctx, "/api/orders/place", map[string]int64{"addressId": addressID}, &order)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}
