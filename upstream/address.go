package upstream

import (
	"context"

	"medicart/models"
)

// ListAddresses returns the caller's saved delivery addresses.
func (c *Client) ListAddresses(ctx context.Context) ([]models.Address, error) {
	var addresses []models.Address
	if err := c.getJSON(ctx, "/api/address", &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}
