package upstream

import (
	"context"

	"medicart/models"
)

// cartItemDTO mirrors the cart-orders service's cart item payload. Price is
// a pointer: items whose medicine reference has not resolved come back with
// a null price.
type cartItemDTO struct {
	ID           int64    `json:"id"`
	MedicineID   int64    `json:"medicineId"`
	MedicineName string   `json:"medicineName"`
	Price        *float64 `json:"price"`
	Quantity     int      `json:"quantity"`
}

// GetCart snapshots the caller's cart.
func (c *Client) GetCart(ctx context.Context) (models.Cart, error) {
	var items []cartItemDTO
	if err := c.getJSON(ctx, "/api/cart", &items); err != nil {
		return models.Cart{Status: models.CartUninitialized}, err
	}

	cart := models.Cart{Status: models.CartReady, Lines: make([]models.CartLine, 0, len(items))}
	for _, it := range items {
		price := models.UnknownPrice()
		if it.Price != nil {
			price = models.KnownPrice(*it.Price)
		}
		cart.Lines = append(cart.Lines, models.CartLine{
			MedicineID:   it.MedicineID,
			MedicineName: it.MedicineName,
			UnitPrice:    price,
			Quantity:     it.Quantity,
		})
	}
	return cart, nil
}

// ClearCart empties the caller's cart upstream.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.postJSON(ctx, "/api/cart/clear", nil, nil)
}
