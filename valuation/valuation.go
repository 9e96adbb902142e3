package valuation

import (
	"math"

	"medicart/models"
)

// Pricing constants for the Indian storefront: 18% GST, flat 40 delivery
// charge waived above a 500 subtotal.
const (
	TaxRate             = 0.18
	FreeDeliveryAbove   = 500.0
	StandardDeliveryFee = 40.0
)

// Valuate derives subtotal, tax, delivery fee and total from a cart
// snapshot. Pure: no I/O, no mutation, safe to recompute on every request.
//
// Lines with an unknown price contribute nothing and are flagged in the
// result. Malformed lines (quantity < 1, negative or non-finite price)
// degrade to a zero contribution rather than failing.
func Valuate(lines []models.CartLine) models.ValuationResult {
	var subtotal float64
	var hasUnknown bool

	for _, line := range lines {
		if !line.UnitPrice.Known {
			hasUnknown = true
			continue
		}
		price := line.UnitPrice.Amount
		if line.Quantity < 1 || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		subtotal += price * float64(line.Quantity)
	}

	// Tax rounds half-up to the nearest currency unit; the rounding is
	// applied once, to the tax term only.
	tax := math.Round(subtotal * TaxRate)

	fee := StandardDeliveryFee
	if subtotal > FreeDeliveryAbove {
		fee = 0
	}

	return models.ValuationResult{
		Subtotal:         subtotal,
		TaxAmount:        tax,
		DeliveryFee:      fee,
		Total:            subtotal + tax + fee,
		HasUnknownPrices: hasUnknown,
	}
}
