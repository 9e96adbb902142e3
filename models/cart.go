package models

import (
	"bytes"
	"encoding/json"
)

// CartStatus tracks how fresh the local snapshot of the upstream cart is.
type CartStatus string

const (
	CartUninitialized CartStatus = "uninitialized"
	CartSyncing       CartStatus = "syncing"
	CartReady         CartStatus = "ready"
)

// Price distinguishes a known unit price from one whose product data has not
// loaded yet. An unknown price contributes nothing to a valuation instead of
// being silently treated as zero.
type Price struct {
	Amount float64
	Known  bool
}

func KnownPrice(amount float64) Price {
	return Price{Amount: amount, Known: true}
}

func UnknownPrice() Price {
	return Price{}
}

// Unknown prices travel as JSON null, matching the upstream cart payloads
// where a partially loaded product has no price field.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return []byte("null"), nil
	}
	return json.Marshal(p.Amount)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = UnknownPrice()
		return nil
	}
	var amount float64
	if err := json.Unmarshal(data, &amount); err != nil {
		return err
	}
	*p = KnownPrice(amount)
	return nil
}

// CartLine is a single medicine entry in the user's cart.
type CartLine struct {
	MedicineID   int64  `json:"medicineId"`
	MedicineName string `json:"medicineName"`
	UnitPrice    Price  `json:"unitPrice"`
	Quantity     int    `json:"quantity"`
}

// Cart is the session-scoped snapshot of the upstream cart service's state.
type Cart struct {
	Lines  []CartLine `json:"lines"`
	Status CartStatus `json:"status"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ValuationResult is derived from a cart snapshot, never stored across
// cart mutations.
type ValuationResult struct {
	Subtotal    float64 `json:"subtotal"`
	TaxAmount   float64 `json:"taxAmount"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
	// HasUnknownPrices flags that at least one line was excluded because its
	// product price had not loaded.
	HasUnknownPrices bool `json:"hasUnknownPrices,omitempty"`
}
