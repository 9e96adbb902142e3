package upstream

import (
	"context"
	"fmt"

	"medicart/models"
)

// ProcessPayment submits a payment for a just-created order. The method
// details are flattened into the payload alongside the order fields, which
// is the shape the payment service accepts.
func (c *Client) ProcessPayment(ctx context.Context, req models.PaymentRequest) (models.PaymentReceipt, error) {
	payload := map[string]any{
		"orderId":       req.OrderID,
		"amount":        req.Amount,
		"paymentMethod": string(req.Method),
	}
	addIfSet(payload, "cardNumber", req.Details.CardNumber)
	addIfSet(payload, "expiryMonth", req.Details.ExpiryMonth)
	addIfSet(payload, "expiryYear", req.Details.ExpiryYear)
	addIfSet(payload, "cvv", req.Details.CVV)
	addIfSet(payload, "cardholderName", req.Details.CardholderName)
	addIfSet(payload, "upiId", req.Details.UpiID)
	addIfSet(payload, "bankCode", req.Details.BankCode)

	var receipt models.PaymentReceipt
	if err := c.postJSON(ctx, "/api/payment/process", payload, &receipt); err != nil {
		return models.PaymentReceipt{}, err
	}
	return receipt, nil
}

// GetPayment fetches a payment record for reconciliation.
func (c *Client) GetPayment(ctx context.Context, paymentID int64) (models.Payment, error) {
	var payment models.Payment
	err := c.getJSON(ctx, fmt.Sprintf("/api/payment/%d", paymentID), &payment)
	return payment, err
}

func addIfSet(payload map[string]any, key, value string) {
	if value != "" {
		payload[key] = value
	}
}
