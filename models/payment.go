package models

// Address is owned by the cart-orders service; the checkout flow treats it
// as an opaque reference plus display fields.
type Address struct {
	ID           int64  `json:"id"`
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Pincode      string `json:"pincode,omitempty"`
	Label        string `json:"label,omitempty"`
	IsDefault    bool   `json:"isDefault,omitempty"`
}

// Order is the slice of the order service's response the flow consumes: an
// opaque correlation key for the payment call plus display fields.
type Order struct {
	ID          int64   `json:"id"`
	OrderNumber string  `json:"orderNumber,omitempty"`
	Status      string  `json:"status,omitempty"`
	TotalAmount float64 `json:"totalAmount,omitempty"`
}

// PaymentRequest is what the flow submits to the payment service.
type PaymentRequest struct {
	OrderID int64
	Amount  float64
	Method  PaymentMethod
	Details PaymentDetails
}

// PaymentReceipt is the payment service's response to a process call.
type PaymentReceipt struct {
	PaymentID     int64   `json:"paymentId"`
	TransactionID string  `json:"transactionId"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// Failed reports an explicit failure status. The payment service returns
// errors for most failures, but a declined charge can come back as a 200
// with a failing status.
func (r PaymentReceipt) Failed() bool {
	return r.Status == "FAILED" || r.Status == "DECLINED"
}

// Payment is the full payment record, fetched for reconciliation.
type Payment struct {
	ID            int64   `json:"id"`
	OrderID       int64   `json:"orderId"`
	UserID        int64   `json:"userId"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"paymentStatus"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	TransactionID string  `json:"transactionId,omitempty"`
	PaymentDate   string  `json:"paymentDate,omitempty"`
}
