package models

import (
	"strings"
	"time"
)

// PaymentMethod is the wire value understood by the payment service.
type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
	MethodDebitCard  PaymentMethod = "DEBIT_CARD"
	MethodUPI        PaymentMethod = "UPI"
	MethodNetBanking PaymentMethod = "NET_BANKING"
)

// ParsePaymentMethod accepts both the wire values and the storefront's
// lowercase method ids ("credit_card", "netbanking", ...).
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREDIT_CARD":
		return MethodCreditCard, true
	case "DEBIT_CARD":
		return MethodDebitCard, true
	case "UPI":
		return MethodUPI, true
	case "NET_BANKING", "NETBANKING":
		return MethodNetBanking, true
	}
	return "", false
}

// CheckoutState names the payment flow's state machine states.
type CheckoutState string

const (
	StateSelectingMethod   CheckoutState = "SELECTING_METHOD"
	StateCapturingDetails  CheckoutState = "CAPTURING_DETAILS"
	StateCreatingOrder     CheckoutState = "CREATING_ORDER"
	StateProcessingPayment CheckoutState = "PROCESSING_PAYMENT"
	StateSucceeded         CheckoutState = "SUCCEEDED"
	StateFailed            CheckoutState = "FAILED"
)

func (s CheckoutState) String() string { return string(s) }

// IsTerminal reports whether the checkout can accept no further submissions.
// Failed is deliberately not terminal: it returns control to detail capture
// so the user can retry with corrected input.
func (s CheckoutState) IsTerminal() bool {
	return s == StateSucceeded
}

// InFlight reports whether an external call is outstanding for this state.
func (s CheckoutState) InFlight() bool {
	return s == StateCreatingOrder || s == StateProcessingPayment
}

func CanTransitionTo(from, to CheckoutState) bool {
	switch from {
	case StateSelectingMethod:
		return to == StateCapturingDetails
	case StateCapturingDetails:
		return to == StateCreatingOrder || to == StateFailed
	case StateCreatingOrder:
		return to == StateProcessingPayment || to == StateFailed
	case StateProcessingPayment:
		return to == StateSucceeded || to == StateFailed
	case StateFailed:
		return to == StateCapturingDetails || to == StateCreatingOrder
	default:
		return false
	}
}

// PaymentDetails carries the method-specific fields captured from the user.
// Only the fields for the chosen method are populated.
type PaymentDetails struct {
	CardNumber     string `json:"cardNumber,omitempty"`
	ExpiryMonth    string `json:"expiryMonth,omitempty"`
	ExpiryYear     string `json:"expiryYear,omitempty"`
	CVV            string `json:"cvv,omitempty"`
	CardholderName string `json:"cardholderName,omitempty"`
	UpiID          string `json:"upiId,omitempty"`
	BankCode       string `json:"bankCode,omitempty"`
}

// Receipt is what the terminal success state presents.
type Receipt struct {
	PaymentID     int64         `json:"paymentId"`
	TransactionID string        `json:"transactionId"`
	Amount        float64       `json:"amount"`
	OrderID       int64         `json:"orderId"`
	OrderNumber   string        `json:"orderNumber,omitempty"`
	Method        PaymentMethod `json:"method"`
	Timestamp     time.Time     `json:"timestamp"`
}

// CheckoutSession is the navigation-scoped context carried from the order
// summary step through method selection to the terminal state. It lives in
// the session store with a TTL; a reload re-derives the cart snapshot.
type CheckoutSession struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	State     CheckoutState   `json:"state"`
	Method    PaymentMethod   `json:"method,omitempty"`
	AddressID int64           `json:"selectedAddressId"`
	Addresses []Address       `json:"addresses,omitempty"`
	Cart      Cart            `json:"cart"`
	Valuation ValuationResult `json:"valuation"`

	// OrderID/OrderNumber are set once order creation succeeds, so a payment
	// failure after that point still names the pending order.
	OrderID       int64    `json:"orderId,omitempty"`
	OrderNumber   string   `json:"orderNumber,omitempty"`
	FailureReason string   `json:"failureReason,omitempty"`
	Receipt       *Receipt `json:"receipt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
