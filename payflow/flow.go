package payflow

import (
	"context"
	"errors"
	"log"
	"time"

	"medicart/models"
)

// OrderPlacer creates an order from the current cart against a delivery
// address.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, addressID int64) (models.Order, error)
}

// PaymentProcessor charges a placed order.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req models.PaymentRequest) (models.PaymentReceipt, error)
}

// CartClearer empties the user's cart after a successful payment.
type CartClearer interface {
	ClearCart(ctx context.Context) error
}

// Flow drives a checkout session through its states. It owns the ordering
// of the order/payment/cart-clear calls; persistence of the session after
// each transition is the caller's job via OnTransition.
type Flow struct {
	Orders   OrderPlacer
	Payments PaymentProcessor
	Cart     CartClearer

	// Now stamps receipts; tests pin it.
	Now func() time.Time

	// OnTransition, when set, runs after every state change, before the
	// next external call. An error aborts the flow.
	OnTransition func(s *models.CheckoutSession) error
}

// SelectMethod records the chosen payment method on the session. The
// address and cart gates must already be satisfied.
func (f *Flow) SelectMethod(s *models.CheckoutSession, method models.PaymentMethod) error {
	if s.AddressID <= 0 {
		return ErrAddressRequired
	}
	if s.Cart.IsEmpty() {
		return ErrEmptyCart
	}
	if _, err := For(method); err != nil {
		return err
	}

	switch s.State {
	case models.StateSelectingMethod, models.StateCapturingDetails, models.StateFailed:
	default:
		if s.State.IsTerminal() {
			return ErrAlreadyCompleted
		}
		if s.State.InFlight() {
			return ErrPaymentInFlight
		}
		return ErrIllegalTransition
	}

	s.Method = method
	s.FailureReason = ""
	return f.transition(s, models.StateCapturingDetails)
}

// Submit validates the captured details and runs the place-order,
// process-payment, clear-cart sequence. On failure the session lands in
// Failed with a user-facing reason and may be resubmitted.
func (f *Flow) Submit(ctx context.Context, s *models.CheckoutSession, details models.PaymentDetails) error {
	switch {
	case s.State.IsTerminal():
		return ErrAlreadyCompleted
	case s.State.InFlight():
		return ErrPaymentInFlight
	case s.State == models.StateCapturingDetails || s.State == models.StateFailed:
	default:
		return ErrIllegalTransition
	}

	if s.AddressID <= 0 {
		return ErrAddressRequired
	}
	if s.Cart.IsEmpty() {
		return ErrEmptyCart
	}

	v, err := For(s.Method)
	if err != nil {
		return err
	}
	if err := v.Validate(details); err != nil {
		return err
	}

	if err := f.transition(s, models.StateCreatingOrder); err != nil {
		return err
	}

	order, err := f.Orders.PlaceOrder(ctx, s.AddressID)
	if err != nil {
		return f.fail(s, "order", err)
	}
	s.OrderID = order.ID
	s.OrderNumber = order.OrderNumber

	if err := f.transition(s, models.StateProcessingPayment); err != nil {
		return err
	}

	receipt, err := f.Payments.ProcessPayment(ctx, models.PaymentRequest{
		OrderID: order.ID,
		Amount:  s.Valuation.Total,
		Method:  s.Method,
		Details: details,
	})
	if err != nil {
		return f.fail(s, "payment", err)
	}
	if receipt.Failed() {
		s.FailureReason = failureMessage(receipt.Message)
		if err := f.transition(s, models.StateFailed); err != nil {
			log.Printf("checkout %s: transition to failed: %v", s.ID, err)
		}
		return &StepError{Step: "payment", Reason: s.FailureReason}
	}

	// Payment is captured at this point; a cart-clear failure must not
	// undo it, the stale cart resolves on the next sync.
	if err := f.Cart.ClearCart(ctx); err != nil {
		log.Printf("checkout %s: cart clear after payment failed: %v", s.ID, err)
	}

	s.Receipt = &models.Receipt{
		PaymentID:     receipt.PaymentID,
		TransactionID: receipt.TransactionID,
		Amount:        receipt.Amount,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Method:        s.Method,
		Timestamp:     f.now(),
	}
	return f.transition(s, models.StateSucceeded)
}

func (f *Flow) transition(s *models.CheckoutSession, to models.CheckoutState) error {
	if s.State != to && !models.CanTransitionTo(s.State, to) {
		return ErrIllegalTransition
	}
	s.State = to
	s.UpdatedAt = f.now()
	if f.OnTransition != nil {
		return f.OnTransition(s)
	}
	return nil
}

func (f *Flow) fail(s *models.CheckoutSession, step string, cause error) error {
	s.FailureReason = reason(cause)
	if err := f.transition(s, models.StateFailed); err != nil {
		log.Printf("checkout %s: transition to failed from %s: %v", s.ID, s.State, err)
	}
	return &StepError{Step: step, Reason: s.FailureReason, cause: cause}
}

func (f *Flow) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// reason extracts the message to show the user from an upstream failure.
// Backend errors carry their own message; anything else gets the generic
// fallback so transport details never leak to the client.
func reason(err error) string {
	var um interface{ UpstreamMessage() string }
	if errors.As(err, &um) {
		if msg := um.UpstreamMessage(); msg != "" {
			return msg
		}
	}
	return FallbackFailureMessage
}

func failureMessage(msg string) string {
	if msg == "" {
		return FallbackFailureMessage
	}
	return msg
}
