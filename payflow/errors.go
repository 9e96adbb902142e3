package payflow

import "errors"

// FallbackFailureMessage is shown when a collaborator fails without
// providing a message of its own.
const FallbackFailureMessage = "Payment processing failed. Please try again."

var (
	ErrAddressRequired   = errors.New("please select a delivery address")
	ErrEmptyCart         = errors.New("cart is empty, nothing to pay for")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrAlreadyCompleted  = errors.New("payment already completed for this checkout")
	ErrPaymentInFlight   = errors.New("a payment attempt is already in progress")
	ErrIllegalTransition = errors.New("illegal checkout state transition")
)

// ValidationError is a client-local input problem: the machine stays in
// detail capture and no external call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StepError records which external step failed and the reason shown to the
// user. The session has already transitioned to Failed when this is
// returned.
type StepError struct {
	Step   string // "order" or "payment"
	Reason string
	cause  error
}

func (e *StepError) Error() string { return e.Reason }
func (e *StepError) Unwrap() error { return e.cause }
