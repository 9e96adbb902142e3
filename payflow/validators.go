package payflow

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"medicart/models"
)

// Validator checks method-specific payment details before any external call
// is made. Each supported method carries its own validator, so adding a
// method never touches the state machine's transition logic.
type Validator interface {
	Validate(d models.PaymentDetails) error
}

// For returns the validator for a payment method.
func For(method models.PaymentMethod) (Validator, error) {
	switch method {
	case models.MethodCreditCard, models.MethodDebitCard:
		return &cardValidator{now: time.Now}, nil
	case models.MethodUPI:
		return &upiValidator{}, nil
	case models.MethodNetBanking:
		return &netBankingValidator{banks: SupportedBanks}, nil
	}
	return nil, ErrUnsupportedMethod
}

// SupportedBanks is the net-banking bank list offered to the user.
var SupportedBanks = []string{"hdfc", "icici", "sbi", "axis", "boi", "yes", "kotak", "idbi"}

type cardValidator struct {
	now func() time.Time
}

func (v *cardValidator) Validate(d models.PaymentDetails) error {
	if d.CardNumber == "" || d.ExpiryMonth == "" || d.ExpiryYear == "" ||
		d.CVV == "" || strings.TrimSpace(d.CardholderName) == "" {
		return &ValidationError{Message: "Please fill all card details"}
	}

	digits := stripSpaces(d.CardNumber)
	if len(digits) < 13 || !allDigits(digits) {
		return &ValidationError{Message: "Invalid card number (minimum 13 digits required)"}
	}

	if len(d.CVV) < 3 || len(d.CVV) > 4 || !allDigits(d.CVV) {
		return &ValidationError{Message: "Invalid CVV (3-4 digits required)"}
	}

	month, err := strconv.Atoi(strings.TrimSpace(d.ExpiryMonth))
	if err != nil || month < 1 || month > 12 {
		return &ValidationError{Message: "Invalid expiry month"}
	}
	year, err := strconv.Atoi(strings.TrimSpace(d.ExpiryYear))
	if err != nil {
		return &ValidationError{Message: "Invalid expiry year"}
	}

	now := v.now()
	currentYear := now.Year() % 100
	currentMonth := int(now.Month())
	if year < currentYear || (year == currentYear && month < currentMonth) {
		return &ValidationError{Message: "Card has expired"}
	}
	return nil
}

// upiPattern: local part of letters/digits/dot/dash, then an alphabetic
// bank handle of at least 3 letters.
var upiPattern = regexp.MustCompile(`^[a-zA-Z0-9.-]*@[a-zA-Z]{3,}$`)

type upiValidator struct{}

func (v *upiValidator) Validate(d models.PaymentDetails) error {
	id := strings.TrimSpace(d.UpiID)
	if id == "" {
		return &ValidationError{Message: "Please enter your UPI ID"}
	}
	if !upiPattern.MatchString(id) {
		return &ValidationError{Message: "Invalid UPI ID format (e.g., yourname@okhdfcbank)"}
	}
	return nil
}

type netBankingValidator struct {
	banks []string
}

func (v *netBankingValidator) Validate(d models.PaymentDetails) error {
	if d.BankCode == "" {
		return &ValidationError{Message: "Please select a bank"}
	}
	for _, b := range v.banks {
		if b == d.BankCode {
			return nil
		}
	}
	return &ValidationError{Message: "Unknown bank selected"}
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
