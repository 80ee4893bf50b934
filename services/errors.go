package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to controllers. Business failures are matched with
// errors.Is / errors.As; anything else is an infrastructure failure.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	ErrPaymentVerificationFailed = errors.New("payment could not be verified")

	ErrOTPExpired   = errors.New("code has expired")
	ErrOTPExhausted = errors.New("no attempts remaining")
)

// OTPMismatchError reports a wrong code together with the attempts left
// after the failed guess.
type OTPMismatchError struct {
	AttemptsLeft int
}

func (e *OTPMismatchError) Error() string {
	return fmt.Sprintf("incorrect code, %d attempts remaining", e.AttemptsLeft)
}
