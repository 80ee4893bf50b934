package services

import (
	"errors"
	"testing"
	"time"

	"rental-backend/models"
)

func (f *fixture) newOTPFixture(t *testing.T) (*OTPService, *models.Booking) {
	t.Helper()
	bookingSvc, _, otp := f.newBookingService()
	b := f.mustCreateBooking(t, bookingSvc, "2030-05-01", "2030-05-05")
	return otp, b
}

func TestOTPGenerate(t *testing.T) {
	f := newFixture(t)
	otp, b := f.newOTPFixture(t)

	desc, err := otp.Generate(b.ID, models.OTPPurposeConfirmation)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(desc.Code) != 6 {
		t.Errorf("exposed code %q, want 6 digits", desc.Code)
	}
	if desc.AttemptsLeft != 3 {
		t.Errorf("attempts = %d, want 3", desc.AttemptsLeft)
	}
	if !desc.ExpiresAt.After(time.Now()) {
		t.Error("challenge already expired at issue")
	}

	var stored models.OTPChallenge
	if err := f.db.Where("booking_id = ?", b.ID).First(&stored).Error; err != nil {
		t.Fatalf("load challenge: %v", err)
	}
	if stored.CodeHash == desc.Code {
		t.Error("code stored in the clear")
	}

	if _, err := otp.Generate(b.ID, "password-reset"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad purpose: err = %v, want ErrValidation", err)
	}
	if _, err := otp.Generate(9999, models.OTPPurposeConfirmation); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown booking: err = %v, want ErrNotFound", err)
	}
}

func TestOTPGenerateSupersedes(t *testing.T) {
	f := newFixture(t)
	otp, b := f.newOTPFixture(t)

	first, err := otp.Generate(b.ID, models.OTPPurposeConfirmation)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := otp.Generate(b.ID, models.OTPPurposeConfirmation)
	if err != nil {
		t.Fatalf("Generate again: %v", err)
	}

	if first.Code == second.Code {
		t.Error("superseding challenge reused the code")
	}
	if _, err := otp.Verify(b.ID, first.Code); err == nil {
		t.Error("superseded code still accepted")
	}
	// the replacement still works after one wrong guess
	if _, err := otp.Verify(b.ID, second.Code); err != nil {
		t.Errorf("current code rejected: %v", err)
	}
}

func TestOTPVerifyWrongThenRight(t *testing.T) {
	f := newFixture(t)
	otp, b := f.newOTPFixture(t)

	desc, err := otp.Generate(b.ID, models.OTPPurposeConfirmation)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	_, err = otp.Verify(b.ID, wrongCode(desc.Code))
	var mismatch *OTPMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("wrong code: err = %v, want OTPMismatchError", err)
	}
	if mismatch.AttemptsLeft != 2 {
		t.Errorf("attempts left = %d, want 2", mismatch.AttemptsLeft)
	}

	ch, err := otp.Verify(b.ID, desc.Code)
	if err != nil {
		t.Fatalf("right code after wrong: %v", err)
	}
	if ch.ConsumedAt == nil {
		t.Error("challenge not marked consumed")
	}
	if ch.Purpose != models.OTPPurposeConfirmation {
		t.Errorf("purpose = %q", ch.Purpose)
	}
}

func TestOTPVerifySingleUse(t *testing.T) {
	f := newFixture(t)
	otp, b := f.newOTPFixture(t)

	desc, err := otp.Generate(b.ID, models.OTPPurposeConfirmation)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := otp.Verify(b.ID, desc.Code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := otp.Verify(b.ID, desc.Code); !errors.Is(err, ErrNotFound) {
		t.Errorf("second verify: err = %v, want ErrNotFound (no active challenge)", err)
	}
}

func TestOTPVerifyExhaustion(t *testing.T) {
	f := newFixture(t)
	otp, b := f.newOTPFixture(t)

	desc, err := otp.Generate(b.ID, models.OTPPurposeConfirmation)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	bad := wrongCode(desc.Code)

	for i := 0; i < 3; i++ {
		_, err := otp.Verify(b.ID, bad)
		var mismatch *OTPMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("guess %d: err = %v, want OTPMismatchError", i+1, err)
		}
		if want := 2 - i; mismatch.AttemptsLeft != want {
			t.Errorf("guess %d: attempts left = %d, want %d", i+1, mismatch.AttemptsLeft, want)
		}
	}

	// attempts are gone; even the right code is refused now
	if _, err := otp.Verify(b.ID, desc.Code); !errors.Is(err, ErrOTPExhausted) {
		t.Errorf("after exhaustion: err = %v, want ErrOTPExhausted", err)
	}
}

func TestOTPVerifyExpiry(t *testing.T) {
	f := newFixture(t)
	otp, b := f.newOTPFixture(t)

	desc, err := otp.Generate(b.ID, models.OTPPurposeConfirmation)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	otp.now = func() time.Time { return desc.ExpiresAt.Add(time.Second) }

	if _, err := otp.Verify(b.ID, desc.Code); !errors.Is(err, ErrOTPExpired) {
		t.Errorf("expired verify: err = %v, want ErrOTPExpired", err)
	}
}

func TestOTPResendThrottle(t *testing.T) {
	f := newFixture(t)
	otp, b := f.newOTPFixture(t)

	if _, err := otp.Generate(b.ID, models.OTPPurposeConfirmation); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := otp.Resend(b.ID, models.OTPPurposeConfirmation); !errors.Is(err, ErrConflict) {
		t.Errorf("immediate resend: err = %v, want ErrConflict", err)
	}

	otp.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	desc, err := otp.Resend(b.ID, models.OTPPurposeConfirmation)
	if err != nil {
		t.Fatalf("resend after throttle: %v", err)
	}
	if len(desc.Code) != 6 {
		t.Errorf("resent code %q, want 6 digits", desc.Code)
	}
}

func TestOTPClaimConsumed(t *testing.T) {
	f := newFixture(t)
	otp, b := f.newOTPFixture(t)

	if err := otp.ClaimConsumed(b.ID, models.OTPPurposeModification); !errors.Is(err, ErrForbidden) {
		t.Errorf("claim without challenge: err = %v, want ErrForbidden", err)
	}

	desc, err := otp.Generate(b.ID, models.OTPPurposeModification)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// unverified challenges cannot be claimed
	if err := otp.ClaimConsumed(b.ID, models.OTPPurposeModification); !errors.Is(err, ErrForbidden) {
		t.Errorf("claim unverified: err = %v, want ErrForbidden", err)
	}

	if _, err := otp.Verify(b.ID, desc.Code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := otp.ClaimConsumed(b.ID, models.OTPPurposeModification); err != nil {
		t.Errorf("claim verified: %v", err)
	}
	// one verified code, one claim
	if err := otp.ClaimConsumed(b.ID, models.OTPPurposeModification); !errors.Is(err, ErrForbidden) {
		t.Errorf("second claim: err = %v, want ErrForbidden", err)
	}
}
