package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"rental-backend/config"
	"rental-backend/models"
	"rental-backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const otpCodeLength = 6

// minimum age of a challenge before a resend is accepted
const otpResendAfter = 60 * time.Second

// OTPService issues and verifies the short-lived numeric codes gating
// sensitive booking actions. Codes are stored bcrypt-hashed; the raw code
// leaves the service only through out-of-band delivery (email) unless the
// sandbox expose flag is set.
type OTPService struct {
	DB  *gorm.DB
	cfg config.OTPConfig
	now func() time.Time
}

func NewOTPService(db *gorm.DB, cfg config.OTPConfig) *OTPService {
	return &OTPService{DB: db, cfg: cfg, now: time.Now}
}

// ChallengeDescriptor is what the client learns about a fresh challenge.
// Code is populated only in sandbox configurations.
type ChallengeDescriptor struct {
	ExpiresAt    time.Time `json:"expiresAt"`
	AttemptsLeft int       `json:"attemptsLeft"`
	Code         string    `json:"code,omitempty"`
}

func validPurpose(p string) bool {
	return p == models.OTPPurposeConfirmation || p == models.OTPPurposeModification
}

// Generate creates a challenge for (bookingID, purpose), superseding any
// outstanding one for the same pair, and delivers the code to the booking's
// guest snapshot email.
func (s *OTPService) Generate(bookingID uint, purpose string) (ChallengeDescriptor, error) {
	if !validPurpose(purpose) {
		return ChallengeDescriptor{}, fmt.Errorf("%w: unknown purpose %q", ErrValidation, purpose)
	}

	var booking models.Booking
	if err := s.DB.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChallengeDescriptor{}, fmt.Errorf("%w: booking", ErrNotFound)
		}
		return ChallengeDescriptor{}, err
	}

	code, err := utils.GenerateOTPCode(otpCodeLength)
	if err != nil {
		return ChallengeDescriptor{}, fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return ChallengeDescriptor{}, fmt.Errorf("hash code: %w", err)
	}

	challenge := models.OTPChallenge{
		BookingID:         bookingID,
		Purpose:           purpose,
		CodeHash:          string(hash),
		ExpiresAt:         s.now().Add(s.cfg.TTL),
		AttemptsRemaining: s.cfg.Attempts,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// supersede any outstanding challenge for the same pair
		if err := tx.Where("booking_id = ? AND purpose = ?", bookingID, purpose).
			Delete(&models.OTPChallenge{}).Error; err != nil {
			return err
		}
		return tx.Create(&challenge).Error
	})
	if err != nil {
		return ChallengeDescriptor{}, err
	}

	// out-of-band delivery; a delivery failure doesn't invalidate the
	// challenge, the client can request a resend
	if mailErr := utils.SendOTPEmail(booking.GuestEmail, booking.GuestName, booking.ReferenceCode, code, int(s.cfg.TTL.Minutes())); mailErr != nil {
		log.Printf("otp delivery failed for booking %d: %v", bookingID, mailErr)
	}

	desc := ChallengeDescriptor{
		ExpiresAt:    challenge.ExpiresAt,
		AttemptsLeft: challenge.AttemptsRemaining,
	}
	if s.cfg.ExposeCode {
		desc.Code = code
	}
	return desc, nil
}

// Verify checks code against the booking's newest unconsumed challenge.
// Wrong guesses are charged with an atomic decrement so concurrent attempts
// can't share one; a correct guess consumes the challenge exactly once.
func (s *OTPService) Verify(bookingID uint, code string) (*models.OTPChallenge, error) {
	var ch models.OTPChallenge
	err := s.DB.
		Where("booking_id = ? AND consumed_at IS NULL", bookingID).
		Order("id DESC").
		First(&ch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active challenge", ErrNotFound)
		}
		return nil, err
	}

	now := s.now()
	if now.After(ch.ExpiresAt) {
		return nil, ErrOTPExpired
	}
	if ch.AttemptsRemaining <= 0 {
		return nil, ErrOTPExhausted
	}

	if bcrypt.CompareHashAndPassword([]byte(ch.CodeHash), []byte(code)) != nil {
		// charge the attempt; the guarded expression keeps two concurrent
		// wrong guesses from both counting as the same attempt
		res := s.DB.Model(&models.OTPChallenge{}).
			Where("id = ? AND attempts_remaining > 0", ch.ID).
			UpdateColumn("attempts_remaining", gorm.Expr("attempts_remaining - 1"))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrOTPExhausted
		}

		var left int
		if err := s.DB.Model(&models.OTPChallenge{}).
			Select("attempts_remaining").
			Where("id = ?", ch.ID).
			Scan(&left).Error; err != nil {
			return nil, err
		}
		return nil, &OTPMismatchError{AttemptsLeft: left}
	}

	// single use: only the first matching verify flips consumed_at
	res := s.DB.Model(&models.OTPChallenge{}).
		Where("id = ? AND consumed_at IS NULL AND attempts_remaining > 0", ch.ID).
		Update("consumed_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: code already used", ErrConflict)
	}

	ch.ConsumedAt = &now
	return &ch, nil
}

// Resend regenerates a fresh code for the pair. Rejected until at least a
// minute has passed since the last issue, to keep delivery retries from
// flooding the guest's inbox.
func (s *OTPService) Resend(bookingID uint, purpose string) (ChallengeDescriptor, error) {
	if !validPurpose(purpose) {
		return ChallengeDescriptor{}, fmt.Errorf("%w: unknown purpose %q", ErrValidation, purpose)
	}

	var last models.OTPChallenge
	err := s.DB.
		Where("booking_id = ? AND purpose = ?", bookingID, purpose).
		Order("id DESC").
		First(&last).Error
	if err == nil && s.now().Sub(last.CreatedAt) < otpResendAfter {
		return ChallengeDescriptor{}, fmt.Errorf("%w: wait before requesting another code", ErrConflict)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ChallengeDescriptor{}, err
	}

	return s.Generate(bookingID, purpose)
}

// ClaimConsumed atomically claims a consumed challenge for (bookingID,
// purpose), deleting it so one verified code authorizes exactly one gated
// action. Returns ErrForbidden when no verified challenge is waiting.
func (s *OTPService) ClaimConsumed(bookingID uint, purpose string) error {
	return s.claimConsumed(s.DB, bookingID, purpose)
}

// claimConsumed runs the claim on tx so callers can roll it back together
// with the gated action.
func (s *OTPService) claimConsumed(tx *gorm.DB, bookingID uint, purpose string) error {
	res := tx.
		Where("booking_id = ? AND purpose = ? AND consumed_at IS NOT NULL", bookingID, purpose).
		Delete(&models.OTPChallenge{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: action requires a verified code", ErrForbidden)
	}
	return nil
}
