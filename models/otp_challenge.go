package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP challenge purposes.
const (
	OTPPurposeConfirmation = "confirmation"
	OTPPurposeModification = "modification"
)

// OTPChallenge is an ephemeral one-time-passcode gating a sensitive booking
// action. At most one live challenge exists per (booking, purpose); a new
// Generate supersedes the old one. The raw code is never stored, only a
// bcrypt hash.
type OTPChallenge struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BookingID uint   `gorm:"index;column:booking_id" json:"bookingId"`
	Purpose   string `gorm:"size:16;column:purpose" json:"purpose"`

	CodeHash          string     `gorm:"size:128;column:code_hash" json:"-"`
	ExpiresAt         time.Time  `gorm:"column:expires_at" json:"expiresAt"`
	AttemptsRemaining int        `gorm:"column:attempts_remaining;default:3" json:"attemptsRemaining"`
	ConsumedAt        *time.Time `gorm:"column:consumed_at" json:"consumedAt,omitempty"`
}
