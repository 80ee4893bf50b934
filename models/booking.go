package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Booking statuses. Cancelled, Completed and NoShow are terminal.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
	BookingNoShow    = "no-show"
)

// Payment statuses stored on the booking's payment info.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Refund statuses on the cancellation record.
const (
	RefundNone      = "none"
	RefundPending   = "pending"
	RefundProcessed = "processed"
)

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ReferenceCode string `gorm:"column:reference_code;size:64;uniqueIndex" json:"referenceCode"`
	Status        string `gorm:"column:status;size:32;index" json:"status"`

	PropertyID uint `gorm:"index;column:property_id" json:"propertyId"`
	GuestID    uint `gorm:"index;column:guest_id" json:"guestId"`
	HostID     uint `gorm:"index;column:host_id" json:"hostId"`

	CheckIn  time.Time `gorm:"column:check_in" json:"checkIn"`
	CheckOut time.Time `gorm:"column:check_out" json:"checkOut"`
	Nights   int       `gorm:"column:nights" json:"nights"`

	Adults      int `gorm:"column:adults;default:1" json:"adults"`
	Children    int `gorm:"column:children;default:0" json:"children"`
	Infants     int `gorm:"column:infants;default:0" json:"infants"`
	Pets        int `gorm:"column:pets;default:0" json:"pets"`
	TotalGuests int `gorm:"column:total_guests" json:"totalGuests"`

	BasePrice   float64 `gorm:"column:base_price" json:"basePrice"`
	CleaningFee float64 `gorm:"column:cleaning_fee" json:"cleaningFee"`
	ServiceFee  float64 `gorm:"column:service_fee" json:"serviceFee"`
	Discount    float64 `gorm:"column:discount" json:"discount"`
	Total       float64 `gorm:"column:total" json:"total"`
	Currency    string  `gorm:"column:currency;size:8" json:"currency"`

	// Payment info, logically one record per booking.
	ProviderOrderID  string     `gorm:"column:provider_order_id;size:128;index" json:"providerOrderId,omitempty"`
	PaymentID        string     `gorm:"column:payment_id;size:128;index" json:"paymentId,omitempty"`
	PaymentSignature string     `gorm:"column:payment_signature;size:256" json:"-"`
	PaymentMethod    string     `gorm:"column:payment_method;size:32" json:"paymentMethod,omitempty"`
	PaymentStatus    string     `gorm:"column:payment_status;size:32;default:pending" json:"paymentStatus"`
	PaidAt           *time.Time `gorm:"column:paid_at" json:"paidAt,omitempty"`

	// Cancellation record, populated only once cancelled.
	CancelledBy        *uint      `gorm:"column:cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CancellationReason string     `gorm:"column:cancellation_reason;size:512" json:"cancellationReason,omitempty"`
	RefundAmount       float64    `gorm:"column:refund_amount" json:"refundAmount"`
	RefundStatus       string     `gorm:"column:refund_status;size:32;default:none" json:"refundStatus"`
	RefundID           string     `gorm:"column:refund_id;size:128" json:"refundId,omitempty"`

	// Guest contact snapshot captured at booking time, independent of the
	// live user profile.
	GuestName  string `gorm:"column:guest_name;size:128" json:"guestName"`
	GuestEmail string `gorm:"column:guest_email;size:128" json:"guestEmail"`
	GuestPhone string `gorm:"column:guest_phone;size:32" json:"guestPhone"`

	// Cancellation policy in force when the booking was created, so later
	// policy changes never reprice old cancellations.
	PolicySnapshot datatypes.JSON `gorm:"column:policy_snapshot" json:"policySnapshot,omitempty"`

	Property Property `gorm:"foreignKey:PropertyID;references:ID" json:"property,omitempty"`
	Guest    User     `gorm:"foreignKey:GuestID;references:ID" json:"guest,omitempty"`
}

// IsTerminal reports whether no further client-driven transition is legal
// from status.
func IsTerminal(status string) bool {
	switch status {
	case BookingCancelled, BookingCompleted, BookingNoShow:
		return true
	}
	return false
}
