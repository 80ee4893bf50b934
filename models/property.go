package models

import "time"

// Property is an external entity as far as the booking core is concerned:
// only id, ownership and pricing fields are read, never mutated.
type Property struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OwnerID uint   `gorm:"index;column:owner_id" json:"ownerId"`
	Title   string `gorm:"size:256" json:"title"`
	City    string `gorm:"size:128" json:"city"`

	PricePerNight float64 `gorm:"column:price_per_night" json:"pricePerNight"`
	CleaningFee   float64 `gorm:"column:cleaning_fee" json:"cleaningFee"`
	ServiceFee    float64 `gorm:"column:service_fee" json:"serviceFee"`
	Currency      string  `gorm:"size:8;default:USD" json:"currency"`
	MaxGuests     int     `gorm:"column:max_guests;default:4" json:"maxGuests"`
}
