package models

import "time"

// User roles understood by the booking core.
const (
	RoleGuest = "guest"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

// User is an external entity; the core reads identity, role and the contact
// fields it snapshots onto bookings.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FullName string `gorm:"size:128" json:"fullName"`
	Email    string `gorm:"size:128;uniqueIndex" json:"email"`
	Phone    string `gorm:"size:32" json:"phone"`
	Password string `gorm:"size:128" json:"-"`
	Role     string `gorm:"size:16;default:guest" json:"role"`
}
