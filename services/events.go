package services

import (
	"rental-backend/models"
	"rental-backend/utils"
)

// BookingEvents is notified after a status change has committed. Downstream
// subsystems (notifications, review eligibility, host analytics) hang off
// this; the default implementation emails the guest. Calls are explicit,
// made by the service that performed the mutation, never from a save hook.
type BookingEvents interface {
	BookingConfirmed(b *models.Booking)
	BookingCancelled(b *models.Booking)
}

// EmailNotifier emails the booking's guest snapshot on transitions.
type EmailNotifier struct{}

func NewEmailNotifier() *EmailNotifier { return &EmailNotifier{} }

func (n *EmailNotifier) BookingConfirmed(b *models.Booking) {
	_ = utils.SendBookingConfirmedEmail(
		b.GuestEmail,
		b.GuestName,
		b.ReferenceCode,
		b.CheckIn.Format("2006-01-02"),
		b.CheckOut.Format("2006-01-02"),
	)
}

func (n *EmailNotifier) BookingCancelled(b *models.Booking) {
	_ = utils.SendBookingCancelledEmail(b.GuestEmail, b.GuestName, b.ReferenceCode, b.RefundAmount, b.Currency)
}
