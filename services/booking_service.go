package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"rental-backend/models"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// allowedTransitions is the canonical transition table. Confirmed bookings
// are moved to completed/no-show by an external batch process once the
// check-out date elapses; the table is still owned here.
var allowedTransitions = map[string][]string{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCancelled, models.BookingCompleted, models.BookingNoShow},
}

func transitionAllowed(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// BookingService owns the booking lifecycle: creation behind the
// availability check, cancellation, OTP-gated modification and the
// transition table. Every transition is a conditional UPDATE on the current
// status so racing requests linearize.
type BookingService struct {
	DB           *gorm.DB
	Availability *AvailabilityService
	Policy       *PolicyService
	OTP          *OTPService
	events       BookingEvents
	now          func() time.Time
}

func NewBookingService(db *gorm.DB, availability *AvailabilityService, policy *PolicyService, otp *OTPService, events BookingEvents) *BookingService {
	return &BookingService{
		DB:           db,
		Availability: availability,
		Policy:       policy,
		OTP:          otp,
		events:       events,
		now:          time.Now,
	}
}

type CreateBookingInput struct {
	PropertyID uint
	CheckIn    string
	CheckOut   string
	Adults     int
	Children   int
	Infants    int
	Pets       int
	Discount   float64
}

func ParseStayDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, raw)
	}
	return t, nil
}

func nightsBetween(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

func newReferenceCode() string {
	return "BK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	// sqlite and friends report unique violations as plain strings
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "unique") || strings.Contains(lc, "duplicate")
}

// CreateBooking validates the request, checks availability and persists the
// booking in pending. The per-property lock spans check and insert so two
// concurrent requests for overlapping ranges cannot both succeed.
func (s *BookingService) CreateBooking(guestID uint, in CreateBookingInput) (*models.Booking, error) {
	checkIn, err := ParseStayDate(in.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := ParseStayDate(in.CheckOut)
	if err != nil {
		return nil, err
	}
	if !checkOut.After(checkIn) {
		return nil, fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	}

	if in.Adults < 0 || in.Children < 0 || in.Infants < 0 || in.Pets < 0 {
		return nil, fmt.Errorf("%w: guest counts must be non-negative", ErrValidation)
	}
	if in.Adults == 0 {
		in.Adults = 1
	}
	totalGuests := in.Adults + in.Children

	var guest models.User
	if err := s.DB.First(&guest, guestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}

	var property models.Property
	if err := s.DB.First(&property, in.PropertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: property", ErrNotFound)
		}
		return nil, err
	}
	if property.MaxGuests > 0 && totalGuests > property.MaxGuests {
		return nil, fmt.Errorf("%w: property sleeps at most %d guests", ErrValidation, property.MaxGuests)
	}

	nights := nightsBetween(checkIn, checkOut)
	basePrice := float64(nights) * property.PricePerNight
	total := basePrice + property.CleaningFee + property.ServiceFee - in.Discount

	snapshot, err := s.Policy.Snapshot()
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		Status:      models.BookingPending,
		PropertyID:  property.ID,
		GuestID:     guest.ID,
		HostID:      property.OwnerID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      nights,
		Adults:      in.Adults,
		Children:    in.Children,
		Infants:     in.Infants,
		Pets:        in.Pets,
		TotalGuests: totalGuests,

		BasePrice:   basePrice,
		CleaningFee: property.CleaningFee,
		ServiceFee:  property.ServiceFee,
		Discount:    in.Discount,
		Total:       total,
		Currency:    property.Currency,

		PaymentStatus: models.PaymentPending,
		RefundStatus:  models.RefundNone,

		GuestName:  guest.FullName,
		GuestEmail: guest.Email,
		GuestPhone: guest.Phone,

		PolicySnapshot: snapshot,
	}

	unlock := s.Availability.LockProperty(property.ID)
	defer unlock()

	free, err := s.Availability.IsAvailable(property.ID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, fmt.Errorf("%w: not available for these dates", ErrConflict)
	}

	// retry on the rare reference-code collision
	for attempt := 0; attempt < 3; attempt++ {
		booking.ReferenceCode = newReferenceCode()
		err = s.DB.Create(booking).Error
		if err == nil {
			return booking, nil
		}
		if !isDuplicateKey(err) {
			return nil, fmt.Errorf("failed to create booking: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to create booking: %w", err)
}

// Cancel applies pending/confirmed -> cancelled with the actor and window
// guards and populates the cancellation record. Refund amounts come from the policy
// engine; the money itself moves later through the payment gateway.
func (s *BookingService) Cancel(bookingID, actorID uint, actorRole, reason string) (*models.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", ErrValidation)
	}

	var booking models.Booking
	if err := s.DB.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking", ErrNotFound)
		}
		return nil, err
	}

	isAdmin := actorRole == models.RoleAdmin
	if !isAdmin && actorID != booking.GuestID && actorID != booking.HostID {
		return nil, fmt.Errorf("%w: only the guest, the host or an admin may cancel", ErrForbidden)
	}

	switch booking.Status {
	case models.BookingCancelled:
		return nil, fmt.Errorf("%w: already cancelled", ErrConflict)
	case models.BookingCompleted:
		return nil, fmt.Errorf("%w: cannot cancel completed booking", ErrConflict)
	case models.BookingNoShow:
		return nil, fmt.Errorf("%w: booking is %s", ErrConflict, booking.Status)
	}

	// the 24h window guards guests and hosts; support staff may cancel late
	if !isAdmin && !s.Policy.CanCancel(&booking) {
		return nil, fmt.Errorf("%w: cancellation window has closed", ErrConflict)
	}

	refund := s.Policy.RefundAmount(&booking)
	refundStatus := models.RefundNone
	if refund > 0 {
		refundStatus = models.RefundPending
	}

	now := s.now()
	res := s.DB.Model(&models.Booking{}).
		Where("id = ? AND status IN ?", booking.ID, []string{models.BookingPending, models.BookingConfirmed}).
		Updates(map[string]interface{}{
			"status":              models.BookingCancelled,
			"cancelled_by":        actorID,
			"cancelled_at":        now,
			"cancellation_reason": reason,
			"refund_amount":       refund,
			"refund_status":       refundStatus,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost a race against another transition
		if err := s.DB.First(&booking, booking.ID).Error; err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: booking is %s", ErrConflict, booking.Status)
	}

	if err := s.DB.First(&booking, booking.ID).Error; err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.BookingCancelled(&booking)
	}
	return &booking, nil
}

// ModifyBookingInput carries the requested changes; nil occupancy fields
// keep the current values.
type ModifyBookingInput struct {
	CheckIn  string
	CheckOut string
	Adults   *int
	Children *int
	Infants  *int
	Pets     *int
}

// Modify applies new dates/occupancy to a confirmed booking. Requires
// policy eligibility and a verified modification challenge; one verified
// code authorizes exactly one modification.
func (s *BookingService) Modify(bookingID, actorID uint, actorRole string, in ModifyBookingInput) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking", ErrNotFound)
		}
		return nil, err
	}

	if actorRole != models.RoleAdmin && actorID != booking.GuestID {
		return nil, fmt.Errorf("%w: only the guest may modify a booking", ErrForbidden)
	}
	if !s.Policy.CanModify(&booking) {
		return nil, fmt.Errorf("%w: booking can no longer be modified", ErrConflict)
	}

	checkIn := booking.CheckIn
	checkOut := booking.CheckOut
	var err error
	if in.CheckIn != "" {
		if checkIn, err = ParseStayDate(in.CheckIn); err != nil {
			return nil, err
		}
	}
	if in.CheckOut != "" {
		if checkOut, err = ParseStayDate(in.CheckOut); err != nil {
			return nil, err
		}
	}
	if !checkOut.After(checkIn) {
		return nil, fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	}

	adults := booking.Adults
	children := booking.Children
	infants := booking.Infants
	pets := booking.Pets
	if in.Adults != nil {
		adults = *in.Adults
	}
	if in.Children != nil {
		children = *in.Children
	}
	if in.Infants != nil {
		infants = *in.Infants
	}
	if in.Pets != nil {
		pets = *in.Pets
	}
	if adults <= 0 || children < 0 || infants < 0 || pets < 0 {
		return nil, fmt.Errorf("%w: guest counts must be non-negative", ErrValidation)
	}
	totalGuests := adults + children

	var property models.Property
	if err := s.DB.First(&property, booking.PropertyID).Error; err != nil {
		return nil, err
	}
	if property.MaxGuests > 0 && totalGuests > property.MaxGuests {
		return nil, fmt.Errorf("%w: property sleeps at most %d guests", ErrValidation, property.MaxGuests)
	}

	nights := nightsBetween(checkIn, checkOut)
	basePrice := float64(nights) * property.PricePerNight
	total := basePrice + booking.CleaningFee + booking.ServiceFee - booking.Discount

	unlock := s.Availability.LockProperty(booking.PropertyID)
	defer unlock()

	// the claim, the re-check and the update commit or roll back together:
	// a modification that is not applied must not burn the verified code
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.OTP.claimConsumed(tx, booking.ID, models.OTPPurposeModification); err != nil {
			return err
		}

		free, err := s.Availability.isAvailable(tx, booking.PropertyID, checkIn, checkOut, booking.ID)
		if err != nil {
			return err
		}
		if !free {
			return fmt.Errorf("%w: not available for these dates", ErrConflict)
		}

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, models.BookingConfirmed).
			Updates(map[string]interface{}{
				"check_in":     checkIn,
				"check_out":    checkOut,
				"nights":       nights,
				"adults":       adults,
				"children":     children,
				"infants":      infants,
				"pets":         pets,
				"total_guests": totalGuests,
				"base_price":   basePrice,
				"total":        total,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.Booking
			if err := tx.First(&current, booking.ID).Error; err != nil {
				return err
			}
			return fmt.Errorf("%w: booking is %s", ErrConflict, current.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.DB.First(&booking, booking.ID).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// MarkDeparture applies confirmed -> completed/no-show. Called by the batch
// process that sweeps elapsed check-out dates, not by guests.
func (s *BookingService) MarkDeparture(bookingID uint, to string) (*models.Booking, error) {
	if to != models.BookingCompleted && to != models.BookingNoShow {
		return nil, fmt.Errorf("%w: invalid departure status %q", ErrValidation, to)
	}

	var booking models.Booking
	if err := s.DB.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking", ErrNotFound)
		}
		return nil, err
	}
	if !transitionAllowed(booking.Status, to) {
		return nil, fmt.Errorf("%w: cannot move %s booking to %s", ErrConflict, booking.Status, to)
	}

	res := s.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, models.BookingConfirmed).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := s.DB.First(&booking, booking.ID).Error; err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: booking is %s", ErrConflict, booking.Status)
	}

	if err := s.DB.First(&booking, booking.ID).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBooking returns one booking, scoped to its guest, its host or admins.
func (s *BookingService) GetBooking(bookingID, actorID uint, actorRole string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.Preload("Property").First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking", ErrNotFound)
		}
		return nil, err
	}
	if actorRole != models.RoleAdmin && actorID != booking.GuestID && actorID != booking.HostID {
		return nil, fmt.Errorf("%w: not your booking", ErrForbidden)
	}
	return &booking, nil
}

// ListBookings returns the caller's view: guests their own stays, hosts the
// bookings on their properties, admins everything.
func (s *BookingService) ListBookings(actorID uint, actorRole string) ([]models.Booking, error) {
	q := s.DB.Order("created_at DESC")
	switch actorRole {
	case models.RoleAdmin:
	case models.RoleHost:
		q = q.Where("host_id = ?", actorID)
	default:
		q = q.Where("guest_id = ?", actorID)
	}

	var list []models.Booking
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}
	return list, nil
}
