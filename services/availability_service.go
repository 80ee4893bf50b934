package services

import (
	"fmt"
	"sync"
	"time"

	"rental-backend/models"

	"gorm.io/gorm"
)

// AvailabilityService decides whether a property is free for a date range.
// Only pending and confirmed bookings block; terminal ones never do.
type AvailabilityService struct {
	DB *gorm.DB

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{DB: db, locks: make(map[uint]*sync.Mutex)}
}

// propertyLock returns the mutex serializing check+insert for one property.
// The check-then-insert pair is not self-serializing, so callers that go on
// to create a booking must hold this across both steps.
func (s *AvailabilityService) propertyLock(propertyID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[propertyID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[propertyID] = l
	}
	return l
}

// LockProperty acquires the per-property serialization lock and returns the
// unlock func.
func (s *AvailabilityService) LockProperty(propertyID uint) func() {
	l := s.propertyLock(propertyID)
	l.Lock()
	return l.Unlock
}

// IsAvailable tests half-open interval overlap against non-terminal
// bookings: existing.checkIn < new.checkOut AND existing.checkOut >
// new.checkIn. Back-to-back stays therefore do not collide.
func (s *AvailabilityService) IsAvailable(propertyID uint, checkIn, checkOut time.Time) (bool, error) {
	return s.isAvailable(s.DB, propertyID, checkIn, checkOut, 0)
}

// IsAvailableExcluding is IsAvailable minus one booking, for re-checking a
// modification against everything but the booking being modified.
func (s *AvailabilityService) IsAvailableExcluding(propertyID uint, checkIn, checkOut time.Time, excludeBookingID uint) (bool, error) {
	return s.isAvailable(s.DB, propertyID, checkIn, checkOut, excludeBookingID)
}

func (s *AvailabilityService) isAvailable(tx *gorm.DB, propertyID uint, checkIn, checkOut time.Time, excludeBookingID uint) (bool, error) {
	q := tx.Model(&models.Booking{}).
		Where("property_id = ?", propertyID).
		Where("status IN ?", []string{models.BookingPending, models.BookingConfirmed}).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeBookingID != 0 {
		q = q.Where("id <> ?", excludeBookingID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("availability query: %w", err)
	}
	return count == 0, nil
}
