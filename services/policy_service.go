package services

import (
	"encoding/json"
	"time"

	"rental-backend/config"
	"rental-backend/models"
)

// PolicyService computes cancellation/modification eligibility windows and
// the refund schedule. It exposes eligibility only; applying transitions is
// the booking service's job.
type PolicyService struct {
	cfg config.PolicyConfig
	now func() time.Time
}

func NewPolicyService(cfg config.PolicyConfig) *PolicyService {
	return &PolicyService{cfg: cfg, now: time.Now}
}

func (s *PolicyService) hoursUntilCheckIn(b *models.Booking) time.Duration {
	return b.CheckIn.Sub(s.now())
}

// CanCancel reports whether the booking is still inside its cancellation
// window and in a cancellable state.
func (s *PolicyService) CanCancel(b *models.Booking) bool {
	if b.Status == models.BookingCancelled || b.Status == models.BookingCompleted {
		return false
	}
	return s.hoursUntilCheckIn(b) > s.cfg.CancelWindow
}

// CanModify reports whether the booking may still be modified. Only
// confirmed bookings qualify; pending ones are re-created instead.
func (s *PolicyService) CanModify(b *models.Booking) bool {
	if b.Status != models.BookingConfirmed {
		return false
	}
	return s.hoursUntilCheckIn(b) > s.cfg.CancelWindow
}

// RefundAmount applies the configured schedule: full refund when the
// check-in is further out than the full-refund window, the partial percent
// otherwise. Uses the booking's policy snapshot when present so old
// bookings keep the schedule they were sold under.
func (s *PolicyService) RefundAmount(b *models.Booking) float64 {
	if b.PaymentStatus != models.PaymentCompleted {
		return 0
	}

	fullWindow := s.cfg.FullRefundWindow
	partialPct := s.cfg.PartialRefundPercent
	if len(b.PolicySnapshot) > 0 {
		var snap policySnapshot
		if err := json.Unmarshal(b.PolicySnapshot, &snap); err == nil && snap.FullRefundHours > 0 {
			fullWindow = time.Duration(snap.FullRefundHours) * time.Hour
			partialPct = snap.PartialRefundPercent
		}
	}

	lead := s.hoursUntilCheckIn(b)
	switch {
	case lead > fullWindow:
		return b.Total
	case lead > 0:
		return b.Total * float64(partialPct) / 100
	default:
		return 0
	}
}

type policySnapshot struct {
	CancelWindowHours    int `json:"cancelWindowHours"`
	FullRefundHours      int `json:"fullRefundHours"`
	PartialRefundPercent int `json:"partialRefundPercent"`
}

// Snapshot serializes the schedule currently in force, for storage on a new
// booking.
func (s *PolicyService) Snapshot() ([]byte, error) {
	return json.Marshal(policySnapshot{
		CancelWindowHours:    int(s.cfg.CancelWindow.Hours()),
		FullRefundHours:      int(s.cfg.FullRefundWindow.Hours()),
		PartialRefundPercent: s.cfg.PartialRefundPercent,
	})
}
