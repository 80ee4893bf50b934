package services

import (
	"fmt"
	"testing"
	"time"

	"rental-backend/config"
	"rental-backend/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixture is an isolated in-memory database seeded with the three roles and
// one bookable property.
type fixture struct {
	db       *gorm.DB
	guest    models.User
	host     models.User
	admin    models.User
	property models.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// sqlite tolerates one writer; a single pooled connection keeps the
	// concurrency tests off SQLITE_BUSY
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Booking{},
		&models.OTPChallenge{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	f := &fixture{db: db}
	f.guest = models.User{FullName: "Alice Guest", Email: "guest@test.local", Phone: "+15550100", Password: string(hash), Role: models.RoleGuest}
	f.host = models.User{FullName: "Harold Host", Email: "host@test.local", Phone: "+15550101", Password: string(hash), Role: models.RoleHost}
	f.admin = models.User{FullName: "Ada Admin", Email: "admin@test.local", Phone: "+15550102", Password: string(hash), Role: models.RoleAdmin}
	for _, u := range []*models.User{&f.guest, &f.host, &f.admin} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	f.property = models.Property{
		OwnerID:       f.host.ID,
		Title:         "Seaside Cottage",
		City:          "Brighton",
		PricePerNight: 100,
		CleaningFee:   30,
		ServiceFee:    20,
		Currency:      "USD",
		MaxGuests:     4,
	}
	if err := db.Create(&f.property).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}

	return f
}

func testPolicyConfig() config.PolicyConfig {
	return config.PolicyConfig{
		CancelWindow:         24 * time.Hour,
		FullRefundWindow:     48 * time.Hour,
		PartialRefundPercent: 50,
	}
}

func testOTPConfig() config.OTPConfig {
	return config.OTPConfig{
		TTL:        10 * time.Minute,
		Attempts:   3,
		ExposeCode: true,
	}
}

// newBookingService wires a booking service over the fixture with the test
// policy and OTP configs.
func (f *fixture) newBookingService() (*BookingService, *PolicyService, *OTPService) {
	availability := NewAvailabilityService(f.db)
	policy := NewPolicyService(testPolicyConfig())
	otp := NewOTPService(f.db, testOTPConfig())
	booking := NewBookingService(f.db, availability, policy, otp, nil)
	return booking, policy, otp
}

// mustCreateBooking creates a pending booking for the fixture guest.
func (f *fixture) mustCreateBooking(t *testing.T, svc *BookingService, checkIn, checkOut string) *models.Booking {
	t.Helper()
	b, err := svc.CreateBooking(f.guest.ID, CreateBookingInput{
		PropertyID: f.property.ID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Adults:     2,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

// mustConfirm drives the booking to confirmed through the demo payment path.
func (f *fixture) mustConfirm(t *testing.T, bookingID uint) *models.Booking {
	t.Helper()
	pay := NewPaymentService(f.db, NewDemoProvider(), config.PaymentConfig{Mode: config.PaymentModeDemo}, nil)
	b, err := pay.Verify(bookingID, "", "", "")
	if err != nil {
		t.Fatalf("confirm booking: %v", err)
	}
	return b
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}
