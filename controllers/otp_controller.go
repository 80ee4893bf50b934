package controllers

import (
	"net/http"

	"rental-backend/services"
	"rental-backend/utils"

	"github.com/gin-gonic/gin"
)

type GenerateOTPRequest struct {
	BookingID uint   `json:"bookingId" binding:"required"`
	Purpose   string `json:"purpose" binding:"required"`
}

type VerifyOTPRequest struct {
	BookingID uint   `json:"bookingId" binding:"required"`
	OTP       string `json:"otp" binding:"required,len=6"`
}

type OTPController struct {
	OTPSvc     *services.OTPService
	BookingSvc *services.BookingService
}

func NewOTPController(otpSvc *services.OTPService, bookingSvc *services.BookingService) *OTPController {
	return &OTPController{OTPSvc: otpSvc, BookingSvc: bookingSvc}
}

// bookingVisible rejects challenges against bookings the caller can't see.
func (ctrl *OTPController) bookingVisible(c *gin.Context, bookingID uint) bool {
	actorID, role := actorFromContext(c)
	if _, err := ctrl.BookingSvc.GetBooking(bookingID, actorID, role); err != nil {
		respondServiceError(c, err)
		return false
	}
	return true
}

func (ctrl *OTPController) Generate(c *gin.Context) {
	var req GenerateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "bookingId and purpose are required")
		return
	}
	if !ctrl.bookingVisible(c, req.BookingID) {
		return
	}

	desc, err := ctrl.OTPSvc.Generate(req.BookingID, req.Purpose)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, desc)
}

func (ctrl *OTPController) Verify(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "bookingId and a 6-digit otp are required")
		return
	}
	if !ctrl.bookingVisible(c, req.BookingID) {
		return
	}

	challenge, err := ctrl.OTPSvc.Verify(req.BookingID, req.OTP)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	actorID, role := actorFromContext(c)
	booking, err := ctrl.BookingSvc.GetBooking(req.BookingID, actorID, role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"purpose": challenge.Purpose,
		"booking": booking,
	})
}

func (ctrl *OTPController) Resend(c *gin.Context) {
	var req GenerateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "bookingId and purpose are required")
		return
	}
	if !ctrl.bookingVisible(c, req.BookingID) {
		return
	}

	desc, err := ctrl.OTPSvc.Resend(req.BookingID, req.Purpose)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, desc)
}
