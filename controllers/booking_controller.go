package controllers

import (
	"net/http"
	"strconv"

	"rental-backend/services"
	"rental-backend/utils"

	"github.com/gin-gonic/gin"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type GuestCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
	Pets     int `json:"pets"`
}

type CreateBookingRequest struct {
	Property uint        `json:"property" binding:"required"`
	CheckIn  string      `json:"checkIn" binding:"required"`
	CheckOut string      `json:"checkOut" binding:"required"`
	Guests   GuestCounts `json:"guests"`
	Discount float64     `json:"discount"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type ModifyBookingRequest struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Adults   *int   `json:"adults"`
	Children *int   `json:"children"`
	Infants  *int   `json:"infants"`
	Pets     *int   `json:"pets"`
}

type DepartureRequest struct {
	Status string `json:"status" binding:"required"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc      *services.BookingService
	AvailabilitySvc *services.AvailabilityService
}

func NewBookingController(bookingSvc *services.BookingService, availabilitySvc *services.AvailabilityService) *BookingController {
	return &BookingController{BookingSvc: bookingSvc, AvailabilitySvc: availabilitySvc}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func actorFromContext(c *gin.Context) (uint, string) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("role")
	id, _ := userID.(uint)
	r, _ := role.(string)
	return id, r
}

func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "property, checkIn and checkOut are required")
		return
	}

	actorID, _ := actorFromContext(c)
	booking, err := ctrl.BookingSvc.CreateBooking(actorID, services.CreateBookingInput{
		PropertyID: req.Property,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Adults:     req.Guests.Adults,
		Children:   req.Guests.Children,
		Infants:    req.Guests.Infants,
		Pets:       req.Guests.Pets,
		Discount:   req.Discount,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.JSONSuccess(c, http.StatusCreated, booking)
}

func (ctrl *BookingController) GetBookings(c *gin.Context) {
	actorID, role := actorFromContext(c)
	list, err := ctrl.BookingSvc.ListBookings(actorID, role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (ctrl *BookingController) GetBookingDetails(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actorID, role := actorFromContext(c)
	booking, err := ctrl.BookingSvc.GetBooking(id, actorID, role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) CancelBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	actorID, role := actorFromContext(c)
	booking, err := ctrl.BookingSvc.Cancel(id, actorID, role, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) ModifyBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req ModifyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	actorID, role := actorFromContext(c)
	booking, err := ctrl.BookingSvc.Modify(id, actorID, role, services.ModifyBookingInput{
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Adults:   req.Adults,
		Children: req.Children,
		Infants:  req.Infants,
		Pets:     req.Pets,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// MarkDeparture is the endpoint the checkout sweep calls to move elapsed
// confirmed bookings to completed or no-show. Admin only (enforced in the
// router).
func (ctrl *BookingController) MarkDeparture(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req DepartureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "status is required")
		return
	}

	booking, err := ctrl.BookingSvc.MarkDeparture(id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// CheckAvailability is the public probe used by property pages.
func (ctrl *BookingController) CheckAvailability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	checkIn := c.Query("check_in")
	checkOut := c.Query("check_out")
	ci, err1 := services.ParseStayDate(checkIn)
	co, err2 := services.ParseStayDate(checkOut)
	if err1 != nil || err2 != nil || !co.After(ci) {
		utils.JSONError(c, http.StatusBadRequest, "check_in and check_out must be valid dates with check_out after check_in")
		return
	}

	free, err := ctrl.AvailabilitySvc.IsAvailable(id, ci, co)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"available": free})
}
