package controllers

import (
	"net/http"

	"rental-backend/services"
	"rental-backend/utils"

	"github.com/gin-gonic/gin"
)

type CreateOrderRequest struct {
	BookingID uint  `json:"bookingId" binding:"required"`
	Amount    int64 `json:"amount"` // minor units; optional echo of the displayed total
}

type VerifyPaymentRequest struct {
	BookingID uint   `json:"bookingId" binding:"required"`
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

type RefundRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
	Amount    int64  `json:"amount"` // minor units; 0 means the recorded refund amount
}

type PaymentController struct {
	PaymentSvc *services.PaymentService
}

func NewPaymentController(svc *services.PaymentService) *PaymentController {
	return &PaymentController{PaymentSvc: svc}
}

func (ctrl *PaymentController) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "bookingId is required")
		return
	}

	order, err := ctrl.PaymentSvc.CreateOrder(req.BookingID, req.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, order)
}

// Verify handles both client confirmations and webhook redeliveries; the
// provider signature is the authentication.
func (ctrl *PaymentController) Verify(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "bookingId is required")
		return
	}

	booking, err := ctrl.PaymentSvc.Verify(req.BookingID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *PaymentController) Refund(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "paymentId is required")
		return
	}

	_, role := actorFromContext(c)
	result, err := ctrl.PaymentSvc.Refund(role, req.PaymentID, req.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}
