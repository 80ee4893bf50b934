package controllers

import (
	"errors"
	"log"
	"net/http"

	"rental-backend/services"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy to HTTP responses.
// Anything outside the taxonomy is an infrastructure failure: logged, and
// reported generically.
func respondServiceError(c *gin.Context, err error) {
	var mismatch *services.OTPMismatchError
	if errors.As(err, &mismatch) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":      false,
			"error":        mismatch.Error(),
			"attemptsLeft": mismatch.AttemptsLeft,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrPaymentVerificationFailed),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrOTPExhausted):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}
