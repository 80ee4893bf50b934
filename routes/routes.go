package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rental-backend/controllers"
	"rental-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires controller instances into the route tree.
func SetupRouter(
	ac *controllers.AuthController,
	bc *controllers.BookingController,
	pc *controllers.PaymentController,
	oc *controllers.OTPController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", ac.Login)
		}

		// public probe for property pages
		api.GET("/properties/:id/availability", bc.CheckAvailability)

		bookings := api.Group("/bookings", middleware.RequireAuth())
		{
			bookings.GET("", bc.GetBookings)
			bookings.POST("", bc.CreateBooking)
			bookings.GET("/:id", bc.GetBookingDetails)
			bookings.PUT("/:id", bc.ModifyBooking)
			bookings.PUT("/:id/cancel", bc.CancelBooking)
			bookings.PUT("/:id/departure", middleware.RequireAdmin(), bc.MarkDeparture)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/create-order", middleware.RequireAuth(), pc.CreateOrder)
			// webhook path: the provider signature is the authentication
			payments.POST("/verify", pc.Verify)
			payments.POST("/refund", middleware.RequireAuth(), middleware.RequireAdmin(), pc.Refund)
		}

		otp := api.Group("/otp", middleware.RequireAuth())
		{
			otp.POST("/generate", oc.Generate)
			otp.POST("/verify", oc.Verify)
			otp.POST("/resend", oc.Resend)
		}
	}

	return r
}
