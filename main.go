package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental-backend/config"
	"rental-backend/controllers"
	"rental-backend/routes"
	"rental-backend/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	paymentCfg, err := config.LoadPaymentConfig()
	if err != nil {
		log.Fatalf("Payment configuration error: %v", err)
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connected")

	var provider services.PaymentProvider
	if paymentCfg.Mode == config.PaymentModeLive {
		provider = services.NewLiveProvider(paymentCfg)
		log.Println("Payment provider: live")
	} else {
		provider = services.NewDemoProvider()
		log.Println("Payment provider: demo")
	}

	events := services.NewEmailNotifier()
	availabilitySvc := services.NewAvailabilityService(config.DB)
	policySvc := services.NewPolicyService(config.LoadPolicyConfig())
	otpSvc := services.NewOTPService(config.DB, config.LoadOTPConfig())
	bookingSvc := services.NewBookingService(config.DB, availabilitySvc, policySvc, otpSvc, events)
	paymentSvc := services.NewPaymentService(config.DB, provider, paymentCfg, events)

	authCtrl := controllers.NewAuthController(config.DB)
	bookingCtrl := controllers.NewBookingController(bookingSvc, availabilitySvc)
	paymentCtrl := controllers.NewPaymentController(paymentSvc)
	otpCtrl := controllers.NewOTPController(otpSvc, bookingSvc)

	r := routes.SetupRouter(authCtrl, bookingCtrl, paymentCtrl, otpCtrl)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
