package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Payment modes. The mode is an explicit startup-time choice: live mode with
// missing credentials is a startup error, never a silent demo fallback.
const (
	PaymentModeLive = "live"
	PaymentModeDemo = "demo"
)

type PaymentConfig struct {
	Mode      string
	KeyID     string
	KeySecret string
	APIBase   string
}

// LoadPaymentConfig resolves the payment provider configuration from env.
func LoadPaymentConfig() (PaymentConfig, error) {
	cfg := PaymentConfig{
		Mode:      strings.ToLower(envOrDefault("PAYMENT_MODE", PaymentModeDemo)),
		KeyID:     envOrDefault("PAYMENT_KEY_ID", ""),
		KeySecret: envOrDefault("PAYMENT_KEY_SECRET", ""),
		APIBase:   envOrDefault("PAYMENT_API_BASE", "https://api.razorpay.com/v1"),
	}

	switch cfg.Mode {
	case PaymentModeDemo:
		return cfg, nil
	case PaymentModeLive:
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return cfg, fmt.Errorf("PAYMENT_MODE=live requires PAYMENT_KEY_ID and PAYMENT_KEY_SECRET")
		}
		return cfg, nil
	default:
		return cfg, fmt.Errorf("unknown PAYMENT_MODE %q (want live or demo)", cfg.Mode)
	}
}

// PolicyConfig holds the externally configurable cancellation/refund
// schedule.
type PolicyConfig struct {
	CancelWindow         time.Duration // minimum lead time before check-in
	FullRefundWindow     time.Duration // lead time above which refunds are 100%
	PartialRefundPercent int
}

func LoadPolicyConfig() PolicyConfig {
	return PolicyConfig{
		CancelWindow:         time.Duration(envInt("CANCEL_WINDOW_HOURS", 24)) * time.Hour,
		FullRefundWindow:     time.Duration(envInt("REFUND_FULL_HOURS", 48)) * time.Hour,
		PartialRefundPercent: envInt("REFUND_PARTIAL_PERCENT", 50),
	}
}

// OTPConfig controls challenge lifetime and the sandbox-only code echo.
type OTPConfig struct {
	TTL        time.Duration
	Attempts   int
	ExposeCode bool // sandbox only; never set in production
}

func LoadOTPConfig() OTPConfig {
	return OTPConfig{
		TTL:        time.Duration(envInt("OTP_TTL_SECONDS", 600)) * time.Second,
		Attempts:   envInt("OTP_ATTEMPTS", 3),
		ExposeCode: strings.EqualFold(envOrDefault("OTP_EXPOSE_CODE", "false"), "true"),
	}
}

func envInt(key string, def int) int {
	raw := envOrDefault(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
