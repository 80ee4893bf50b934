package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// sendMail delivers a plain-text email. When SMTP is not configured the
// message is logged instead so local/dev setups still show what would have
// been sent.
func sendMail(recipient, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USERNAME")
	smtpPass := os.Getenv("SMTP_PASSWORD")
	fromName := os.Getenv("SMTP_FROM_NAME")

	if smtpUser == "" || smtpPass == "" || smtpHost == "" || smtpPort == "" {
		log.Printf("[MOCK EMAIL] to:%s subject:%q body:%q", recipient, subject, body)
		return nil
	}

	from := fmt.Sprintf("%s <%s>", fromName, smtpUser)
	auth := smtp.PlainAuth("", smtpUser, smtpPass, smtpHost)
	addr := fmt.Sprintf("%s:%s", smtpHost, smtpPort)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", recipient))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(body + "\r\n")

	if err := smtp.SendMail(addr, auth, smtpUser, []string{recipient}, []byte(sb.String())); err != nil {
		log.Printf("failed to send email to %s: %v", recipient, err)
		return err
	}
	return nil
}

// SendOTPEmail delivers a one-time passcode out-of-band.
func SendOTPEmail(recipient, guestName, referenceCode, code string, validMinutes int) error {
	subject := fmt.Sprintf("Your verification code - %s", referenceCode)
	body := fmt.Sprintf(
		"Dear %s,\n\nYour verification code is: %s\nIt is valid for %d minutes and may be used once.\n\nIf you did not request this code, you can ignore this email.\n",
		guestName, code, validMinutes,
	)
	return sendMail(recipient, subject, body)
}

// SendBookingConfirmedEmail notifies the guest after payment verification.
func SendBookingConfirmedEmail(recipient, guestName, referenceCode, checkIn, checkOut string) error {
	subject := fmt.Sprintf("Booking confirmed - %s", referenceCode)
	body := fmt.Sprintf(
		"Dear %s,\n\nYour booking %s is confirmed.\nCheck-In: %s\nCheck-Out: %s\n\nWe look forward to your stay.\n",
		guestName, referenceCode, checkIn, checkOut,
	)
	return sendMail(recipient, subject, body)
}

// SendBookingCancelledEmail notifies the guest after a cancellation, with
// the refund outcome when one applies.
func SendBookingCancelledEmail(recipient, guestName, referenceCode string, refundAmount float64, currency string) error {
	subject := fmt.Sprintf("Booking cancelled - %s", referenceCode)
	refundLine := "No refund applies to this cancellation."
	if refundAmount > 0 {
		refundLine = fmt.Sprintf("A refund of %.2f %s is being processed.", refundAmount, currency)
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nYour booking %s has been cancelled.\n%s\n",
		guestName, referenceCode, refundLine,
	)
	return sendMail(recipient, subject, body)
}
