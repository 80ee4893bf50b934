package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rental-backend/config"

	"github.com/google/uuid"
)

// OrderDescriptor is the provider order handed to the client for checkout.
type OrderDescriptor struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"keyId,omitempty"` // public key, live mode only
}

// RefundResult is the provider's answer to a refund request.
type RefundResult struct {
	ID        string `json:"id"`
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// PaymentProvider is the payment capability selected once at startup. The
// two variants are LiveProvider and DemoProvider; nothing else in the code
// checks the configured mode at request time.
type PaymentProvider interface {
	CreateOrder(amount int64, currency, receipt string) (OrderDescriptor, error)
	VerifySignature(orderID, paymentID, signature string) bool
	Refund(paymentID string, amount int64) (RefundResult, error)
}

// LiveProvider talks to the configured payment provider's REST API.
type LiveProvider struct {
	keyID     string
	keySecret string
	apiBase   string
	client    *http.Client
}

func NewLiveProvider(cfg config.PaymentConfig) *LiveProvider {
	return &LiveProvider{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		apiBase:   strings.TrimRight(cfg.APIBase, "/"),
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *LiveProvider) post(path string, payload interface{}, out interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cannot encode payload: %w", err)
	}

	req, err := http.NewRequest("POST", p.apiBase+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("cannot build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.keyID, p.keySecret)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(bodyBytes))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("JSON parse error: %w", err)
	}
	return nil
}

func (p *LiveProvider) CreateOrder(amount int64, currency, receipt string) (OrderDescriptor, error) {
	payload := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	var order OrderDescriptor
	if err := p.post("/orders", payload, &order); err != nil {
		return OrderDescriptor{}, err
	}
	order.KeyID = p.keyID
	return order, nil
}

// VerifySignature recomputes HMAC-SHA256(secret, orderID|paymentID) and
// compares in constant time.
func (p *LiveProvider) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(p.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (p *LiveProvider) Refund(paymentID string, amount int64) (RefundResult, error) {
	payload := map[string]interface{}{"amount": amount}
	var result RefundResult
	if err := p.post("/payments/"+paymentID+"/refund", payload, &result); err != nil {
		return RefundResult{}, err
	}
	if result.PaymentID == "" {
		result.PaymentID = paymentID
	}
	return result, nil
}

// DemoProvider simulates payment side effects without any external call.
// Selecting it is an explicit startup choice (PAYMENT_MODE=demo).
type DemoProvider struct{}

func NewDemoProvider() *DemoProvider { return &DemoProvider{} }

func (p *DemoProvider) CreateOrder(amount int64, currency, receipt string) (OrderDescriptor, error) {
	return OrderDescriptor{
		ID:       "order_demo_" + uuid.NewString(),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (p *DemoProvider) VerifySignature(orderID, paymentID, signature string) bool {
	return true
}

func (p *DemoProvider) Refund(paymentID string, amount int64) (RefundResult, error) {
	return RefundResult{
		ID:        "rfnd_demo_" + uuid.NewString(),
		PaymentID: paymentID,
		Amount:    amount,
		Status:    "processed",
	}, nil
}
