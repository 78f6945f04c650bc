package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/zekoya/storefront/config"
)

// PaymentGateway creates provider orders and checks payment signatures
type PaymentGateway interface {
	KeyID() string
	CreateOrder(amountPaise int64, currency, receipt string) (string, error)
	VerifySignature(providerOrderID, paymentID, signature string) bool
}

// RazorpayGateway talks to Razorpay with the configured key pair
type RazorpayGateway struct {
	keyID     string
	keySecret string
	client    *razorpay.Client
}

// NewRazorpayGateway builds the gateway from config
func NewRazorpayGateway(cfg *config.Config) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     cfg.RazorpayKeyID,
		keySecret: cfg.RazorpayKeySecret,
		client:    razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
	}
}

// KeyID is the public key the checkout widget needs
func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// CreateOrder creates a Razorpay order and returns its id
func (g *RazorpayGateway) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	if g.keyID == "" || g.keySecret == "" {
		return "", errors.New("razorpay keys are not configured")
	}
	data := map[string]interface{}{
		"amount":          amountPaise,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	rzOrder, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", errors.Wrap(err, "razorpay order create")
	}
	id, ok := rzOrder["id"]
	if !ok {
		return "", errors.New("razorpay order response has no id")
	}
	return fmt.Sprintf("%v", id), nil
}

// VerifySignature checks the checkout signature in constant time
func (g *RazorpayGateway) VerifySignature(providerOrderID, paymentID, signature string) bool {
	return VerifyRazorpaySignature(g.keySecret, providerOrderID, paymentID, signature)
}

// VerifyRazorpaySignature recomputes HMAC-SHA256 over "order_id|payment_id"
func VerifyRazorpaySignature(secret, providerOrderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(providerOrderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
