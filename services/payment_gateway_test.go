package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyRazorpaySignature(t *testing.T) {
	const secret = "test_secret"
	valid := sign(secret, "order_Abc123", "pay_Xyz789")

	assert.True(t, VerifyRazorpaySignature(secret, "order_Abc123", "pay_Xyz789", valid))
	assert.False(t, VerifyRazorpaySignature(secret, "order_Abc123", "pay_Other", valid), "payment id swapped")
	assert.False(t, VerifyRazorpaySignature(secret, "order_Other", "pay_Xyz789", valid), "order id swapped")
	assert.False(t, VerifyRazorpaySignature("other_secret", "order_Abc123", "pay_Xyz789", valid), "wrong secret")
	assert.False(t, VerifyRazorpaySignature(secret, "order_Abc123", "pay_Xyz789", ""), "empty signature")
	assert.False(t, VerifyRazorpaySignature("", "order_Abc123", "pay_Xyz789", valid), "no secret configured")
}
