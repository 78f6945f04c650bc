package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderID(t *testing.T) {
	pattern := regexp.MustCompile(`^ZK-\d{6}-[A-Z0-9]{4}$`)
	now := time.UnixMilli(1741973400123)

	id := GenerateOrderID(now)
	assert.Regexp(t, pattern, id)
	assert.Equal(t, "ZK-400123-", id[:10])

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[GenerateOrderID(now)] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestGenerateReferralCode(t *testing.T) {
	code := GenerateReferralCode("asha rao")
	assert.Len(t, code, 8)
	assert.Equal(t, "ASH", code[:3])

	fallback := GenerateReferralCode("42")
	assert.Len(t, fallback, 8)
	assert.Equal(t, "ZK", fallback[:2])

	assert.NotEqual(t, GenerateReferralCode("asha"), GenerateReferralCode("asha"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "oversized-tee", Slugify("Oversized Tee", ""))
	assert.Equal(t, "oversized-tee-ab12", Slugify("Oversized  Tee!", "AB12"))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "New Delhi", Title("nEW   delhi"))
	assert.Equal(t, "", Title("   "))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WELCOME10", NormalizeCode("  welcome10 "))
}
