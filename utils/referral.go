package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateReferralCode derives an 8 character code from a random UUID,
// prefixed with the first letters of the user's name
func GenerateReferralCode(name string) string {
	prefix := ""
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			prefix += string(r)
		}
		if len(prefix) == 3 {
			break
		}
	}
	if prefix == "" {
		prefix = "ZK"
	}
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return prefix + id[:8-len(prefix)]
}
