package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/gosimple/slug"
)

const orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderID returns a code like ZK-482913-7QXA: the last six digits of
// the unix millisecond clock and four random characters
func GenerateOrderID(now time.Time) string {
	ms := now.UnixMilli() % 1000000
	return fmt.Sprintf("ZK-%06d-%s", ms, randomString(4))
}

func randomString(n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(orderIDAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		sb.WriteByte(orderIDAlphabet[idx.Int64()])
	}
	return sb.String()
}

// Slugify builds a URL slug, adding suffix when given to keep it unique
func Slugify(name string, suffix string) string {
	s := slug.Make(name)
	if suffix != "" {
		s = s + "-" + strings.ToLower(suffix)
	}
	return s
}

// Title converts the first letter of each word to uppercase and the rest to lowercase.
func Title(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// NormalizeCode trims and upper-cases coupon and referral codes
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
