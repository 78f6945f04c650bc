package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// ErrMissingSecret is returned when JWT_SECRET is not configured
var ErrMissingSecret = errors.New("JWT secret not configured")

// ErrMissingExpiry is returned for tokens without an exp claim
var ErrMissingExpiry = errors.New("token has no expiry")

// ParseToken verifies an HS256 token and returns its claims
func ParseToken(tokenString, secret string) (jwt.MapClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	// MapClaims.Valid only checks exp when it is present
	if _, ok := claims["exp"].(float64); !ok {
		return nil, ErrMissingExpiry
	}
	return claims, nil
}

// ClaimUint reads a numeric claim
func ClaimUint(claims jwt.MapClaims, key string) (uint, bool) {
	v, ok := claims[key].(float64)
	if !ok || v <= 0 {
		return 0, false
	}
	return uint(v), true
}

// GenerateUserToken signs a user token the way the auth service does. Used
// by tests and local tooling; login itself lives elsewhere.
func GenerateUserToken(userID uint, tokenVersion int, secret string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":       userID,
		"token_version": tokenVersion,
		"exp":           time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// GenerateAdminToken signs an admin token
func GenerateAdminToken(adminID uint, secret string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": adminID,
		"exp":      time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
