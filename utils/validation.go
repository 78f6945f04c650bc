package utils

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/zekoya/storefront/models"
)

// FieldValidationError represents a validation error for a specific field
type FieldValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldValidationErrors represents multiple field validation errors
type FieldValidationErrors []FieldValidationError

// Error implements the error interface
func (e FieldValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// RegisterValidators adds the store's binding tags to gin's validator
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterValidatorsOn(v)
}

// RegisterValidatorsOn registers the custom tags on v
func RegisterValidatorsOn(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"product_size": func(fl validator.FieldLevel) bool {
			return models.IsValidSize(fl.Field().String())
		},
		"payment_method": func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case models.PaymentMethodCOD, models.PaymentMethodRazorpay, models.PaymentMethodWallet:
				return true
			}
			return false
		},
		"discount_type": func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case models.DiscountTypePercentage, models.DiscountTypeFixed:
				return true
			}
			return false
		},
		"order_status": func(fl validator.FieldLevel) bool {
			return IsValidOrderStatus(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %v", tag, err)
		}
	}
	return nil
}

// IsValidOrderStatus reports whether status is a known order status
func IsValidOrderStatus(status string) bool {
	if status == models.OrderStatusCancelled {
		return true
	}
	for _, s := range models.OrderStatusFlow {
		if s == status {
			return true
		}
	}
	return false
}

// SanitizeString escapes HTML and strips tags from free text
func SanitizeString(input string) string {
	sanitized := html.EscapeString(strings.TrimSpace(input))
	return htmlTagRegex.ReplaceAllString(sanitized, "")
}

// FormatPhoneNumber normalises an Indian mobile number to 10 digits
func FormatPhoneNumber(phone string) (string, error) {
	phone = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if len(phone) == 11 && strings.HasPrefix(phone, "0") {
		phone = phone[1:]
	}
	if len(phone) == 12 && strings.HasPrefix(phone, "91") {
		phone = phone[2:]
	}

	if len(phone) != 10 {
		return "", fmt.Errorf("phone number must be exactly 10 digits")
	}
	if phone[0] < '6' || phone[0] > '9' {
		return "", fmt.Errorf("phone number must start with 6, 7, 8, or 9")
	}
	return phone, nil
}

// ValidateRating checks the review star range
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}
