package utils

import (
	"regexp"
	"strings"
)

var (
	addressLineRegex     = regexp.MustCompile(`^[a-zA-Z0-9\s,.'#\-/]+$`)
	cityRegex            = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	postalCodeIndiaRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// AddressInput is the editable part of an address
type AddressInput struct {
	FullName   string `json:"fullName" binding:"required,max=100"`
	Phone      string `json:"phone" binding:"required"`
	Line1      string `json:"line1" binding:"required,max=150"`
	Line2      string `json:"line2" binding:"max=100"`
	City       string `json:"city" binding:"required,max=60"`
	State      string `json:"state" binding:"required,max=60"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

// ValidateAddress checks address content and normalises it in place
func ValidateAddress(in *AddressInput) FieldValidationErrors {
	var errs FieldValidationErrors

	in.FullName = strings.TrimSpace(in.FullName)
	in.Line1 = strings.TrimSpace(in.Line1)
	in.Line2 = strings.TrimSpace(in.Line2)
	in.City = Title(strings.TrimSpace(in.City))
	in.State = Title(strings.TrimSpace(in.State))
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Country = Title(strings.TrimSpace(in.Country))
	if in.Country == "" {
		in.Country = "India"
	}

	if in.FullName == "" {
		errs = append(errs, FieldValidationError{"fullName", "Full name is required"})
	}
	if !addressLineRegex.MatchString(in.Line1) {
		errs = append(errs, FieldValidationError{"line1", "Address Line 1 contains invalid characters"})
	}
	if in.Line2 != "" && !addressLineRegex.MatchString(in.Line2) {
		errs = append(errs, FieldValidationError{"line2", "Address Line 2 contains invalid characters"})
	}
	if !cityRegex.MatchString(in.City) {
		errs = append(errs, FieldValidationError{"city", "City must contain only letters and spaces"})
	}
	if !cityRegex.MatchString(in.State) {
		errs = append(errs, FieldValidationError{"state", "State must contain only letters and spaces"})
	}
	if strings.EqualFold(in.Country, "India") && !postalCodeIndiaRegex.MatchString(in.PostalCode) {
		errs = append(errs, FieldValidationError{"postalCode", "Postal code must be a valid 6-digit Indian PIN (e.g., 600028)"})
	}

	phone, err := FormatPhoneNumber(in.Phone)
	if err != nil {
		errs = append(errs, FieldValidationError{"phone", err.Error()})
	} else {
		in.Phone = phone
	}

	return errs
}
