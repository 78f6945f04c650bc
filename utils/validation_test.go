package utils

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zekoya/storefront/models"
)

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"9876543210", "9876543210", false},
		{"+91 98765 43210", "9876543210", false},
		{"09876543210", "9876543210", false},
		{"98765-4321", "", true},
		{"5876543210", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FormatPhoneNumber(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAddress(t *testing.T) {
	t.Run("normalises a valid address", func(t *testing.T) {
		in := AddressInput{
			FullName:   "  Asha Rao ",
			Phone:      "+91 98450 12345",
			Line1:      "12, MG Road",
			City:       "bengaluru",
			State:      "KARNATAKA",
			PostalCode: "560001",
		}
		errs := ValidateAddress(&in)
		assert.Empty(t, errs)
		assert.Equal(t, "Asha Rao", in.FullName)
		assert.Equal(t, "Bengaluru", in.City)
		assert.Equal(t, "Karnataka", in.State)
		assert.Equal(t, "India", in.Country)
		assert.Equal(t, "9845012345", in.Phone)
	})

	t.Run("reports each bad field", func(t *testing.T) {
		in := AddressInput{
			FullName:   "Asha",
			Phone:      "12345",
			Line1:      "12 <b>Road</b>",
			City:       "Bengaluru 1",
			State:      "Karnataka",
			PostalCode: "060001",
		}
		errs := ValidateAddress(&in)
		fields := map[string]bool{}
		for _, e := range errs {
			fields[e.Field] = true
		}
		assert.Equal(t, map[string]bool{"phone": true, "line1": true, "city": true, "postalCode": true}, fields)
	})

	t.Run("foreign postal codes are not checked", func(t *testing.T) {
		in := AddressInput{
			FullName: "Sam", Phone: "9845012345", Line1: "1 High St",
			City: "London", State: "England", PostalCode: "SW1A 1AA", Country: "united kingdom",
		}
		assert.Empty(t, ValidateAddress(&in))
	})
}

func TestRegisterValidatorsOn(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidatorsOn(v))

	type line struct {
		Size   string `validate:"product_size"`
		Method string `validate:"payment_method"`
		Type   string `validate:"discount_type"`
		Status string `validate:"order_status"`
	}

	assert.NoError(t, v.Struct(line{models.SizeXL, models.PaymentMethodWallet, models.DiscountTypeFixed, models.OrderStatusShipped}))

	err := v.Struct(line{"XS", "Card", "bogo", "Lost"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 4)
}

func TestIsValidOrderStatus(t *testing.T) {
	assert.True(t, IsValidOrderStatus(models.OrderStatusPending))
	assert.True(t, IsValidOrderStatus(models.OrderStatusCancelled))
	assert.False(t, IsValidOrderStatus("processing"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Great fit", SanitizeString("  Great fit  "))
	assert.NotContains(t, SanitizeString(`<script>alert(1)</script>`), "<script>")
}

func TestValidateRating(t *testing.T) {
	assert.NoError(t, ValidateRating(MinRating))
	assert.NoError(t, ValidateRating(MaxRating))
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))
}
