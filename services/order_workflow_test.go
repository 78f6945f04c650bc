package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
)

func TestCheckStatusTransition(t *testing.T) {
	tests := []struct {
		name    string
		current string
		next    string
		wantErr bool
	}{
		{"pending to processing", models.OrderStatusPending, models.OrderStatusProcessing, false},
		{"processing to shipped", models.OrderStatusProcessing, models.OrderStatusShipped, false},
		{"skip to delivered", models.OrderStatusProcessing, models.OrderStatusDelivered, false},
		{"cancel shipped", models.OrderStatusShipped, models.OrderStatusCancelled, false},
		{"reopen cancelled", models.OrderStatusCancelled, models.OrderStatusProcessing, false},
		{"same status", models.OrderStatusShipped, models.OrderStatusShipped, true},
		{"backwards", models.OrderStatusShipped, models.OrderStatusProcessing, true},
		{"cancel delivered", models.OrderStatusDelivered, models.OrderStatusCancelled, true},
		{"unknown status", models.OrderStatusPending, "Lost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStatusTransition(tt.current, tt.next)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, utils.HasErrorType(err, utils.ErrTypeInvalidTransition))
		})
	}
}
