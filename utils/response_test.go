package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestErrorBody(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}
	validationErr := validator.New().Struct(payload{})
	require.Error(t, validationErr)

	var syntaxErr error = &json.SyntaxError{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"app error keeps its code", BadRequestError("Cart is empty", nil).WithType(ErrTypeEmptyCart), http.StatusBadRequest, ErrTypeEmptyCart},
		{"wrapped app error", errors.Wrap(ConflictError("dup", nil).WithType(ErrTypeDuplicateItem), "add item"), http.StatusConflict, ErrTypeDuplicateItem},
		{"record not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), http.StatusNotFound, ""},
		{"validation errors", validationErr, http.StatusBadRequest, ErrTypeValidation},
		{"malformed json", syntaxErr, http.StatusBadRequest, ErrTypeValidation},
		{"unique violation", &pgconn.PgError{Code: "23505"}, http.StatusConflict, ErrTypeAlreadyExists},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorBody(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.wantType, body.ErrorType)
		})
	}
}

func TestErrorBodyFields(t *testing.T) {
	type payload struct {
		ProductID uint `validate:"required"`
		Quantity  int  `validate:"min=1"`
	}
	err := validator.New().Struct(payload{})
	require.Error(t, err)

	_, body := errorBody(err)
	data, ok := body.Data.(gin.H)
	require.True(t, ok)
	fields, ok := data["fields"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["productID"])
	assert.Equal(t, "must be at least 1", fields["quantity"])
}

func TestRespondWithErrorDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/orders", nil)

	RespondWithError(c, BadRequestError("Insufficient wallet balance", nil).
		WithType(ErrTypeInsufficientBalance).
		WithDetails("balance", "500.00"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp StandardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrTypeInsufficientBalance, resp.ErrorType)
	assert.Equal(t, map[string]interface{}{"balance": "500.00"}, resp.Data)
}
