package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zekoya/storefront/config"
	"gorm.io/gorm"
)

// StandardResponse represents the standard API response structure
type StandardResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	ErrorType string      `json:"errorType,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Success sends a standardized success response
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// Created sends a standardized created response (201)
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response
func Error(c *gin.Context, statusCode int, message string, err interface{}) {
	response := StandardResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		response.Data = gin.H{"error": err}
	}
	c.JSON(statusCode, response)
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c *gin.Context, message string, err interface{}) {
	Error(c, http.StatusBadRequest, message, err)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

// NotFound sends a 404 Not Found response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

// InternalServerError sends a 500 Internal Server Error response
func InternalServerError(c *gin.Context, message string, err interface{}) {
	Error(c, http.StatusInternalServerError, message, err)
}

// RespondWithError maps err onto a status code and error body. AppErrors
// keep their code, type and details; anything unrecognised is a 500 whose
// cause is only shown in development.
func RespondWithError(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		LogError("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

func errorBody(err error) (int, StandardResponse) {
	body := StandardResponse{Status: "error"}

	if appErr := GetAppError(err); appErr != nil {
		body.Message = appErr.Message
		body.ErrorType = appErr.ErrorType
		if len(appErr.Details) > 0 {
			body.Data = appErr.Details
		}
		if appErr.Code >= http.StatusInternalServerError && appErr.Err != nil && config.AppConfig.IsDevelopment() {
			body.Data = gin.H{"error": appErr.Err.Error()}
		}
		return appErr.Code, body
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		body.Message = "Resource not found"
		return http.StatusNotFound, body
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		body.Message = "Invalid request"
		body.ErrorType = ErrTypeValidation
		body.Data = gin.H{"fields": FieldErrors(validationErrs)}
		return http.StatusBadRequest, body
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		body.Message = "Invalid request body"
		body.ErrorType = ErrTypeValidation
		return http.StatusBadRequest, body
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		body.Message = "Resource already exists"
		body.ErrorType = ErrTypeAlreadyExists
		return http.StatusConflict, body
	}

	body.Message = "Internal server error"
	if config.AppConfig.IsDevelopment() {
		body.Data = gin.H{"error": err.Error()}
	}
	return http.StatusInternalServerError, body
}

// FieldErrors turns validator errors into field -> message pairs
func FieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if field != "" {
			field = strings.ToLower(field[:1]) + field[1:]
		}
		out[field] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "product_size":
		return "must be one of S, M, L, XL, XXL, 3XL"
	case "payment_method":
		return "must be one of COD, Razorpay, Wallet"
	case "discount_type":
		return "must be percentage or fixed"
	case "order_status":
		return "is not a valid order status"
	case "gtfield":
		return "must be after " + fe.Param()
	}
	return "is invalid"
}
