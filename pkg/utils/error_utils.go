package utils

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Standardized APIError response
type APIError struct {
	StatusCode int               `json:"-"`              // HTTP status code, not included in JSON response body for error itself
	Code       string            `json:"code,omitempty"` // Application-specific error code
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"` // Per-field validation messages
}

// NewAPIError creates a new APIError instance
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// WithFields attaches per-field messages to the error.
func (e *APIError) WithFields(fields map[string]string) *APIError {
	e.Fields = fields
	return e
}

// RespondWithError sends a standardized JSON error response
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort() // Abort further processing if it's a middleware or critical error
}

const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeTableUnavailable    = "TABLE_UNAVAILABLE"
	ErrCodeProductUnavailable  = "PRODUCT_UNAVAILABLE"
	ErrCodeInvalidState        = "INVALID_STATE"
)

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// IsValidEmail checks if a string is a valid email format.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.ToLower(email))
}

// IsValidPasswordLength checks if password meets minimum length requirement.
func IsValidPasswordLength(password string, minLength int) bool {
	return len(password) >= minLength
}

// ValidationErrorFields converts binding errors produced by validator/v10 into
// a field -> message map. Other errors (malformed JSON, wrong types) come back
// as a single "body" entry.
func ValidationErrorFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return fields
}

// fieldPath turns "CreateOrderRequest.items[0].quantity" into "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// RespondValidationFailed answers 422 with the given per-field messages.
func RespondValidationFailed(c *gin.Context, details string, fields map[string]string) {
	RespondWithError(c, NewAPIError(http.StatusUnprocessableEntity, ErrCodeValidationFailed, "Input validation failed", details).WithFields(fields))
}

// RespondBindingError reports a failed ShouldBind* call.
func RespondBindingError(c *gin.Context, err error) {
	RespondValidationFailed(c, "Invalid request payload", ValidationErrorFields(err))
}

// UseJSONFieldNames makes validation errors report fields by their json tag,
// so clients see "items[0].quantity" rather than "Items[0].Quantity".
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}
