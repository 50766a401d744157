package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds surfaced by the services. Callers classify with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrTableUnavailable   = errors.New("table unavailable")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidState       = errors.New("invalid state")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInternal           = errors.New("internal error")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// newValidationError builds a ValidationError from field/message pairs.
func newValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

// StockError names the product whose stock could not cover a request.
type StockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (ID: %d). Requested: %d, Available: %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// internalError hides storage detail behind ErrInternal while keeping the
// cause in the chain for logging.
func internalError(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, action, err)
}
