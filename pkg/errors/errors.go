package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors
var (
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrDeviceNotFound       = errors.New("device not found")
	ErrLoanNotFound         = errors.New("loan not found")
	ErrLoanAlreadySettled   = errors.New("loan is already fully paid")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrValidationFailed     = errors.New("validation failed")
	ErrStorageFailure       = errors.New("storage operation failed")
)

// Error codes
const (
	ErrCodeCustomerNotFound     = "CUSTOMER_NOT_FOUND"
	ErrCodeDeviceNotFound       = "DEVICE_NOT_FOUND"
	ErrCodeLoanNotFound         = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadySettled   = "LOAN_ALREADY_SETTLED"
	ErrCodeInvalidPaymentAmount = "INVALID_PAYMENT_AMOUNT"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeStorageFailure       = "STORAGE_FAILURE"
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError carries every failed field check of a request at once,
// keyed by field name, so callers can render all problems in one pass.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a failure for a field. The first message per field wins.
func (e *ValidationError) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// IsNotFound reports whether err refers to a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrDeviceNotFound) ||
		errors.Is(err, ErrLoanNotFound)
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// Wrap common errors with business context

func WrapCustomerNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeCustomerNotFound,
		fmt.Sprintf("Customer with ID %s not found", id),
		ErrCustomerNotFound,
	)
}

func WrapDeviceNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeDeviceNotFound,
		fmt.Sprintf("Device with ID %s not found", id),
		ErrDeviceNotFound,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadySettled(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadySettled,
		fmt.Sprintf("Loan with ID %s has no outstanding balance", loanID),
		ErrLoanAlreadySettled,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapStorageError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeStorageFailure,
		"storage operation failed",
		errors.Join(ErrStorageFailure, err),
	)
}
