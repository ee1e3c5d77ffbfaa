package recommend

import (
	"errors"
	"fmt"

	"github.com/desertthunder/cratedig/internal/services"
)

// Code classifies a recommendation failure.
type Code string

const (
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeEmptyCriteria Code = "EMPTY_CRITERIA"
	CodeProviderError Code = "PROVIDER_ERROR"
	CodeRefreshFailed Code = "REFRESH_FAILED"
)

var (
	ErrUnauthorized  = &Error{Code: CodeUnauthorized, Message: "no usable session"}
	ErrEmptyCriteria = &Error{Code: CodeEmptyCriteria, Message: "select at least a genre, era or language"}
)

// Error is returned by [Engine.Search] and [BuildQuery].
//
// Two errors match with errors.Is when their codes are equal.
type Error struct {
	Code    Code
	Message string
	// Status is the provider's HTTP status for PROVIDER_ERROR, 0 for transport failures.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the [Code] from err, or "" when err is not an [*Error].
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func providerError(err error) *Error {
	var pe *services.ProviderError
	if errors.As(err, &pe) {
		return &Error{Code: CodeProviderError, Message: pe.Message, Status: pe.Status, Err: err}
	}
	return &Error{Code: CodeProviderError, Message: err.Error(), Err: err}
}
