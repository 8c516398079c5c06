package market

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPayload means the inbound payload lacks a body or sender.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrParse means the deterministic parser could not find a required element.
	ErrParse = errors.New("parse failed")

	// ErrExtraction means the model-assisted extractor failed.
	ErrExtraction = errors.New("extraction failed")

	// ErrModelUnavailable marks extraction failures caused by the model
	// service rather than the submission: missing credentials, timeouts
	// and transport errors. Always wrapped together with ErrExtraction.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the first constraint a candidate record violated.
type ValidationError struct {
	Field   string // e.g. "market", "priceItems[1].price"
	Rule    string // validator tag that failed
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidPayload(missing []string) error {
	return fmt.Errorf("%w: missing required fields (%s)", ErrInvalidPayload, strings.Join(missing, ", "))
}

// ParseError builds an ErrParse failure with a user-facing message.
func ParseError(msg string) error {
	return fmt.Errorf("%w: %s", ErrParse, msg)
}

// ExtractionError builds an ErrExtraction failure. The format may wrap a
// cause with %w.
func ExtractionError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrExtraction}, args...)...)
}

// UnavailableError builds an ErrExtraction failure that also matches
// ErrModelUnavailable.
func UnavailableError(format string, args ...any) error {
	return fmt.Errorf("%w: %w: "+format, append([]any{ErrExtraction, ErrModelUnavailable}, args...)...)
}

// IsUserError reports whether err describes a problem with the submission
// itself rather than with the service.
func IsUserError(err error) bool {
	if errors.Is(err, ErrModelUnavailable) {
		return false
	}
	return errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrExtraction)
}
