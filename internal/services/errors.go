package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks network-level failures: unreachable host, timeouts,
	// non-2xx responses with no parseable body.
	ErrTransport = errors.New("transport error")
	// ErrBusiness marks failures the remote stage reported itself, either a
	// non-2xx response with a detail message or a 2xx body carrying
	// success=false.
	ErrBusiness = errors.New("stage business error")
	// ErrUnsupportedLanguage marks detection results the language catalog
	// cannot map to a supported code.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrValidation marks local precondition failures resolved without
	// contacting any remote stage.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether a failure is recoverable via explicit stage retry.
// Validation and unsupported-language failures are resolved locally and are
// not retryable against the remote services.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrValidation) && !errors.Is(err, ErrUnsupportedLanguage)
}

// Details extracts the user-facing portion of a wrapped stage error: the text
// after the sentinel marker prefix. Falls back to the full error string.
type ErrorDetails struct {
	Message string
}

// Details returns the human-readable failure description for presentation.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	msg := err.Error()
	for _, marker := range []error{ErrTransport, ErrBusiness, ErrUnsupportedLanguage, ErrValidation} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return ErrorDetails{Message: strings.TrimSpace(strings.TrimPrefix(msg, prefix))}
		}
	}
	return ErrorDetails{Message: strings.TrimSpace(msg)}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
