package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TransientError represents a completion-service failure that the operator
// may simply retry. The session is never torn down because of one.
type TransientError struct {
	Err        error
	StatusCode int    // HTTP status code if applicable
	RetryAfter int    // Seconds from the Retry-After header, if present
	Message    string // user-facing message
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError represents a failure that retrying will not fix
// (bad API key, malformed request, model not found).
type PermanentError struct {
	Err        error
	StatusCode int
	Message    string
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a transient error with a user-facing message.
func NewTransientError(err error, message string) *TransientError {
	return &TransientError{Err: err, Message: message}
}

// NewPermanentError creates a permanent error with a user-facing message.
func NewPermanentError(err error, message string) *PermanentError {
	return &PermanentError{Err: err, Message: message}
}

// IsTransient reports whether the error is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// MapHTTPStatus classifies an HTTP error status from the completion service.
func MapHTTPStatus(statusCode int, body string) error {
	base := fmt.Errorf("completion service returned status %d: %s", statusCode, strings.TrimSpace(body))
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return &TransientError{Err: base, StatusCode: statusCode}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &PermanentError{Err: base, StatusCode: statusCode,
			Message: "Authentification refusée par le service de complétion. Vérifiez votre clé API."}
	default:
		return &PermanentError{Err: base, StatusCode: statusCode}
	}
}

// FormatForUser converts technical errors to the French, operator-facing
// messages the interfaces display. Technical detail goes to the debug log,
// never to the screen.
func FormatForUser(err error) string {
	if err == nil {
		return ""
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) && transientErr.Message != "" {
		return transientErr.Message
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) && permanentErr.Message != "" {
		return permanentErr.Message
	}

	lowerErr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowerErr, "rate limit"), strings.Contains(lowerErr, "429"):
		return "Le service de complétion est saturé. Réessayez dans quelques instants."
	case strings.Contains(lowerErr, "timeout"), strings.Contains(lowerErr, "deadline exceeded"):
		return "Le service de complétion n'a pas répondu à temps. Réessayez."
	case strings.Contains(lowerErr, "connection refused"), strings.Contains(lowerErr, "no such host"):
		return "Impossible de joindre le service de complétion. Vérifiez votre connexion."
	case strings.Contains(lowerErr, "unauthorized"), strings.Contains(lowerErr, "401"):
		return "Authentification refusée par le service de complétion. Vérifiez votre clé API."
	}
	return err.Error()
}
