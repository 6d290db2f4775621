package supabase

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrSessionMissing is returned when an operation needs a session and none is stored.
	// The text matches the message the provider SDKs use for the same condition.
	ErrSessionMissing = errors.New("Auth session missing!") //nolint:stylecheck,revive

	// ErrEmptyURL is returned when the project URL is not configured.
	ErrEmptyURL = errors.New("supabase project url can not be empty")

	// ErrEmptyAnonKey is returned when the anonymous key is not configured.
	ErrEmptyAnonKey = errors.New("supabase anon key can not be empty")

	// ErrInvalidURL is returned when the project URL has no scheme or host.
	ErrInvalidURL = errors.New("supabase project url must be absolute")
)

// Error is a failure reported by the auth provider or by the transport towards it.
// Error() returns the provider message unchanged.
type Error struct {
	// Status is the HTTP status code, 0 for transport failures.
	Status int

	// Code is the provider error code (error_code or error), if any.
	Code string

	// Message is the human readable provider message.
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Retryable reports whether the failure is transient (network or gateway errors).
// Stored sessions are kept on retryable refresh failures.
func (e *Error) Retryable() bool {
	switch e.Status {
	case 0, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// errorBody covers both the current GoTrue error shape ({code, error_code, msg})
// and the OAuth style one ({error, error_description}).
type errorBody struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Err              string `json:"error"`
}

func newAPIError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}

		return apiErr
	}

	apiErr.Code = firstNonEmpty(eb.ErrorCode, eb.Err)
	apiErr.Message = firstNonEmpty(eb.Msg, eb.Message, eb.ErrorDescription, eb.Err, strings.TrimSpace(string(body)))

	return apiErr
}

func newTransportError(errs []error) *Error {
	return &Error{Message: errors.Join(errs...).Error()}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
