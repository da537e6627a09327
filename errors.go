package apifetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error types carried in ClientError.Type.
const (
	ErrorTypeHTTP       = "HTTPError"
	ErrorTypeNetwork    = "NetworkError"
	ErrorTypeTimeout    = "TimeoutError"
	ErrorTypeRequest    = "RequestError"
	ErrorTypeValidation = "ValidationError"
	ErrorTypeDecode     = "DecodeError"
)

// Sentinel errors for common failure scenarios
var (
	// ErrHTTPStatus matches errors raised for a status the validator rejected
	ErrHTTPStatus = errors.New("apifetch: unexpected http status")

	// ErrTransport matches errors raised before any response was received
	ErrTransport = errors.New("apifetch: transport failure")

	// ErrInvalidMode is returned by ParseMode for unknown mode names
	ErrInvalidMode = errors.New("apifetch: invalid mode")

	// ErrInvalidConfig matches configuration validation errors
	ErrInvalidConfig = errors.New("apifetch: invalid configuration")
)

// ClientError represents an error from the client
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	Endpoint   string
	StatusCode int
	// Data is the decoded error payload of an HTTP error.
	Data any
	// Response is the rejected response of an HTTP error; nil otherwise.
	Response  *Response
	Timestamp time.Time
	Duration  time.Duration
}

// AsHTTPError is the default ErrorClassifier: it reports whether err carries
// a *ClientError for an HTTP status with its response attached.
func AsHTTPError(err error) (*ClientError, bool) {
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		return nil, false
	}
	if clientErr.Type != ErrorTypeHTTP || clientErr.Response == nil {
		return nil, false
	}
	return clientErr, true
}

// IsTransient determines if an error represents a transient failure that might succeed on a later attempt.
// Returns true for network errors, timeouts, 5xx responses and 429 Too Many Requests.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		return false
	}
	switch clientErr.Type {
	case ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	case ErrorTypeHTTP:
		return clientErr.StatusCode >= 500 || clientErr.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is. Besides another *ClientError of the
// same type it matches ErrHTTPStatus, ErrTransport and ErrInvalidConfig.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrHTTPStatus:
		return e.Type == ErrorTypeHTTP
	case ErrTransport:
		return e.Type == ErrorTypeNetwork || e.Type == ErrorTypeTimeout || e.Type == ErrorTypeRequest
	case ErrInvalidConfig:
		return e.Type == ErrorTypeValidation
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.Endpoint != "" {
		info += fmt.Sprintf("Endpoint: %s\n", e.Endpoint)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if e.Data != nil {
		info += fmt.Sprintf("Data: %v\n", e.Data)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}
