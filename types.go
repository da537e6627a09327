package apifetch

import (
	"net/http"
	"strings"
)

// Middleware represents a middleware function. It sees statuses rejected by
// the client's StatusValidator as a *ClientError and may return a response
// instead to recover.
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Option represents a configuration option
type Option func(*Client)

// RequestOption configures a single call.
type RequestOption func(*requestConfig)

// StatusValidator reports whether a response status counts as success.
type StatusValidator func(status int) bool

// DefaultStatusValidator accepts every status below 400.
func DefaultStatusValidator(status int) bool {
	return status < 400
}

// ParamStyleResolver returns per-parameter query serialization for an
// operation. Parameters missing from the returned map use the client or call
// default.
type ParamStyleResolver func(method, pathTemplate string) map[string]QuerySerialization

// Response is a completed HTTP exchange with its body read and decoded.
type Response struct {
	*http.Response

	// RawBody holds the complete response body.
	RawBody []byte
	// Data is the decoded body: nil when empty, the decoded JSON value for
	// JSON content, a string for text content and []byte otherwise.
	Data any
}

// methodsWithBody lists the verbs whose helpers take a request body.
var methodsWithBody = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// MethodAllowsBody reports whether method is one of POST, PUT and PATCH,
// the verbs whose helpers take a request body.
func MethodAllowsBody(method string) bool {
	return methodsWithBody[strings.ToUpper(method)]
}
