package apifetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client issues requests described by OpenAPI style path templates and
// parameter maps, and settles every call into an Outcome according to its
// Mode. It is safe for concurrent use.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	mode             Mode
	serialization    QuerySerialization
	styleResolver    ParamStyleResolver
	headers          http.Header
	timeout          time.Duration
	middleware       []Middleware
	statusValidator  StatusValidator
	classifier       ErrorClassifier
	remainingAsQuery bool
	metrics          *MetricsCollector
	tracerProvider   trace.TracerProvider
	propagator       propagation.TextMapPropagator
	debug            *DebugConfig
	logger           Logger
	validationError  error
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		mode:            ModeStrictThrow,
		serialization:   DefaultQuerySerialization(),
		headers:         make(http.Header),
		timeout:         30 * time.Second,
		middleware:      []Middleware{},
		statusValidator: DefaultStatusValidator,
		classifier:      AsHTTPError,
		debug:           DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Get performs an HTTP GET.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Outcome, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Head performs an HTTP HEAD.
func (c *Client) Head(ctx context.Context, path string, opts ...RequestOption) (*Outcome, error) {
	return c.Do(ctx, http.MethodHead, path, nil, opts...)
}

// Delete performs an HTTP DELETE.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Outcome, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// Options performs an HTTP OPTIONS.
func (c *Client) Options(ctx context.Context, path string, opts ...RequestOption) (*Outcome, error) {
	return c.Do(ctx, http.MethodOptions, path, nil, opts...)
}

// Post performs an HTTP POST with body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Outcome, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

// Put performs an HTTP PUT with body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Outcome, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

// Patch performs an HTTP PATCH with body.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Outcome, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

// Do resolves path against the path parameters and base URL, appends the
// serialized query, sends the request through the middleware chain and
// settles the result according to the effective mode. In ModeStrictThrow
// every failure is returned as the error; in ModeErrorField only transport
// failures are; ModeExhaustive never returns an error.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Outcome, error) {
	start := time.Now()
	method = strings.ToUpper(method)
	rc := c.newRequestConfig(opts)

	var requestID string
	if c.debugEnabled() && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	target := c.resolveURL(method, path, rc)

	ctx, span := c.startSpan(ctx, method, path, rc.mode)
	span.setURL(target)

	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("Starting request", "requestID", requestID, "method", method, "url", target, "endpoint", path, "mode", rc.mode)
	}
	if c.debugEnabled() && c.debug.LogQuery {
		if i := strings.IndexByte(target, '?'); i >= 0 {
			c.logger.Debug("Serialized query", "requestID", requestID, "query", target[i+1:])
		}
	}

	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, path)
	}

	call := func(ctx context.Context) (*Response, error) {
		return c.execute(ctx, method, path, target, body, rc, requestID, start)
	}
	outcome, err := Normalize(ctx, rc.mode, call, c.classifier)

	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordRequestEnd(method, path)
	}
	c.recordOutcome(method, path, rc.mode, outcome, err, duration)
	span.end(outcome, err)

	if c.debugEnabled() && c.debug.LogOutcomes {
		if err != nil {
			c.logger.Warn("Request failed", "requestID", requestID, "method", method, "endpoint", path, "error", err.Error(), "duration", duration)
		} else {
			c.logger.Debug("Request settled", "requestID", requestID, "method", method, "endpoint", path, "kind", outcome.Kind.String(), "status", outcome.StatusCode(), "duration", duration)
		}
	}

	return outcome, err
}

// URI returns the fully resolved request URL without sending anything.
func (c *Client) URI(method, path string, opts ...RequestOption) (string, error) {
	rc := c.newRequestConfig(opts)
	target := c.resolveURL(strings.ToUpper(method), path, rc)
	if _, err := url.Parse(target); err != nil {
		return "", &ClientError{
			Type:      ErrorTypeRequest,
			Message:   "invalid request URL",
			Cause:     err,
			Method:    strings.ToUpper(method),
			URL:       target,
			Endpoint:  path,
			Timestamp: time.Now(),
		}
	}
	return target, nil
}

func (c *Client) execute(ctx context.Context, method, endpoint, target string, body any, rc *requestConfig, requestID string, start time.Time) (*Response, error) {
	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, c.createClientError(ErrorTypeRequest, "failed to encode request body", err, requestID, method, target, endpoint, start)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, c.createClientError(ErrorTypeRequest, "failed to build request", err, requestID, method, target, endpoint, start)
	}
	c.applyHeaders(req, rc, contentType, requestID)
	c.inject(ctx, req)

	resp, err := c.executeMiddleware(req, requestID, endpoint, start)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, c.createClientError(ErrorTypeNetwork, "middleware returned no response", nil, requestID, method, target, endpoint, start)
	}

	out, err := readResponse(resp)
	if err != nil {
		return nil, c.createClientError(ErrorTypeNetwork, "failed to read response body", err, requestID, method, target, endpoint, start)
	}
	return out, nil
}

func (c *Client) applyHeaders(req *http.Request, rc *requestConfig, contentType, requestID string) {
	for key, values := range c.headers {
		req.Header[key] = append([]string(nil), values...)
	}
	for key, values := range rc.headers {
		req.Header[key] = append([]string(nil), values...)
	}

	switch {
	case rc.contentType != "":
		req.Header.Set("Content-Type", rc.contentType)
	case contentType != "" && req.Header.Get("Content-Type") == "":
		req.Header.Set("Content-Type", contentType)
	}

	if requestID != "" && req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", requestID)
	}
}

func (c *Client) executeMiddleware(req *http.Request, requestID, endpoint string, start time.Time) (*http.Response, error) {
	current := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return c.roundTrip(r, requestID, endpoint, start)
	})

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

// roundTrip is the innermost transport: it sends the request and turns
// statuses rejected by the status validator into an HTTP error carrying the
// buffered response.
func (c *Client) roundTrip(req *http.Request, requestID, endpoint string, start time.Time) (*http.Response, error) {
	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		errorType, message := ErrorTypeNetwork, "network request failed"
		if isTimeout(err) {
			errorType, message = ErrorTypeTimeout, "request timed out"
		}
		return nil, c.createClientError(errorType, message, err, requestID, req.Method, req.URL.String(), endpoint, start)
	}

	if c.statusValidator(resp.StatusCode) {
		return resp, nil
	}

	raw, err := readResponse(resp)
	if err != nil {
		return nil, c.createClientError(ErrorTypeNetwork, "failed to read response body", err, requestID, req.Method, req.URL.String(), endpoint, start)
	}
	httpErr := c.createClientError(ErrorTypeHTTP, fmt.Sprintf("request failed with status %d", resp.StatusCode), nil, requestID, req.Method, req.URL.String(), endpoint, start)
	httpErr.StatusCode = resp.StatusCode
	httpErr.Data = raw.Data
	httpErr.Response = raw
	return nil, httpErr
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) recordOutcome(method, endpoint string, mode Mode, outcome *Outcome, err error, duration time.Duration) {
	if c.metrics == nil {
		return
	}

	kind := OutcomeTransportError
	statusCode := 0
	var failure error
	switch {
	case err != nil:
		failure = err
		if httpErr, ok := c.classifier(err); ok {
			kind = OutcomeHTTPError
			statusCode = httpErr.StatusCode
		}
	case outcome != nil:
		kind = outcome.Kind
		statusCode = outcome.StatusCode()
		if outcome.Kind != OutcomeSuccess {
			failure = outcome.Error
		}
	}

	c.metrics.RecordRequest(method, endpoint, statusCode, duration)
	c.metrics.RecordOutcome(mode, kind)
	if failure != nil {
		c.metrics.RecordError(errorTypeOf(failure), method, endpoint)
	}
}

func errorTypeOf(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return "Other"
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}

func (c *Client) createClientError(errorType, message string, cause error, requestID, method, target, endpoint string, start time.Time) *ClientError {
	return &ClientError{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		RequestID: requestID,
		Method:    method,
		URL:       target,
		Endpoint:  endpoint,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// ValidateConfigurationStrict panics if configuration is invalid.
func (c *Client) ValidateConfigurationStrict() {
	if err := c.ValidateConfiguration(); err != nil {
		panic(fmt.Sprintf("invalid client configuration: %v", err))
	}
}
