package apifetch

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// WithBaseURL sets the prefix prepended to every resolved path. It is used
// verbatim, so include or omit the trailing slash to match your paths.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithMode sets the default outcome mode
func WithMode(mode Mode) Option {
	return func(c *Client) {
		c.mode = mode
	}
}

// WithQuerySerialization sets the default query serialization
func WithQuerySerialization(cfg QuerySerialization) Option {
	return func(c *Client) {
		c.serialization = cfg
	}
}

// WithParamStyleResolver sets a per-operation lookup of parameter styles,
// typically backed by an OpenAPI document.
func WithParamStyleResolver(fn ParamStyleResolver) Option {
	return func(c *Client) {
		c.styleResolver = fn
	}
}

// WithTimeout sets the request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		// Update timeout if it was set
		if c.timeout != 0 && client != nil {
			c.httpClient.Timeout = c.timeout
		}
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithStatusValidator replaces the check deciding which statuses are errors
func WithStatusValidator(fn StatusValidator) Option {
	return func(c *Client) {
		c.statusValidator = fn
	}
}

// WithErrorClassifier replaces the predicate that recognizes HTTP errors
func WithErrorClassifier(fn ErrorClassifier) Option {
	return func(c *Client) {
		c.classifier = fn
	}
}

// WithRemainingParamsAsQuery appends path parameters that matched no
// placeholder to the query string.
func WithRemainingParamsAsQuery(enabled bool) Option {
	return func(c *Client) {
		c.remainingAsQuery = enabled
	}
}

// WithMetrics enables Prometheus metrics collection on the default registry.
// The collectors can be registered only once per process, so a second client
// built with WithMetrics panics; share one NewMetricsCollector through
// WithMetricsCollector instead.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}

// WithPropagator sets the propagator used to inject trace context into
// request headers. The global propagator is used otherwise.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *Client) {
		c.propagator = p
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSlogLogger enables debug logging through an existing slog logger
func WithSlogLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSlogLogger(logger)
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.validateModeConfig()...)
	errors = append(errors, c.validateSerializationConfig()...)
	errors = append(errors, c.validateDebugConfig()...)
	errors = append(errors, c.validateMiddlewareConfig()...)
	errors = append(errors, c.validateTransportConfig()...)

	if len(errors) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}

func (c *Client) validateModeConfig() []string {
	var errors []string

	if !c.mode.Valid() {
		errors = append(errors, fmt.Sprintf("mode %q is not one of strict-throw, error-field, exhaustive", c.mode))
	}
	if c.statusValidator == nil {
		errors = append(errors, "status validator cannot be nil")
	}
	if c.classifier == nil {
		errors = append(errors, "error classifier cannot be nil")
	}

	return errors
}

func (c *Client) validateSerializationConfig() []string {
	var errors []string

	if !c.serialization.Style.Valid() {
		errors = append(errors, fmt.Sprintf("query style %q is not supported", c.serialization.Style))
	}

	return errors
}

// validateDebugConfig validates debug configuration
func (c *Client) validateDebugConfig() []string {
	var errors []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errors = append(errors, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errors = append(errors, "logger must be set when debug is enabled")
		}
	}

	return errors
}

// validateMiddlewareConfig validates middleware configuration
func (c *Client) validateMiddlewareConfig() []string {
	var errors []string

	for i, middleware := range c.middleware {
		if middleware == nil {
			errors = append(errors, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	return errors
}

// validateTransportConfig checks the HTTP client, the timeout and the base URL.
func (c *Client) validateTransportConfig() []string {
	var errors []string

	if c.httpClient == nil {
		errors = append(errors, "HTTP client cannot be nil")
	}
	if c.timeout < 0 {
		errors = append(errors, "timeout must not be negative")
	}
	if c.timeout > 10*time.Minute {
		errors = append(errors, "timeout > 10m may cause requests to hang for too long")
	}
	if c.baseURL != "" {
		if u, err := url.Parse(c.baseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("base URL %q must be an absolute URL", c.baseURL))
		}
	}

	return errors
}
