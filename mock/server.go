// Package mock provides an in-process HTTP interception layer for tests.
//
// Handlers are registered per method with OpenAPI style paths, which are
// converted to colon patterns (/users/{id} becomes /users/:id) and prefixed
// with the server's base URL. Untyped registers a raw colon pattern as is.
// A *Server is both an http.RoundTripper, to plug into an *http.Client, and
// an http.Handler, to serve through httptest.
package mock

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ambiyansyah-risyal/apifetch/internal/pathtemplate"
)

// ErrUnhandled is returned for requests that match no registered handler.
var ErrUnhandled = errors.New("mock: no handler matched request")

// Request is an intercepted request with its path parameters captured.
type Request struct {
	*http.Request

	// Params holds the values captured by :name segments.
	Params map[string]string
	// Query is the parsed query string.
	Query url.Values
	// Body is the complete request body.
	Body []byte
}

// Resolver produces the response for a matched request. Returning an error
// simulates a transport failure.
type Resolver func(r *Request) (*http.Response, error)

// Handler is a registered route.
type Handler struct {
	method   string
	matcher  *pathtemplate.Matcher
	resolver Resolver
	once     bool
	calls    int
	srv      *Server
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// Once makes the handler answer a single request; afterwards it is skipped.
func Once() HandlerOption {
	return func(h *Handler) {
		h.once = true
	}
}

// Path returns the colon pattern the handler matches.
func (h *Handler) Path() string {
	return h.matcher.Pattern()
}

// Calls returns how many requests the handler has answered.
func (h *Handler) Calls() int {
	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()
	return h.calls
}

// Method returns the handler's HTTP method.
func (h *Handler) Method() string {
	return h.method
}

// Server dispatches requests to registered handlers in registration order.
type Server struct {
	mu       sync.Mutex
	baseURL  string
	handlers []*Handler
}

// Option configures a Server.
type Option func(*Server)

// WithBaseURL sets the prefix prepended to paths registered through the
// per-method factories. It may contain * wildcards, e.g. "*/api".
func WithBaseURL(baseURL string) Option {
	return func(s *Server) {
		s.baseURL = baseURL
	}
}

// New creates a Server.
func New(opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get registers a GET handler for an OpenAPI style path.
func (s *Server) Get(path string, resolver Resolver, opts ...HandlerOption) *Handler {
	return s.handle(http.MethodGet, pathtemplate.ToColon(path, s.baseURL), resolver, opts)
}

// Put registers a PUT handler for an OpenAPI style path.
func (s *Server) Put(path string, resolver Resolver, opts ...HandlerOption) *Handler {
	return s.handle(http.MethodPut, pathtemplate.ToColon(path, s.baseURL), resolver, opts)
}

// Post registers a POST handler for an OpenAPI style path.
func (s *Server) Post(path string, resolver Resolver, opts ...HandlerOption) *Handler {
	return s.handle(http.MethodPost, pathtemplate.ToColon(path, s.baseURL), resolver, opts)
}

// Delete registers a DELETE handler for an OpenAPI style path.
func (s *Server) Delete(path string, resolver Resolver, opts ...HandlerOption) *Handler {
	return s.handle(http.MethodDelete, pathtemplate.ToColon(path, s.baseURL), resolver, opts)
}

// Options registers an OPTIONS handler for an OpenAPI style path.
func (s *Server) Options(path string, resolver Resolver, opts ...HandlerOption) *Handler {
	return s.handle(http.MethodOptions, pathtemplate.ToColon(path, s.baseURL), resolver, opts)
}

// Head registers a HEAD handler for an OpenAPI style path.
func (s *Server) Head(path string, resolver Resolver, opts ...HandlerOption) *Handler {
	return s.handle(http.MethodHead, pathtemplate.ToColon(path, s.baseURL), resolver, opts)
}

// Patch registers a PATCH handler for an OpenAPI style path.
func (s *Server) Patch(path string, resolver Resolver, opts ...HandlerOption) *Handler {
	return s.handle(http.MethodPatch, pathtemplate.ToColon(path, s.baseURL), resolver, opts)
}

// Untyped registers a handler for a colon pattern without conversion or
// base URL. An empty method or "*" matches every method.
func (s *Server) Untyped(method, pattern string, resolver Resolver, opts ...HandlerOption) *Handler {
	return s.handle(strings.ToUpper(method), pattern, resolver, opts)
}

func (s *Server) handle(method, pattern string, resolver Resolver, opts []HandlerOption) *Handler {
	matcher, err := pathtemplate.Compile(pattern)
	if err != nil {
		panic(fmt.Sprintf("mock: %v", err))
	}
	h := &Handler{method: method, matcher: matcher, resolver: resolver, srv: s}
	for _, opt := range opts {
		opt(h)
	}

	s.mu.Lock()
	s.handlers = append(s.handlers, h)
	s.mu.Unlock()
	return h
}

// Reset removes every handler.
func (s *Server) Reset() {
	s.mu.Lock()
	s.handlers = nil
	s.mu.Unlock()
}

// Client returns an *http.Client whose transport is s.
func (s *Server) Client() *http.Client {
	return &http.Client{Transport: s}
}

// RoundTrip implements http.RoundTripper.
func (s *Server) RoundTrip(req *http.Request) (*http.Response, error) {
	h, params := s.match(req.Method, req.URL.String())
	if h == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnhandled, req.Method, req.URL)
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	resp, err := h.resolver(&Request{
		Request: req,
		Params:  params,
		Query:   req.URL.Query(),
		Body:    body,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("mock: resolver for %s %s returned no response", h.method, h.Path())
	}
	resp.Request = req
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	if req.Method == http.MethodHead {
		resp.Body = http.NoBody
	}
	return resp, nil
}

// ServeHTTP implements http.Handler. Unmatched requests get 501 and
// simulated transport failures get 502.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := *r
	u := *r.URL
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Scheme == "" {
		u.Scheme = "http"
		if r.TLS != nil {
			u.Scheme = "https"
		}
	}
	target.URL = &u

	resp, err := s.RoundTrip(&target)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, ErrUnhandled) {
			status = http.StatusNotImplemented
		}
		http.Error(w, err.Error(), status)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// match finds the first live handler for method and target and counts the
// call.
func (s *Server) match(method, target string) (*Handler, map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range s.handlers {
		if h.method != "" && h.method != "*" && h.method != method {
			continue
		}
		if h.once && h.calls > 0 {
			continue
		}
		params, ok := h.matcher.Match(target)
		if !ok {
			continue
		}
		h.calls++
		return h, params
	}
	return nil, nil
}
