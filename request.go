package apifetch

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ambiyansyah-risyal/apifetch/internal/pathtemplate"
	"github.com/ambiyansyah-risyal/apifetch/internal/querystring"
)

type requestConfig struct {
	pathParams         map[string]any
	query              map[string]any
	mode               Mode
	serialization      *QuerySerialization
	paramSerialization map[string]QuerySerialization
	headers            http.Header
	contentType        string
}

// WithPathParams supplies values for the {name} placeholders of the path.
// Repeated use merges the maps.
func WithPathParams(params map[string]any) RequestOption {
	return func(rc *requestConfig) {
		if rc.pathParams == nil {
			rc.pathParams = make(map[string]any, len(params))
		}
		for k, v := range params {
			rc.pathParams[k] = v
		}
	}
}

// WithPathParam supplies one placeholder value.
func WithPathParam(name string, value any) RequestOption {
	return WithPathParams(map[string]any{name: value})
}

// WithQuery supplies query parameters. Repeated use merges the maps.
func WithQuery(params map[string]any) RequestOption {
	return func(rc *requestConfig) {
		if rc.query == nil {
			rc.query = make(map[string]any, len(params))
		}
		for k, v := range params {
			rc.query[k] = v
		}
	}
}

// WithQueryParam supplies one query parameter.
func WithQueryParam(name string, value any) RequestOption {
	return WithQuery(map[string]any{name: value})
}

// WithRequestMode overrides the client mode for this call.
func WithRequestMode(mode Mode) RequestOption {
	return func(rc *requestConfig) {
		rc.mode = mode
	}
}

// WithRequestSerialization overrides the default query serialization for
// this call. Per-parameter styles still take precedence.
func WithRequestSerialization(cfg QuerySerialization) RequestOption {
	return func(rc *requestConfig) {
		rc.serialization = &cfg
	}
}

// WithParamSerialization sets the serialization of a single query parameter.
func WithParamSerialization(name string, cfg QuerySerialization) RequestOption {
	return func(rc *requestConfig) {
		if rc.paramSerialization == nil {
			rc.paramSerialization = make(map[string]QuerySerialization)
		}
		rc.paramSerialization[name] = cfg
	}
}

// WithRequestHeader adds a header to this call.
func WithRequestHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.headers == nil {
			rc.headers = make(http.Header)
		}
		rc.headers.Add(key, value)
	}
}

// WithContentType overrides the Content-Type derived from the body.
func WithContentType(contentType string) RequestOption {
	return func(rc *requestConfig) {
		rc.contentType = contentType
	}
}

func (c *Client) newRequestConfig(opts []RequestOption) *requestConfig {
	rc := &requestConfig{mode: c.mode}
	for _, opt := range opts {
		if opt != nil {
			opt(rc)
		}
	}
	return rc
}

// resolveURL builds the full request URL for a path template.
func (c *Client) resolveURL(method, path string, rc *requestConfig) string {
	resolved := pathtemplate.Resolve(path, rc.pathParams, pathtemplate.WithPrefix(c.baseURL))

	query := rc.query
	if c.remainingAsQuery && len(resolved.Remaining) > 0 {
		query = make(map[string]any, len(rc.query)+len(resolved.Remaining))
		for k, v := range resolved.Remaining {
			query[k] = v
		}
		for k, v := range rc.query {
			query[k] = v
		}
	}

	qs := c.encodeQuery(method, path, query, rc)
	if qs == "" {
		return resolved.Path
	}
	sep := "?"
	if strings.Contains(resolved.Path, "?") {
		sep = "&"
	}
	return resolved.Path + sep + qs
}

// encodeQuery picks each parameter's serialization from, in order of
// precedence, the call, the client's style resolver, the call default and
// the client default.
func (c *Client) encodeQuery(method, path string, query map[string]any, rc *requestConfig) string {
	if len(query) == 0 {
		return ""
	}

	fallback := c.serialization
	if rc.serialization != nil {
		fallback = *rc.serialization
	}

	var resolved map[string]QuerySerialization
	if c.styleResolver != nil {
		resolved = c.styleResolver(method, path)
	}

	return querystring.EncodeEach(query, func(name string) QuerySerialization {
		if cfg, ok := rc.paramSerialization[name]; ok {
			return cfg
		}
		if cfg, ok := resolved[name]; ok {
			return cfg
		}
		return fallback
	})
}

// encodeBody turns a request body into a reader and its default content
// type: io.Reader and []byte are sent as is, strings as text and everything
// else as JSON.
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return b, "", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	case string:
		return strings.NewReader(b), "text/plain; charset=utf-8", nil
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}
