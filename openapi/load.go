package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

type settings struct {
	httpClient *http.Client
	timeout    time.Duration
	validate   bool
}

func defaultSettings() settings {
	return settings{
		timeout:  10 * time.Second,
		validate: true,
	}
}

// LoadOption configures Load and LoadData.
type LoadOption func(*settings)

// WithHTTPClient sets the client used to fetch documents over http(s).
func WithHTTPClient(client *http.Client) LoadOption {
	return func(s *settings) { s.httpClient = client }
}

// WithTimeout bounds the fetch of a remote document.
func WithTimeout(d time.Duration) LoadOption {
	return func(s *settings) { s.timeout = d }
}

// WithoutValidation skips document validation after parsing.
func WithoutValidation() LoadOption {
	return func(s *settings) { s.validate = false }
}

// Load reads an OpenAPI 3 or Swagger 2 document from a file path, a file://
// URL or an http(s) URL. Swagger 2 documents are converted to OpenAPI 3.
func Load(ctx context.Context, location string, opts ...LoadOption) (*Document, error) {
	if strings.TrimSpace(location) == "" {
		return nil, &SpecError{Code: InputError, Message: "location is empty"}
	}
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	data, err := read(ctx, location, s)
	if err != nil {
		return nil, err
	}
	return load(ctx, data, location, s)
}

// LoadData parses an OpenAPI 3 or Swagger 2 document held in memory, in
// JSON or YAML.
func LoadData(ctx context.Context, data []byte, opts ...LoadOption) (*Document, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return load(ctx, data, "", s)
}

func read(ctx context.Context, location string, s settings) ([]byte, error) {
	u, err := url.Parse(location)
	if err == nil && u.Scheme != "" && (u.Host != "" || u.Scheme == "file") {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			data, err := fetch(ctx, location, s)
			if err != nil {
				return nil, &SpecError{Code: NetworkError, Message: err.Error(), Location: location, Cause: err}
			}
			return data, nil
		case "file":
			location = u.Path
		default:
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("unsupported URL scheme %q", u.Scheme), Location: location}
		}
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: err.Error(), Location: location, Cause: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: err.Error(), Location: abs, Cause: err}
	}
	return data, nil
}

func fetch(ctx context.Context, rawURL string, s settings) ([]byte, error) {
	client := s.httpClient
	if client == nil {
		client = &http.Client{Timeout: s.timeout}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}

func load(ctx context.Context, data []byte, location string, s settings) (*Document, error) {
	version, err := detectVersion(data)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}

	var doc *openapi3.T
	switch version {
	case 3:
		loader := openapi3.NewLoader()
		doc, err = loader.LoadFromData(data)
		if err != nil {
			return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
		}
	case 2:
		doc, err = convertV2(data)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert swagger 2 document: %v", err), Location: location, Cause: err}
		}
	}

	if s.validate {
		if err := doc.Validate(ctx); err != nil {
			return nil, &SpecError{Code: ValidationError, Message: err.Error(), Location: location, Cause: err}
		}
	}
	return FromT(doc), nil
}

// detectVersion returns 3 for OpenAPI 3 and 2 for Swagger 2.
func detectVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse document: %w", err)
	}
	if v, ok := root["openapi"].(string); ok && strings.HasPrefix(strings.TrimSpace(v), "3.") {
		return 3, nil
	}
	if v, ok := root["swagger"].(string); ok && strings.HasPrefix(strings.TrimSpace(v), "2.") {
		return 2, nil
	}
	return 0, fmt.Errorf("missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

// convertV2 decodes YAML or JSON into an openapi2.T through its JSON tags and
// converts it to OpenAPI 3.
func convertV2(data []byte) (*openapi3.T, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(stringKeys(raw))
	if err != nil {
		return nil, err
	}

	var v2 openapi2.T
	if err := json.Unmarshal(encoded, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

// stringKeys rewrites the map[any]any mappings yaml.v3 produces for
// non-string keys, such as unquoted response codes, so they encode as JSON.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = stringKeys(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = stringKeys(item)
		}
		return t
	default:
		return v
	}
}
