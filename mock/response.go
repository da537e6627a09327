package mock

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// ErrNetwork is the cause of failures produced by NetworkError.
var ErrNetwork = errors.New("mock: simulated network error")

// NewResponse builds a response with the given status, header and body.
func NewResponse(status int, header http.Header, body []byte) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// JSON answers with v encoded as JSON.
func JSON(status int, v any) Resolver {
	return func(*Request) (*http.Response, error) {
		body, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("mock: encode json body: %w", err)
		}
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		header.Set("Content-Length", strconv.Itoa(len(body)))
		return NewResponse(status, header, body), nil
	}
}

// Text answers with a plain text body.
func Text(status int, body string) Resolver {
	return func(*Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Content-Type", "text/plain; charset=utf-8")
		return NewResponse(status, header, []byte(body)), nil
	}
}

// Status answers with an empty body.
func Status(status int) Resolver {
	return func(*Request) (*http.Response, error) {
		return NewResponse(status, nil, nil), nil
	}
}

// NoContent answers 204 No Content.
func NoContent() Resolver {
	return Status(http.StatusNoContent)
}

// NetworkError fails the request as if the connection broke.
func NetworkError() Resolver {
	return func(r *Request) (*http.Response, error) {
		return nil, fmt.Errorf("%w: %s %s", ErrNetwork, r.Method, r.URL.Path)
	}
}

// Hang blocks until the request context is done, which lets tests exercise
// client timeouts and cancellation.
func Hang() Resolver {
	return func(r *Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	}
}

// DecodeJSON unmarshals the request body into v.
func (r *Request) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}
