package apifetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"
)

// readResponse buffers the body of resp and decodes it. resp.Body is
// replaced with a reader over the buffered bytes so it can be read again.
func readResponse(resp *http.Response) (*Response, error) {
	var body []byte
	if resp.Body != nil {
		var err error
		body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return &Response{
		Response: resp,
		RawBody:  body,
		Data:     decodeBody(resp.Header.Get("Content-Type"), body),
	}, nil
}

// decodeBody decodes JSON content into an any value, text into a string and
// anything else into the raw bytes. Malformed JSON falls back to the text.
// Without a content type, valid JSON is decoded and other UTF-8 text is
// returned as a string.
func decodeBody(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case isJSONMediaType(mediaType):
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return string(body)
		}
		return v
	case strings.HasPrefix(mediaType, "text/"), isXMLMediaType(mediaType):
		return string(body)
	case mediaType == "":
		var v any
		if json.Valid(body) && json.Unmarshal(body, &v) == nil {
			return v
		}
		if utf8.Valid(body) {
			return string(body)
		}
		return body
	default:
		return body
	}
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func isXMLMediaType(mediaType string) bool {
	return mediaType == "application/xml" || strings.HasSuffix(mediaType, "+xml")
}

// Decode unmarshals the outcome's payload into v. JSON bodies are decoded
// from the raw bytes; other data is round-tripped through JSON.
func (o *Outcome) Decode(v any) error {
	if o == nil {
		return &ClientError{Type: ErrorTypeDecode, Message: "nil outcome"}
	}
	if o.Raw != nil && len(o.Raw.RawBody) > 0 && isJSONResponse(o.Raw) {
		if err := json.Unmarshal(o.Raw.RawBody, v); err != nil {
			return &ClientError{Type: ErrorTypeDecode, Message: "failed to decode response body", Cause: err, StatusCode: o.StatusCode()}
		}
		return nil
	}
	if o.Data == nil {
		return &ClientError{Type: ErrorTypeDecode, Message: "outcome has no data", StatusCode: o.StatusCode()}
	}
	data, err := json.Marshal(o.Data)
	if err != nil {
		return &ClientError{Type: ErrorTypeDecode, Message: "failed to encode outcome data", Cause: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ClientError{Type: ErrorTypeDecode, Message: "failed to decode outcome data", Cause: err, StatusCode: o.StatusCode()}
	}
	return nil
}

// DecodeData returns the outcome's payload as T, converting through JSON
// when the decoded value is not already a T.
func DecodeData[T any](o *Outcome) (T, error) {
	var out T
	if o != nil {
		if v, ok := o.Data.(T); ok {
			return v, nil
		}
	}
	if err := o.Decode(&out); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}

func isJSONResponse(resp *Response) bool {
	if resp.Response == nil {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return isJSONMediaType(mediaType)
}
