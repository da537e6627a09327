package apifetch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Mode selects how call outcomes are surfaced to the caller.
type Mode string

const (
	// ModeStrictThrow returns every failure as an error.
	ModeStrictThrow Mode = "strict-throw"
	// ModeErrorField resolves HTTP errors into the Outcome and returns
	// transport failures as errors.
	ModeErrorField Mode = "error-field"
	// ModeExhaustive never returns an error; every failure is an Outcome.
	ModeExhaustive Mode = "exhaustive"
)

var modeAliases = map[string]Mode{
	"axios": ModeStrictThrow,
	"fetch": ModeErrorField,
	"all":   ModeExhaustive,
}

// ParseMode parses a mode name. The historical names "axios", "fetch" and
// "all" are accepted as aliases, and the empty string means ModeStrictThrow.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return ModeStrictThrow, nil
	}
	if m, ok := modeAliases[name]; ok {
		return m, nil
	}
	m := Mode(name)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Valid reports whether m is one of the three modes.
func (m Mode) Valid() bool {
	_, ok := settlers[m]
	return ok
}

func (m Mode) String() string {
	return string(m)
}

// OutcomeKind classifies a settled call.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeHTTPError
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome is the normalized result of a call.
type Outcome struct {
	Kind OutcomeKind
	// Status is the HTTP status code; nil when no status could be derived.
	Status *int
	// Data is the decoded response body, or the error payload of an HTTP
	// error.
	Data any
	// Error is the classified error for HTTP errors and the raw error for
	// transport failures in exhaustive mode.
	Error error
	// Raw is the underlying response; nil for transport failures.
	Raw *Response
}

// StatusCode returns the status or 0 when there is none.
func (o *Outcome) StatusCode() int {
	if o == nil || o.Status == nil {
		return 0
	}
	return *o.Status
}

// OK reports whether the call succeeded.
func (o *Outcome) OK() bool {
	return o != nil && o.Kind == OutcomeSuccess
}

// Call is a pending transport call.
type Call func(ctx context.Context) (*Response, error)

// ErrorClassifier recognizes HTTP errors, i.e. failures that still carry a
// response.
type ErrorClassifier func(err error) (*ClientError, bool)

type settleFunc func(resp *Response, err error, classify ErrorClassifier) (*Outcome, error)

var settlers = map[Mode]settleFunc{
	ModeStrictThrow: settleStrict,
	ModeErrorField:  settleErrorField,
	ModeExhaustive:  settleExhaustive,
}

// Normalize awaits call and shapes its result according to mode. A nil
// classify uses AsHTTPError and an unknown mode behaves as ModeStrictThrow.
func Normalize(ctx context.Context, mode Mode, call Call, classify ErrorClassifier) (*Outcome, error) {
	if classify == nil {
		classify = AsHTTPError
	}
	settle, ok := settlers[mode]
	if !ok {
		settle = settleStrict
	}
	resp, err := call(ctx)
	return settle(resp, err, classify)
}

func settleStrict(resp *Response, err error, _ ErrorClassifier) (*Outcome, error) {
	if err != nil {
		return nil, err
	}
	return successOutcome(resp), nil
}

func settleErrorField(resp *Response, err error, classify ErrorClassifier) (*Outcome, error) {
	if err == nil {
		return successOutcome(resp), nil
	}
	// Only rejections that carry a response with a status are recovered.
	if httpErr, ok := classify(err); ok && errorStatus(httpErr) != nil {
		return httpErrorOutcome(httpErr), nil
	}
	return nil, err
}

func settleExhaustive(resp *Response, err error, classify ErrorClassifier) (*Outcome, error) {
	if err == nil {
		return successOutcome(resp), nil
	}
	if httpErr, ok := classify(err); ok {
		return httpErrorOutcome(httpErr), nil
	}
	return &Outcome{Kind: OutcomeTransportError, Error: err}, nil
}

func successOutcome(resp *Response) *Outcome {
	out := &Outcome{Kind: OutcomeSuccess, Raw: resp}
	if resp != nil {
		out.Status = responseStatus(resp)
		out.Data = resp.Data
	}
	return out
}

func httpErrorOutcome(httpErr *ClientError) *Outcome {
	return &Outcome{
		Kind:   OutcomeHTTPError,
		Status: errorStatus(httpErr),
		Data:   httpErr.Data,
		Error:  httpErr,
		Raw:    httpErr.Response,
	}
}

func errorStatus(e *ClientError) *int {
	if e.StatusCode > 0 {
		return intPtr(e.StatusCode)
	}
	return responseStatus(e.Response)
}

// responseStatus derives the status from the numeric code, falling back to
// the leading integer of the textual status ("404 Not Found" or "404").
func responseStatus(resp *Response) *int {
	if resp == nil || resp.Response == nil {
		return nil
	}
	if resp.StatusCode > 0 {
		return intPtr(resp.StatusCode)
	}
	text := strings.TrimSpace(resp.Status)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		text = text[:i]
	}
	if code, err := strconv.Atoi(text); err == nil && code > 0 {
		return intPtr(code)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
