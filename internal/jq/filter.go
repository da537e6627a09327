// Package jq applies jq expressions to decoded response payloads.
package jq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = time.Second

// Filter is a compiled jq expression. It is safe for concurrent use.
type Filter struct {
	expression string
	code       *gojq.Code
	timeout    time.Duration
}

// Compile parses and compiles expression. A zero timeout means
// DefaultTimeout.
func Compile(expression string, timeout time.Duration) (*Filter, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Filter{expression: expression, code: code, timeout: timeout}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expression
}

// Run evaluates the filter against data. No result yields nil, one result
// is returned as is and several are returned as a slice.
func (f *Filter) Run(ctx context.Context, data any) (any, error) {
	input, err := normalize(data)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var results []any
	iter := f.code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("execution timeout after %v", f.timeout)
			}
			return nil, err
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// normalize converts data into the plain JSON value types gojq accepts.
// Raw bytes are decoded as JSON when they hold a JSON document.
func normalize(data any) (any, error) {
	switch v := data.(type) {
	case nil, bool, string, float64, int, map[string]any, []any:
		return v, nil
	case []byte:
		var out any
		if json.Unmarshal(v, &out) == nil {
			return out, nil
		}
		return string(v), nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, fmt.Errorf("failed to normalize data: %w", err)
	}
	return out, nil
}
