// Package pathtemplate resolves OpenAPI style path templates such as
// /users/{id}/posts/{postId} and converts them to colon patterns used by
// request matchers.
package pathtemplate

import (
	"regexp"
	"strings"

	"github.com/ambiyansyah-risyal/apifetch/internal/querystring"
)

var placeholder = regexp.MustCompile(`\{[a-zA-Z_]+\}`)

// Result is the outcome of resolving a template.
type Result struct {
	// Path is the template with every known placeholder substituted.
	Path string
	// Remaining holds the parameters that matched no placeholder.
	Remaining map[string]any
}

// Mapper transforms a parameter value before it is substituted.
type Mapper func(name string, value any) any

type config struct {
	prefix string
	mapper Mapper
}

// Option configures Resolve.
type Option func(*config)

// WithPrefix prepends prefix to the resolved path as is. No slash
// normalization is applied.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithMapper sets a value transform applied before substitution.
func WithMapper(fn Mapper) Option {
	return func(c *config) {
		c.mapper = fn
	}
}

// Resolve substitutes {name} placeholders in template with the matching
// entries of params. Placeholders without a parameter are left untouched and
// a nil value resolves to the empty string. Values are inserted verbatim,
// without escaping.
func Resolve(template string, params map[string]any, opts ...Option) Result {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	used := make(map[string]bool, len(params))
	path := placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		value, ok := params[name]
		if !ok {
			return m
		}
		used[name] = true
		if cfg.mapper != nil {
			value = cfg.mapper(name, value)
		}
		if value == nil {
			return ""
		}
		return querystring.String(value)
	})

	remaining := make(map[string]any, len(params)-len(used))
	for name, value := range params {
		if !used[name] {
			remaining[name] = value
		}
	}

	return Result{Path: cfg.prefix + path, Remaining: remaining}
}

// Names lists the placeholder names of template in order of appearance.
// Repeated placeholders are listed once.
func Names(template string) []string {
	matches := placeholder.FindAllString(template, -1)
	names := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		name := m[1 : len(m)-1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Extract recovers placeholder values from a path previously produced by
// Resolve. It reports false when resolved does not fit template.
func Extract(template, resolved string) (map[string]string, bool) {
	var pattern strings.Builder
	pattern.WriteByte('^')
	var order []string

	last := 0
	for _, loc := range placeholder.FindAllStringIndex(template, -1) {
		pattern.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		name := template[loc[0]+1 : loc[1]-1]
		order = append(order, name)
		pattern.WriteString(`(.*?)`)
		last = loc[1]
	}
	pattern.WriteString(regexp.QuoteMeta(template[last:]))
	pattern.WriteByte('$')

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, false
	}
	m := re.FindStringSubmatch(resolved)
	if m == nil {
		return nil, false
	}

	values := make(map[string]string, len(order))
	for i, name := range order {
		if prev, ok := values[name]; ok && prev != m[i+1] {
			return nil, false
		}
		values[name] = m[i+1]
	}
	return values, true
}
