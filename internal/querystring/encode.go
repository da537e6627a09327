// Package querystring renders parameter maps into query strings following the
// OpenAPI query serialization styles (form, spaceDelimited, pipeDelimited and
// deepObject) with or without explode.
package querystring

import (
	"sort"
	"strings"
)

// Style is an OpenAPI query serialization style.
type Style string

const (
	StyleForm           Style = "form"
	StyleSpaceDelimited Style = "spaceDelimited"
	StylePipeDelimited  Style = "pipeDelimited"
	StyleDeepObject     Style = "deepObject"
)

// Valid reports whether s is one of the supported styles.
func (s Style) Valid() bool {
	switch s {
	case StyleForm, StyleSpaceDelimited, StylePipeDelimited, StyleDeepObject:
		return true
	}
	return false
}

// Config selects the style and explode modifier used for a parameter.
type Config struct {
	Style   Style
	Explode bool
}

// Default is the OpenAPI default for query parameters: form, exploded.
func Default() Config {
	return Config{Style: StyleForm, Explode: true}
}

// separator returns the already-encoded delimiter used to join the elements
// of a non-exploded composite value.
func (c Config) separator() string {
	switch c.Style {
	case StyleSpaceDelimited:
		return "%20"
	case StylePipeDelimited:
		return "|"
	default:
		return ","
	}
}

type pair struct {
	key   string
	value string // encoded; empty with bare=true means "key" alone
	bare  bool
}

// Encode serializes params with one configuration for every parameter.
func Encode(params map[string]any, cfg Config) string {
	return EncodeEach(params, func(string) Config { return cfg })
}

// EncodeEach serializes params, asking configFor for the configuration of
// each top-level parameter. A nil configFor means Default for all.
//
// Pairs are stably ordered by their unencoded key, so the result does not
// depend on map iteration order.
func EncodeEach(params map[string]any, configFor func(name string) Config) string {
	if len(params) == 0 {
		return ""
	}
	if configFor == nil {
		configFor = func(string) Config { return Default() }
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var pairs []pair
	for _, name := range names {
		pairs = appendParam(pairs, name, params[name], configFor(name))
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Escape(p.key))
		if p.bare {
			continue
		}
		b.WriteByte('=')
		b.WriteString(p.value)
	}
	return b.String()
}

func appendParam(pairs []pair, name string, value any, cfg Config) []pair {
	if cfg.Style == StyleDeepObject {
		return appendDeep(pairs, nil, name, value)
	}
	if value == nil {
		return append(pairs, pair{key: name, bare: true})
	}
	if cfg.Explode {
		return appendExploded(pairs, name, value)
	}
	return append(pairs, pair{key: name, value: joined(value, cfg.separator())})
}

// appendExploded renders form/explode=true, which the delimited styles share:
// arrays repeat the key and object members become top-level keys.
func appendExploded(pairs []pair, name string, value any) []pair {
	if items, ok := elements(value); ok {
		for _, item := range items {
			if item == nil {
				continue
			}
			pairs = appendExploded(pairs, name, item)
		}
		return pairs
	}
	if fields, ok := members(value); ok {
		for _, f := range fields {
			if f.value == nil {
				pairs = append(pairs, pair{key: f.key, bare: true})
				continue
			}
			pairs = appendExploded(pairs, f.key, f.value)
		}
		return pairs
	}
	return append(pairs, pair{key: name, value: Escape(scalar(value))})
}

// joined renders a value as one delimited list: array elements in order,
// object members as alternating key, value entries in iteration order.
func joined(value any, sep string) string {
	var parts []string
	var collect func(v any)
	collect = func(v any) {
		if items, ok := elements(v); ok {
			for _, item := range items {
				if item != nil {
					collect(item)
				}
			}
			return
		}
		if fields, ok := members(v); ok {
			for _, f := range fields {
				parts = append(parts, Escape(f.key))
				collect(f.value)
			}
			return
		}
		parts = append(parts, Escape(scalar(v)))
	}
	collect(value)
	return strings.Join(parts, sep)
}

// appendDeep walks nested mappings keeping the ancestor keys in path and
// emits first[rest1][rest2]=value for every leaf. Arrays are leaves and
// repeat the bracketed key.
func appendDeep(pairs []pair, path []string, key string, value any) []pair {
	if fields, ok := members(value); ok {
		path = append(path, key)
		for _, f := range fields {
			pairs = appendDeep(pairs, path, f.key, f.value)
		}
		return pairs
	}

	name := bracketKey(path, key)
	if value == nil {
		return append(pairs, pair{key: name, bare: true})
	}
	if items, ok := elements(value); ok {
		for _, item := range items {
			if item == nil {
				continue
			}
			pairs = append(pairs, pair{key: name, value: Escape(scalar(item))})
		}
		return pairs
	}
	return append(pairs, pair{key: name, value: Escape(scalar(value))})
}

func bracketKey(path []string, key string) string {
	if len(path) == 0 {
		return key
	}
	n := len(key) + 2
	for _, p := range path {
		n += len(p) + 2
	}
	var b strings.Builder
	b.Grow(n)
	b.WriteString(path[0])
	for _, p := range path[1:] {
		b.WriteByte('[')
		b.WriteString(p)
		b.WriteByte(']')
	}
	b.WriteByte('[')
	b.WriteString(key)
	b.WriteByte(']')
	return b.String()
}
