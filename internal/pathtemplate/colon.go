package pathtemplate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ToColon converts a brace template to the colon convention used by request
// matchers, e.g. /users/{id} becomes /users/:id. A non-empty base is
// prepended as is.
func ToColon(path, base string) string {
	resolved := strings.ReplaceAll(path, "{", ":")
	resolved = strings.ReplaceAll(resolved, "}", "")
	if base == "" {
		return resolved
	}
	return base + resolved
}

// Matcher matches request URLs against a compiled colon pattern.
type Matcher struct {
	pattern  string
	re       *regexp.Regexp
	names    []string
	absolute bool
}

// Compile builds a Matcher for pattern. Segments of the form :name capture
// one path segment and * matches any run of characters. Patterns that start
// with "/" are matched against the URL path only; any other pattern is
// matched against scheme://host/path.
func Compile(pattern string) (*Matcher, error) {
	var b strings.Builder
	b.WriteByte('^')
	var names []string

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '*':
			b.WriteString(`.*`)
			i++
		case c == ':' && i+1 < len(pattern) && isNameByte(pattern[i+1]) && !isPortColon(pattern, i):
			j := i + 1
			for j < len(pattern) && isNameByte(pattern[j]) {
				j++
			}
			names = append(names, pattern[i+1:j])
			b.WriteString(`([^/]+)`)
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	b.WriteString(`/?$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("pathtemplate: invalid pattern %q: %w", pattern, err)
	}
	return &Matcher{
		pattern:  pattern,
		re:       re,
		names:    names,
		absolute: !strings.HasPrefix(pattern, "/"),
	}, nil
}

// Pattern returns the pattern the matcher was compiled from.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Match reports whether target matches and returns the captured
// parameters. target may be a path or an absolute URL; its query and
// fragment are ignored.
func (m *Matcher) Match(target string) (map[string]string, bool) {
	subject := target
	if u, err := url.Parse(target); err == nil {
		if m.absolute && u.Scheme != "" {
			subject = u.Scheme + "://" + u.Host + u.Path
		} else {
			subject = u.Path
		}
	}

	found := m.re.FindStringSubmatch(subject)
	if found == nil {
		return nil, false
	}
	params := make(map[string]string, len(m.names))
	for i, name := range m.names {
		params[name] = found[i+1]
	}
	return params, true
}

// MatchColon compiles pattern and matches target against it.
func MatchColon(pattern, target string) (map[string]string, bool) {
	m, err := Compile(pattern)
	if err != nil {
		return nil, false
	}
	return m.Match(target)
}

func isNameByte(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

// isPortColon reports whether the colon at i separates a host from its port,
// as in http://localhost:8080/users.
func isPortColon(pattern string, i int) bool {
	j := i + 1
	for j < len(pattern) && '0' <= pattern[j] && pattern[j] <= '9' {
		j++
	}
	if j == i+1 || (j < len(pattern) && pattern[j] != '/') {
		return false
	}
	return strings.Contains(pattern[:i], "://") && !strings.Contains(pattern[strings.Index(pattern, "://")+3:i], "/")
}
