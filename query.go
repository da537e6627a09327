package apifetch

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ambiyansyah-risyal/apifetch/internal/pathtemplate"
	"github.com/ambiyansyah-risyal/apifetch/internal/querystring"
)

// QueryStyle is an OpenAPI query serialization style.
type QueryStyle = querystring.Style

// Supported query styles.
const (
	QueryStyleForm           = querystring.StyleForm
	QueryStyleSpaceDelimited = querystring.StyleSpaceDelimited
	QueryStylePipeDelimited  = querystring.StylePipeDelimited
	QueryStyleDeepObject     = querystring.StyleDeepObject
)

// QuerySerialization pairs a style with the explode modifier.
type QuerySerialization = querystring.Config

// DefaultQuerySerialization is form with explode, the OpenAPI default.
func DefaultQuerySerialization() QuerySerialization {
	return querystring.Default()
}

// SerializeQuery renders params as a query string without the leading "?".
// Keys are emitted in sorted order and every key and value is
// percent-encoded.
func SerializeQuery(params map[string]any, cfg QuerySerialization) string {
	return querystring.Encode(params, cfg)
}

// PathResult is a resolved path template together with the parameters that
// matched no placeholder.
type PathResult = pathtemplate.Result

// ResolvePath substitutes {name} placeholders in template with params.
func ResolvePath(template string, params map[string]any) PathResult {
	return pathtemplate.Resolve(template, params)
}

// ColonPath converts /users/{id} to /users/:id, prefixed with base when it
// is not empty.
func ColonPath(path, base string) string {
	return pathtemplate.ToColon(path, base)
}

// Object is a parameter mapping that keeps insertion order, which matters
// for non-exploded object serialization.
type Object = orderedmap.OrderedMap[string, any]

// NewObject creates an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}
