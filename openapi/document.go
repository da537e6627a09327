// Package openapi binds an OpenAPI document to apifetch: it lists the
// document's operations and derives the query serialization of every
// parameter, so a Client can serialize each one the way the API declares.
//
//	doc, err := openapi.Load(ctx, "petstore.yaml")
//	if err != nil {
//	    return err
//	}
//	client := apifetch.New(
//	    apifetch.WithBaseURL(doc.BaseURL()),
//	    apifetch.WithParamStyleResolver(doc.ParamStyles),
//	)
package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ambiyansyah-risyal/apifetch"
	"github.com/ambiyansyah-risyal/apifetch/internal/pathtemplate"
)

// methodOrder fixes the listing order of operations sharing a path.
var methodOrder = map[string]int{
	http.MethodGet:     0,
	http.MethodPut:     1,
	http.MethodPost:    2,
	http.MethodDelete:  3,
	http.MethodOptions: 4,
	http.MethodHead:    5,
	http.MethodPatch:   6,
	http.MethodTrace:   7,
}

// Document is a loaded OpenAPI 3 document indexed by method and path.
type Document struct {
	t     *openapi3.T
	ops   []*Operation
	index map[string]*Operation
}

// FromT wraps an already loaded kin-openapi document.
func FromT(t *openapi3.T) *Document {
	d := &Document{t: t, index: make(map[string]*Operation)}
	if t == nil {
		return d
	}

	for path, item := range t.Paths {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			o := newOperation(strings.ToUpper(method), path, item.Parameters, op)
			d.ops = append(d.ops, o)
			d.index[operationKey(o.Method, path)] = o
		}
	}

	sort.Slice(d.ops, func(i, j int) bool {
		if d.ops[i].Path != d.ops[j].Path {
			return d.ops[i].Path < d.ops[j].Path
		}
		return methodOrder[d.ops[i].Method] < methodOrder[d.ops[j].Method]
	})
	return d
}

// T returns the underlying kin-openapi document.
func (d *Document) T() *openapi3.T {
	return d.t
}

// Title returns info.title, or "" when the document has no info block.
func (d *Document) Title() string {
	if d.t == nil || d.t.Info == nil {
		return ""
	}
	return d.t.Info.Title
}

// BaseURL returns the URL of the first server with its variables replaced
// by their defaults and the trailing slash removed. It is "" when the
// document declares no server.
func (d *Document) BaseURL() string {
	if d.t == nil || len(d.t.Servers) == 0 || d.t.Servers[0] == nil {
		return ""
	}
	server := d.t.Servers[0]
	base := server.URL
	for name, v := range server.Variables {
		if v == nil {
			continue
		}
		base = strings.ReplaceAll(base, "{"+name+"}", v.Default)
	}
	return strings.TrimSuffix(base, "/")
}

// Operations returns every operation ordered by path, then method.
func (d *Document) Operations() []*Operation {
	return d.ops
}

// Operation looks up the operation for method and the exact path template.
func (d *Document) Operation(method, path string) (*Operation, bool) {
	o, ok := d.index[operationKey(strings.ToUpper(method), path)]
	return o, ok
}

// ParamStyles returns the query serialization declared for each query
// parameter of an operation, or nil when the operation is unknown. Its
// signature matches apifetch.ParamStyleResolver.
func (d *Document) ParamStyles(method, path string) map[string]apifetch.QuerySerialization {
	o, ok := d.Operation(method, path)
	if !ok {
		return nil
	}
	return o.QuerySerialization()
}

func operationKey(method, path string) string {
	return method + " " + path
}

// Operation is one method on one path of the document.
type Operation struct {
	Method  string
	Path    string
	ID      string
	Summary string

	params []*openapi3.Parameter
}

// newOperation merges path item parameters with the operation's own; an
// operation parameter overrides a path item parameter with the same name
// and location.
func newOperation(method, path string, shared openapi3.Parameters, op *openapi3.Operation) *Operation {
	o := &Operation{Method: method, Path: path, ID: op.OperationID, Summary: op.Summary}

	seen := make(map[string]int)
	add := func(refs openapi3.Parameters) {
		for _, ref := range refs {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := ref.Value
			key := p.In + ":" + p.Name
			if i, ok := seen[key]; ok {
				o.params[i] = p
				continue
			}
			seen[key] = len(o.params)
			o.params = append(o.params, p)
		}
	}
	add(shared)
	add(op.Parameters)
	return o
}

// ColonPath returns the path in :name form.
func (o *Operation) ColonPath() string {
	return pathtemplate.ToColon(o.Path, "")
}

// PathParams returns the placeholder names of the path in order of
// appearance, followed by any declared path parameter the template does not
// mention.
func (o *Operation) PathParams() []string {
	names := pathtemplate.Names(o.Path)
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for _, p := range o.params {
		if p.In == openapi3.ParameterInPath && !known[p.Name] {
			known[p.Name] = true
			names = append(names, p.Name)
		}
	}
	return names
}

// QueryParams returns the declared query parameter names in declaration
// order.
func (o *Operation) QueryParams() []string {
	var names []string
	for _, p := range o.params {
		if p.In == openapi3.ParameterInQuery {
			names = append(names, p.Name)
		}
	}
	return names
}

// RequiredQueryParams returns the names of the required query parameters.
func (o *Operation) RequiredQueryParams() []string {
	var names []string
	for _, p := range o.params {
		if p.In == openapi3.ParameterInQuery && p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// QuerySerialization maps each query parameter to its declared style and
// explode. Parameters whose style apifetch cannot serialize are left out so
// the client default applies.
func (o *Operation) QuerySerialization() map[string]apifetch.QuerySerialization {
	out := make(map[string]apifetch.QuerySerialization)
	for _, p := range o.params {
		if p.In != openapi3.ParameterInQuery {
			continue
		}
		sm, err := p.SerializationMethod()
		if err != nil || sm == nil {
			continue
		}
		cfg := apifetch.QuerySerialization{Style: apifetch.QueryStyle(sm.Style), Explode: sm.Explode}
		if !cfg.Style.Valid() {
			continue
		}
		out[p.Name] = cfg
	}
	return out
}
