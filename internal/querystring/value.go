package querystring

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type member struct {
	key   string
	value any
}

// elements returns the items of a slice or array value. Byte slices are
// treated as scalars.
func elements(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []byte, json.RawMessage:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// members returns the entries of a mapping value. Ordered maps keep their
// insertion order; plain maps are sorted by key.
func members(v any) ([]member, bool) {
	switch t := v.(type) {
	case *orderedmap.OrderedMap[string, any]:
		if t == nil {
			return nil, false
		}
		out := make([]member, 0, t.Len())
		for p := t.Oldest(); p != nil; p = p.Next() {
			out = append(out, member{key: p.Key, value: p.Value})
		}
		return out, true
	case *orderedmap.OrderedMap[string, string]:
		if t == nil {
			return nil, false
		}
		out := make([]member, 0, t.Len())
		for p := t.Oldest(); p != nil; p = p.Next() {
			out = append(out, member{key: p.Key, value: p.Value})
		}
		return out, true
	case map[string]any:
		out := make([]member, 0, len(t))
		for k, val := range t {
			out = append(out, member{key: k, value: val})
		}
		sortMembers(out)
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make([]member, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out = append(out, member{key: iter.Key().String(), value: iter.Value().Interface()})
	}
	sortMembers(out)
	return out, true
}

func sortMembers(m []member) {
	sort.Slice(m, func(i, j int) bool { return m[i].key < m[j].key })
}

// scalar stringifies a leaf value.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return scalar(rv.Elem().Interface())
	}
	if _, ok := elements(v); ok {
		return compact(v)
	}
	if _, ok := members(v); ok {
		return compact(v)
	}
	return fmt.Sprint(v)
}

// compact renders a nested container that reached a leaf position as
// compact JSON.
func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// String renders a parameter value the way it appears once decoded from a
// query string or path segment.
func String(v any) string {
	return scalar(v)
}
