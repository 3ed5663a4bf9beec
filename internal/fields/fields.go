// Package fields navigates the schema-free value trees carried by resource
// descriptors. A tree is built from the JSON data model only: map[string]any,
// []any, string, bool, float64 and nil.
//
// Lookups use dot-separated paths of object keys ("logging.clusterLogging").
// A path that cannot be resolved yields a typed error which the rule
// evaluator reports as an ERROR verdict.
package fields

import (
	"errors"
	"fmt"
	"strings"
)

// Unavailable marks a top-level field the fetcher could not retrieve.
// Fetchers store it in place of the real value; lookups through it return
// an *UnavailableError.
type Unavailable struct {
	Reason string
}

// MissingError reports that a path does not exist in the tree.
type MissingError struct {
	Path string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("field %q is missing", e.Path)
}

// UnavailableError reports that a path crosses a field the fetcher could not
// retrieve from the cloud API.
type UnavailableError struct {
	Path   string
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("field %q is unavailable: %s", e.Path, e.Reason)
}

// TypeError reports that a value exists but has the wrong JSON type.
type TypeError struct {
	Path string
	Want string
	Got  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("field %q: want %s, got %s", e.Path, e.Want, typeName(e.Got))
}

// IsMissing reports whether err (or any error it wraps) is a *MissingError.
func IsMissing(err error) bool {
	var me *MissingError
	return errors.As(err, &me)
}

// Get resolves path against root.
func Get(root map[string]any, path string) (any, error) {
	return walk(root, path)
}

// GetIn resolves path against v, which must be an object. Use it for
// elements of lists returned by List.
func GetIn(v any, path string) (any, error) {
	return walk(v, path)
}

// Present reports whether path resolves to a non-null value. A missing path
// or a null value is not an error; an unavailable field still is.
func Present(root map[string]any, path string) (bool, error) {
	return PresentIn(root, path)
}

// PresentIn is Present for an arbitrary object value.
func PresentIn(v any, path string) (bool, error) {
	got, err := walk(v, path)
	if err != nil {
		if IsMissing(err) {
			return false, nil
		}
		return false, err
	}
	return got != nil, nil
}

// Bool resolves path and asserts a boolean.
func Bool(root map[string]any, path string) (bool, error) {
	return BoolIn(root, path)
}

// BoolIn is Bool for an arbitrary object value.
func BoolIn(v any, path string) (bool, error) {
	got, err := walk(v, path)
	if err != nil {
		return false, err
	}
	b, ok := got.(bool)
	if !ok {
		return false, &TypeError{Path: path, Want: "bool", Got: got}
	}
	return b, nil
}

// String resolves path and asserts a string.
func String(root map[string]any, path string) (string, error) {
	return StringIn(root, path)
}

// StringIn is String for an arbitrary object value.
func StringIn(v any, path string) (string, error) {
	got, err := walk(v, path)
	if err != nil {
		return "", err
	}
	s, ok := got.(string)
	if !ok {
		return "", &TypeError{Path: path, Want: "string", Got: got}
	}
	return s, nil
}

// List resolves path and asserts a list. A null value is returned as an
// empty list.
func List(root map[string]any, path string) ([]any, error) {
	return ListIn(root, path)
}

// ListIn is List for an arbitrary object value.
func ListIn(v any, path string) ([]any, error) {
	got, err := walk(v, path)
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, nil
	}
	l, ok := got.([]any)
	if !ok {
		return nil, &TypeError{Path: path, Want: "list", Got: got}
	}
	return l, nil
}

// Object resolves path and asserts an object.
func Object(root map[string]any, path string) (map[string]any, error) {
	return ObjectIn(root, path)
}

// ObjectIn is Object for an arbitrary object value.
func ObjectIn(v any, path string) (map[string]any, error) {
	got, err := walk(v, path)
	if err != nil {
		return nil, err
	}
	m, ok := got.(map[string]any)
	if !ok {
		return nil, &TypeError{Path: path, Want: "object", Got: got}
	}
	return m, nil
}

// StringsIn reads path as either a single string or a list of strings, the
// two shapes IAM uses for Action, Resource and Principal entries.
func StringsIn(v any, path string) ([]string, error) {
	got, err := walk(v, path)
	if err != nil {
		return nil, err
	}
	switch t := got.(type) {
	case string:
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, &TypeError{Path: fmt.Sprintf("%s[%d]", path, i), Want: "string", Got: e}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &TypeError{Path: path, Want: "string or list", Got: got}
	}
}

func walk(v any, path string) (any, error) {
	cur := v
	var walked []string
	for _, seg := range strings.Split(path, ".") {
		walked = append(walked, seg)
		if cur == nil {
			return nil, &MissingError{Path: path}
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, &TypeError{Path: strings.Join(walked[:len(walked)-1], "."), Want: "object", Got: cur}
		}
		next, ok := m[seg]
		if !ok {
			return nil, &MissingError{Path: path}
		}
		if u, ok := next.(Unavailable); ok {
			return nil, &UnavailableError{Path: strings.Join(walked, "."), Reason: u.Reason}
		}
		cur = next
	}
	return cur, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case float64, int, int32, int64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
