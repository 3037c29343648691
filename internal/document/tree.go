// Package document provides helpers for working with configuration documents
// as generic JSON trees, the shape uploads arrive in and exports leave in.
package document

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/brunoga/deep"
)

// Tree is a decoded JSON object.
type Tree = map[string]any

// Item collections of a data source.
const (
	KeyData       = "data"
	KeyStatistics = "statistics"
)

// Collections lists the keys of a source that hold data source items.
var Collections = []string{KeyData, KeyStatistics}

// FromValue converts any JSON-marshalable value into a Tree.
func FromValue(v any) (Tree, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var t Tree
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return t, nil
}

// Decode converts a Tree into the typed value pointed to by out.
func Decode(t Tree, out any) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return json.Unmarshal(raw, out)
}

// Clone returns a deep copy of t.
func Clone(t Tree) Tree {
	if t == nil {
		return nil
	}
	return deep.MustCopy(t)
}

// Map returns v as an object.
func Map(v any) (Tree, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// Slice returns v as an array.
func Slice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// String returns v as a string.
func String(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Number returns v as a float64. JSON numbers decode as float64 and YAML
// numbers as int, so both are accepted.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// IsInteger reports whether v is a number without a fractional part.
func IsInteger(v any) bool {
	f, ok := Number(v)
	return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// Sources returns the source objects of a document. Non-object entries are
// skipped.
func Sources(doc Tree) []Tree {
	list, _ := Slice(doc["sources"])
	out := make([]Tree, 0, len(list))
	for _, v := range list {
		if m, ok := Map(v); ok {
			out = append(out, m)
		}
	}
	return out
}

// EachItem calls fn for every item object in the data and statistics
// collections of src, whether the collection is an array or a bare object.
func EachItem(src Tree, fn func(collection string, item Tree)) {
	for _, key := range Collections {
		switch v := src[key].(type) {
		case []any:
			for _, el := range v {
				if m, ok := Map(el); ok {
					fn(key, m)
				}
			}
		case map[string]any:
			fn(key, v)
		}
	}
}

// Walk visits every object in the tree depth first, parents before children.
func Walk(v any, fn func(obj Tree)) {
	switch n := v.(type) {
	case map[string]any:
		fn(n)
		for _, child := range n {
			Walk(child, fn)
		}
	case []any:
		for _, child := range n {
			Walk(child, fn)
		}
	}
}
