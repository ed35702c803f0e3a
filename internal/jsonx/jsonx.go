// Package jsonx decodes JSON while preserving object member order.
//
// Objects decode to *Object (an insertion-ordered map), arrays to []any, and
// scalars to string, json.Number, bool or nil. Member order matters to the file
// transformer: selectors walk objects in document order.
package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is an insertion-ordered JSON object.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// ObjectOf builds an ordered object from alternating key/value arguments.
// It panics on an odd argument count or a non-string key.
func ObjectOf(kv ...any) *Object {
	if len(kv)%2 != 0 {
		panic("jsonx: ObjectOf requires key/value pairs")
	}
	obj := NewObject()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("jsonx: ObjectOf key %v is not a string", kv[i]))
		}
		obj.Set(key, kv[i+1])
	}
	return obj
}

// ErrTrailingData is returned when a document holds more than one top-level value.
var ErrTrailingData = errors.New("unexpected data after top-level JSON value")

// Decode parses a single JSON document.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, ErrTrailingData
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, not string", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := make([]any, 0)
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// Keys returns the member names of an object in order. Plain maps report
// their keys sorted. Any other value has no keys.
func Keys(v any) []string {
	switch obj := v.(type) {
	case *Object:
		keys := make([]string, 0, obj.Len())
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		return keys
	case map[string]any:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	default:
		return nil
	}
}

// Lookup returns the member key of an ordered or plain object.
func Lookup(v any, key string) (any, bool) {
	switch obj := v.(type) {
	case *Object:
		return obj.Get(key)
	case map[string]any:
		val, ok := obj[key]
		return val, ok
	default:
		return nil, false
	}
}

// Values returns array elements, or object member values in order.
// Any other value yields nil.
func Values(v any) []any {
	switch vv := v.(type) {
	case []any:
		return vv
	case *Object, map[string]any:
		keys := Keys(vv)
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			val, _ := Lookup(vv, k)
			out = append(out, val)
		}
		return out
	default:
		return nil
	}
}

// IsObject reports whether v is an ordered or plain object.
func IsObject(v any) bool {
	switch v.(type) {
	case *Object, map[string]any:
		return true
	default:
		return false
	}
}

// Plain converts ordered values into encoding/json style values: objects become
// map[string]any and numbers become int64 or float64. Used where a consumer
// such as text/template only understands plain Go maps.
func Plain(v any) any {
	switch vv := v.(type) {
	case *Object:
		out := make(map[string]any, vv.Len())
		for pair := vv.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = Plain(pair.Value)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = Plain(val)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = Plain(val)
		}
		return out
	case json.Number:
		if i, err := vv.Int64(); err == nil {
			return i
		}
		if f, err := vv.Float64(); err == nil {
			return f
		}
		return vv.String()
	default:
		return v
	}
}

// String renders a scalar as text. Strings are returned as-is, nil as "".
func String(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case json.Number:
		return vv.String()
	default:
		return fmt.Sprint(vv)
	}
}
