package jsonx

import (
	"encoding/json"

	"github.com/ohler55/ojg/jp"
)

var (
	_ jp.Keyed   = keyed{}
	_ jp.Indexed = indexed{}
)

// keyed presents an ordered object to JSONPath evaluation. Wildcards and
// filters visit members in document order.
type keyed struct {
	obj *Object
}

func (k keyed) ValueForKey(key string) (any, bool) {
	v, ok := k.obj.Get(key)
	return Walkable(v), ok
}

func (k keyed) SetValueForKey(key string, value any) {
	k.obj.Set(key, Unwrap(value))
}

func (k keyed) RemoveValueForKey(key string) {
	k.obj.Delete(key)
}

func (k keyed) Keys() []string {
	return Keys(k.obj)
}

// indexed presents an array whose elements may be ordered objects.
type indexed struct {
	arr []any
}

func (a indexed) ValueAtIndex(i int) any {
	if i < 0 || i >= len(a.arr) {
		return nil
	}
	return Walkable(a.arr[i])
}

func (a indexed) SetValueAtIndex(i int, value any) {
	if i >= 0 && i < len(a.arr) {
		a.arr[i] = Unwrap(value)
	}
}

func (a indexed) Size() int {
	return len(a.arr)
}

// Walkable prepares a decoded value for jp.Expr evaluation without losing
// member order. Numbers become int64 or float64 so filter comparisons see
// ordinary Go numbers. Results of the evaluation go through Unwrap.
func Walkable(v any) any {
	switch vv := v.(type) {
	case *Object:
		return keyed{obj: vv}
	case []any:
		return indexed{arr: vv}
	case json.Number:
		return Plain(vv)
	default:
		return v
	}
}

// Unwrap returns the decoded value behind a Walkable result.
func Unwrap(v any) any {
	switch vv := v.(type) {
	case keyed:
		return vv.obj
	case indexed:
		return vv.arr
	default:
		return v
	}
}

// Select evaluates expr against doc and returns the matches in document
// order as decoded values.
func Select(expr jp.Expr, doc any) []any {
	found := expr.Get(Walkable(doc))
	for i, v := range found {
		found[i] = Unwrap(v)
	}
	return found
}
