package buyer

import (
	"reflect"
)

// Fields is a flat attribute map. A key that is present with a nil value
// means "explicitly cleared"; an absent key means "not touched".
type Fields map[string]any

type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Changes maps attribute name to its transition.
type Changes map[string]Change

var ignoredFields = map[string]struct{}{
	"id":        {},
	"ownerId":   {},
	"createdAt": {},
	"updatedAt": {},
	"version":   {},
}

// Diff returns the attributes whose value in next differs from prev.
// Only keys present in next are considered, so a partial update never
// reports untouched fields. Slices compare element-wise in order.
func Diff(prev, next Fields) Changes {
	out := Changes{}
	for k, to := range next {
		if _, skip := ignoredFields[k]; skip {
			continue
		}
		from := prev[k]
		if equal(from, to) {
			continue
		}
		out[k] = Change{From: from, To: to}
	}
	return out
}

func equal(a, b any) bool {
	a, b = deref(a), deref(b)
	if a == nil || b == nil {
		return isNil(a) && isNil(b)
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if af, ok := number(av); ok {
		bf, ok := number(bv)
		return ok && af == bf
	}

	switch av.Kind() {
	case reflect.Slice, reflect.Array:
		if bv.Kind() != reflect.Slice && bv.Kind() != reflect.Array {
			return false
		}
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !equal(av.Index(i).Interface(), bv.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		if bv.Kind() != reflect.Map || av.Len() != bv.Len() {
			return false
		}
		iter := av.MapRange()
		for iter.Next() {
			other := bv.MapIndex(iter.Key())
			if !other.IsValid() || !equal(iter.Value().Interface(), other.Interface()) {
				return false
			}
		}
		return true
	case reflect.String:
		return bv.Kind() == reflect.String && av.String() == bv.String()
	}

	return reflect.DeepEqual(a, b)
}

// deref unwraps pointers; a nil pointer becomes nil.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}
