package expression

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// HTML is text that is emitted without escaping.
type HTML string

// Stringify converts a value the way an echo prints it.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case HTML:
		return string(t)
	case bool:
		if t {
			return "1"
		}
		return ""
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// Truthy applies PHP truthiness.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0"
	case HTML:
		return t != "" && t != "0"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	}
	return true
}

func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isIntegral(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func numeric(v any) (float64, bool) {
	if isNumber(v) {
		f, err := cast.ToFloat64E(v)
		return f, err == nil
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// LooseEqual compares two values like a switch statement does: numerically
// when both sides are numeric, by truthiness when one side is a bool and by
// printed form otherwise.
func LooseEqual(a, b any) bool {
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return x == y
		}
	}
	_, ab := a.(bool)
	_, bb := b.(bool)
	if ab || bb {
		return Truthy(a) == Truthy(b)
	}
	return Stringify(a) == Stringify(b)
}

// Len returns the size of a collection, when it can be known up front.
func Len(v any) (int, bool) {
	if v == nil {
		return 0, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return max(int(rv.Int()), 0), true
	}
	return 0, false
}

// Each calls fn for every key/value pair of v until fn returns false. Maps
// are walked in key order.
func Each(v any, fn func(key, value any) bool) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !fn(i, rv.Index(i).Interface()) {
				return nil
			}
		}
		return nil
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return lessKey(keys[i].Interface(), keys[j].Interface())
		})
		for _, k := range keys {
			if !fn(k.Interface(), rv.MapIndex(k).Interface()) {
				return nil
			}
		}
		return nil
	case reflect.String:
		return fmt.Errorf("cannot iterate over %T", v)
	}
	switch {
	case rv.Type().CanSeq2():
		for k, val := range rv.Seq2() {
			if !fn(k.Interface(), val.Interface()) {
				return nil
			}
		}
		return nil
	case rv.Type().CanSeq():
		i := 0
		for val := range rv.Seq() {
			if !fn(i, val.Interface()) {
				return nil
			}
			i++
		}
		return nil
	}
	return fmt.Errorf("cannot iterate over %T", v)
}

func lessKey(a, b any) bool {
	if x, ok := numeric(a); ok && isNumber(a) {
		if y, ok := numeric(b); ok && isNumber(b) {
			return x < y
		}
	}
	return Stringify(a) < Stringify(b)
}

// Arith applies a compound assignment operator: + - * / or . (concatenate).
func Arith(op byte, a, b any) (any, error) {
	if op == '.' {
		return Stringify(a) + Stringify(b), nil
	}
	if isIntegral(a) && isIntegral(b) {
		x, err := cast.ToInt64E(a)
		if err != nil {
			return nil, err
		}
		y, err := cast.ToInt64E(b)
		if err != nil {
			return nil, err
		}
		switch op {
		case '+':
			return int(x + y), nil
		case '-':
			return int(x - y), nil
		case '*':
			return int(x * y), nil
		case '/':
			if y == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			if x%y == 0 {
				return int(x / y), nil
			}
			return float64(x) / float64(y), nil
		}
		return nil, fmt.Errorf("unknown operator %q", op)
	}
	x, err := cast.ToFloat64E(a)
	if err != nil {
		return nil, err
	}
	y, err := cast.ToFloat64E(b)
	if err != nil {
		return nil, err
	}
	switch op {
	case '+':
		return x + y, nil
	case '-':
		return x - y, nil
	case '*':
		return x * y, nil
	case '/':
		if y == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return x / y, nil
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

// Iterable reports whether Each can walk v.
func Iterable(v any) bool {
	if v == nil {
		return true
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	case reflect.String:
		return false
	}
	return t.CanSeq() || t.CanSeq2()
}
