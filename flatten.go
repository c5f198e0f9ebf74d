package auth

import (
	"reflect"

	"github.com/samber/lo"
)

// Flatten walks v and collects every leaf of type T in encounter order.
// Slices and arrays are descended into at any depth, so
// []any{"a", []any{"b", [][]string{{"c"}}}} yields [a b c].
// Empty sequences contribute nothing and leaves that are not a T are
// skipped. A nil v yields an empty, non-nil slice.
func Flatten[T any](v any) []T {
	out := make([]T, 0)
	flatten(reflect.ValueOf(v), &out)
	return out
}

func flatten[T any](v reflect.Value, out *[]T) {
	if !v.IsValid() {
		return
	}

	switch v.Kind() {
	case reflect.Interface:
		if !v.IsNil() {
			flatten(v.Elem(), out)
		}
		return
	case reflect.Pointer:
		if v.IsNil() {
			return
		}
		if k := v.Elem().Kind(); k == reflect.Slice || k == reflect.Array {
			flatten(v.Elem(), out)
			return
		}
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			// []byte is a leaf, not a sequence
			break
		}
		for i := 0; i < v.Len(); i++ {
			flatten(v.Index(i), out)
		}
		return
	}

	if !v.CanInterface() {
		return
	}
	if leaf, ok := v.Interface().(T); ok {
		*out = append(*out, leaf)
	}
}

// Unique removes duplicates keeping the first occurrence of each value
func Unique[T comparable](items []T) []T {
	if len(items) == 0 {
		return []T{}
	}
	return lo.Uniq(items)
}
