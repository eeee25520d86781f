// Package layering composes step Configurations: Concat flattens a
// root-to-node path, Overlay applies weaker defaults underneath a step.
package layering

import (
	"reflect"

	"github.com/goliatone/go-seqtree/step"
)

// Concat joins configurations in path order. Keys are expected to be disjoint
// along a tree path; when they are not the first occurrence wins.
func Concat(path ...step.Configuration) step.Configuration {
	out := step.Empty()
	for _, c := range path {
		out = out.Concat(c)
	}
	return out
}

// Overlay composes configurations ordered from strongest to weakest. Keys keep
// the position of their first appearance scanning from the weakest layer, so
// defaults lead and stronger layers append their new keys. Nested map and
// struct values are merged the same way, element by element.
func Overlay(layers ...step.Configuration) step.Configuration {
	if len(layers) == 0 {
		return step.Empty()
	}

	var keys []string
	values := map[string]reflect.Value{}
	for i := len(layers) - 1; i >= 0; i-- {
		for _, pair := range layers[i].Pairs() {
			strong := reflect.ValueOf(pair.Value)
			weak, seen := values[pair.Key]
			if !seen {
				keys = append(keys, pair.Key)
				values[pair.Key] = cloneValue(strong)
				continue
			}
			values[pair.Key] = mergeValue(strong, weak)
		}
	}

	pairs := make([]step.Pair, 0, len(keys))
	for _, key := range keys {
		var value any
		if v := values[key]; v.IsValid() {
			value = v.Interface()
		}
		pairs = append(pairs, step.P(key, value))
	}
	return step.Must(pairs...)
}

// Clone returns a deep copy of value.
func Clone[T any](value T) T {
	var zero T
	cloned := cloneValue(reflect.ValueOf(value))
	if !cloned.IsValid() {
		return zero
	}
	return cloned.Interface().(T)
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return cloneValue(weak)
	}

	switch strong.Kind() {
	case reflect.Pointer:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		var weakElem reflect.Value
		if weak.IsValid() && weak.Kind() == reflect.Pointer && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		merged := mergeValue(strong.Elem(), weakElem)
		result := reflect.New(strong.Type().Elem())
		result.Elem().Set(merged)
		return result
	case reflect.Interface:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		weakElem := weak
		if weak.IsValid() && weak.Kind() == reflect.Interface {
			weakElem = reflect.Value{}
			if !weak.IsNil() {
				weakElem = weak.Elem()
			}
		}
		return mergeValue(strong.Elem(), weakElem).Convert(strong.Type())
	case reflect.Struct:
		result := reflect.New(strong.Type()).Elem()
		var weakStruct reflect.Value
		if weak.IsValid() && weak.Type() == strong.Type() {
			weakStruct = weak
		}
		for i := 0; i < strong.NumField(); i++ {
			field := result.Field(i)
			if !field.CanSet() {
				continue
			}
			var weakField reflect.Value
			if weakStruct.IsValid() {
				weakField = weakStruct.Field(i)
			}
			field.Set(mergeValue(strong.Field(i), weakField))
		}
		return result
	case reflect.Map:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		result := reflect.MakeMapWithSize(strong.Type(), strong.Len())
		if weak.IsValid() && weak.Type() == strong.Type() && !weak.IsNil() {
			iter := weak.MapRange()
			for iter.Next() {
				result.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
			}
		}
		iter := strong.MapRange()
		for iter.Next() {
			key := iter.Key()
			if existing := result.MapIndex(key); existing.IsValid() {
				result.SetMapIndex(key, mergeValue(iter.Value(), existing))
				continue
			}
			result.SetMapIndex(key, cloneValue(iter.Value()))
		}
		return result
	default:
		return cloneValue(strong)
	}
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return reflect.ValueOf(v.Interface())
	}
}
