package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

var jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// JsonSafe copies v into maps, slices and scalars that encoding/json always
// accepts. NaN and infinite floats become the strings "NaN", "+Inf" and
// "-Inf". Struct fields keep their json names, "-" and omitempty.
func JsonSafe(v interface{}) interface{} {
	return jsonSafe(reflect.ValueOf(v))
}

func jsonSafe(v reflect.Value) interface{} {
	if !v.IsValid() {
		return nil
	}
	if v.Type().Implements(jsonMarshalerType) && v.CanInterface() {
		if v.Kind() == reflect.Ptr && v.IsNil() {
			return nil
		}
		return v.Interface()
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return jsonSafe(v.Elem())
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		if v.Kind() == reflect.Float32 {
			return float32(f)
		}
		return f
	case reflect.Struct:
		out := make(map[string]interface{}, v.NumField())
		jsonSafeFields(v, out)
		return out
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			// base64, as encoding/json does
			return append([]byte(nil), v.Bytes()...)
		}
		return jsonSafeList(v)
	case reflect.Array:
		return jsonSafeList(v)
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(jsonSafe(iter.Key()))] = jsonSafe(iter.Value())
		}
		return out
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.String:
		return v.String()
	}
	if v.CanInterface() {
		return v.Interface()
	}
	return nil
}

func jsonSafeList(v reflect.Value) []interface{} {
	out := make([]interface{}, v.Len())
	for i := range out {
		out[i] = jsonSafe(v.Index(i))
	}
	return out
}

func jsonSafeFields(v reflect.Value, out map[string]interface{}) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, opts, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" && opts == "" {
			continue
		}
		fv := v.Field(i)
		// embedded structs lend their fields even when the type is unexported
		if sf.Anonymous && name == "" && fv.Kind() == reflect.Struct {
			jsonSafeFields(fv, out)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if strings.Contains(opts, "omitempty") && isEmptyJsonValue(fv) {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		out[name] = jsonSafe(fv)
	}
}

func isEmptyJsonValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Ptr:
		return v.IsZero()
	}
	return false
}
