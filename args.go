package provenance

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FunctionArgs flattens a struct of call parameters into a name -> value
// map suitable for AddData. Every exported field appears exactly once,
// zero-valued (defaulted) fields included, so the record always lists
// the full parameter set. Names come from the json tag when one names
// the field, otherwise from the field name with its first rune
// lowercased. A nil or non-struct argument is an error.
//
// The caller bundles its parameters explicitly at the top of the
// function:
//
//	func train(rate float64, epochs int, seed int64) {
//		args, _ := provenance.FunctionArgs(struct {
//			Rate   float64
//			Epochs int
//			Seed   int64
//		}{rate, epochs, seed})
//		provenance.AddData("train_args", args)
//		// ...
//	}
func FunctionArgs(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("function args: nil pointer")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("function args: want a struct, got %T", v)
	}
	rt := rv.Type()
	args := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, ok := argName(field)
		if !ok {
			continue
		}
		args[name] = rv.Field(i).Interface()
	}
	return args, nil
}

// argName picks the recorded name for a struct field. A json tag of "-"
// excludes the field.
func argName(field reflect.StructField) (string, bool) {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", false
		}
		if name != "" {
			return name, true
		}
	}
	r, size := utf8.DecodeRuneInString(field.Name)
	return string(unicode.ToLower(r)) + field.Name[size:], true
}
