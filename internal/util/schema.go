package util

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ValidationError reports the first argument that does not satisfy a tool schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema derives a JSON object schema from a struct.
//
// Supported field tags:
//
//	json:"name,omitempty"   property name; omitempty or a pointer type makes it optional
//	description:"..."       property description shown to the model
//	enum:"a,b,c"            allowed string values
//	minimum:"-90"           inclusive lower bound for numbers
//	maximum:"90"            inclusive upper bound for numbers
//
// Anything that is not a struct yields an empty object schema.
func CreateSchema(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	properties := map[string]any{}
	schema := map[string]any{"type": "object", "properties": properties}
	if t == nil || t.Kind() != reflect.Struct {
		return schema
	}

	var required []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, optional, skip := jsonName(f)
		if skip {
			continue
		}

		properties[name] = fieldSchema(f)
		if !optional && f.Type.Kind() != reflect.Ptr {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func jsonName(f reflect.StructField) (name string, optional, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	for _, o := range strings.Split(opts, ",") {
		if strings.TrimSpace(o) == "omitempty" {
			optional = true
		}
	}
	return name, optional, false
}

func fieldSchema(f reflect.StructField) map[string]any {
	s := map[string]any{"type": jsonType(f.Type)}
	if d := f.Tag.Get("description"); d != "" {
		s["description"] = d
	}
	if e := f.Tag.Get("enum"); e != "" {
		values := strings.Split(e, ",")
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		s["enum"] = values
	}
	for _, bound := range []string{"minimum", "maximum"} {
		if v, err := strconv.ParseFloat(f.Tag.Get(bound), 64); err == nil {
			s[bound] = v
		}
	}
	return s
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Ptr:
		return jsonType(t.Elem())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}

// ValidateParameters checks decoded arguments against a schema built by
// CreateSchema or decoded from JSON. Unknown properties are allowed; nil
// values only fail the required check.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range requiredFields(schema) {
		if v, ok := params[name]; !ok || v == nil {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, ok := properties[name].(map[string]any)
		if !ok || value == nil {
			continue
		}
		if msg := checkValue(value, prop); msg != "" {
			return &ValidationError{Field: name, Value: value, Message: msg}
		}
	}
	return nil
}

// checkValue returns a non-empty message when value violates prop.
func checkValue(value any, prop map[string]any) string {
	want, _ := prop["type"].(string)
	if !hasType(value, want) {
		return fmt.Sprintf("expected type %s, got %T", want, value)
	}

	if enum := stringList(prop["enum"]); len(enum) > 0 {
		s := fmt.Sprint(value)
		found := false
		for _, e := range enum {
			if e == s {
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("value must be one of %s", strings.Join(enum, ", "))
		}
	}

	if n, ok := number(value); ok {
		if lo, ok := number(prop["minimum"]); ok && n < lo {
			return fmt.Sprintf("must be >= %g", lo)
		}
		if hi, ok := number(prop["maximum"]); ok && n > hi {
			return fmt.Sprintf("must be <= %g", hi)
		}
	}
	return ""
}

// requiredFields accepts both []string (built in Go) and []any (decoded JSON).
func requiredFields(schema map[string]any) []string {
	return stringList(schema["required"])
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func hasType(value any, want string) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		if f, ok := value.(float64); ok {
			return f == float64(int64(f))
		}
		_, ok := integer(value)
		return ok
	case "number":
		_, ok := number(value)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := integer(v); ok {
		return float64(i), true
	}
	return 0, false
}
