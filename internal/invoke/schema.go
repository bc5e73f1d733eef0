package invoke

import (
	"encoding/json"
	"reflect"
	"strings"
)

// fieldDescriptor is one data-parameter property, precomputed once at
// Adapt time (spec.md §9 design note: "pre-computed parameter
// descriptors built once at tool registration; subsequent calls consult
// the descriptors").
type fieldDescriptor struct {
	jsonName string
	required bool
}

// buildSchema walks t's exported fields and produces both the JSON
// Schema fragment published as a tool's inputSchema and the field
// descriptors used to validate required data parameters on every call.
// t must be a struct type (or a pointer to one); an invalid or
// non-struct data-parameter type is a construction-time error.
func buildSchema(t reflect.Type) (json.RawMessage, []fieldDescriptor, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, nil, errNonStructDataParam
	}

	properties := make(map[string]any)
	var required []string
	var fields []fieldDescriptor

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		name, omitempty := jsonFieldName(f)
		if name == "-" {
			continue
		}
		isPointer := f.Type.Kind() == reflect.Ptr
		req := !omitempty && !isPointer
		properties[name] = schemaForType(f.Type)
		fields = append(fields, fieldDescriptor{jsonName: name, required: req})
		if req {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, err
	}
	return raw, fields, nil
}

func jsonFieldName(f reflect.StructField) (name string, omitempty bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = f.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func schemaForType(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": schemaForType(t.Elem())}
	case reflect.Map, reflect.Struct:
		return map[string]any{"type": "object"}
	default:
		return map[string]any{}
	}
}
