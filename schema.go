package cadence

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// SchemaFor generates a JSON Schema object for the struct type T, for use as
// a tool's Parameters. Field names come from json tags; `desc` tags become
// property descriptions; `required:"true"` adds the field to the required
// list; `enum:"a,b,c"` constrains string fields.
func SchemaFor[T any]() (json.RawMessage, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	node := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	if t == nil || t.Kind() != reflect.Struct {
		return json.Marshal(node)
	}

	props := node["properties"].(map[string]any)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := strings.Split(jsonTag, ",")[0]
		if name == "" {
			name = field.Name
		}

		prop := typeToSchema(field.Type)
		if desc := field.Tag.Get("desc"); desc != "" {
			prop["description"] = desc
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			vals := strings.Split(enum, ",")
			anyVals := make([]any, len(vals))
			for j, v := range vals {
				anyVals[j] = v
			}
			prop["enum"] = anyVals
		}
		if req, _ := strconv.ParseBool(field.Tag.Get("required")); req {
			required = append(required, name)
		}
		props[name] = prop
	}

	if len(required) > 0 {
		node["required"] = required
	}
	return json.Marshal(node)
}

// MustSchemaFor is like SchemaFor but panics on error.
func MustSchemaFor[T any]() json.RawMessage {
	schema, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return schema
}

func typeToSchema(t reflect.Type) map[string]any {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": typeToSchema(t.Elem())}
	case reflect.Struct:
		props := map[string]any{}
		var required []string
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := strings.Split(field.Tag.Get("json"), ",")[0]
			if name == "" {
				name = field.Name
			}
			if name == "-" {
				continue
			}
			props[name] = typeToSchema(field.Type)
			if req, _ := strconv.ParseBool(field.Tag.Get("required")); req {
				required = append(required, name)
			}
		}
		node := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			node["required"] = required
		}
		return node
	case reflect.Map:
		return map[string]any{"type": "object"}
	default:
		return map[string]any{"type": "string"}
	}
}
