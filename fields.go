package directives

import (
	"fmt"
	"sort"
	"strings"
)

// FieldDescriptor describes a dotted payload path and the inferred type of its
// value. Editors use descriptors to build override forms.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// DescribeFields flattens payload into descriptors sorted by path. Nested
// maps are expanded; slices are reported as a single "[]<elem>" entry.
func DescribeFields(payload map[string]any) []FieldDescriptor {
	descriptors := deriveFieldDescriptors(payload, "")
	if descriptors == nil {
		return []FieldDescriptor{}
	}
	return descriptors
}

// DescribeDescriptor returns content descriptors prefixed "content." followed
// by settings descriptors prefixed "settings.".
func DescribeDescriptor(d RenderDescriptor) []FieldDescriptor {
	fields := deriveFieldDescriptors(d.Content, "content")
	fields = append(fields, deriveFieldDescriptors(d.Settings, "settings")...)
	if fields == nil {
		return []FieldDescriptor{}
	}
	return fields
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	if value == nil {
		return nil
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []FieldDescriptor{{
				Path: prefix,
				Type: "object",
			}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			nextPrefix := joinPath(prefix, key)
			if typed[key] == nil {
				fields = append(fields, FieldDescriptor{Path: nextPrefix, Type: "null"})
				continue
			}
			fields = append(fields, deriveFieldDescriptors(typed[key], nextPrefix)...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: "[]" + elementType,
		}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: typeName(typed),
		}}
	}
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
