package schema

import (
	"mime/multipart"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// prepare turns a flattened submission into the value handed to the
// validator. It returns the prepared map and the original file values, keyed by
// field, to restore once validation passes.
func (s *Schema) prepare(data map[string]any) (map[string]any, map[string]any) {
	out := make(map[string]any, len(data))
	files := map[string]any{}
	for key, value := range data {
		prop, declared := s.Property(key)
		if !declared && !s.keepUnknown {
			continue
		}
		if isFile(value) {
			files[key] = value
		}
		coerced, keep := coerce(prop, value)
		if keep {
			out[key] = coerced
		}
	}
	return out, files
}

// coerce converts a submitted value to prop's declared type. Values that cannot
// be converted are passed through so the validator reports the type mismatch.
// Empty strings for non-string properties are dropped, which makes an unfilled
// optional number or boolean absent rather than invalid.
func coerce(prop *openapi3.Schema, value any) (any, bool) {
	switch v := value.(type) {
	case *multipart.FileHeader:
		if v == nil {
			return nil, false
		}
		return coerce(prop, v.Filename)
	case []any:
		if !hasType(prop, openapi3.TypeArray) {
			return v, true
		}
		var items *openapi3.Schema
		if prop.Items != nil {
			items = prop.Items.Value
		}
		out := make([]any, 0, len(v))
		for _, item := range v {
			if coerced, keep := coerce(items, item); keep {
				out = append(out, coerced)
			}
		}
		return out, true
	case string:
		return coerceString(prop, v)
	default:
		return value, true
	}
}

func coerceString(prop *openapi3.Schema, value string) (any, bool) {
	types := typesOf(prop)
	if len(types) == 0 || slices.Contains(types, openapi3.TypeString) {
		return value, true
	}
	if value == "" {
		return nil, false
	}
	for _, typ := range types {
		switch typ {
		case openapi3.TypeInteger, openapi3.TypeNumber:
			if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				return n, true
			}
		case openapi3.TypeBoolean:
			if b, ok := parseBool(value); ok {
				return b, true
			}
		case openapi3.TypeArray:
			var items *openapi3.Schema
			if prop.Items != nil {
				items = prop.Items.Value
			}
			coerced, keep := coerce(items, value)
			if !keep {
				return []any{}, true
			}
			return []any{coerced}, true
		}
	}
	return value, true
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "on", "1", "yes":
		return true, true
	case "false", "off", "0", "no":
		return false, true
	}
	return false, false
}

func hasType(prop *openapi3.Schema, typ string) bool {
	return slices.Contains(typesOf(prop), typ)
}
