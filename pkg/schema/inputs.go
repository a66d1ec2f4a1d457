package schema

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/getkin/kin-openapi/openapi3"
)

// InputExtension overrides the HTML input type chosen for a property.
const InputExtension = "x-input"

// Label returns the property's title, or the field name with its first letter
// upper-cased and underscores turned into spaces.
func (s *Schema) Label(field string) string {
	if prop, ok := s.Property(field); ok && prop.Title != "" {
		return prop.Title
	}
	label := strings.ReplaceAll(field, "_", " ")
	r, size := utf8.DecodeRuneInString(label)
	if size == 0 {
		return label
	}
	return string(unicode.ToUpper(r)) + label[size:]
}

// InputType returns the HTML input type for a property.
func (s *Schema) InputType(field string) string {
	prop, ok := s.Property(field)
	if !ok {
		return "text"
	}
	if input, ok := prop.Extensions[InputExtension].(string); ok && input != "" {
		return input
	}
	switch {
	case prop.Format == "password" || prop.WriteOnly:
		return "password"
	case prop.Format == "binary":
		return "file"
	case prop.Format == "email", prop.Format == "date", prop.Format == "url":
		return prop.Format
	case hasType(prop, openapi3.TypeBoolean):
		return "checkbox"
	case hasType(prop, openapi3.TypeInteger), hasType(prop, openapi3.TypeNumber):
		return "number"
	case prop.MaxLength != nil && *prop.MaxLength > 255:
		return "textarea"
	}
	return "text"
}

// Options lists a property's enum values formatted as strings.
func (s *Schema) Options(field string) []string {
	prop, ok := s.Property(field)
	if !ok || len(prop.Enum) == 0 {
		return nil
	}
	out := make([]string, 0, len(prop.Enum))
	for _, value := range prop.Enum {
		out = append(out, fmt.Sprint(value))
	}
	return out
}
