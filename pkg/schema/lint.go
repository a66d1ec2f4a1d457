package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// messageKeywords are the validation keywords an x-messages entry may target.
var messageKeywords = []string{
	"enum", "exclusiveMaximum", "exclusiveMinimum", "format", "maxItems",
	"maxLength", "maximum", "minItems", "minLength", "minimum", "multipleOf",
	"pattern", "required", "type", "uniqueItems",
}

// inputTypes are the values accepted by x-input.
var inputTypes = []string{
	"checkbox", "color", "date", "datetime-local", "email", "file", "hidden",
	"month", "number", "password", "radio", "range", "search", "select", "tel",
	"text", "textarea", "time", "url", "week",
}

// Violation is one lint finding.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + " -> " + v.Message
}

// Lint checks the presentation and message extensions of every property and
// returns the findings ordered by field.
func (s *Schema) Lint() []Violation {
	var result []Violation
	fields := s.Fields()
	sort.Strings(fields)
	for _, field := range fields {
		prop, _ := s.Property(field)
		if raw, ok := prop.Extensions[InputExtension]; ok {
			result = append(result, lintInput(field, raw)...)
		}
		if raw, ok := prop.Extensions[MessagesExtension]; ok {
			result = append(result, lintMessages(field, raw)...)
		}
	}
	return result
}

func lintInput(field string, raw any) []Violation {
	value, ok := raw.(string)
	if !ok {
		return []Violation{{Field: field, Message: fmt.Sprintf("%s must be a string, found %T", InputExtension, raw)}}
	}
	if !slices.Contains(inputTypes, value) {
		return []Violation{{Field: field, Message: fmt.Sprintf("unsupported %s %q", InputExtension, value)}}
	}
	return nil
}

func lintMessages(field string, raw any) []Violation {
	nested, ok := raw.(map[string]any)
	if !ok {
		return []Violation{{Field: field, Message: fmt.Sprintf("%s must be an object, found %T", MessagesExtension, raw)}}
	}
	keys := make([]string, 0, len(nested))
	for key := range nested {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result []Violation
	for _, key := range keys {
		if !slices.Contains(messageKeywords, key) {
			result = append(result, Violation{
				Field:   field,
				Message: fmt.Sprintf("unsupported %s keyword %q (supported: %s)", MessagesExtension, key, strings.Join(messageKeywords, ", ")),
			})
			continue
		}
		if _, ok := nested[key].(string); !ok {
			result = append(result, Violation{
				Field:   field,
				Message: fmt.Sprintf("%s.%s must be a string, found %T", MessagesExtension, key, nested[key]),
			})
		}
	}
	return result
}
