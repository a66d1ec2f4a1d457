package schema

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formsubmit/pkg/issue"
)

// Issue codes. They follow the vocabulary zod uses so clients written against
// zod error codes keep working.
const (
	CodeInvalidType   = "invalid_type"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeInvalidString = "invalid_string"
	CodeInvalidEnum   = "invalid_enum_value"
	CodeNotMultipleOf = "not_multiple_of"
	CodeCustom        = issue.CodeCustom
)

// MessagesExtension is the property extension holding per-keyword messages.
const MessagesExtension = "x-messages"

func (s *Schema) issues(err error) []issue.FieldIssue {
	var out []issue.FieldIssue
	s.collect(err, &out)
	sort.SliceStable(out, func(i, j int) bool {
		return s.rankOf(out[i]) < s.rankOf(out[j])
	})
	return out
}

func (s *Schema) collect(err error, out *[]issue.FieldIssue) {
	switch e := err.(type) {
	case nil:
		return
	case openapi3.MultiError:
		for _, inner := range e {
			s.collect(inner, out)
		}
	case *openapi3.SchemaError:
		*out = append(*out, s.fromSchemaError(e))
	default:
		var schemaErr *openapi3.SchemaError
		if errors.As(err, &schemaErr) {
			*out = append(*out, s.fromSchemaError(schemaErr))
			return
		}
		*out = append(*out, issue.FieldIssue{Path: issue.Path{}, Code: CodeCustom, Message: err.Error()})
	}
}

// rankOf orders field issues by declaration. Unlisted fields follow, and
// form-level issues come last.
func (s *Schema) rankOf(found issue.FieldIssue) int {
	head, ok := found.Field()
	if !ok {
		return len(s.order) + 1
	}
	if rank, ok := s.rank[head]; ok {
		return rank
	}
	return len(s.order)
}

func (s *Schema) fromSchemaError(e *openapi3.SchemaError) issue.FieldIssue {
	pointer := e.JSONPointer()
	if e.SchemaField == "required" && len(pointer) == 0 {
		if missing, ok := missingProperty(e.Reason); ok {
			pointer = []string{missing}
		}
	}
	path := issue.PointerPath(pointer)
	code, message := describe(e)
	if custom, ok := s.customMessage(pointer, e.SchemaField); ok {
		message = custom
	}
	return issue.FieldIssue{Path: path, Code: code, Message: message}
}

// customMessage looks up WithMessage overrides first, then the x-messages
// extension on the failing property.
func (s *Schema) customMessage(pointer []string, keyword string) (string, bool) {
	field := issue.PointerPath(pointer).String()
	if message, ok := s.messages[field][keyword]; ok {
		return message, true
	}
	prop := s.at(pointer)
	if prop == nil {
		return "", false
	}
	raw, ok := prop.Extensions[MessagesExtension].(map[string]any)
	if !ok {
		return "", false
	}
	message, ok := raw[keyword].(string)
	return message, ok
}

// at walks the root schema along a JSON pointer of property names and array
// indexes.
func (s *Schema) at(pointer []string) *openapi3.Schema {
	current := s.root
	for _, token := range pointer {
		if current == nil {
			return nil
		}
		if hasType(current, openapi3.TypeArray) && current.Items != nil {
			if _, err := strconv.Atoi(token); err == nil {
				current = current.Items.Value
				continue
			}
		}
		ref, ok := current.Properties[token]
		if !ok || ref == nil {
			return nil
		}
		current = ref.Value
	}
	return current
}

func describe(e *openapi3.SchemaError) (string, string) {
	target := e.Schema
	if target == nil {
		target = &openapi3.Schema{}
	}
	switch e.SchemaField {
	case "required":
		return CodeInvalidType, "Required"
	case "type", "nullable":
		return CodeInvalidType, fmt.Sprintf("Expected %s, received %s", strings.Join(typesOf(target), " | "), kindOf(e.Value))
	case "minLength":
		return CodeTooSmall, fmt.Sprintf("String must contain at least %d character(s)", target.MinLength)
	case "maxLength":
		return CodeTooBig, fmt.Sprintf("String must contain at most %d character(s)", deref(target.MaxLength))
	case "minItems":
		return CodeTooSmall, fmt.Sprintf("Array must contain at least %d element(s)", target.MinItems)
	case "maxItems":
		return CodeTooBig, fmt.Sprintf("Array must contain at most %d element(s)", deref(target.MaxItems))
	case "minimum":
		return CodeTooSmall, "Number must be greater than or equal to " + formatNumber(target.Min)
	case "maximum":
		return CodeTooBig, "Number must be less than or equal to " + formatNumber(target.Max)
	case "multipleOf":
		return CodeNotMultipleOf, "Number must be a multiple of " + formatNumber(target.MultipleOf)
	case "pattern":
		return CodeInvalidString, "Invalid"
	case "format":
		if target.Format != "" {
			return CodeInvalidString, "Invalid " + target.Format
		}
		return CodeInvalidString, "Invalid"
	case "enum":
		options := make([]string, 0, len(target.Enum))
		for _, option := range target.Enum {
			options = append(options, fmt.Sprintf("'%v'", option))
		}
		return CodeInvalidEnum, fmt.Sprintf("Invalid enum value. Expected %s, received '%v'", strings.Join(options, " | "), e.Value)
	}
	if e.Reason != "" {
		return CodeCustom, e.Reason
	}
	return CodeCustom, "Invalid input"
}

func missingProperty(reason string) (string, bool) {
	start := strings.IndexByte(reason, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(reason[start+1:], '"')
	if end < 0 {
		return "", false
	}
	return reason[start+1 : start+1+end], true
}

func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", value)
}

func deref(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

func formatNumber(v *float64) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
