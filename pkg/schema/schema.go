package schema

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"mime/multipart"
	"slices"
	"sort"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formsubmit/pkg/payload"
)

// ErrNoSchema is returned when New receives a nil root schema.
var ErrNoSchema = errors.New("schema: root schema is required")

// Schema validates flattened form submissions against an object schema.
// It is immutable after construction and safe for concurrent use.
type Schema struct {
	name        string
	root        *openapi3.Schema
	order       []string
	rank        map[string]int
	keepUnknown bool
	messages    map[string]map[string]string
}

var _ payload.Schema[map[string]any] = (*Schema)(nil)

// Option customises a Schema.
type Option func(*Schema)

// WithName labels the schema for registries and error messages.
func WithName(name string) Option {
	return func(s *Schema) {
		s.name = name
	}
}

// WithFieldOrder fixes the order issues are reported in. Fields not listed sort
// after the listed ones.
func WithFieldOrder(fields ...string) Option {
	return func(s *Schema) {
		s.order = slices.Clone(fields)
	}
}

// WithUnknownFields keeps submitted keys the schema does not declare instead of
// dropping them from the validated value.
func WithUnknownFields(keep bool) Option {
	return func(s *Schema) {
		s.keepUnknown = keep
	}
}

// WithMessage overrides the message for keyword (minLength, required, type,
// ...) on field. It takes precedence over x-messages.
func WithMessage(field, keyword, message string) Option {
	return func(s *Schema) {
		if s.messages == nil {
			s.messages = map[string]map[string]string{}
		}
		if s.messages[field] == nil {
			s.messages[field] = map[string]string{}
		}
		s.messages[field][keyword] = message
	}
}

// New wraps an object schema. Without WithFieldOrder, issues are ordered by the
// required list followed by the remaining properties in name order; Load and
// FromOpenAPI supply the declared order from the document instead.
func New(root *openapi3.Schema, opts ...Option) (*Schema, error) {
	if root == nil {
		return nil, ErrNoSchema
	}
	types := typesOf(root)
	if len(types) > 0 && !slices.Contains(types, openapi3.TypeObject) {
		return nil, fmt.Errorf("schema: root must be an object schema, got %v", types)
	}

	s := &Schema{root: root}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if len(s.order) == 0 {
		s.order = defaultOrder(root)
	}
	s.rank = make(map[string]int, len(s.order))
	for idx, field := range s.order {
		if _, exists := s.rank[field]; !exists {
			s.rank[field] = idx
		}
	}
	return s, nil
}

// MustNew panics if New fails. Useful for package-level schemas.
func MustNew(root *openapi3.Schema, opts ...Option) *Schema {
	s, err := New(root, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema label.
func (s *Schema) Name() string {
	return s.name
}

// OpenAPI returns the wrapped kin-openapi schema.
func (s *Schema) OpenAPI() *openapi3.Schema {
	return s.root
}

// Fields lists the declared properties in issue order.
func (s *Schema) Fields() []string {
	out := make([]string, 0, len(s.root.Properties))
	seen := make(map[string]struct{}, len(s.root.Properties))
	for _, field := range s.order {
		if _, ok := s.root.Properties[field]; ok {
			out = append(out, field)
			seen[field] = struct{}{}
		}
	}
	for _, field := range sortedProperties(s.root) {
		if _, ok := seen[field]; !ok {
			out = append(out, field)
		}
	}
	return out
}

// Required lists the required properties as declared.
func (s *Schema) Required() []string {
	return slices.Clone(s.root.Required)
}

// Property returns the schema of a declared property.
func (s *Schema) Property(field string) (*openapi3.Schema, bool) {
	ref, ok := s.root.Properties[field]
	if !ok || ref == nil || ref.Value == nil {
		return nil, false
	}
	return ref.Value, true
}

// Validate coerces, defaults and validates data. The input map is not
// modified. Uploaded files are validated by file name and returned as the
// original *multipart.FileHeader.
func (s *Schema) Validate(ctx context.Context, data map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prepared, files := s.prepare(data)
	prepared, err := s.applyDefaults(prepared)
	if err != nil {
		return nil, err
	}

	if err := s.root.VisitJSON(prepared, openapi3.MultiErrors()); err != nil {
		return nil, payload.NewValidationError(s.issues(err)...)
	}

	maps.Copy(prepared, files)
	return prepared, nil
}

func (s *Schema) applyDefaults(data map[string]any) (map[string]any, error) {
	defaults := map[string]any{}
	for name, ref := range s.root.Properties {
		if ref == nil || ref.Value == nil || ref.Value.Default == nil {
			continue
		}
		if _, present := data[name]; present {
			continue
		}
		defaults[name] = ref.Value.Default
	}
	if len(defaults) == 0 {
		return data, nil
	}

	original, err := sonic.ConfigStd.Marshal(defaults)
	if err != nil {
		return nil, fmt.Errorf("schema: encode defaults: %w", err)
	}
	patch, err := sonic.ConfigStd.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("schema: encode submission: %w", err)
	}
	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, fmt.Errorf("schema: apply defaults: %w", err)
	}

	out := map[string]any{}
	if err := sonic.ConfigStd.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("schema: decode defaults: %w", err)
	}
	return out, nil
}

// TypedSchema is a Schema whose Validate produces T. The validated map is
// converted to T through its JSON encoding, so T's json tags apply. Field
// metadata (Fields, Label, InputType) is promoted from the wrapped Schema.
type TypedSchema[T any] struct {
	*Schema
}

// Typed adapts s to a payload.Schema producing T.
func Typed[T any](s *Schema) TypedSchema[T] {
	return TypedSchema[T]{Schema: s}
}

// Validate validates data and decodes the result into T.
func (t TypedSchema[T]) Validate(ctx context.Context, data map[string]any) (T, error) {
	var out T
	value, err := t.Schema.Validate(ctx, data)
	if err != nil {
		return out, err
	}
	raw, err := sonic.ConfigStd.Marshal(value)
	if err != nil {
		return out, fmt.Errorf("schema: encode %s: %w", t.name, err)
	}
	if err := sonic.ConfigStd.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("schema: decode into %T: %w", out, err)
	}
	return out, nil
}

func defaultOrder(root *openapi3.Schema) []string {
	order := make([]string, 0, len(root.Properties))
	seen := make(map[string]struct{}, len(root.Properties))
	for _, field := range root.Required {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		order = append(order, field)
	}
	for _, field := range sortedProperties(root) {
		if _, ok := seen[field]; !ok {
			order = append(order, field)
		}
	}
	return order
}

func sortedProperties(root *openapi3.Schema) []string {
	names := make([]string, 0, len(root.Properties))
	for name := range root.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func typesOf(s *openapi3.Schema) []string {
	if s == nil || s.Type == nil {
		return nil
	}
	return s.Type.Slice()
}

func isFile(value any) bool {
	switch v := value.(type) {
	case *multipart.FileHeader:
		return v != nil
	case []any:
		for _, item := range v {
			if isFile(item) {
				return true
			}
		}
	}
	return false
}
