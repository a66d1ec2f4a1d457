package formstate

import (
	"context"
	"errors"
	"maps"
	"reflect"

	"github.com/goliatone/go-formsubmit/pkg/issue"
	"github.com/goliatone/go-formsubmit/pkg/overlay"
	"github.com/goliatone/go-formsubmit/pkg/payload"
)

// RootField keys issues that are not attached to a named field.
const RootField = "root"

// ErrNilState is returned by Validate and Submit when called without a state.
var ErrNilState = errors.New("formstate: state is required")

// State holds the values and live errors of one form. It is not safe for
// concurrent use; a form is edited from a single goroutine. The read methods
// treat a nil *State as a pristine form with no errors.
type State struct {
	defaults    map[string]any
	values      map[string]any
	errors      overlay.ErrorMap
	touched     map[string]struct{}
	submitCount int
}

// New returns a pristine state seeded with defaults.
func New(defaults map[string]any) *State {
	return &State{
		defaults: maps.Clone(nonNil(defaults)),
		values:   maps.Clone(nonNil(defaults)),
		errors:   overlay.ErrorMap{},
		touched:  map[string]struct{}{},
	}
}

// Values returns a copy of the current values.
func (s *State) Values() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return maps.Clone(s.values)
}

// Value returns the current value of field.
func (s *State) Value(field string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[field]
	return v, ok
}

// SetValue stores value for field and marks the field as touched.
func (s *State) SetValue(field string, value any) {
	s.values[field] = value
	s.touched[field] = struct{}{}
}

// Dirty reports whether field was edited and now differs from its default.
func (s *State) Dirty(field string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.touched[field]; !ok {
		return false
	}
	return !reflect.DeepEqual(s.values[field], s.defaults[field])
}

// Errors exposes the live client error map.
func (s *State) Errors() overlay.ClientErrors {
	if s == nil {
		return nil
	}
	return s.errors
}

// ErrorMap returns the live client error map itself. Writes to it are visible
// to every overlay built over this state.
func (s *State) ErrorMap() overlay.ErrorMap {
	return s.errors
}

// SetError records a client error for field.
func (s *State) SetError(field string, err issue.FieldError) {
	s.errors.Set(field, err)
}

// ClearErrors removes errors for fields, or every error when none are given.
func (s *State) ClearErrors(fields ...string) {
	s.errors.Clear(fields...)
}

// IsSubmitted reports whether Submit ran at least once.
func (s *State) IsSubmitted() bool {
	return s.SubmitCount() > 0
}

// SubmitCount returns how many times Submit ran.
func (s *State) SubmitCount() int {
	if s == nil {
		return 0
	}
	return s.submitCount
}

// IsValid reports whether the live error map is empty.
func (s *State) IsValid() bool {
	return s == nil || len(s.errors) == 0
}

// Reset restores defaults and clears errors, dirty tracking and the submit
// count. The error map keeps its identity so existing overlays stay attached.
func (s *State) Reset() {
	s.values = maps.Clone(s.defaults)
	s.touched = map[string]struct{}{}
	s.errors.Clear()
	s.submitCount = 0
}

var _ overlay.FormState = (*State)(nil)

// Validate runs schema over the current values and writes the outcome into the
// live error map. With no fields every error is replaced; otherwise only the
// named fields are re-validated and other errors are left alone. The first
// issue per field wins, matching the overlay's server fallback.
func Validate[T any](ctx context.Context, s *State, schema payload.Schema[T], fields ...string) (payload.Result[T], error) {
	if s == nil {
		return payload.Result[T]{}, ErrNilState
	}
	result, err := payload.DecodeMap(ctx, schema, s.Values())
	if err != nil {
		return result, err
	}

	scoped := len(fields) > 0
	wanted := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		wanted[field] = struct{}{}
	}
	s.errors.Clear(fields...)

	for _, found := range result.Issues {
		field, ok := found.Field()
		if !ok {
			field = RootField
		}
		if _, ok := wanted[field]; scoped && !ok {
			continue
		}
		if _, exists := s.errors[field]; exists {
			continue
		}
		s.errors.Set(field, found.FieldError())
	}
	return result, nil
}

// Submit marks the form as submitted, validates every field and calls onValid
// with the typed value when validation passes.
func Submit[T any](ctx context.Context, s *State, schema payload.Schema[T], onValid func(context.Context, T) error) (payload.Result[T], error) {
	if s == nil {
		return payload.Result[T]{}, ErrNilState
	}
	s.submitCount++
	result, err := Validate(ctx, s, schema)
	if err != nil || !result.OK || onValid == nil {
		return result, err
	}
	return result, onValid(ctx, result.Value)
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
