package overlay

import (
	"reflect"

	"github.com/goliatone/go-formsubmit/pkg/issue"
)

// FormState is the client form-state contract the overlay decorates.
type FormState interface {
	Values() map[string]any
	Errors() ClientErrors
	IsSubmitted() bool
	IsValid() bool
	Dirty(field string) bool
}

// State is a FormState whose Errors() answer with the overlay. Every other
// method is the wrapped state's own.
type State struct {
	FormState
	overlay *Overlay
}

// Wrap decorates state so Errors() merges in report. The overlay reads
// state.Errors() on every lookup, so it follows the state even when the state
// swaps its error container. A nil state, including a nil pointer, reads as a
// pristine form.
func Wrap(state FormState, report *issue.Report) *State {
	if isNil(state) {
		state = emptyState{}
	}
	return &State{
		FormState: state,
		overlay:   New(liveErrors{state: state}, report),
	}
}

// Errors returns the merged error view.
func (s *State) Errors() ClientErrors {
	return s.overlay
}

// Overlay returns the merged error view with its full method set.
func (s *State) Overlay() *Overlay {
	return s.overlay
}

type liveErrors struct {
	state FormState
}

func (l liveErrors) Lookup(field string) (issue.FieldError, bool) {
	errs := l.state.Errors()
	if errs == nil {
		return issue.FieldError{}, false
	}
	return errs.Lookup(field)
}

func isNil(state FormState) bool {
	if state == nil {
		return true
	}
	v := reflect.ValueOf(state)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		return v.IsNil()
	}
	return false
}

type emptyState struct{}

func (emptyState) Values() map[string]any { return map[string]any{} }
func (emptyState) Errors() ClientErrors   { return nil }
func (emptyState) IsSubmitted() bool      { return false }
func (emptyState) IsValid() bool          { return true }
func (emptyState) Dirty(string) bool      { return false }
