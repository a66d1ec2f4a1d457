package prompt

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/goliatone/go-formsubmit/pkg/formstate"
	"github.com/goliatone/go-formsubmit/pkg/payload"
	"github.com/goliatone/go-formsubmit/pkg/schema"
)

// Field describes one prompt.
type Field struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Options  []string
}

// Collect prompts for fields and stores the answers in state as form strings,
// so the schema coerces them exactly like a browser submission. When only is
// non-empty, just those fields are asked again. A field's current client error
// is shown in its prompt.
func Collect(ctx context.Context, driver Driver, state *formstate.State, fields []Field, only ...string) error {
	for _, field := range fields {
		if len(only) > 0 && !slices.Contains(only, field.Name) {
			continue
		}
		answer, err := ask(ctx, driver, state, field)
		if err != nil {
			return fmt.Errorf("prompt %s: %w", field.Name, err)
		}
		state.SetValue(field.Name, answer)
	}
	return nil
}

// Interactive collects every field, validates with schema and re-asks the
// fields that carry errors, up to attempts rounds.
func Interactive[T any](ctx context.Context, driver Driver, state *formstate.State, schema payload.Schema[T], fields []Field, attempts int) (payload.Result[T], error) {
	if attempts < 1 {
		attempts = 1
	}
	var (
		result payload.Result[T]
		only   []string
	)
	for round := 0; round < attempts; round++ {
		if err := Collect(ctx, driver, state, fields, only...); err != nil {
			return result, err
		}
		var err error
		result, err = formstate.Submit(ctx, state, schema, nil)
		if err != nil || result.OK {
			return result, err
		}
		only = only[:0]
		for _, field := range fields {
			if _, invalid := state.ErrorMap().Lookup(field.Name); invalid {
				only = append(only, field.Name)
			}
		}
		if len(only) == 0 {
			return result, nil
		}
		if err := driver.Info(ctx, fmt.Sprintf("%d field(s) need attention", len(only))); err != nil {
			return result, err
		}
	}
	return result, nil
}

func ask(ctx context.Context, driver Driver, state *formstate.State, field Field) (string, error) {
	message := field.Label
	if message == "" {
		message = field.Name
	}
	if field.Required {
		message += " *"
	}
	help := ""
	if found, ok := state.ErrorMap().Lookup(field.Name); ok {
		help = found.Message
		message += " (" + found.Message + ")"
	}
	current := ""
	if value, ok := state.Value(field.Name); ok && value != nil {
		current = fmt.Sprint(value)
	}

	switch {
	case len(field.Options) > 0:
		idx, err := driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      field.Options,
			DefaultIndex: indexOf(field.Options, current),
			Help:         help,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(field.Options) {
			return "", nil
		}
		return field.Options[idx], nil
	case field.Type == "password":
		return driver.Password(ctx, InputConfig{Message: message, Help: help})
	case field.Type == "checkbox":
		def, _ := strconv.ParseBool(current)
		yes, err := driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: help})
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(yes), nil
	case field.Type == "textarea":
		return driver.TextArea(ctx, InputConfig{Message: message, Default: current, Help: help})
	default:
		return driver.Input(ctx, InputConfig{Message: message, Default: current, Help: help})
	}
}

// FieldsFor lists s's properties as prompts in declaration order.
func FieldsFor(s *schema.Schema) []Field {
	required := s.Required()
	fields := make([]Field, 0, len(s.Fields()))
	for _, name := range s.Fields() {
		fields = append(fields, Field{
			Name:     name,
			Label:    s.Label(name),
			Type:     s.InputType(name),
			Required: slices.Contains(required, name),
			Options:  s.Options(name),
		})
	}
	return fields
}
