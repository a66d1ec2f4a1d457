package action

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goliatone/go-formsubmit/pkg/issue"
	"github.com/goliatone/go-formsubmit/pkg/overlay"
)

// Renderer writes a form page.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, view View) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, w io.Writer, view View) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, w io.Writer, view View) error {
	return f(ctx, w, view)
}

// View is everything a template needs to draw the form.
type View struct {
	Title   string
	Action  string
	Method  string
	Enctype string
	Status  int
	Fields  []Field
	Hidden  []HiddenField
	// FormErrors holds messages not attached to a named field.
	FormErrors []string
	Report     *issue.Report
	Errors     *overlay.Overlay
}

// Field describes one visible input.
type Field struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	Value     any    `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

// Invalid reports whether the field carries an error.
func (f Field) Invalid() bool {
	return f.Error != ""
}

// ErrorFor returns the effective error message for field.
func (v View) ErrorFor(field string) string {
	return v.Errors.Message(field)
}

// HiddenField represents a hidden form input emitted alongside the visible
// fields, such as a CSRF token.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken constructs a hidden field carrying token under name ("_csrf",
// "csrf_token", ...).
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// mergeHidden drops empty names, lets later fields win on collisions and
// returns the result sorted by name.
func mergeHidden(groups ...[]HiddenField) []HiddenField {
	merged := map[string]string{}
	for _, group := range groups {
		for _, field := range group {
			name := strings.TrimSpace(field.Name)
			if name == "" {
				continue
			}
			merged[name] = field.Value
		}
	}
	if len(merged) == 0 {
		return nil
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: merged[name]})
	}
	return out
}
